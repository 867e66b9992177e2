package providers

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/comicwalk/internal/pagination"
)

var (
	ErrTitleNotFound          = errors.New("title not found")
	ErrEpisodeListUnavailable = errors.New("episode list unavailable")
	ErrUnsupportedSite        = errors.New("no adapter registered for host")
)

// Episode is one chapter of a series. URL is absolute.
type Episode struct {
	Title string
	URL   string
}

// Adapter is the capability set every supported site implements. All
// returned URLs are absolute, resolved against pageURL.
type Adapter interface {
	Name() string
	Domains() []string
	Title(doc *goquery.Document, pageURL string) (string, error)
	Episodes(ctx context.Context, doc *goquery.Document, pageURL string) ([]Episode, error)
	Images(ctx context.Context, doc *goquery.Document, pageURL string) (pagination.Result, error)
	// NextPage serves simple multi-page chapters only; multi-section
	// episodes are walked inside Images.
	NextPage(doc *goquery.Document, pageURL string) (string, bool)
}

// RefererSetter is implemented by sites whose images need a Referer header.
type RefererSetter interface {
	Referer() string
}
