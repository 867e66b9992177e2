package pagination_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/comicwalk/internal/pagination"
)

const advance = "下一頁"

type fakeLoader struct {
	pages map[string]string
	fail  map[string]error
	gen   func(url string) (string, bool)
	calls []string
}

func (f *fakeLoader) Fetch(_ context.Context, u string) (*goquery.Document, error) {
	f.calls = append(f.calls, u)
	if err, ok := f.fail[u]; ok {
		return nil, err
	}

	html, ok := f.pages[u]
	if !ok && f.gen != nil {
		html, ok = f.gen(u)
	}
	if !ok {
		return nil, fmt.Errorf("no page for %s", u)
	}

	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func sectionPage(title string, images []string, next string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, `<h1 class="chapter-title">%s</h1>`, title)
	for _, img := range images {
		fmt.Fprintf(&b, `<img src="%s">`, img)
	}
	if next != "" {
		fmt.Fprintf(&b, `<a class="next-page" href="%s">%s</a>`, next, advance)
	}
	b.WriteString("</body></html>")

	return b.String()
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	return doc
}

var imgExtractor = pagination.ExtractorFunc(func(_ context.Context, doc *goquery.Document, pageURL string) ([]string, error) {
	var out []string
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if u, ok := pagination.ResolveURL(pageURL, s.AttrOr("src", "")); ok {
			out = append(out, u)
		}
	})

	return out, nil
})

var testDetector = pagination.Detector{
	TitleSelector: "h1.chapter-title",
	NavSelector:   "a.next-page",
	AdvanceLabel:  advance,
}

func newEngine(loader pagination.Loader, opts ...func(*pagination.Options)) *pagination.Engine {
	o := pagination.Options{
		Loader:    loader,
		Detector:  testDetector,
		Extractor: imgExtractor,
		Next:      pagination.LabelLink("a[href]", advance),
	}
	for _, fn := range opts {
		fn(&o)
	}

	return pagination.NewEngine(o)
}
