package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/brogergvhs/comicwalk/internal/ui"
)

var errNoLoader = errors.New("no page loader configured")

// DefaultMaxSections bounds a walk regardless of the total a page declares.
const DefaultMaxSections = 200

// Loader fetches and parses one page.
type Loader interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Extractor returns the image URLs of one section, in page order.
type Extractor interface {
	Extract(ctx context.Context, doc *goquery.Document, pageURL string) ([]string, error)
}

type ExtractorFunc func(ctx context.Context, doc *goquery.Document, pageURL string) ([]string, error)

func (f ExtractorFunc) Extract(ctx context.Context, doc *goquery.Document, pageURL string) ([]string, error) {
	return f(ctx, doc, pageURL)
}

// NoImages is the extractor of an engine configured without one.
var NoImages = ExtractorFunc(func(context.Context, *goquery.Document, string) ([]string, error) {
	return nil, nil
})

// Section describes one visited sub-page of an episode.
type Section struct {
	URL   string
	Index int
	Total int
}

// Stop is the reason a walk ended.
type Stop int

const (
	StopComplete Stop = iota
	StopCycle
	StopFetchFailed
	StopSectionCap
	StopCancelled
)

func (s Stop) String() string {
	switch s {
	case StopComplete:
		return "complete"
	case StopCycle:
		return "cycle-detected"
	case StopFetchFailed:
		return "fetch-failed"
	case StopSectionCap:
		return "section-cap"
	case StopCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("stop(%d)", int(s))
	}
}

// Result is the best achievable image list of one episode.
type Result struct {
	Images   []string
	Sections []Section
	Stop     Stop
	Note     string
	Degraded int
}

// Partial reports whether some content may be missing from Images.
func (r Result) Partial() bool {
	switch r.Stop {
	case StopFetchFailed, StopSectionCap, StopCancelled:
		return true
	}

	return r.Degraded > 0
}

type Options struct {
	Loader      Loader
	Detector    Detector
	Extractor   Extractor
	Next        NextFunc
	MaxSections int
	Log         logrus.Ext1FieldLogger
}

type Engine struct {
	loader      Loader
	detector    Detector
	extractor   Extractor
	next        NextFunc
	maxSections int
	log         logrus.Ext1FieldLogger
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		loader:      opts.Loader,
		detector:    opts.Detector,
		extractor:   opts.Extractor,
		next:        opts.Next,
		maxSections: opts.MaxSections,
		log:         opts.Log,
	}
	if e.maxSections <= 0 {
		e.maxSections = DefaultMaxSections
	}
	if e.extractor == nil {
		e.extractor = NoImages
	}
	if e.next == nil {
		e.next = NoNext
	}
	if e.log == nil {
		e.log = ui.DiscardLogger()
	}

	return e
}

func (e *Engine) fetch(ctx context.Context, u string) (*goquery.Document, error) {
	if e.loader == nil {
		return nil, errNoLoader
	}

	return e.loader.Fetch(ctx, u)
}

// Walk resolves the episode starting at startURL. first is the already fetched
// start page and may be nil. Fetch and extraction failures degrade the result
// instead of failing it; the only error returned is the context's.
func (e *Engine) Walk(ctx context.Context, startURL string, first *goquery.Document) (Result, error) {
	current, ok := ResolveURL(startURL, startURL)
	if !ok {
		current = startURL
	}

	state := NewCrawlState()
	res := Result{}
	log := e.log.WithField("episode", current)

	done := func(stop Stop, note string) Result {
		res.Images = state.Images()
		res.Stop = stop
		res.Note = note
		if res.Degraded > 0 {
			degraded := fmt.Sprintf("%d of %d sections yielded no images due to errors", res.Degraded, len(res.Sections))
			if res.Note == "" {
				res.Note = degraded
			} else {
				res.Note += "; " + degraded
			}
		}
		log.WithFields(logrus.Fields{
			"stop":     stop.String(),
			"sections": len(res.Sections),
			"images":   len(res.Images),
		}).Trace("walk finished")

		return res
	}

	for {
		if err := ctx.Err(); err != nil {
			return done(StopCancelled, "resolution cancelled between sections"), err
		}

		if state.Visited(current) {
			log.WithField("url", current).Trace("cycle detected")
			return done(StopCycle, fmt.Sprintf("cycle detected: %s was already visited", current)), nil
		}

		if len(res.Sections) >= e.maxSections {
			log.WithField("max_sections", e.maxSections).Warn("section cap reached, returning partial result")
			return done(StopSectionCap, fmt.Sprintf("stopped after %d sections without reaching the end", e.maxSections)), nil
		}

		state.Visit(current)
		seclog := log.WithFields(logrus.Fields{"section": len(res.Sections) + 1, "url": current})

		var doc *goquery.Document
		if len(res.Sections) == 0 && first != nil {
			doc = first
		} else {
			fetched, err := e.fetch(ctx, current)
			if err != nil {
				if ctx.Err() != nil {
					return done(StopCancelled, "resolution cancelled while fetching a section"), ctx.Err()
				}
				seclog.WithError(err).Warn("section fetch failed, returning partial result")
				return done(StopFetchFailed, fmt.Sprintf("fetch of %s failed: %v", current, err)), nil
			}
			doc = fetched
		}
		seclog.Trace("section fetched")

		det := e.detector.Detect(doc)
		res.Sections = append(res.Sections, Section{URL: current, Index: det.Current, Total: det.Total})

		urls, err := e.extractor.Extract(ctx, doc, current)
		if err != nil {
			if ctx.Err() != nil {
				return done(StopCancelled, "resolution cancelled while extracting a section"), ctx.Err()
			}
			res.Degraded++
			seclog.WithError(err).Warn("image extraction failed for section")
		}
		added := state.Add(urls...)
		seclog.WithFields(logrus.Fields{
			"index":    det.Current,
			"declared": det.Total,
			"found":    len(urls),
			"added":    added,
		}).Trace("section extracted")

		next, ok := e.next(doc, current)
		if !ok {
			seclog.Trace("no next section")
			return done(StopComplete, ""), nil
		}
		if next == current {
			seclog.Trace("next section points at itself")
			return done(StopComplete, ""), nil
		}
		seclog.WithField("next", next).Trace("advancing")
		current = next
	}
}
