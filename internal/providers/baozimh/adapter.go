// Package baozimh reads series from baozimh and its twmanga mirror. Long
// chapters there are split into sections chained by a "下一頁" link.
package baozimh

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/brogergvhs/comicwalk/internal/pagination"
	"github.com/brogergvhs/comicwalk/internal/providers"
	"github.com/brogergvhs/comicwalk/internal/ui"
)

const (
	Name         = "baozimh"
	AdvanceLabel = "下一頁"
)

var domains = []string{"www.baozimh.com", "www.twmanga.com"}

type Options struct {
	Loader      pagination.Loader
	MaxSections int
	Log         logrus.Ext1FieldLogger
}

type Adapter struct {
	engine   *pagination.Engine
	detector pagination.Detector
	log      logrus.Ext1FieldLogger
}

func New(opts Options) *Adapter {
	log := opts.Log
	if log == nil {
		log = ui.DiscardLogger()
	}
	log = log.WithField("site", Name)

	detector := pagination.Detector{
		TitleSelector: "h1.chapter-title",
		NavSelector:   "a.next-page",
		AdvanceLabel:  AdvanceLabel,
	}

	return &Adapter{
		detector: detector,
		log:      log,
		engine: pagination.NewEngine(pagination.Options{
			Loader:      opts.Loader,
			Detector:    detector,
			Extractor:   pagination.ExtractorFunc(extractImages),
			Next:        pagination.LabelLink("a[href]", AdvanceLabel),
			MaxSections: opts.MaxSections,
			Log:         log,
		}),
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Domains() []string {
	return append([]string(nil), domains...)
}

func (a *Adapter) Title(doc *goquery.Document, _ string) (string, error) {
	title := strings.TrimSpace(doc.Find("h1.comics-detail__title").First().Text())
	if title == "" {
		return "", providers.ErrTitleNotFound
	}

	return title, nil
}

// Episodes lists the chapter cards of a series page.
func (a *Adapter) Episodes(_ context.Context, doc *goquery.Document, pageURL string) ([]providers.Episode, error) {
	cards := doc.Find("div.comics-chapters")
	episodes := make([]providers.Episode, 0, cards.Length())

	cards.Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		abs, ok := pagination.ResolveURL(pageURL, href)
		if !ok {
			return
		}
		canonical := CanonicalURL(abs)
		if canonical == "" {
			return
		}
		if !HasComicID(abs) {
			a.log.WithFields(logrus.Fields{"href": abs, "url": canonical}).Warn("chapter link without comic id")
		}
		episodes = append(episodes, providers.Episode{
			Title: strings.TrimSpace(s.Find("span").First().Text()),
			URL:   canonical,
		})
	})

	return episodes, nil
}

// Images returns every image of the episode. Multi-section chapters are
// walked to the end; single-page chapters are read from doc alone.
func (a *Adapter) Images(ctx context.Context, doc *goquery.Document, pageURL string) (pagination.Result, error) {
	det := a.detector.Detect(doc)
	a.log.WithFields(logrus.Fields{
		"url":    pageURL,
		"format": det.Format.String(),
	}).Debug("chapter format detected")

	if det.Format == pagination.MultiSection {
		return a.engine.Walk(ctx, pageURL, doc)
	}

	urls, err := extractImages(ctx, doc, pageURL)
	if err != nil {
		return pagination.Result{}, fmt.Errorf("extract images: %w", err)
	}

	state := pagination.NewCrawlState()
	state.Add(urls...)

	return pagination.Result{
		Images:   state.Images(),
		Sections: []pagination.Section{{URL: pageURL, Index: det.Current, Total: det.Total}},
		Stop:     pagination.StopComplete,
	}, nil
}

// NextPage follows the plain "next" link of single-page chapters. Sectioned
// chapters report false, their sections being walked by Images.
func (a *Adapter) NextPage(doc *goquery.Document, pageURL string) (string, bool) {
	if a.detector.Detect(doc).Format == pagination.MultiSection {
		return "", false
	}

	href, ok := doc.Find("a.next[href]").First().Attr("href")
	if !ok {
		return "", false
	}

	return pagination.ResolveURL(pageURL, href)
}

func extractImages(_ context.Context, doc *goquery.Document, pageURL string) ([]string, error) {
	var out []string
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if !strings.Contains(src, "comic") {
			return
		}
		if u, ok := pagination.ResolveURL(pageURL, src); ok {
			out = append(out, u)
		}
	})

	return out, nil
}
