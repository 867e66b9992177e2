// Package welovemanga reads series from welovemanga.one, whose chapter images
// are swapped in by script after the page has been scrolled.
package welovemanga

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/brogergvhs/comicwalk/internal/pagination"
	"github.com/brogergvhs/comicwalk/internal/providers"
	"github.com/brogergvhs/comicwalk/internal/render"
	"github.com/brogergvhs/comicwalk/internal/ui"
)

const (
	Name     = "welovemanga"
	Referer  = "https://welovemanga.one/"
	Sentinel = "lazy_loading.gif"

	imageSelector   = "img.chapter-img"
	chapterSelector = ".list-chapters a"

	DefaultEpisodeWait = 5 * time.Second
)

var domains = []string{"welovemanga.one"}

type Options struct {
	Opener render.Opener
	// Render tunes the image resolver. Selector and Sentinel are fixed by
	// the site and overwritten.
	Render      render.Options
	EpisodeWait time.Duration
	MaxSections int
	Log         logrus.Ext1FieldLogger
}

type Adapter struct {
	opener      render.Opener
	resolver    *render.Resolver
	episodeWait time.Duration
	maxSections int
	log         logrus.Ext1FieldLogger
}

func New(opts Options) *Adapter {
	log := opts.Log
	if log == nil {
		log = ui.DiscardLogger()
	}
	log = log.WithField("site", Name)

	ro := opts.Render
	ro.Selector = imageSelector
	ro.Sentinel = Sentinel
	ro.Log = log

	wait := opts.EpisodeWait
	if wait <= 0 {
		wait = DefaultEpisodeWait
	}

	return &Adapter{
		opener:      opts.Opener,
		resolver:    render.NewResolver(ro),
		episodeWait: wait,
		maxSections: opts.MaxSections,
		log:         log,
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Domains() []string {
	return append([]string(nil), domains...)
}

func (a *Adapter) Referer() string { return Referer }

func (a *Adapter) Title(doc *goquery.Document, _ string) (string, error) {
	title := strings.TrimSpace(doc.Find("ul.manga-info h3").First().Text())
	if title == "" {
		return "", providers.ErrTitleNotFound
	}

	return title, nil
}

// Episodes reads the chapter list from the static page when it is there and
// otherwise renders the page. A list that never appears yields no episodes.
func (a *Adapter) Episodes(ctx context.Context, doc *goquery.Document, pageURL string) ([]providers.Episode, error) {
	var episodes []providers.Episode
	doc.Find(chapterSelector).Each(func(_ int, s *goquery.Selection) {
		if ep, ok := episode(pageURL, s.AttrOr("title", ""), s.AttrOr("href", "")); ok {
			episodes = append(episodes, ep)
		}
	})
	if len(episodes) > 0 {
		return episodes, nil
	}

	if a.opener == nil {
		return nil, fmt.Errorf("%s: no rendering session available: %w", pageURL, providers.ErrEpisodeListUnavailable)
	}

	a.log.WithField("url", pageURL).Debug("chapter list not in static page, rendering")

	return a.renderedEpisodes(ctx, pageURL)
}

func (a *Adapter) renderedEpisodes(ctx context.Context, pageURL string) ([]providers.Episode, error) {
	s, err := a.opener.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %v: %w", err, providers.ErrEpisodeListUnavailable)
	}
	defer s.Close()

	if err := s.Navigate(ctx, pageURL); err != nil {
		return nil, fmt.Errorf("navigate %s: %v: %w", pageURL, err, providers.ErrEpisodeListUnavailable)
	}

	elements, err := s.WaitForElements(ctx, chapterSelector, a.episodeWait)
	if errors.Is(err, render.ErrElementsNotFound) {
		a.log.WithField("url", pageURL).Warn("chapter list did not appear, no episodes")
		return []providers.Episode{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("wait for chapter list: %v: %w", err, providers.ErrEpisodeListUnavailable)
	}

	episodes := make([]providers.Episode, 0, len(elements))
	for _, el := range elements {
		title, _, err := s.ReadAttribute(ctx, el, "title")
		if err != nil {
			return nil, fmt.Errorf("read chapter title: %v: %w", err, providers.ErrEpisodeListUnavailable)
		}
		href, _, err := s.ReadAttribute(ctx, el, "href")
		if err != nil {
			return nil, fmt.Errorf("read chapter link: %v: %w", err, providers.ErrEpisodeListUnavailable)
		}
		if ep, ok := episode(pageURL, title, href); ok {
			episodes = append(episodes, ep)
		}
	}

	return episodes, nil
}

func episode(pageURL, title, href string) (providers.Episode, bool) {
	u, ok := pagination.ResolveURL(pageURL, href)
	if !ok {
		return providers.Episode{}, false
	}

	return providers.Episode{Title: strings.TrimSpace(title), URL: u}, true
}

// Images renders the chapter in a fresh session and waits for its lazy images
// to resolve. The session is released on every path.
func (a *Adapter) Images(ctx context.Context, doc *goquery.Document, pageURL string) (pagination.Result, error) {
	if a.opener == nil {
		return pagination.Result{}, errors.New("no rendering session available")
	}

	s, err := a.opener.NewSession(ctx)
	if err != nil {
		return pagination.Result{}, fmt.Errorf("open session: %w", err)
	}
	defer s.Close()

	if doc == nil {
		// the rendered session is the source of truth; the engine only
		// needs a first page so it never fetches one
		if doc, err = goquery.NewDocumentFromReader(strings.NewReader("")); err != nil {
			return pagination.Result{}, err
		}
	}

	engine := pagination.NewEngine(pagination.Options{
		Extractor:   render.Extractor{Resolver: a.resolver, Session: s},
		MaxSections: a.maxSections,
		Log:         a.log,
	})

	return engine.Walk(ctx, pageURL, doc)
}

func (a *Adapter) NextPage(doc *goquery.Document, pageURL string) (string, bool) {
	href, ok := doc.Find("a#nextpage[href]").First().Attr("href")
	if !ok {
		return "", false
	}

	return pagination.ResolveURL(pageURL, href)
}
