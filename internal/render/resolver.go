package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/brogergvhs/comicwalk/internal/pagination"
	"github.com/brogergvhs/comicwalk/internal/ui"
)

const (
	DefaultElementTimeout  = 5 * time.Second
	DefaultSettleInterval  = 2 * time.Second
	DefaultMaxAttempts     = 5
	DefaultNavigateTimeout = 30 * time.Second
)

type Options struct {
	Selector        string
	Sentinel        string
	CandidatesAttr  string
	SourceAttr      string
	NavigateTimeout time.Duration
	ElementTimeout  time.Duration
	SettleInterval  time.Duration
	MaxAttempts     int
	Log             logrus.Ext1FieldLogger
}

// Outcome is what a page settled to. Pending counts elements still showing
// the sentinel when the attempts ran out; a non-zero value flags partial output.
type Outcome struct {
	URLs     []string
	Pending  int
	Attempts int
}

type Resolver struct {
	opts Options
	log  logrus.Ext1FieldLogger
}

func NewResolver(opts Options) *Resolver {
	if opts.CandidatesAttr == "" {
		opts.CandidatesAttr = "data-srcset"
	}
	if opts.SourceAttr == "" {
		opts.SourceAttr = "src"
	}
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = DefaultNavigateTimeout
	}
	if opts.ElementTimeout <= 0 {
		opts.ElementTimeout = DefaultElementTimeout
	}
	if opts.SettleInterval < 0 {
		opts.SettleInterval = 0
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	log := opts.Log
	if log == nil {
		log = ui.DiscardLogger()
	}

	return &Resolver{opts: opts, log: log}
}

// Resolve navigates s to pageURL and waits until the lazily loaded images
// resolve or the attempt cap is exhausted. The session stays open; releasing
// it is the caller's job.
func (r *Resolver) Resolve(ctx context.Context, s Session, pageURL string) (Outcome, error) {
	log := r.log.WithField("url", pageURL)

	navCtx, cancel := context.WithTimeout(ctx, r.opts.NavigateTimeout)
	err := s.Navigate(navCtx, pageURL)
	cancel()
	if err != nil {
		return Outcome{}, fmt.Errorf("navigate %s: %w", pageURL, err)
	}

	elements, err := s.WaitForElements(ctx, r.opts.Selector, r.opts.ElementTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		log.WithError(err).Debug("image elements never appeared")
		return Outcome{}, fmt.Errorf("%s: %w", r.opts.Selector, ErrElementsNotFound)
	}
	log.WithField("elements", len(elements)).Trace("image elements present")

	lastHeight, err := s.DocumentHeight(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("document height: %w", err)
	}

	out := Outcome{}
	for out.Attempts < r.opts.MaxAttempts {
		out.Attempts++

		if err := s.ScrollToBottom(ctx); err != nil {
			return Outcome{}, fmt.Errorf("scroll: %w", err)
		}
		if err := sleep(ctx, r.opts.SettleInterval); err != nil {
			return Outcome{}, err
		}

		height, err := s.DocumentHeight(ctx)
		if err != nil {
			return Outcome{}, fmt.Errorf("document height: %w", err)
		}

		if height == lastHeight {
			if elements, err = r.refresh(ctx, s, elements); err != nil {
				return Outcome{}, err
			}
			_, pending, err := r.collect(ctx, s, elements)
			if err != nil {
				return Outcome{}, err
			}
			if pending == 0 {
				log.WithField("attempt", out.Attempts).Trace("page settled")
				break
			}
		}
		log.WithFields(logrus.Fields{"attempt": out.Attempts, "height": height}).Trace("scrolled")
		lastHeight = height
	}

	if elements, err = r.refresh(ctx, s, elements); err != nil {
		return Outcome{}, err
	}
	urls, pending, err := r.collect(ctx, s, elements)
	if err != nil {
		return Outcome{}, err
	}
	out.URLs = urls
	out.Pending = pending

	if pending > 0 {
		log.WithFields(logrus.Fields{
			"pending":  pending,
			"resolved": len(urls),
		}).Warn("attempts exhausted with unresolved images, returning partial result")
	}

	return out, nil
}

// refresh re-reads the element list, since scrolling appends elements. The
// previous list is kept when the query comes back empty.
func (r *Resolver) refresh(ctx context.Context, s Session, prev []Element) ([]Element, error) {
	elements, err := s.WaitForElements(ctx, r.opts.Selector, r.opts.ElementTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.WithError(err).Debug("re-query of image elements failed")
		return prev, nil
	}

	return elements, nil
}

// collect reads the resolved source of every element, in order, and counts
// the ones still showing the sentinel. Elements with no source are skipped.
func (r *Resolver) collect(ctx context.Context, s Session, elements []Element) ([]string, int, error) {
	urls := make([]string, 0, len(elements))
	pending := 0

	for _, el := range elements {
		u, lazy, err := r.source(ctx, s, el)
		if err != nil {
			return nil, 0, err
		}
		switch {
		case lazy:
			pending++
		case u != "":
			urls = append(urls, u)
		}
	}

	return urls, pending, nil
}

func (r *Resolver) source(ctx context.Context, s Session, el Element) (string, bool, error) {
	lazy := false

	if v, ok, err := s.ReadAttribute(ctx, el, r.opts.CandidatesAttr); err != nil {
		return "", false, err
	} else if ok {
		first := firstCandidate(v)
		if first != "" && !r.isSentinel(first) {
			return first, false, nil
		}
		lazy = r.isSentinel(first)
	}

	v, ok, err := s.ReadAttribute(ctx, el, r.opts.SourceAttr)
	if err != nil {
		return "", false, err
	}
	v = strings.TrimSpace(v)
	if r.isSentinel(v) {
		return "", true, nil
	}
	if !ok || v == "" {
		return "", lazy, nil
	}

	return v, false, nil
}

func (r *Resolver) isSentinel(v string) bool {
	return r.opts.Sentinel != "" && strings.Contains(v, r.opts.Sentinel)
}

func firstCandidate(list string) string {
	fields := strings.Fields(list)
	if len(fields) == 0 {
		return ""
	}

	return strings.TrimSuffix(fields[0], ",")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Extractor binds a resolver to one session so it can serve as a
// pagination.Extractor for every section of one episode.
type Extractor struct {
	Resolver *Resolver
	Session  Session
}

func (e Extractor) Extract(ctx context.Context, _ *goquery.Document, pageURL string) ([]string, error) {
	out, err := e.Resolver.Resolve(ctx, e.Session, pageURL)
	if err != nil {
		return nil, err
	}

	resolved := make([]string, 0, len(out.URLs))
	for _, u := range out.URLs {
		if abs, ok := pagination.ResolveURL(pageURL, u); ok {
			resolved = append(resolved, abs)
		}
	}

	return resolved, nil
}
