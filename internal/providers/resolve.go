package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/brogergvhs/comicwalk/internal/pagination"
	"github.com/brogergvhs/comicwalk/internal/ui"
)

// ResolveOptions bound the page chain followed by Resolve.
type ResolveOptions struct {
	Loader   pagination.Loader
	MaxPages int
	Log      logrus.Ext1FieldLogger
}

// Resolve collects every image of the episode at pageURL. It asks a for the
// images of each page and follows a.NextPage while it yields unvisited pages,
// so plain multi-page chapters resolve like sectioned ones. doc is the
// already loaded episode page.
func Resolve(ctx context.Context, a Adapter, doc *goquery.Document, pageURL string, opts ResolveOptions) (pagination.Result, error) {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = pagination.DefaultMaxSections
	}
	log := opts.Log
	if log == nil {
		log = ui.DiscardLogger()
	}
	log = log.WithFields(logrus.Fields{"site": a.Name(), "episode": pageURL})

	state := pagination.NewCrawlState()
	total := pagination.Result{Stop: pagination.StopComplete}
	var notes []string

	finish := func() pagination.Result {
		total.Images = state.Images()
		total.Note = strings.Join(notes, "; ")
		return total
	}

	current := pageURL
	for pages := 0; ; pages++ {
		state.Visit(current)

		res, err := a.Images(ctx, doc, current)
		state.Add(res.Images...)
		total.Sections = append(total.Sections, res.Sections...)
		total.Degraded += res.Degraded
		if res.Note != "" {
			notes = append(notes, res.Note)
		}
		if err != nil {
			total.Stop = pagination.StopFetchFailed
			if ctx.Err() != nil {
				total.Stop = pagination.StopCancelled
			}
			return finish(), fmt.Errorf("images of %s: %w", current, err)
		}
		if res.Stop != pagination.StopComplete {
			total.Stop = res.Stop
			return finish(), nil
		}

		next, ok := a.NextPage(doc, current)
		if !ok || state.Visited(next) {
			return finish(), nil
		}
		if pages+1 >= maxPages {
			log.WithField("max_pages", maxPages).Warn("page cap reached, returning partial result")
			total.Stop = pagination.StopSectionCap
			notes = append(notes, fmt.Sprintf("stopped after %d pages without reaching the end", maxPages))
			return finish(), nil
		}
		if opts.Loader == nil {
			return finish(), nil
		}

		log.WithField("next", next).Debug("following next page")
		doc, err = opts.Loader.Fetch(ctx, next)
		if err != nil {
			if ctx.Err() != nil {
				total.Stop = pagination.StopCancelled
				return finish(), ctx.Err()
			}
			log.WithError(err).Warn("next page fetch failed, returning partial result")
			total.Stop = pagination.StopFetchFailed
			notes = append(notes, fmt.Sprintf("fetch of %s failed: %v", next, err))
			return finish(), nil
		}
		current = next
	}
}
