package pagination_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/comicwalk/internal/pagination"
)

const base = "https://www.twmanga.com/comic/chapter/42/0_3"

func sec(n int) string {
	if n == 1 {
		return base + ".html"
	}

	return fmt.Sprintf("%s_%d.html", base, n)
}

func TestWalk(t *testing.T) {
	t.Parallel()

	t.Run("stops on a cycle without refetching the first section", func(t *testing.T) {
		t.Parallel()

		loader := &fakeLoader{pages: map[string]string{
			sec(2): sectionPage("Ch 3 (2/3)", []string{"/img/comic/2.jpg"}, sec(3)),
			sec(3): sectionPage("Ch 3 (3/3)", []string{"/img/comic/3.jpg"}, sec(1)),
		}}
		first := mustDoc(t, sectionPage("Ch 3 (1/3)", []string{"/img/comic/1.jpg"}, sec(2)))

		res, err := newEngine(loader).Walk(context.Background(), sec(1), first)

		require.NoError(t, err)
		assert.Equal(t, pagination.StopCycle, res.Stop)
		assert.Equal(t, []string{sec(2), sec(3)}, loader.calls)
		require.Len(t, res.Sections, 3)
		assert.Equal(t, sec(1), res.Sections[0].URL)
		assert.Equal(t, 3, res.Sections[2].Index)
		assert.Equal(t, []string{
			"https://www.twmanga.com/img/comic/1.jpg",
			"https://www.twmanga.com/img/comic/2.jpg",
			"https://www.twmanga.com/img/comic/3.jpg",
		}, res.Images)
		assert.Contains(t, res.Note, "cycle")
		assert.False(t, res.Partial())
	})

	t.Run("deduplicates images across sections keeping first-seen order", func(t *testing.T) {
		t.Parallel()

		loader := &fakeLoader{pages: map[string]string{
			sec(2): sectionPage("B (2/2)", []string{"https://cdn.example/y", "https://cdn.example/z"}, ""),
		}}
		first := mustDoc(t, sectionPage("A (1/2)", []string{"https://cdn.example/x", "https://cdn.example/y"}, sec(2)))

		res, err := newEngine(loader).Walk(context.Background(), sec(1), first)

		require.NoError(t, err)
		assert.Equal(t, pagination.StopComplete, res.Stop)
		assert.Equal(t, []string{"https://cdn.example/x", "https://cdn.example/y", "https://cdn.example/z"}, res.Images)
		assert.Empty(t, res.Note)
	})

	t.Run("returns accumulated images when a later fetch fails", func(t *testing.T) {
		t.Parallel()

		loader := &fakeLoader{fail: map[string]error{sec(2): errors.New("connection reset")}}
		first := mustDoc(t, sectionPage("A (1/2)", []string{"https://cdn.example/a", "https://cdn.example/b"}, sec(2)))

		res, err := newEngine(loader).Walk(context.Background(), sec(1), first)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://cdn.example/a", "https://cdn.example/b"}, res.Images)
		assert.Equal(t, pagination.StopFetchFailed, res.Stop)
		assert.Contains(t, res.Note, "connection reset")
		assert.True(t, res.Partial())
	})

	t.Run("declared totals do not end the walk", func(t *testing.T) {
		t.Parallel()

		loader := &fakeLoader{pages: map[string]string{
			sec(2): sectionPage("A (2/2)", []string{"https://cdn.example/2"}, sec(3)),
			sec(3): sectionPage("A", []string{"https://cdn.example/3"}, ""),
		}}
		first := mustDoc(t, sectionPage("A (1/2)", []string{"https://cdn.example/1"}, sec(2)))

		res, err := newEngine(loader).Walk(context.Background(), sec(1), first)

		require.NoError(t, err)
		assert.Len(t, res.Sections, 3)
		assert.Len(t, res.Images, 3)
	})

	t.Run("caps a chain that never repeats", func(t *testing.T) {
		t.Parallel()

		loader := &fakeLoader{gen: func(u string) (string, bool) {
			var n int
			if _, err := fmt.Sscanf(strings.TrimPrefix(u, base+"_"), "%d.html", &n); err != nil {
				return "", false
			}
			return sectionPage(fmt.Sprintf("A (%d/2)", n), []string{fmt.Sprintf("https://cdn.example/%d", n)}, sec(n+1)), true
		}}
		first := mustDoc(t, sectionPage("A (1/2)", []string{"https://cdn.example/1"}, sec(2)))

		res, err := newEngine(loader, func(o *pagination.Options) { o.MaxSections = 5 }).
			Walk(context.Background(), sec(1), first)

		require.NoError(t, err)
		assert.Equal(t, pagination.StopSectionCap, res.Stop)
		assert.Len(t, res.Sections, 5)
		assert.Len(t, res.Images, 5)
		assert.True(t, res.Partial())
	})

	t.Run("a next link pointing at the current section ends the walk", func(t *testing.T) {
		t.Parallel()

		loader := &fakeLoader{}
		first := mustDoc(t, sectionPage("A (1/1)", []string{"https://cdn.example/1"}, sec(1)+"#top"))

		res, err := newEngine(loader).Walk(context.Background(), sec(1), first)

		require.NoError(t, err)
		assert.Equal(t, pagination.StopComplete, res.Stop)
		assert.Empty(t, loader.calls)
	})

	t.Run("an engine without an extractor walks sections and collects nothing", func(t *testing.T) {
		t.Parallel()

		loader := &fakeLoader{pages: map[string]string{
			sec(2): sectionPage("Ch 3 (2/2)", []string{"/img/comic/2.jpg"}, sec(1)),
		}}
		first := mustDoc(t, sectionPage("Ch 3 (1/2)", []string{"/img/comic/1.jpg"}, sec(2)))

		e := newEngine(loader, func(o *pagination.Options) { o.Extractor = nil })
		res, err := e.Walk(context.Background(), sec(1), first)

		require.NoError(t, err)
		assert.Equal(t, pagination.StopCycle, res.Stop)
		assert.Len(t, res.Sections, 2)
		assert.Empty(t, res.Images)
		assert.Zero(t, res.Degraded)
	})

	t.Run("resolves relative next links", func(t *testing.T) {
		t.Parallel()

		loader := &fakeLoader{pages: map[string]string{
			sec(2): sectionPage("A (2/2)", []string{"https://cdn.example/2"}, ""),
		}}
		first := mustDoc(t, sectionPage("A (1/2)", []string{"https://cdn.example/1"}, "0_3_2.html"))

		res, err := newEngine(loader).Walk(context.Background(), sec(1), first)

		require.NoError(t, err)
		assert.Equal(t, []string{sec(2)}, loader.calls)
		assert.Len(t, res.Images, 2)
	})

	t.Run("fetches the start page when none is given", func(t *testing.T) {
		t.Parallel()

		loader := &fakeLoader{pages: map[string]string{
			sec(1): sectionPage("A", []string{"https://cdn.example/1"}, ""),
		}}

		res, err := newEngine(loader).Walk(context.Background(), sec(1), nil)

		require.NoError(t, err)
		assert.Equal(t, []string{sec(1)}, loader.calls)
		assert.Equal(t, []string{"https://cdn.example/1"}, res.Images)
	})

	t.Run("an extraction failure only degrades its section", func(t *testing.T) {
		t.Parallel()

		loader := &fakeLoader{pages: map[string]string{
			sec(2): sectionPage("A (2/3)", []string{"https://cdn.example/2"}, sec(3)),
			sec(3): sectionPage("A (3/3)", []string{"https://cdn.example/3"}, ""),
		}}
		first := mustDoc(t, sectionPage("A (1/3)", []string{"https://cdn.example/1"}, sec(2)))
		failing := pagination.ExtractorFunc(func(ctx context.Context, doc *goquery.Document, pageURL string) ([]string, error) {
			if pageURL == sec(2) {
				return nil, errors.New("render timeout")
			}
			return imgExtractor(ctx, doc, pageURL)
		})

		res, err := newEngine(loader, func(o *pagination.Options) { o.Extractor = failing }).
			Walk(context.Background(), sec(1), first)

		require.NoError(t, err)
		assert.Equal(t, pagination.StopComplete, res.Stop)
		assert.Equal(t, []string{"https://cdn.example/1", "https://cdn.example/3"}, res.Images)
		assert.Equal(t, 1, res.Degraded)
		assert.Contains(t, res.Note, "1 of 3 sections")
		assert.True(t, res.Partial())
	})

	t.Run("cancellation is observed between sections", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		loader := &fakeLoader{pages: map[string]string{
			sec(2): sectionPage("A (2/2)", []string{"https://cdn.example/2"}, ""),
		}}
		first := mustDoc(t, sectionPage("A (1/2)", []string{"https://cdn.example/1"}, sec(2)))
		cancelling := pagination.ExtractorFunc(func(ctx context.Context, doc *goquery.Document, pageURL string) ([]string, error) {
			urls, err := imgExtractor(ctx, doc, pageURL)
			cancel()
			return urls, err
		})

		res, err := newEngine(loader, func(o *pagination.Options) { o.Extractor = cancelling }).
			Walk(ctx, sec(1), first)

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, pagination.StopCancelled, res.Stop)
		assert.Equal(t, []string{"https://cdn.example/1"}, res.Images)
		assert.Empty(t, loader.calls)
	})

	t.Run("emits trace events through the injected logger", func(t *testing.T) {
		t.Parallel()

		logger, hook := test.NewNullLogger()
		logger.SetLevel(logrus.TraceLevel)

		loader := &fakeLoader{pages: map[string]string{
			sec(2): sectionPage("A (2/2)", nil, sec(1)),
		}}
		first := mustDoc(t, sectionPage("A (1/2)", nil, sec(2)))

		_, err := newEngine(loader, func(o *pagination.Options) { o.Log = logger }).
			Walk(context.Background(), sec(1), first)
		require.NoError(t, err)

		var messages []string
		for _, e := range hook.AllEntries() {
			messages = append(messages, e.Message)
		}
		assert.Contains(t, messages, "cycle detected")
		assert.Equal(t, "walk finished", hook.LastEntry().Message)
		assert.Equal(t, "cycle-detected", hook.LastEntry().Data["stop"])
	})
}
