package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/comicwalk/internal/fetch"
)

func TestLoaderFetch(t *testing.T) {
	t.Parallel()

	var flaky atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://ref.example/", r.Header.Get("Referer"))
		_, _ = w.Write([]byte(`<html><h1 class="comics-detail__title">Title</h1></html>`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, _ *http.Request) {
		if flaky.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`<html><p>ok</p></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	loader := fetch.New(fetch.Options{
		Client:    srv.Client(),
		Retries:   3,
		RetryWait: time.Millisecond,
		Headers:   map[string]string{"Referer": "https://ref.example/"},
	})

	t.Run("parses the page", func(t *testing.T) {
		doc, err := loader.Fetch(context.Background(), srv.URL+"/ok")
		require.NoError(t, err)
		assert.Equal(t, "Title", doc.Find("h1.comics-detail__title").Text())
		require.NotNil(t, doc.Url)
		assert.Equal(t, "/ok", doc.Url.Path)
	})

	t.Run("non-200 is a fetch error", func(t *testing.T) {
		_, err := loader.Fetch(context.Background(), srv.URL+"/missing")

		var fe *fetch.Error
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, http.StatusNotFound, fe.Status)
		assert.Contains(t, fe.Error(), "HTTP 404")
	})

	t.Run("retries server errors", func(t *testing.T) {
		doc, err := loader.Fetch(context.Background(), srv.URL+"/flaky")
		require.NoError(t, err)
		assert.Equal(t, "ok", doc.Find("p").Text())
		assert.Equal(t, int32(3), flaky.Load())
	})

	t.Run("transport failures are fetch errors", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := loader.Fetch(ctx, srv.URL+"/ok")

		var fe *fetch.Error
		require.True(t, errors.As(err, &fe))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
