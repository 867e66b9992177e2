package downloader

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/brogergvhs/comicwalk/internal/ui"
)

const (
	DefaultAttempts = 3
	DefaultTimeout  = 30 * time.Second
)

// ErrBrokenImages reports that some images of an episode failed and
// skipping them was not allowed.
var ErrBrokenImages = errors.New("images failed to download")

// Progress receives the number of finished images and bytes so far.
type Progress func(done int, bytes int64)

type Options struct {
	Client     *http.Client
	Workers    int
	Attempts   int
	Timeout    time.Duration
	RetryWait  time.Duration
	SkipBroken bool
	Log        logrus.Ext1FieldLogger
}

type Downloader struct {
	client     *resty.Client
	workers    int
	attempts   int
	timeout    time.Duration
	retryWait  time.Duration
	skipBroken bool
	log        logrus.Ext1FieldLogger
}

func New(opts Options) *Downloader {
	hc := opts.Client
	if hc == nil {
		hc = &http.Client{}
	}

	d := &Downloader{
		client:     resty.NewWithClient(hc),
		workers:    opts.Workers,
		attempts:   opts.Attempts,
		timeout:    opts.Timeout,
		retryWait:  opts.RetryWait,
		skipBroken: opts.SkipBroken,
		log:        opts.Log,
	}
	if d.workers < 1 {
		d.workers = 1
	}
	if d.attempts < 1 {
		d.attempts = DefaultAttempts
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if d.retryWait <= 0 {
		d.retryWait = time.Second
	}
	if d.log == nil {
		d.log = ui.DiscardLogger()
	}

	d.client.SetLogger(d.log)
	d.client.SetHeaders(map[string]string{
		"Accept":          "image/avif,image/webp,image/apng,image/*,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"Cache-Control":   "no-cache",
	})

	return d
}

// Result lists the files written, in page order.
type Result struct {
	Files  []string
	Bytes  int64
	Failed int
}

type episodeState struct {
	mu     sync.Mutex
	done   int
	bytes  int64
	failed int
	ok     []bool
}

func (s *episodeState) finish(i int, failed bool, progress Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.done++
	if failed {
		s.failed++
	} else {
		s.ok[i] = true
	}
	if progress != nil {
		progress(s.done, s.bytes)
	}
}

func (s *episodeState) addBytes(delta int64, progress Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bytes += delta
	if progress != nil {
		progress(s.done, s.bytes)
	}
}

// Download fetches urls into folder as page_NNN files using the configured
// number of workers. referer may be empty.
func (d *Downloader) Download(ctx context.Context, urls []string, folder, referer string, progress Progress) (Result, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return Result{}, err
	}

	workers := min(d.workers, max(len(urls), 1))
	st := &episodeState{ok: make([]bool, len(urls))}
	paths := make([]string, len(urls))
	for i, u := range urls {
		paths[i] = filepath.Join(folder, ImageName(i, u))
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range jobs {
				var last int64
				err := d.downloadWithRetry(ctx, urls[i], paths[i], referer, func(n int64) {
					if delta := n - last; delta > 0 {
						last = n
						st.addBytes(delta, progress)
					}
				})
				if err != nil {
					d.log.WithError(err).WithField("url", urls[i]).Warn("image download failed")
				}
				st.finish(i, err != nil, progress)
			}
		}()
	}

feed:
	for i := range urls {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	res := Result{Bytes: st.bytes, Failed: st.failed}
	for i, p := range paths {
		if st.ok[i] {
			res.Files = append(res.Files, p)
		}
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if res.Failed > 0 && !d.skipBroken {
		return res, fmt.Errorf("%d/%d %w (use --skip-broken to continue)", res.Failed, len(urls), ErrBrokenImages)
	}

	return res, nil
}

func (d *Downloader) downloadWithRetry(ctx context.Context, u, output, referer string, progress func(int64)) error {
	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if err = d.download(ctx, u, output, referer, progress); err == nil {
			return nil
		}
		_ = os.Remove(output)
		if attempt == d.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * d.retryWait):
		}
	}

	return err
}

func (d *Downloader) download(ctx context.Context, u, output, referer string, progress func(int64)) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req := d.client.R().SetContext(ctx).SetDoNotParseResponse(true)
	if referer != "" {
		req.SetHeader("Referer", referer)
	}

	resp, err := req.Get(u)
	if err != nil {
		return err
	}

	body := resp.RawBody()
	defer func() {
		if cerr := body.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode())
	}

	if ct := resp.Header().Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); !strings.HasPrefix(mt, "image/") && mt != "application/octet-stream" {
			return fmt.Errorf("unexpected MIME: %s", ct)
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = copyWithProgress(f, body, progress)

	return err
}

// ImageName is the file name of the i-th image (0-based). The extension
// comes from the URL path and defaults to .jpg.
func ImageName(i int, rawURL string) string {
	ext := ""
	if u, err := url.Parse(rawURL); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif", ".avif", ".bmp":
	default:
		ext = ".jpg"
	}

	return fmt.Sprintf("page_%03d%s", i+1, ext)
}
