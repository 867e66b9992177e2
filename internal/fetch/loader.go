// Package fetch loads and parses pages over HTTP with bounded retries.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/brogergvhs/comicwalk/internal/ui"
)

// Error is the FetchError of one page: a transport failure, an unexpected
// status or an unparsable body.
type Error struct {
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}

	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Options struct {
	Client    *http.Client
	Retries   int
	RetryWait time.Duration
	Headers   map[string]string
	Log       logrus.FieldLogger
}

type Loader struct {
	client *resty.Client
}

func New(opts Options) *Loader {
	hc := opts.Client
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	wait := opts.RetryWait
	if wait <= 0 {
		wait = 500 * time.Millisecond
	}

	c := resty.NewWithClient(hc).
		SetRetryCount(max(0, opts.Retries)).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(4 * wait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		}).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Charset", "utf-8").
		SetHeaders(opts.Headers)

	log := opts.Log
	if log == nil {
		log = ui.DiscardLogger()
	}
	c.SetLogger(log)

	return &Loader{client: c}
}

// Fetch returns the parsed page. Every failure is an *Error.
func (l *Loader) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := l.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &Error{URL: url, Status: resp.StatusCode()}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, &Error{URL: url, Status: resp.StatusCode(), Err: fmt.Errorf("parse html: %w", err)}
	}
	if raw := resp.RawResponse; raw != nil && raw.Request != nil {
		doc.Url = raw.Request.URL
	}

	return doc, nil
}
