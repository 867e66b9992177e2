package render

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/brogergvhs/comicwalk/internal/ui"
)

// opTimeout guards every browser call that has no tighter bound of its own.
const opTimeout = 30 * time.Second

type BrowserOptions struct {
	Headless  bool
	UserAgent string
	Headers   map[string]string
	Log       logrus.Ext1FieldLogger
}

// Browser is one headless Chrome process shared by all sessions. Each session
// is a separate tab. The process starts on the first NewSession call.
type Browser struct {
	opts BrowserOptions
	log  logrus.Ext1FieldLogger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func NewBrowser(opts BrowserOptions) *Browser {
	log := opts.Log
	if log == nil {
		log = ui.DiscardLogger()
	}

	return &Browser{opts: opts, log: log}
}

func (b *Browser) start() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		return b.browserCtx, nil
	}

	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
	)
	if b.opts.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(b.opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), flags...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			b.log.Tracef("chromedp: "+format, args...)
		}),
	)

	// The first Run launches the process and must not carry a deadline.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	b.log.Debug("headless browser started")

	return browserCtx, nil
}

func (b *Browser) NewSession(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browserCtx, err := b.start()
	if err != nil {
		return nil, err
	}

	tab, cancel := chromedp.NewContext(browserCtx)
	setup := []chromedp.Action{network.Enable()}
	if len(b.opts.Headers) > 0 {
		headers := network.Headers{}
		for k, v := range b.opts.Headers {
			headers[k] = v
		}
		setup = append(setup, network.SetExtraHTTPHeaders(headers))
	}

	if err := chromedp.Run(tab, setup...); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	return &ChromeSession{tab: tab, cancel: cancel}, nil
}

// Close shuts the browser down. Sessions still open are torn down with it.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCancel != nil {
		b.browserCancel()
		b.allocCancel()
		b.browserCancel = nil
		b.allocCancel = nil
		b.browserCtx = nil
	}

	return nil
}

// ChromeSession is one browser tab.
type ChromeSession struct {
	tab    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.tab, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	return nil
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, opTimeout, chromedp.Navigate(url))
}

func (s *ChromeSession) WaitForElements(ctx context.Context, selector string, timeout time.Duration) ([]Element, error) {
	if err := s.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", selector, ErrElementsNotFound)
	}

	var n int
	expr := fmt.Sprintf("document.querySelectorAll(%s).length", jsString(selector))
	if err := s.run(ctx, opTimeout, chromedp.Evaluate(expr, &n)); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementsNotFound)
	}

	out := make([]Element, n)
	for i := range out {
		out[i] = Element{Selector: selector, Index: i}
	}

	return out, nil
}

func (s *ChromeSession) ScrollToBottom(ctx context.Context) error {
	return s.run(ctx, opTimeout, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

func (s *ChromeSession) DocumentHeight(ctx context.Context) (int, error) {
	var h int
	if err := s.run(ctx, opTimeout, chromedp.Evaluate(`document.body.scrollHeight`, &h)); err != nil {
		return 0, err
	}

	return h, nil
}

type attrValue struct {
	Present bool   `json:"present"`
	Value   string `json:"value"`
}

func (s *ChromeSession) ReadAttribute(ctx context.Context, el Element, name string) (string, bool, error) {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelectorAll(%s)[%d];
		if (!el || !el.hasAttribute(%s)) return {present: false, value: ""};
		return {present: true, value: el.getAttribute(%s) || ""};
	})()`, jsString(el.Selector), el.Index, jsString(name), jsString(name))

	var v attrValue
	if err := s.run(ctx, opTimeout, chromedp.Evaluate(expr, &v)); err != nil {
		return "", false, err
	}

	return v.Value, v.Present, nil
}

func (s *ChromeSession) Close() error {
	s.once.Do(s.cancel)
	return nil
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
