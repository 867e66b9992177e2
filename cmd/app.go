package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/brogergvhs/comicwalk/internal/config"
	"github.com/brogergvhs/comicwalk/internal/fetch"
	"github.com/brogergvhs/comicwalk/internal/pagination"
	"github.com/brogergvhs/comicwalk/internal/providers"
	"github.com/brogergvhs/comicwalk/internal/providers/baozimh"
	"github.com/brogergvhs/comicwalk/internal/providers/welovemanga"
	"github.com/brogergvhs/comicwalk/internal/render"
	"github.com/brogergvhs/comicwalk/internal/ui"
	"github.com/brogergvhs/comicwalk/internal/util"
)

// app holds everything a command needs to reach a site.
type app struct {
	cfg      *config.Config
	cfgPath  string
	log      *logrus.Logger
	client   *http.Client
	loader   *fetch.Loader
	browser  *render.Browser
	registry *providers.Registry
}

func newApp(opts config.Options) (*app, error) {
	opts.IgnoreConfig = flagIgnoreConfig
	opts.Debug = opts.Debug || flagDebug
	if flagLogLevel != "" {
		opts.LogLevel = flagLogLevel
	}

	cfg, used, err := config.LoadMerged(opts)
	if err != nil {
		return nil, err
	}

	log, err := ui.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat, cfg.Debug, flagTrace)
	if err != nil {
		return nil, err
	}
	log.WithField("config", used).Debug("configuration loaded")

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          cfg.FetchTimeout,
		UserAgent:        cfg.UserAgent,
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
		Log:              log,
	})
	if err != nil {
		return nil, fmt.Errorf("http client: %w", err)
	}

	loader := fetch.New(fetch.Options{
		Client:  client,
		Retries: cfg.FetchRetries,
		Log:     log,
	})

	browser := render.NewBrowser(render.BrowserOptions{
		Headless:  cfg.Render.Headless,
		UserAgent: util.PickUserAgent(cfg.UserAgent),
		Log:       log,
	})

	registry := providers.NewRegistry(
		baozimh.New(baozimh.Options{
			Loader:      loader,
			MaxSections: cfg.MaxSections,
			Log:         log,
		}),
		welovemanga.New(welovemanga.Options{
			Opener: browser,
			Render: render.Options{
				NavigateTimeout: cfg.Render.NavigateTimeout,
				ElementTimeout:  cfg.Render.ElementTimeout,
				SettleInterval:  cfg.Render.SettleInterval,
				MaxAttempts:     cfg.Render.MaxScrollAttempts,
			},
			EpisodeWait: cfg.Render.ElementTimeout,
			MaxSections: cfg.MaxSections,
			Log:         log,
		}),
	)

	return &app{
		cfg:      cfg,
		cfgPath:  used,
		log:      log,
		client:   client,
		loader:   loader,
		browser:  browser,
		registry: registry,
	}, nil
}

func (a *app) Close() {
	if err := a.browser.Close(); err != nil {
		a.log.WithError(err).Warn("browser shutdown failed")
	}
}

// open picks the adapter for pageURL and loads the page.
func (a *app) open(ctx context.Context, pageURL string) (providers.Adapter, *goquery.Document, error) {
	adapter, err := a.registry.Lookup(pageURL)
	if err != nil {
		return nil, nil, err
	}

	doc, err := a.loader.Fetch(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}

	return adapter, doc, nil
}

// resolve returns every image of the episode at pageURL.
func (a *app) resolve(ctx context.Context, adapter providers.Adapter, doc *goquery.Document, pageURL string) (pagination.Result, error) {
	return providers.Resolve(ctx, adapter, doc, pageURL, providers.ResolveOptions{
		Loader:   a.loader,
		MaxPages: a.cfg.MaxSections,
		Log:      a.log,
	})
}

func referer(adapter providers.Adapter, fallback string) string {
	if rs, ok := adapter.(providers.RefererSetter); ok {
		return rs.Referer()
	}

	return fallback
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
