package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brogergvhs/comicwalk/internal/config"
	"github.com/brogergvhs/comicwalk/internal/downloader"
	"github.com/brogergvhs/comicwalk/internal/episodes"
	"github.com/brogergvhs/comicwalk/internal/providers"
	"github.com/brogergvhs/comicwalk/internal/ui"
	"github.com/brogergvhs/comicwalk/internal/util"
)

const lockName = ".comicwalk.lock"

type downloadFlags struct {
	episode string
	rng     string
	list    string
	dryRun  bool
	opts    config.Options
}

func init() {
	var f downloadFlags

	downloadCmd := &cobra.Command{
		Use:   "download <series-url>",
		Short: "Download episodes as CBZ files. Uses the selected config, overridden by CLI flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, args[0], f)
		},
	}

	fl := downloadCmd.Flags()
	fl.StringVar(&f.episode, "episode", "", "download one episode by number or title")
	fl.StringVar(&f.rng, "range", "", "download a range of episodes by number (e.g. 5-12)")
	fl.StringVar(&f.list, "list", "", "download specific episode numbers (e.g. 1,3,5)")
	fl.BoolVar(&f.dryRun, "dry-run", false, "show what would be downloaded, don't download")

	fl.StringVar(&f.opts.Output, "output", "", "output folder for CBZ files")
	fl.IntVar(&f.opts.ImageWorkers, "image-workers", 0, "parallel image downloads per episode")
	fl.IntVar(&f.opts.EpisodeWorkers, "episode-workers", 0, "episodes resolved and downloaded in parallel")
	fl.BoolVar(&f.opts.KeepFolders, "keep-folders", false, "keep the downloaded images next to the CBZ")
	fl.BoolVar(&f.opts.SkipBroken, "skip-broken", false, "pack episodes even when some images failed")
	fl.IntVar(&f.opts.MaxSections, "max-sections", 0, "hard cap on sections walked per episode")
	fl.BoolVar(&f.opts.ShowBrowser, "show-browser", false, "run the rendering browser with a visible window")

	fl.StringVar(&f.opts.Cookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	fl.StringVar(&f.opts.CookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	fl.StringVar(&f.opts.UserAgent, "user-agent", "", "override User-Agent")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, seriesURL string, f downloadFlags) error {
	a, err := newApp(f.opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	cfg := a.cfg
	out := cmd.OutOrStdout()

	adapter, doc, err := a.open(ctx, seriesURL)
	if err != nil {
		return err
	}

	eps, err := adapter.Episodes(ctx, doc, seriesURL)
	if err != nil {
		return err
	}
	all := episodes.Number(eps)
	selected := episodes.Filter(all, f.episode, f.rng, f.list)
	if len(selected) == 0 {
		return fmt.Errorf("no episodes selected out of %d", len(all))
	}

	title, err := adapter.Title(doc, seriesURL)
	if err != nil && !errors.Is(err, providers.ErrTitleNotFound) {
		return err
	}
	a.log.WithFields(logrus.Fields{
		"title":    title,
		"site":     adapter.Name(),
		"episodes": len(all),
		"selected": len(selected),
	}).Info("series loaded")

	if f.dryRun {
		fmt.Fprintf(out, "Dry-run: %d episodes selected.\n\n", len(selected))
		for _, it := range selected {
			fmt.Fprintf(out, "%4d) %s\n      %s\n", it.Number, it.Title, it.URL)
		}
		return nil
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Output, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another comicwalk download is writing to %s", cfg.Output)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	var bars *ui.ProgressManager
	if isTerminal(os.Stdout) {
		bars = ui.NewProgressManager(os.Stdout)
	} else {
		bars = ui.NewProgressManager(nil)
	}

	dl := downloader.New(downloader.Options{
		Client:     a.client,
		Workers:    cfg.ImageWorkers,
		SkipBroken: cfg.SkipBroken,
		Log:        a.log,
	})

	job := episodeJob{app: a, adapter: adapter, dl: dl, bars: bars, stats: &ui.Stats{}}
	start := time.Now()

	sem := make(chan struct{}, cfg.EpisodeWorkers)
	var wg sync.WaitGroup
	for _, it := range selected {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			job.run(ctx, it)
		}()
	}
	wg.Wait()
	bars.Close()

	if err := ctx.Err(); err != nil {
		util.CleanupUnfinishedTempFolders(cfg.Output, a.log)
		return fmt.Errorf("download interrupted: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Download summary:", job.stats.Summary())
	fmt.Fprintln(out, "Time:", time.Since(start).Round(time.Second))

	if failed := job.stats.Failed.Load(); failed > 0 {
		return fmt.Errorf("%d of %d episodes failed", failed, len(selected))
	}

	return nil
}

// episodeJob resolves, downloads and packs one episode at a time. It is
// shared by the episode workers.
type episodeJob struct {
	app     *app
	adapter providers.Adapter
	dl      *downloader.Downloader
	bars    *ui.ProgressManager
	stats   *ui.Stats
}

func (j episodeJob) run(ctx context.Context, it episodes.Item) {
	cfg := j.app.cfg
	log := j.app.log.WithFields(logrus.Fields{"episode": it.Number, "url": it.URL})

	bar := j.bars.Register(fmt.Sprintf("#%04d", it.Number))
	bar.SetNote("resolving")

	fail := func(err error, msg string) {
		if ctx.Err() == nil {
			log.WithError(err).Error(msg)
		}
		j.stats.Failed.Add(1)
		bar.Abort()
	}

	_, doc, err := j.app.open(ctx, it.URL)
	if err != nil {
		fail(err, "episode page failed to load")
		return
	}

	res, err := j.app.resolve(ctx, j.adapter, doc, it.URL)
	if err != nil {
		fail(err, "episode failed to resolve")
		return
	}
	urls := lo.Uniq(res.Images)
	if len(urls) == 0 {
		fail(errors.New(res.Note), "episode has no images")
		return
	}
	if res.Partial() {
		log.WithFields(logrus.Fields{"stop": res.Stop.String(), "note": res.Note}).Warn("episode resolved partially")
		j.stats.Partial.Add(1)
	}

	bar.SetTotal(len(urls))
	bar.SetNote("")

	folder := filepath.Join(cfg.Output, it.FolderName())
	got, err := j.dl.Download(ctx, urls, folder, referer(j.adapter, it.URL), func(done int, bytes int64) {
		bar.Update(done, bytes)
	})
	if err != nil {
		util.CleanupFolder(folder)
		fail(err, "episode download failed")
		return
	}

	if err := util.CreateCBZ(got.Files, it.OutputCBZPath(cfg.Output)); err != nil {
		util.CleanupFolder(folder)
		fail(err, "packing CBZ failed")
		return
	}
	if cfg.KeepFolders {
		if err := os.Rename(folder, strings.TrimSuffix(folder, util.TempSuffix)); err != nil {
			log.WithError(err).Warn("could not keep image folder")
		}
	} else {
		util.CleanupFolder(folder)
	}

	bar.MarkDone()
	j.stats.Episodes.Add(1)
	j.stats.Images.Add(int64(len(got.Files)))
	j.stats.Bytes.Add(got.Bytes)
}
