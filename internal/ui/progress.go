package ui

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type ProgressManager struct {
	p *mpb.Progress
}

// NewProgressManager renders bars to out. A nil out discards rendering,
// which is what non-terminal output wants.
func NewProgressManager(out io.Writer) *ProgressManager {
	if out == nil {
		out = io.Discard
	}

	p := mpb.New(
		mpb.WithWidth(52),
		mpb.WithOutput(out),
		mpb.WithRefreshRate(120*time.Millisecond),
	)

	return &ProgressManager{p: p}
}

// Close waits for every registered bar to complete.
func (pm *ProgressManager) Close() {
	pm.p.Wait()
}

func (pm *ProgressManager) Register(prefix string) *ProgressHandle {
	h := &ProgressHandle{pm: pm, prefix: prefix}
	h.initBar()

	return h
}

// ProgressHandle tracks one episode: images done out of total, and bytes.
type ProgressHandle struct {
	pm     *ProgressManager
	prefix string
	bar    *mpb.Bar

	total atomic.Int64
	bytes atomic.Int64

	start   time.Time
	elapsed atomic.Int64
	note    atomic.Value

	final atomic.Bool
}

func (h *ProgressHandle) initBar() {
	h.start = time.Now()
	h.note.Store("")

	h.bar = h.pm.p.New(
		0,
		mpb.BarStyle().Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(h.prefix+"  "),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncWidth),
			decor.CountersNoUnit(" | %d/%d images", decor.WCSyncWidth),
			decor.Any(func(decor.Statistics) string {
				return " | " + humanize.IBytes(uint64(h.bytes.Load()))
			}),
			decor.Any(func(decor.Statistics) string {
				sec := int64(time.Since(h.start).Seconds())
				if h.final.Load() {
					sec = h.elapsed.Load()
				}
				return fmt.Sprintf(" | %ds", sec)
			}),
			decor.Any(func(decor.Statistics) string {
				if n, _ := h.note.Load().(string); n != "" {
					return " | " + n
				}
				return ""
			}),
		),
	)
}

func (h *ProgressHandle) SetTotal(total int) {
	if h.final.Load() {
		return
	}

	h.total.Store(int64(total))
	h.bar.SetTotal(int64(total), false)
}

// SetNote shows a short status such as "resolving" or "partial".
func (h *ProgressHandle) SetNote(note string) {
	h.note.Store(note)
}

func (h *ProgressHandle) Update(done int, bytes int64) {
	if h.final.Load() {
		return
	}

	h.bytes.Store(bytes)
	h.bar.SetCurrent(int64(done))
}

// MarkDone completes the bar. It is safe to call more than once.
func (h *ProgressHandle) MarkDone() {
	if h.final.Swap(true) {
		return
	}

	h.elapsed.Store(int64(time.Since(h.start).Seconds()))
	total := h.total.Load()
	h.bar.SetCurrent(total)
	h.bar.SetTotal(total, true)
}

// Abort drops the bar from the display, for episodes that failed outright.
func (h *ProgressHandle) Abort() {
	if h.final.Swap(true) {
		return
	}

	h.elapsed.Store(int64(time.Since(h.start).Seconds()))
	h.bar.Abort(false)
}
