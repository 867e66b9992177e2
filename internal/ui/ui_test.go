package ui_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/comicwalk/internal/ui"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	l, err := ui.NewLogger(&buf, "warn", "json", false, false)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())

	l.WithField("episode", "x").Warn("partial")
	assert.Contains(t, buf.String(), `"episode":"x"`)

	l, err = ui.NewLogger(&buf, "warn", "text", true, false)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l, err = ui.NewLogger(&buf, "info", "text", true, true)
	require.NoError(t, err)
	assert.Equal(t, logrus.TraceLevel, l.GetLevel())

	_, err = ui.NewLogger(&buf, "loud", "text", false, false)
	assert.Error(t, err)

	_, err = ui.NewLogger(&buf, "info", "xml", false, false)
	assert.Error(t, err)
}

func TestDiscardLogger(t *testing.T) {
	l := ui.DiscardLogger()

	assert.Equal(t, io.Discard, l.Out)
	assert.NotPanics(t, func() { l.WithField("url", "x").Warn("dropped") })
}

func TestStatsSummary(t *testing.T) {
	var s ui.Stats
	s.Episodes.Add(3)
	s.Images.Add(42)
	s.Bytes.Add(3 * 1024 * 1024)

	assert.Equal(t, "3 episodes, 42 images, 3.0 MiB", s.Summary())

	s.Partial.Add(1)
	s.Failed.Add(2)
	assert.Equal(t, "3 episodes, 42 images, 3.0 MiB, 1 partial, 2 failed", s.Summary())
}

func TestProgressDiscarded(t *testing.T) {
	pm := ui.NewProgressManager(nil)
	h := pm.Register("0001")
	h.SetTotal(2)
	h.Update(1, 10)
	h.SetNote("partial")
	h.Update(2, 20)
	h.MarkDone()
	h.MarkDone()
	pm.Close()
}
