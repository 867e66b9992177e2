package util_test

import (
	"archive/zip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/comicwalk/internal/util"
)

func TestCreateCBZ(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"page_002.jpg", "page_001.jpg"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(name), 0644))
		files = append(files, p)
	}

	out := filepath.Join(dir, "0001_chapter.cbz")
	require.NoError(t, util.CreateCBZ(files, out))

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.File, 2)
	assert.Equal(t, "page_001.jpg", r.File[0].Name)
	assert.Equal(t, "page_002.jpg", r.File[1].Name)
	assert.Equal(t, []string{filepath.Join(dir, "page_002.jpg"), filepath.Join(dir, "page_001.jpg")}, files)
}

func TestCreateCBZMissingFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "x.cbz")

	assert.Error(t, util.CreateCBZ([]string{filepath.Join(dir, "nope.jpg")}, out))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCleanup(t *testing.T) {
	log, hook := test.NewNullLogger()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "0001_a_tmp", "x"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0002_b.cbz"), nil, 0644))

	util.CleanupUnfinishedTempFolders(dir, log)

	_, err := os.Stat(filepath.Join(dir, "0001_a_tmp"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "0002_b.cbz"))
	assert.NoError(t, err)
	assert.Len(t, hook.AllEntries(), 1)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0755))
	util.RemoveIfEmpty(empty, log)
	_, err = os.Stat(empty)
	assert.True(t, os.IsNotExist(err))

	util.RemoveIfEmpty(dir, log)
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestHTTPClientHeaders(t *testing.T) {
	cookieFile := filepath.Join(t.TempDir(), "cookie.txt")
	require.NoError(t, os.WriteFile(cookieFile, []byte("\n  session=abc \n"), 0644))

	var ua, cookie string
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		cookie = r.Header.Get("Cookie")
	}))
	defer srv.Close()

	c, err := util.NewHTTPClient(util.HTTPClientOptions{
		UserAgent:  "comicwalk-test",
		Cookie:     "lang=tw",
		CookieFile: cookieFile,
	})
	require.NoError(t, err)

	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "comicwalk-test", ua)
	assert.Equal(t, "lang=tw; session=abc", cookie)
	assert.Equal(t, util.DefaultUserAgent, util.PickUserAgent(""))
}
