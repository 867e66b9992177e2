package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// TempSuffix marks episode working folders that are removed once packed.
const TempSuffix = "_tmp"

// CleanupUnfinishedTempFolders removes every working folder left in
// outputDir by an interrupted run.
func CleanupUnfinishedTempFolders(outputDir string, log logrus.FieldLogger) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return
	}

	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), TempSuffix) {
			continue
		}

		full := filepath.Join(outputDir, e.Name())
		if err := os.RemoveAll(full); err != nil {
			log.WithError(err).WithField("dir", full).Warn("cleanup failed")
			continue
		}
		log.WithField("dir", full).Info("removed unfinished folder")
	}
}

// RemoveIfEmpty removes dir when nothing was written to it.
func RemoveIfEmpty(dir string, log logrus.FieldLogger) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}

	if err := os.Remove(dir); err == nil {
		log.WithField("dir", dir).Info("removed empty output folder")
	}
}

func CleanupFolder(folder string) {
	_ = os.RemoveAll(folder)
}
