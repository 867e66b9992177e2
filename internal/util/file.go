package util

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// CreateCBZ packs files, sorted by name, into output. The archive is written
// next to output and renamed into place, so a failed run never leaves a
// truncated archive behind.
func CreateCBZ(files []string, output string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(output), ".cbz-*")
	if err != nil {
		return fmt.Errorf("cbz: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	z := zip.NewWriter(tmp)

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	for _, file := range sorted {
		if err := addFileToZip(z, file); err != nil {
			return fmt.Errorf("cbz: add %s: %w", file, err)
		}
	}

	if err := z.Close(); err != nil {
		return fmt.Errorf("cbz: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	return os.Rename(tmp.Name(), output)
}

func addFileToZip(z *zip.Writer, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(file)
	header.Method = zip.Deflate

	w, err := z.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)
	return err
}
