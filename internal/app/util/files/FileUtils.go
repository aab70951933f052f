package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSuffix is used for uploads whose filename carries no extension.
const DefaultSuffix = ".tmp"

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// RemoveIfExists deletes path, treating an already missing file as success.
func RemoveIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// UploadSuffix returns the extension of an uploaded filename, or DefaultSuffix.
func UploadSuffix(filename string) string {
	ext := filepath.Ext(filepath.Base(strings.TrimSpace(filename)))
	if ext == "" || ext == "." {
		return DefaultSuffix
	}
	return ext
}

// StageUpload copies r into a new temporary file in dir (os.TempDir when empty)
// that keeps the suffix of filename. The caller owns the returned path.
func StageUpload(r io.Reader, filename, dir string) (string, error) {
	tmp, err := os.CreateTemp(dir, "upload-*"+UploadSuffix(filename))
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to stage upload: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close staging file: %w", err)
	}

	return tmp.Name(), nil
}
