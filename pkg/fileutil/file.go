package fileutil

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
)

// EnsureDir creates the directory, and any missing parents, if it does not exist yet.
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return xerrors.Errorf("%s exists and is not a directory", dir)
	case err == nil:
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return xerrors.Errorf("unable to stat %s: %w", dir, err)
	}

	slog.Info("Creating download directory", slog.String("path", dir))
	if err = os.MkdirAll(dir, os.ModePerm); err != nil {
		return xerrors.Errorf("unable to create a directory: %w", err)
	}
	return nil
}

// RemoveIfExists removes the file at filePath. A missing file is not an error.
func RemoveIfExists(filePath string) error {
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return xerrors.Errorf("unable to remove %s: %w", filePath, err)
	}
	return nil
}

func WriteJSON(filePath string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return xerrors.Errorf("unable to create a directory: %w", err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return xerrors.Errorf("unable to open %s: %w", filePath, err)
	}
	defer f.Close()

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err = f.Write(b); err != nil {
		return xerrors.Errorf("failed to save a file: %w", err)
	}
	return nil
}
