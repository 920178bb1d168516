package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ralt/debcube/internal/scanner"
	"github.com/sirupsen/logrus"
)

// Import finds the index files under dir and stores them, decompressed, in
// listsPath under their cache name. Returns the names written.
func Import(ctx context.Context, dir, listsPath string) ([]string, error) {
	indices, err := scanner.NewFileSystemScanner().Scan(ctx, dir)
	if err != nil {
		return nil, err
	}

	if err := EnsureDir(listsPath); err != nil {
		return nil, fmt.Errorf("failed to create lists directory: %w", err)
	}

	var imported []string
	for _, idx := range indices {
		select {
		case <-ctx.Done():
			return imported, ctx.Err()
		default:
		}

		dst := filepath.Join(listsPath, idx.Name())
		if err := importIndex(idx, dst); err != nil {
			return imported, fmt.Errorf("failed to import %s: %w", idx.Path, err)
		}

		logrus.Infof("Imported %s (%s) as %s", idx.Path, idx.Type, idx.Name())
		imported = append(imported, idx.Name())
	}

	return imported, nil
}

func importIndex(idx scanner.ScannedIndex, dst string) error {
	if idx.Type == scanner.TypePlain {
		_, err := CopyIfChanged(idx.Path, dst)
		return err
	}

	f, err := os.Open(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := NewDecompressor(idx.Type, f)
	if err != nil {
		return err
	}
	defer r.Close()

	// decode next to the destination so a failure never leaves a truncated index
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".import-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.ReadFrom(r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), dst)
}
