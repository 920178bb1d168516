package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// partialDir is where apt keeps downloads in progress
const partialDir = "partial"

// FileSystemScanner finds index files below a directory
type FileSystemScanner struct{}

// NewFileSystemScanner creates a new filesystem scanner
func NewFileSystemScanner() *FileSystemScanner {
	return &FileSystemScanner{}
}

type candidate struct {
	index   ScannedIndex
	modTime time.Time
}

// Scan walks dir and returns one index per cache name, sorted by name. When the
// same index is present more than once, for instance as Packages and Packages.xz,
// the most recently modified file is kept. Hidden and partial directories are skipped.
func (s *FileSystemScanner) Scan(ctx context.Context, dir string) ([]ScannedIndex, error) {
	found := make(map[string]candidate)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != dir && (d.Name() == partialDir || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		t, err := s.DetectType(path)
		if err != nil {
			logrus.Warnf("Skipping %s: %v", path, err)
			return nil
		}
		if t == TypeUnknown {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		c := candidate{
			index:   ScannedIndex{Path: path, Type: t, Size: info.Size()},
			modTime: info.ModTime(),
		}
		name := c.index.Name()

		if prev, ok := found[name]; ok {
			if !c.modTime.After(prev.modTime) {
				logrus.Debugf("Ignoring %s, %s is newer", path, prev.index.Path)
				return nil
			}
			logrus.Debugf("Ignoring %s, %s is newer", prev.index.Path, path)
		}
		found[name] = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	indices := make([]ScannedIndex, 0, len(found))
	for _, c := range found {
		indices = append(indices, c.index)
	}
	sort.Slice(indices, func(i, j int) bool {
		return indices[i].Name() < indices[j].Name()
	})

	logrus.Infof("Found %d index files in %s", len(indices), dir)
	return indices, nil
}

// DetectType determines the encoding of a file
func (s *FileSystemScanner) DetectType(path string) (IndexType, error) {
	return DetectIndexType(path)
}
