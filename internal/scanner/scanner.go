package scanner

import (
	"context"
	"path/filepath"
	"strings"
)

// IndexType represents the encoding of an index file
type IndexType int

const (
	TypeUnknown IndexType = iota
	TypePlain
	TypeGzip
	TypeXz
	TypeZstd
)

// String returns the string representation of IndexType
func (t IndexType) String() string {
	switch t {
	case TypePlain:
		return "plain"
	case TypeGzip:
		return "gzip"
	case TypeXz:
		return "xz"
	case TypeZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Suffix returns the file extension used for the encoding
func (t IndexType) Suffix() string {
	switch t {
	case TypeGzip:
		return ".gz"
	case TypeXz:
		return ".xz"
	case TypeZstd:
		return ".zst"
	default:
		return ""
	}
}

// ScannedIndex represents an index file found during scanning
type ScannedIndex struct {
	Path string
	Type IndexType
	Size int64
}

// Name returns the cache filename of the index: its base name without the
// compression suffix
func (s ScannedIndex) Name() string {
	return strings.TrimSuffix(filepath.Base(s.Path), s.Type.Suffix())
}

// Scanner interface for finding index files
type Scanner interface {
	// Scan recursively scans a directory for index files
	Scan(ctx context.Context, dir string) ([]ScannedIndex, error)

	// DetectType determines the encoding of a file
	DetectType(path string) (IndexType, error)
}
