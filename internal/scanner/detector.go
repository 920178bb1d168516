package scanner

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// Magic bytes for compressed index detection
var (
	gzipMagic = []byte{0x1F, 0x8B}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	xzMagic   = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}

	// a plain index starts with its first record
	plainMagic = []byte("Package:")
)

// DetectIndexType determines the encoding of an index file from its magic bytes.
// Files whose name, once the compression suffix is removed, is neither a Packages
// index nor a status file are reported as unknown.
func DetectIndexType(path string) (IndexType, error) {
	f, err := os.Open(path)
	if err != nil {
		return TypeUnknown, err
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		// empty files are valid, if useless, plain indices
		if isIndexName(filepath.Base(path)) {
			return TypePlain, nil
		}
		return TypeUnknown, nil
	}
	header = header[:n]

	var t IndexType
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		t = TypeGzip
	case bytes.HasPrefix(header, xzMagic):
		t = TypeXz
	case bytes.HasPrefix(header, zstdMagic):
		t = TypeZstd
	default:
		t = TypePlain
	}

	name := strings.TrimSuffix(filepath.Base(path), t.Suffix())
	if !isIndexName(name) {
		if t == TypePlain && bytes.HasPrefix(header, plainMagic) {
			return TypePlain, nil
		}
		return TypeUnknown, nil
	}

	return t, nil
}

func isIndexName(name string) bool {
	return strings.HasSuffix(name, "Packages") || name == "status"
}
