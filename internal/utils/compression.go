package utils

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ralt/debcube/internal/scanner"
	"github.com/ulikunitz/xz"
)

// GzipCompress compresses data using gzip
func GzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// NewDecompressor wraps r with a reader decoding the given index encoding.
// Plain indices are passed through.
func NewDecompressor(t scanner.IndexType, r io.Reader) (io.ReadCloser, error) {
	switch t {
	case scanner.TypePlain:
		return io.NopCloser(r), nil
	case scanner.TypeGzip:
		return gzip.NewReader(r)
	case scanner.TypeXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case scanner.TypeZstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported index encoding: %s", t)
	}
}

// Decompress decodes data of the given encoding
func Decompress(t scanner.IndexType, data []byte) ([]byte, error) {
	r, err := NewDecompressor(t, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
