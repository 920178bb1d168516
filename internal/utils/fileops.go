package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFile copies a file from src to dst
func CopyFile(src, dst string) error {
	dstDir := filepath.Dir(dst)
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return err
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	return dstFile.Sync()
}

// WriteFile writes data to a file, creating directories as needed
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, perm)
}

// EnsureDir ensures a directory exists, creating it if necessary
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// ShouldCopy reports whether dst is missing or differs from src.
// Files of equal size are compared by SHA-256.
func ShouldCopy(src, dst string) (bool, error) {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, fmt.Errorf("cannot stat source: %w", err)
	}

	if src == dst {
		return false, nil
	}

	dstInfo, err := os.Stat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("cannot stat destination: %w", err)
	}

	if srcInfo.Size() != dstInfo.Size() {
		return true, nil
	}

	srcSum, err := CalculateChecksums(src)
	if err != nil {
		return false, fmt.Errorf("cannot checksum source: %w", err)
	}
	dstSum, err := CalculateChecksums(dst)
	if err != nil {
		// unreadable destination gets overwritten
		return true, nil
	}

	return srcSum.SHA256 != dstSum.SHA256, nil
}

// CopyIfChanged copies src to dst unless dst already holds the same content.
// Reports whether a copy happened.
func CopyIfChanged(src, dst string) (bool, error) {
	needed, err := ShouldCopy(src, dst)
	if err != nil || !needed {
		return false, err
	}

	if err := CopyFile(src, dst); err != nil {
		return false, fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return true, nil
}
