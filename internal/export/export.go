// Package export writes the packages of a dependency closure as a flat apt
// repository index: Packages, Packages.gz and a Release file listing their checksums,
// optionally signed.
package export

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/ralt/debcube/internal/dependency"
	"github.com/ralt/debcube/internal/models"
	"github.com/ralt/debcube/internal/signer"
	"github.com/ralt/debcube/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	PackagesFile   = "Packages"
	PackagesGzFile = "Packages.gz"
	ReleaseFile    = "Release"
	InReleaseFile  = "InRelease"
	ReleaseGpgFile = "Release.gpg"
)

// ReleaseInfo describes the exported index in the Release file
type ReleaseInfo struct {
	Origin string
	Label  string
	Arch   string
}

// FileInfo contains information about a file listed in the Release file
type FileInfo struct {
	Path     string
	Checksum *utils.Checksum
}

// GeneratePackagesFile concatenates the raw index records of pkgs, sorted by name
// and separated by blank lines
func GeneratePackagesFile(pkgs []*models.Package) ([]byte, error) {
	sorted := append([]*models.Package(nil), pkgs...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, pkg := range sorted {
		raw, err := pkg.Raw()
		if err != nil {
			return nil, fmt.Errorf("failed to read record of %s: %w", pkg.Name, err)
		}

		buf.Write(bytes.TrimRight(raw, "\r\n"))
		buf.WriteString("\n\n")
	}

	return buf.Bytes(), nil
}

// GenerateReleaseFile creates a Release file for a flat repository
func GenerateReleaseFile(info ReleaseInfo, files []FileInfo) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Origin: %s\n", info.Origin)
	fmt.Fprintf(&buf, "Label: %s\n", info.Label)
	if info.Arch != "" {
		fmt.Fprintf(&buf, "Architectures: %s\n", info.Arch)
	}
	fmt.Fprintf(&buf, "Date: %s\n", time.Now().UTC().Format(time.RFC1123Z))

	buf.WriteString("MD5Sum:\n")
	for _, file := range files {
		fmt.Fprintf(&buf, " %s %d %s\n", file.Checksum.MD5, file.Checksum.Size, file.Path)
	}

	buf.WriteString("SHA256:\n")
	for _, file := range files {
		fmt.Fprintf(&buf, " %s %d %s\n", file.Checksum.SHA256, file.Checksum.Size, file.Path)
	}

	return buf.Bytes()
}

// WriteClosure writes every package of closure into dir. s may be nil, in which
// case InRelease carries the unsigned Release content.
func WriteClosure(dir string, closure *dependency.Closure, info ReleaseInfo, s signer.Signer) error {
	pkgs := make([]*models.Package, 0, len(closure.Packages))
	for _, pkg := range closure.Packages {
		pkgs = append(pkgs, pkg)
	}

	data, err := GeneratePackagesFile(pkgs)
	if err != nil {
		return err
	}

	compressed, err := utils.GzipCompress(data)
	if err != nil {
		return fmt.Errorf("failed to compress %s: %w", PackagesFile, err)
	}

	outputs := map[string][]byte{
		PackagesFile:   data,
		PackagesGzFile: compressed,
	}

	var files []FileInfo
	for _, name := range []string{PackagesFile, PackagesGzFile} {
		path := filepath.Join(dir, name)
		if err := utils.WriteFile(path, outputs[name], 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}

		checksum, err := utils.CalculateChecksums(path)
		if err != nil {
			return fmt.Errorf("failed to calculate checksum for %s: %w", name, err)
		}
		files = append(files, FileInfo{Path: name, Checksum: checksum})
	}

	release := GenerateReleaseFile(info, files)
	if err := utils.WriteFile(filepath.Join(dir, ReleaseFile), release, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ReleaseFile, err)
	}

	if err := writeSignatures(dir, release, s); err != nil {
		return err
	}

	logrus.Infof("Exported %d packages to %s", len(pkgs), dir)
	return nil
}

func writeSignatures(dir string, release []byte, s signer.Signer) error {
	if s == nil {
		logrus.Debug("No signer configured, export is unsigned")
		return utils.WriteFile(filepath.Join(dir, InReleaseFile), release, 0644)
	}

	inRelease, err := s.SignCleartext(release)
	if err != nil {
		return fmt.Errorf("failed to sign %s: %w", InReleaseFile, err)
	}
	if err := utils.WriteFile(filepath.Join(dir, InReleaseFile), inRelease, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", InReleaseFile, err)
	}

	detached, err := s.SignDetached(release)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", ReleaseGpgFile, err)
	}
	if err := utils.WriteFile(filepath.Join(dir, ReleaseGpgFile), detached, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ReleaseGpgFile, err)
	}

	logrus.Info("Release file signed")
	return nil
}
