// Package repository scans Packages indices and the dpkg status file into a Catalog.
//
// Only the Package and Version fields are kept in memory. Every other field is read
// back from the index file through the byte range stored on each package, so index
// files must not change while a Catalog built from them is in use.
package repository

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/ralt/debcube/internal/models"
	"github.com/ralt/debcube/internal/sources"
	"github.com/ralt/debcube/internal/version"
	"github.com/sirupsen/logrus"
)

// Options configures an Indexer
type Options struct {
	// ListsPath is the directory holding the flattened index files and "status"
	ListsPath string
}

// Indexer fills a Catalog from index files
type Indexer struct {
	opts Options

	Catalog     *Catalog
	Diagnostics []models.Diagnostic
}

// NewIndexer creates an indexer with an empty catalog
func NewIndexer(opts Options) *Indexer {
	return &Indexer{
		opts:    opts,
		Catalog: NewCatalog(),
	}
}

// Unit scans a single source. Units must run one after another, in order.
type Unit struct {
	Source *models.Source
	idx    *Indexer
}

// Run scans the unit's source into the catalog
func (u Unit) Run() error {
	return u.idx.ScanSource(u.Source)
}

// Units yields one scan unit per source, in the given order
func (idx *Indexer) Units(srcs []*models.Source) iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		for _, s := range srcs {
			if !yield(Unit{Source: s, idx: idx}) {
				return
			}
		}
	}
}

// ScanAll resets the catalog and runs every unit in sequence. Failures of a single
// source are recorded as diagnostics and do not stop the chain.
func (idx *Indexer) ScanAll(ctx context.Context, srcs []*models.Source) error {
	idx.Reset()

	for unit := range idx.Units(srcs) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := unit.Run(); err != nil {
			logrus.Warnf("Failed to scan %s: %v", unit.Source.Filename, err)
			idx.record(models.Diagnostic{
				Type:    models.ErrFileOp,
				Source:  unit.Source.Filename,
				Message: err.Error(),
			})
		}
	}

	logrus.Infof("Indexed %d available and %d installed packages",
		len(idx.Catalog.Available), len(idx.Catalog.Installed))
	return nil
}

// Reset empties the catalog and drops collected diagnostics
func (idx *Indexer) Reset() {
	idx.Catalog = NewCatalog()
	idx.Diagnostics = nil
}

// ListFilePath returns where the index of src is cached
func (idx *Indexer) ListFilePath(src *models.Source) string {
	return filepath.Join(idx.opts.ListsPath, src.Filename)
}

// ScanSource indexes one source. The status source replaces the installed map.
// A missing index file is not an error: it is logged and contributes nothing.
func (idx *Indexer) ScanSource(src *models.Source) error {
	path := idx.ListFilePath(src)
	logrus.Infof("Scanning %s", src.Filename)

	if src.IsStatus() {
		idx.Catalog.Installed = make(map[string]*models.Package)
		idx.Catalog.InstalledOrder = nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Errorf("%s not found", src.Filename)
			idx.record(models.Diagnostic{
				Type:    models.ErrMissingIndexFile,
				Source:  src.Filename,
				Message: fmt.Sprintf("index file %s not found", path),
			})
			return nil
		}
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer f.Close()

	return idx.scanRecords(f, path, src)
}

// scanRecords splits the stream into records starting at "Package:" lines and
// remembers the byte range of each one.
func (idx *Indexer) scanRecords(r io.Reader, path string, src *models.Source) error {
	reader := bufio.NewReader(r)

	var offset int64
	var current *models.Package

	finish := func(end int64) {
		if current == nil {
			return
		}
		current.Range.End = end
		if src.IsStatus() {
			idx.AddInstalled(current)
		} else {
			idx.AddAvailable(current)
		}
	}

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			start := offset
			offset += int64(len(line))
			text := strings.TrimRight(line, "\r\n")

			switch {
			case strings.HasPrefix(text, "Package:"):
				finish(start)
				current = &models.Package{
					Name:   strings.TrimSpace(text[len("Package:"):]),
					Source: src,
					Range:  models.ByteRange{File: path, Start: start},
				}
			case current != nil && strings.HasPrefix(text, "Version:"):
				current.Version = strings.TrimSpace(text[len("Version:"):])
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	finish(offset)

	return nil
}

// AddAvailable inserts a record from a repository index.
//
// A forced entry is never replaced. Otherwise a record forced by its own source's
// pin replaces the existing entry, and between unpinned records the higher version
// wins. Only the first insertion of a name registers it in its section; every record
// declaring Provides registers as a provider.
func (idx *Indexer) AddAvailable(pkg *models.Package) {
	cat := idx.Catalog

	var constraint *models.Constraint
	if pkg.Source != nil {
		constraint = pkg.Source.Constraint
	}
	forced := sources.IsForcedByConstraint(constraint, pkg.Name, pkg.Version)

	repeated := false
	existing, ok := cat.Available[pkg.Name]
	if !ok {
		pkg.Forced = forced
		cat.Available[pkg.Name] = pkg
	} else {
		if existing.Forced {
			logrus.Debugf("Keeping pinned %s %s over %s", existing.Name, existing.Version, pkg.Version)
			return
		}
		repeated = true

		// sources scan in ascending priority, so a pinned source comes after the
		// unpinned ones and its record wins even at a lower version
		if forced {
			pkg.Forced = true
			cat.Available[pkg.Name] = pkg
		} else if version.Compare(existing.Version, pkg.Version) < 0 {
			cat.Available[pkg.Name] = pkg
		}
	}

	info, err := pkg.Info("Provides", "Section")
	if err != nil {
		idx.lookupFailed(pkg, err)
		return
	}

	pkg.Section = normalizeSection(info["Section"])
	if !repeated && pkg.Section != "" {
		cat.addToSection(pkg.Section, pkg.Name)
	}

	if provides := info["Provides"]; provides != "" {
		cat.addProvided(pkg.Name, provides)
	}
}

// AddInstalled inserts a record from the status file when dpkg reports it installed.
// The first record of a name wins.
func (idx *Indexer) AddInstalled(pkg *models.Package) {
	if _, ok := idx.Catalog.Installed[pkg.Name]; ok {
		return
	}

	info, err := pkg.Info("Status", "Section")
	if err != nil {
		idx.lookupFailed(pkg, err)
		return
	}

	// "<want> <flag> <state>": only the state matters
	if !strings.Contains(info["Status"], "installed") {
		return
	}

	pkg.Section = normalizeSection(info["Section"])
	idx.Catalog.Installed[pkg.Name] = pkg
	idx.Catalog.InstalledOrder = append(idx.Catalog.InstalledOrder, pkg.Name)
}

func (idx *Indexer) lookupFailed(pkg *models.Package, err error) {
	logrus.Warnf("Failed to read fields of %s: %v", pkg.Name, err)
	idx.record(models.Diagnostic{
		Type:    models.ErrFieldLookup,
		Package: pkg.Name,
		Source:  pkg.Range.File,
		Message: err.Error(),
	})
}

func (idx *Indexer) record(d models.Diagnostic) {
	idx.Diagnostics = append(idx.Diagnostics, d)
}
