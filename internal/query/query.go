// Package query pages through a catalog and projects packages into JSON.
package query

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/ralt/debcube/internal/models"
	"github.com/ralt/debcube/internal/repository"
	"github.com/sirupsen/logrus"
)

// PageSize is the number of packages per page
const PageSize = 10

// projectedFields are read from the index for every projected package
var projectedFields = []string{"Description", "Size", "Section"}

// PackageJSON is the presentation form of a package
type PackageJSON struct {
	Name             string `json:"name"`
	Version          string `json:"version"`
	InstalledVersion string `json:"installed_version,omitempty"`
	Status           string `json:"status"`
	Section          string `json:"section,omitempty"`
	Description      string `json:"description,omitempty"`
	Size             int64  `json:"size,omitempty"`
	Forced           bool   `json:"forced,omitempty"`
}

// Page is one page of projected packages
type Page struct {
	Page     int           `json:"page"`
	Total    int           `json:"total"`
	Packages []PackageJSON `json:"packages"`
}

// Query answers listing requests over a catalog
type Query struct {
	catalog *repository.Catalog
}

// New creates a query over cat
func New(cat *repository.Catalog) *Query {
	return &Query{catalog: cat}
}

// SectionPackages returns a page of the available packages registered in section.
// An unknown section yields an empty page.
func (q *Query) SectionPackages(section string, page int) Page {
	names := q.catalog.Sections[section]
	return q.page(names, q.catalog.Available, page)
}

// InstalledPackages returns a page of the installed packages
func (q *Query) InstalledPackages(page int) Page {
	return q.page(repository.SortedNames(q.catalog.Installed), q.catalog.Installed, page)
}

// Packages returns a page of every available package
func (q *Query) Packages(page int) Page {
	return q.page(repository.SortedNames(q.catalog.Available), q.catalog.Available, page)
}

// UpgradablePackages returns a page of the upgradable packages
func (q *Query) UpgradablePackages(page int) Page {
	return q.page(q.catalog.Upgradable, q.catalog.Available, page)
}

// page sorts names and projects the requested page. Pages start at 1.
func (q *Query) page(names []string, pkgs map[string]*models.Package, page int) Page {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	result := Page{Page: page, Total: len(sorted), Packages: []PackageJSON{}}
	if page < 1 {
		return result
	}

	start := (page - 1) * PageSize
	if start >= len(sorted) {
		return result
	}
	end := min(start+PageSize, len(sorted))

	for _, name := range sorted[start:end] {
		pkg, ok := pkgs[name]
		if !ok {
			continue
		}
		result.Packages = append(result.Packages, Project(pkg))
	}
	return result
}

// Project converts a package into its presentation form. Fields that cannot be
// read from the index are left empty.
func Project(pkg *models.Package) PackageJSON {
	out := PackageJSON{
		Name:             pkg.Name,
		Version:          pkg.Version,
		InstalledVersion: pkg.InstalledVersion,
		Status:           pkg.Status.String(),
		Section:          pkg.Section,
		Forced:           pkg.Forced,
	}

	info, err := pkg.Info(projectedFields...)
	if err != nil {
		logrus.Warnf("Failed to read fields of %s: %v", pkg.Name, err)
		return out
	}

	if out.Section == "" {
		out.Section = info["Section"]
	}
	// only the synopsis line
	out.Description, _, _ = strings.Cut(info["Description"], "\n")
	if size, err := strconv.ParseInt(info["Size"], 10, 64); err == nil {
		out.Size = size
	}

	return out
}

// Marshal renders v as indented JSON
func Marshal(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
