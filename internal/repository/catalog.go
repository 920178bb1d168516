package repository

import (
	"sort"
	"strings"

	"github.com/ralt/debcube/internal/models"
)

// Catalog is the in-memory view of all scanned indices.
// Each map holds at most one entry per package name.
type Catalog struct {
	Available map[string]*models.Package
	Installed map[string]*models.Package

	// InstalledOrder lists the Installed names in status file order
	InstalledOrder []string

	// Provided maps a virtual package name to its providers in scan order
	Provided map[string][]string

	// Sections maps a section to package names in first-insertion order
	Sections map[string][]string

	// Upgradable is filled by upgrade classification
	Upgradable []string
}

// NewCatalog returns an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		Available: make(map[string]*models.Package),
		Installed: make(map[string]*models.Package),
		Provided:  make(map[string][]string),
		Sections:  make(map[string][]string),
	}
}

// Providers returns the registered providers of a virtual package
func (c *Catalog) Providers(name string) []string {
	return c.Provided[name]
}

// SectionNames returns all known sections sorted by name
func (c *Catalog) SectionNames() []string {
	names := make([]string, 0, len(c.Sections))
	for s := range c.Sections {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) addProvided(provider, provides string) {
	for _, p := range strings.Split(provides, ",") {
		// "foo (= 1.0)" provides foo
		fields := strings.Fields(p)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]

		if !contains(c.Provided[name], provider) {
			c.Provided[name] = append(c.Provided[name], provider)
		}
	}
}

func (c *Catalog) addToSection(section, name string) {
	c.Sections[section] = append(c.Sections[section], name)
}

// SortedNames returns the keys of a package map in ascending order
func SortedNames(pkgs map[string]*models.Package) []string {
	names := make([]string, 0, len(pkgs))
	for name := range pkgs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// normalizeSection strips the component prefix from values like "universe/games"
func normalizeSection(section string) string {
	if _, after, found := strings.Cut(section, "/"); found {
		return after
	}
	return section
}
