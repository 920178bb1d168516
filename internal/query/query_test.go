package query

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ralt/debcube/internal/dependency"
	"github.com/ralt/debcube/internal/models"
	"github.com/ralt/debcube/internal/repository"
)

func buildCatalog(t *testing.T) *repository.Catalog {
	t.Helper()

	var b strings.Builder
	for i := 0; i < 23; i++ {
		fmt.Fprintf(&b, "Package: pkg%02d\nVersion: 1.%d\nSection: devel\nSize: %d\nDescription: package %d\n long description\n\n", i, i, 100+i, i)
	}
	b.WriteString("Package: web\nVersion: 2.0\nSection: httpd\nDescription: web server\n")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main_Packages"), []byte(b.String()), 0644); err != nil {
		t.Fatalf("Failed to write index: %v", err)
	}
	status := "Package: pkg03\nStatus: install ok installed\nVersion: 1.0\n\nPackage: web\nStatus: install ok installed\nVersion: 2.0\n"
	if err := os.WriteFile(filepath.Join(dir, models.StatusFilename), []byte(status), 0644); err != nil {
		t.Fatalf("Failed to write status: %v", err)
	}

	idx := repository.NewIndexer(repository.Options{ListsPath: dir})
	if err := idx.ScanAll(context.Background(), []*models.Source{{Filename: "main_Packages"}, models.NewStatusSource()}); err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}
	dependency.MarkPackages(idx.Catalog, false)
	return idx.Catalog
}

func TestSectionPages(t *testing.T) {
	q := New(buildCatalog(t))

	first := q.SectionPackages("devel", 1)
	if first.Total != 23 || len(first.Packages) != PageSize {
		t.Fatalf("Unexpected first page: total=%d len=%d", first.Total, len(first.Packages))
	}
	if first.Packages[0].Name != "pkg00" || first.Packages[9].Name != "pkg09" {
		t.Errorf("Pages should be sorted by name: %s..%s", first.Packages[0].Name, first.Packages[9].Name)
	}

	last := q.SectionPackages("devel", 3)
	if len(last.Packages) != 3 || last.Packages[2].Name != "pkg22" {
		t.Errorf("Unexpected last page: %+v", last.Packages)
	}

	if beyond := q.SectionPackages("devel", 4); len(beyond.Packages) != 0 {
		t.Errorf("Expected empty page, got %d", len(beyond.Packages))
	}
	if unknown := q.SectionPackages("games", 1); unknown.Total != 0 || len(unknown.Packages) != 0 {
		t.Errorf("Unknown section should be empty: %+v", unknown)
	}
	if zero := q.Packages(0); len(zero.Packages) != 0 {
		t.Error("Page 0 should be empty")
	}
}

func TestProjection(t *testing.T) {
	q := New(buildCatalog(t))

	page := q.Packages(1)
	pkg := page.Packages[3]
	if pkg.Name != "pkg03" || pkg.Version != "1.3" || pkg.Size != 103 {
		t.Errorf("Unexpected projection: %+v", pkg)
	}
	if pkg.Description != "package 3" {
		t.Errorf("Only the synopsis should be kept: %q", pkg.Description)
	}
	if pkg.Status != "upgradable" || pkg.InstalledVersion != "1.0" || pkg.Section != "devel" {
		t.Errorf("Unexpected status fields: %+v", pkg)
	}

	data, err := Marshal(pkg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	for _, key := range []string{"name", "version", "status", "section", "description", "size"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Missing key %s in %s", key, data)
		}
	}
}

func TestInstalledAndUpgradable(t *testing.T) {
	q := New(buildCatalog(t))

	installed := q.InstalledPackages(1)
	if installed.Total != 2 || installed.Packages[0].Name != "pkg03" || installed.Packages[1].Name != "web" {
		t.Errorf("Unexpected installed page: %+v", installed)
	}

	upgradable := q.UpgradablePackages(1)
	if upgradable.Total != 1 || upgradable.Packages[0].Name != "pkg03" {
		t.Errorf("Unexpected upgradable page: %+v", upgradable)
	}
}
