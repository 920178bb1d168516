package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ralt/debcube/internal/models"
	"github.com/ralt/debcube/internal/sources"
)

const mainIndex = `Package: hello
Version: 2.10-2
Section: devel
Size: 53000
Description: example package based on GNU hello
Depends: libc6 (>= 2.34)

Package: mail-transport
Version: 1.0
Section: universe/mail
Provides: mail-transport-agent, default-mta (= 1.0)
Description: a mail transport

Package: nginx
Version: 1.20.0-1
Section: httpd
Description: small, powerful, scalable web/proxy server
`

const stableIndex = `Package: nginx
Version: 1.18.0-6
Section: web
Description: pinned nginx

Package: hello
Version: 2.12-1
Section: devel
Description: newer hello
`

const statusFile = `Package: hello
Status: install ok installed
Version: 2.10-2
Section: devel

Package: removed
Status: deinstall ok config-files
Version: 0.1

Package: nginx
Status: install ok installed
Version: 1.22.0-1
`

func writeIndex(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestScanRecordsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, "main_Packages", mainIndex)

	idx := NewIndexer(Options{ListsPath: dir})
	if err := idx.ScanSource(&models.Source{Filename: "main_Packages"}); err != nil {
		t.Fatalf("ScanSource failed: %v", err)
	}

	if len(idx.Catalog.Available) != 3 {
		t.Fatalf("Expected 3 packages, got %d", len(idx.Catalog.Available))
	}

	hello := idx.Catalog.Available["hello"]
	if hello.Version != "2.10-2" {
		t.Errorf("Unexpected version: %s", hello.Version)
	}
	if hello.Range.Start != 0 {
		t.Errorf("First record should start at 0, got %d", hello.Range.Start)
	}

	info, err := hello.Info("Package", "Version", "Depends", "Size", "Missing")
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info["Package"] != "hello" || info["Version"] != "2.10-2" ||
		info["Depends"] != "libc6 (>= 2.34)" || info["Size"] != "53000" {
		t.Errorf("Unexpected info: %v", info)
	}
	if _, ok := info["Missing"]; ok {
		t.Error("Missing key should be absent")
	}

	raw, err := idx.Catalog.Available["mail-transport"].Raw()
	if err != nil {
		t.Fatalf("Raw failed: %v", err)
	}
	if !strings.HasPrefix(string(raw), "Package: mail-transport\n") || strings.Contains(string(raw), "nginx") {
		t.Errorf("Record range leaks into neighbours: %q", raw)
	}

	nginx := idx.Catalog.Available["nginx"]
	if nginx.Range.End != int64(len(mainIndex)) {
		t.Errorf("Last record should end at EOF, got %d", nginx.Range.End)
	}
	if desc, _ := nginx.Field("Description"); desc != "small, powerful, scalable web/proxy server" {
		t.Errorf("Unexpected description: %q", desc)
	}
}

func TestSectionsAndProvides(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, "main_Packages", mainIndex)

	idx := NewIndexer(Options{ListsPath: dir})
	idx.ScanSource(&models.Source{Filename: "main_Packages"})

	cat := idx.Catalog
	if got := cat.Sections["mail"]; len(got) != 1 || got[0] != "mail-transport" {
		t.Errorf("Component prefix not stripped: %v", cat.Sections)
	}
	if cat.Available["mail-transport"].Section != "mail" {
		t.Errorf("Unexpected section: %s", cat.Available["mail-transport"].Section)
	}

	for _, virtual := range []string{"mail-transport-agent", "default-mta"} {
		providers := cat.Providers(virtual)
		if len(providers) != 1 || providers[0] != "mail-transport" {
			t.Errorf("Expected mail-transport to provide %s, got %v", virtual, providers)
		}
	}

	// rescanning the same record does not duplicate providers or section entries
	idx.ScanSource(&models.Source{Filename: "main_Packages"})
	if len(cat.Providers("default-mta")) != 1 {
		t.Errorf("Duplicate provider registered: %v", cat.Providers("default-mta"))
	}
	if len(cat.Sections["devel"]) != 1 {
		t.Errorf("Duplicate section entry: %v", cat.Sections["devel"])
	}

	if names := cat.SectionNames(); strings.Join(names, ",") != "devel,httpd,mail" {
		t.Errorf("Unexpected sections: %v", names)
	}
}

func TestDuplicateKeepsHigherVersion(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, "main_Packages", mainIndex)
	writeIndex(t, dir, "stable_Packages", stableIndex)

	idx := NewIndexer(Options{ListsPath: dir})
	err := idx.ScanAll(context.Background(), []*models.Source{
		{Filename: "main_Packages"},
		{Filename: "stable_Packages"},
	})
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}

	if v := idx.Catalog.Available["hello"].Version; v != "2.12-1" {
		t.Errorf("Expected the newer hello, got %s", v)
	}
	if v := idx.Catalog.Available["nginx"].Version; v != "1.20.0-1" {
		t.Errorf("Expected the newer nginx, got %s", v)
	}
	// the section list keeps the first insertion only
	if got := idx.Catalog.Sections["web"]; len(got) != 0 {
		t.Errorf("Replacement should not register a section: %v", got)
	}
}

func TestPinnedPackageIsNeverDisplaced(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, "main_Packages", mainIndex)
	writeIndex(t, dir, "stable_Packages", stableIndex)

	pin := sources.NewConstraint("nginx*", "release a=stable", 900)
	pinned := &models.Source{Filename: "stable_Packages", Release: "stable", Priority: 900, Constraint: pin}
	unpinned := &models.Source{Filename: "main_Packages", Release: "unstable"}

	for _, order := range [][]*models.Source{{unpinned, pinned}, {pinned, unpinned}} {
		idx := NewIndexer(Options{ListsPath: dir})
		if err := idx.ScanAll(context.Background(), order); err != nil {
			t.Fatalf("ScanAll failed: %v", err)
		}

		nginx := idx.Catalog.Available["nginx"]
		if nginx.Version != "1.18.0-6" || !nginx.Forced {
			t.Errorf("Expected pinned nginx 1.18.0-6, got %s (forced=%v)", nginx.Version, nginx.Forced)
		}

		// the pin does not cover hello
		hello := idx.Catalog.Available["hello"]
		if hello.Version != "2.12-1" || hello.Forced {
			t.Errorf("Unexpected hello %s (forced=%v)", hello.Version, hello.Forced)
		}
	}
}

func TestStatusSource(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, models.StatusFilename, statusFile)

	idx := NewIndexer(Options{ListsPath: dir})
	idx.Catalog.Installed["stale"] = &models.Package{Name: "stale"}
	idx.Catalog.InstalledOrder = []string{"stale"}

	if err := idx.ScanSource(models.NewStatusSource()); err != nil {
		t.Fatalf("ScanSource failed: %v", err)
	}

	installed := idx.Catalog.Installed
	if _, ok := installed["stale"]; ok {
		t.Error("Status scan should reset the installed map")
	}
	if _, ok := installed["removed"]; ok {
		t.Error("config-files package should not be installed")
	}
	if installed["hello"] == nil || installed["nginx"] == nil {
		t.Fatalf("Expected hello and nginx installed, got %v", SortedNames(installed))
	}
	if installed["nginx"].Version != "1.22.0-1" {
		t.Errorf("Version parsed from a non-leading line: %s", installed["nginx"].Version)
	}
	if len(idx.Catalog.Available) != 0 {
		t.Error("Status scan should not touch available packages")
	}

	if got := strings.Join(idx.Catalog.InstalledOrder, ","); got != "hello,nginx" {
		t.Errorf("Installed order should follow the status file, got %s", got)
	}
}

func TestMissingIndexIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, "main_Packages", mainIndex)

	idx := NewIndexer(Options{ListsPath: dir})
	err := idx.ScanAll(context.Background(), []*models.Source{
		{Filename: "absent_Packages"},
		{Filename: "main_Packages"},
	})
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}

	if len(idx.Catalog.Available) != 3 {
		t.Errorf("Scan should continue after a missing index, got %d packages", len(idx.Catalog.Available))
	}
	if len(idx.Diagnostics) != 1 || idx.Diagnostics[0].Type != models.ErrMissingIndexFile {
		t.Errorf("Expected one MissingIndexFile diagnostic, got %v", idx.Diagnostics)
	}
}

func TestScanAllHonoursCancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, "main_Packages", mainIndex)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx := NewIndexer(Options{ListsPath: dir})
	if err := idx.ScanAll(ctx, []*models.Source{{Filename: "main_Packages"}}); err == nil {
		t.Error("Expected context error")
	}
}

func TestUnitsAreOrdered(t *testing.T) {
	idx := NewIndexer(Options{})
	srcs := []*models.Source{{Filename: "a"}, {Filename: "b"}, {Filename: "c"}}

	var got []string
	for u := range idx.Units(srcs) {
		got = append(got, u.Source.Filename)
		if u.Source.Filename == "b" {
			break
		}
	}
	if strings.Join(got, "") != "ab" {
		t.Errorf("Unexpected unit order: %v", got)
	}
}
