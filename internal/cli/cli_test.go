package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const mainList = "deb.debian.org_debian_dists_bookworm_main_binary-amd64_Packages"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func setup(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "cube")
	if out, err := run(t, "init", dir, "--name", "test"); err != nil {
		t.Fatalf("init failed: %v", err)
	} else if !strings.Contains(out, "Created workspace test") {
		t.Errorf("Unexpected init output: %s", out)
	}

	files := map[string]string{
		"sources/sources.list": "deb http://deb.debian.org/debian bookworm main\n",
		"lists/" + mainList: "Package: app\nVersion: 1.0\nSection: utils\nDepends: libfoo (>= 1.0)\nDescription: an app\n\n" +
			"Package: libfoo\nVersion: 1.2\nSection: libs\nDescription: a library\n",
		"lists/status": "Package: libfoo\nStatus: install ok installed\nVersion: 1.0\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	return dir
}

func TestScanCommand(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "-w", dir, "scan")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !strings.Contains(out, "Available:  2") || !strings.Contains(out, "libfoo 1.0 -> 1.2") {
		t.Errorf("Unexpected scan output:\n%s", out)
	}
}

func TestListCommand(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "-w", dir, "list", "--section", "libs")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var page struct {
		Total    int `json:"total"`
		Packages []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"packages"`
	}
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("Invalid JSON output: %v\n%s", err, out)
	}
	if page.Total != 1 || page.Packages[0].Name != "libfoo" || page.Packages[0].Status != "upgradable" {
		t.Errorf("Unexpected page: %+v", page)
	}

	if _, err := run(t, "-w", dir, "list", "--section", "libs", "--installed"); err == nil {
		t.Error("Exclusive flags should be rejected")
	}
}

func TestDepsCommandExports(t *testing.T) {
	dir := setup(t)
	exportDir := filepath.Join(t.TempDir(), "out")

	out, err := run(t, "-w", dir, "deps", "app", "--export", exportDir)
	if err != nil {
		t.Fatalf("deps failed: %v", err)
	}
	if !strings.Contains(out, "app 1.0") || !strings.Contains(out, "libfoo 1.2 (upgradable)") {
		t.Errorf("Unexpected deps output:\n%s", out)
	}

	for _, name := range []string{"Packages", "Packages.gz", "Release"} {
		if _, err := os.Stat(filepath.Join(exportDir, name)); err != nil {
			t.Errorf("Expected %s to be exported", name)
		}
	}

	if _, err := run(t, "-w", dir, "deps", "missing"); err == nil {
		t.Error("Unknown package should fail")
	}
}

func TestShowCommand(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "-w", dir, "show", "app")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}

	var detail map[string]interface{}
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("Invalid JSON output: %v\n%s", err, out)
	}
	if detail["name"] != "app" || !strings.HasPrefix(detail["record"].(string), "Package: app\n") {
		t.Errorf("Unexpected detail: %v", detail)
	}
}

func TestCommandsRequireWorkspace(t *testing.T) {
	if _, err := run(t, "-w", filepath.Join(t.TempDir(), "none"), "scan"); err == nil {
		t.Error("Expected error without a workspace")
	}
}
