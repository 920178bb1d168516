package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ralt/debcube/internal/models"
	"github.com/spf13/pflag"
)

func TestLoadConfigDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("workspace", DefaultWorkDir, "")
	flags.Set("workspace", t.TempDir())

	cfg, err := LoadConfig("", flags)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Arch != DefaultArch || cfg.Log.Level != DefaultLevel || cfg.Log.Format != FormatText || cfg.Verbose {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigFromWorkspace(t *testing.T) {
	dir := t.TempDir()
	content := "arch: arm64\nlog:\n  level: warn\n  format: json\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("workspace", DefaultWorkDir, "")
	flags.String("arch", DefaultArch, "")
	flags.Bool("verbose", false, "")
	flags.Set("workspace", dir)

	cfg, err := LoadConfig("", flags)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Arch != "arm64" || cfg.Log.Level != "warn" || cfg.Log.Format != FormatJSON {
		t.Errorf("Config file not applied: %+v", cfg)
	}

	// an explicitly set flag wins over the file
	if err := flags.Set("arch", "i386"); err != nil {
		t.Fatalf("Failed to set flag: %v", err)
	}
	cfg, err = LoadConfig("", flags)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Arch != "i386" {
		t.Errorf("Flag should override config file, got %s", cfg.Arch)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("DEBCUBE_ARCH", "riscv64")
	t.Setenv("DEBCUBE_WORKSPACE", t.TempDir())

	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Arch != "riscv64" {
		t.Errorf("Environment not applied: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	var cubeErr *models.CubeError

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	if !errors.As(err, &cubeErr) || cubeErr.Type != models.ErrInvalidConfig {
		t.Errorf("Explicit missing config file should fail, got %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("log:\n  format: xml\n"), 0644)

	_, err = LoadConfig(path, nil)
	if !errors.As(err, &cubeErr) || cubeErr.Type != models.ErrInvalidConfig {
		t.Errorf("Unsupported log format should fail, got %v", err)
	}
}
