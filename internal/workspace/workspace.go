// Package workspace manages the on-disk layout a catalog is built from: apt source
// and preference files, the flat index cache and the dpkg status snapshot.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ralt/debcube/internal/models"
	"github.com/ralt/debcube/internal/utils"
	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"
)

const (
	InfoFilename    = "info.yaml"
	SourcesDir      = "sources"
	ListsDir        = "lists"
	PartialDir      = "partial"
	PackagesDir     = "packages"
	TempDir         = "temp"
	MainSourceList  = "sources.list"
	MainPreferences = "preferences"
	SourceListExt   = ".list"
	PreferenceExt   = ".pref"
)

// Info is the metadata stored in info.yaml
type Info struct {
	Name         string    `yaml:"name"`
	Distribution string    `yaml:"distribution,omitempty"`
	Codename     string    `yaml:"codename,omitempty"`
	Release      string    `yaml:"release,omitempty"`
	Arch         string    `yaml:"arch,omitempty"`
	Created      time.Time `yaml:"created"`
	Mirrored     time.Time `yaml:"mirrored,omitempty"`
}

// Workspace is an opened workspace directory
type Workspace struct {
	Root string
	Info Info
}

func workspaceError(err error) error {
	return &models.CubeError{Type: models.ErrWorkspace, Err: err}
}

// Create scaffolds a new workspace in dir and writes its info file.
// An existing workspace is left untouched and reported as an error.
func Create(dir, name string) (*Workspace, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, workspaceError(err)
	}

	if _, err := os.Stat(filepath.Join(root, InfoFilename)); err == nil {
		return nil, workspaceError(fmt.Errorf("workspace already exists at %s", root))
	}

	if name == "" {
		name = filepath.Base(root)
	}

	ws := &Workspace{
		Root: root,
		Info: Info{Name: name, Created: time.Now().UTC()},
	}

	for _, d := range []string{ws.SourcesPath(), ws.ListsPath(), ws.PartialPath(), ws.PackagesPath(), ws.TempPath()} {
		if err := utils.EnsureDir(d); err != nil {
			return nil, workspaceError(fmt.Errorf("failed to create %s: %w", d, err))
		}
	}

	if err := ws.Save(); err != nil {
		return nil, err
	}

	logrus.Infof("Created workspace %s at %s", name, root)
	return ws, nil
}

// Open loads the workspace rooted at dir
func Open(dir string) (*Workspace, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, workspaceError(err)
	}

	st, err := os.Stat(root)
	if err != nil {
		return nil, workspaceError(fmt.Errorf("workspace %s: %w", root, err))
	}
	if !st.IsDir() {
		return nil, workspaceError(fmt.Errorf("workspace %s is not a directory", root))
	}

	f, err := os.Open(filepath.Join(root, InfoFilename))
	if err != nil {
		return nil, workspaceError(fmt.Errorf("not a workspace: %w", err))
	}
	defer f.Close()

	ws := &Workspace{Root: root}

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&ws.Info); err != nil {
		return nil, workspaceError(fmt.Errorf("failed to parse %s: %w", InfoFilename, err))
	}

	logrus.Debugf("Opened workspace %s at %s", ws.Info.Name, root)
	return ws, nil
}

// Save writes the info file
func (w *Workspace) Save() error {
	data, err := yaml.Marshal(&w.Info)
	if err != nil {
		return workspaceError(fmt.Errorf("failed to encode info: %w", err))
	}

	if err := utils.WriteFile(w.InfoFile(), data, 0644); err != nil {
		return workspaceError(fmt.Errorf("failed to write info: %w", err))
	}
	return nil
}

func (w *Workspace) InfoFile() string     { return filepath.Join(w.Root, InfoFilename) }
func (w *Workspace) SourcesPath() string  { return filepath.Join(w.Root, SourcesDir) }
func (w *Workspace) ListsPath() string    { return filepath.Join(w.Root, ListsDir) }
func (w *Workspace) PartialPath() string  { return filepath.Join(w.Root, ListsDir, PartialDir) }
func (w *Workspace) PackagesPath() string { return filepath.Join(w.Root, PackagesDir) }
func (w *Workspace) TempPath() string     { return filepath.Join(w.Root, TempDir) }

// StatusFile is where the dpkg status snapshot is kept
func (w *Workspace) StatusFile() string {
	return filepath.Join(w.ListsPath(), models.StatusFilename)
}

// SourceListFiles returns sources.list first, then the other *.list files by name
func (w *Workspace) SourceListFiles() ([]string, error) {
	return w.collect(MainSourceList, SourceListExt)
}

// PreferenceFiles returns preferences first, then the *.pref files by name
func (w *Workspace) PreferenceFiles() ([]string, error) {
	return w.collect(MainPreferences, PreferenceExt)
}

func (w *Workspace) collect(main, ext string) ([]string, error) {
	entries, err := os.ReadDir(w.SourcesPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}

	var files []string
	hasMain := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch name := e.Name(); {
		case name == main:
			hasMain = true
		case strings.HasSuffix(name, ext):
			files = append(files, filepath.Join(w.SourcesPath(), name))
		}
	}
	sort.Strings(files)

	if hasMain {
		files = append([]string{filepath.Join(w.SourcesPath(), main)}, files...)
	}
	return files, nil
}
