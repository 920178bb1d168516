package workspace

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ralt/debcube/internal/utils"
	"github.com/sirupsen/logrus"
)

// Locations of the live apt and dpkg files, relative to the mirrored root
const (
	aptSourceList      = "etc/apt/sources.list"
	aptSourceListDir   = "etc/apt/sources.list.d"
	aptPreferences     = "etc/apt/preferences"
	aptPreferencesDir  = "etc/apt/preferences.d"
	aptListsDir        = "var/lib/apt/lists"
	dpkgStatus         = "var/lib/dpkg/status"
	lsbRelease         = "etc/lsb-release"
	osRelease          = "etc/os-release"
	packagesListSuffix = "_Packages"
)

// MirrorReport lists what a mirror pass did, by destination path
type MirrorReport struct {
	Copied    []string
	Unchanged []string
}

type copyJob struct {
	src, dst string
}

// Mirror copies the apt configuration, the dpkg status file and the cached
// indices of the system rooted at root into the workspace, and records the
// distribution in the info file. Missing files are skipped; files whose content
// did not change are not copied again.
func Mirror(w *Workspace, root string) (*MirrorReport, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, workspaceError(fmt.Errorf("mirror root: %w", err))
	}

	jobs := []copyJob{
		{filepath.Join(root, aptSourceList), filepath.Join(w.SourcesPath(), MainSourceList)},
		{filepath.Join(root, aptPreferences), filepath.Join(w.SourcesPath(), MainPreferences)},
		{filepath.Join(root, dpkgStatus), w.StatusFile()},
	}

	lists, err := listDir(filepath.Join(root, aptSourceListDir))
	if err != nil {
		return nil, err
	}
	for _, name := range lists {
		if strings.HasSuffix(name, SourceListExt) {
			jobs = append(jobs, copyJob{filepath.Join(root, aptSourceListDir, name), filepath.Join(w.SourcesPath(), name)})
		}
	}

	prefs, err := listDir(filepath.Join(root, aptPreferencesDir))
	if err != nil {
		return nil, err
	}
	for _, name := range prefs {
		dst := name
		if !strings.HasSuffix(dst, PreferenceExt) {
			dst += PreferenceExt
		}
		jobs = append(jobs, copyJob{filepath.Join(root, aptPreferencesDir, name), filepath.Join(w.SourcesPath(), dst)})
	}

	indices, err := listDir(filepath.Join(root, aptListsDir))
	if err != nil {
		return nil, err
	}
	for _, name := range indices {
		if strings.HasSuffix(name, packagesListSuffix) {
			jobs = append(jobs, copyJob{filepath.Join(root, aptListsDir, name), filepath.Join(w.ListsPath(), name)})
		}
	}

	report := &MirrorReport{}
	for _, job := range jobs {
		if _, err := os.Stat(job.src); errors.Is(err, os.ErrNotExist) {
			logrus.Debugf("Skipping missing %s", job.src)
			continue
		}

		copied, err := utils.CopyIfChanged(job.src, job.dst)
		if err != nil {
			return report, fmt.Errorf("failed to mirror %s: %w", job.src, err)
		}
		if copied {
			logrus.Infof("Copied %s", job.src)
			report.Copied = append(report.Copied, job.dst)
		} else {
			report.Unchanged = append(report.Unchanged, job.dst)
		}
	}

	if err := w.readDistribution(root); err != nil {
		logrus.Warnf("Failed to read distribution information: %v", err)
	}
	w.Info.Mirrored = time.Now().UTC()

	if err := w.Save(); err != nil {
		return report, err
	}

	logrus.Infof("Mirrored %s: %d copied, %d unchanged", root, len(report.Copied), len(report.Unchanged))
	return report, nil
}

// listDir returns the regular file names in dir, or nothing when dir is missing
func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// readDistribution fills the distribution fields from lsb-release, falling back
// to os-release
func (w *Workspace) readDistribution(root string) error {
	vars, err := readShellVars(filepath.Join(root, lsbRelease))
	if err == nil && vars["DISTRIB_ID"] != "" {
		w.Info.Distribution = vars["DISTRIB_ID"]
		w.Info.Codename = vars["DISTRIB_CODENAME"]
		w.Info.Release = vars["DISTRIB_RELEASE"]
		return nil
	}

	vars, err = readShellVars(filepath.Join(root, osRelease))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	w.Info.Distribution = vars["NAME"]
	w.Info.Codename = vars["VERSION_CODENAME"]
	w.Info.Release = vars["VERSION_ID"]
	return nil
}

// readShellVars parses KEY=value lines, with optional quotes
func readShellVars(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vars := make(map[string]string)
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		vars[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return vars, s.Err()
}
