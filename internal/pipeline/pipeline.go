// Package pipeline builds a classified catalog from a workspace: sources and
// preferences are resolved into scan order, every index is scanned, and installed
// packages are marked for upgrade.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ralt/debcube/internal/config"
	"github.com/ralt/debcube/internal/dependency"
	"github.com/ralt/debcube/internal/models"
	"github.com/ralt/debcube/internal/repository"
	"github.com/ralt/debcube/internal/sources"
	"github.com/ralt/debcube/internal/workspace"
	"github.com/sirupsen/logrus"
)

// Result is everything a scan produced
type Result struct {
	Sources     []*models.Source
	Catalog     *repository.Catalog
	Upgradable  []string
	Diagnostics []models.Diagnostic
	Resolver    *dependency.Resolver
}

// Run scans the workspace. Problems with individual files end up in the result's
// diagnostics; only an unusable workspace is an error.
func Run(ctx context.Context, ws *workspace.Workspace, cfg *config.Config) (*Result, error) {
	if ws == nil {
		return nil, &models.CubeError{Type: models.ErrWorkspace, Err: errors.New("no workspace")}
	}
	if _, err := os.Stat(ws.Root); err != nil {
		return nil, &models.CubeError{Type: models.ErrWorkspace, Err: fmt.Errorf("workspace %s: %w", ws.Root, err)}
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	result := &Result{}

	srcs, diags := resolveSources(ws, cfg.Arch)
	result.Diagnostics = append(result.Diagnostics, diags...)

	srcs = append(srcs, models.NewStatusSource())
	result.Sources = srcs

	idx := repository.NewIndexer(repository.Options{ListsPath: ws.ListsPath()})
	if err := idx.ScanAll(ctx, srcs); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}
	result.Diagnostics = append(result.Diagnostics, idx.Diagnostics...)
	result.Catalog = idx.Catalog

	result.Upgradable = dependency.MarkPackages(idx.Catalog, false)
	result.Resolver = dependency.NewResolver(idx.Catalog)

	logrus.Infof("Scan finished: %d sources, %d available, %d installed, %d upgradable, %d diagnostics",
		len(srcs), len(result.Catalog.Available), len(result.Catalog.Installed),
		len(result.Upgradable), len(result.Diagnostics))

	return result, nil
}

// resolveSources reads the workspace's sources lists and preferences. A file that
// cannot be read is reported and the sources gathered so far are still ordered.
func resolveSources(ws *workspace.Workspace, arch string) ([]*models.Source, []models.Diagnostic) {
	var diags []models.Diagnostic
	fileOp := func(err error) {
		logrus.Warn(err)
		diags = append(diags, models.Diagnostic{Type: models.ErrFileOp, Source: ws.SourcesPath(), Message: err.Error()})
	}

	listFiles, err := ws.SourceListFiles()
	if err != nil {
		fileOp(err)
	}
	prefFiles, err := ws.PreferenceFiles()
	if err != nil {
		fileOp(err)
	}

	r := sources.NewResolver(sources.Options{Arch: arch})
	srcs, err := r.Scan(listFiles, prefFiles)
	if err != nil {
		fileOp(err)
		r.AssignPriorities()
		r.Sort()
		srcs = r.Sources
	}

	return srcs, diags
}
