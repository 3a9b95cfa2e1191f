// Package catalog holds the bundled default modules and the install
// routine that seeds a fresh store.
package catalog

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"go.yaml.in/yaml/v3"

	"github.com/rcliao/tako/internal/logging"
	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/store"
)

//go:embed modules/*.yaml
var bundled embed.FS

// Load parses the bundled module definitions in file name order. The
// returned modules carry no id.
func Load() ([]model.Module, error) {
	return LoadFS(bundled, "modules")
}

// LoadFS parses every .yaml file of dir in fsys.
func LoadFS(fsys fs.FS, dir string) ([]model.Module, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var modules []model.Module
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var m model.Module
		if err := yaml.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// Install writes the default privacy and troubleshoot settings and the
// bundled catalog, each module getting a freshly generated id. A failing
// step is logged and the remaining steps still run; the first error is
// returned. Nothing is written for the catalog when no module loads.
func Install(ctx context.Context, s store.Store, log *logging.Logger) (int, error) {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := s.SavePrivacySettings(ctx, model.DefaultPrivacySettings()); err != nil {
		log.Error("saving privacy settings", err)
		keep(err)
	}
	if err := s.SaveTroubleshootSettings(ctx, model.DefaultTroubleshootSettings()); err != nil {
		log.Error("saving troubleshoot settings", err)
		keep(err)
	}

	modules, err := Load()
	if err != nil {
		log.Error("loading bundled modules", err)
		keep(err)
	}
	for i := range modules {
		modules[i].ID = model.GenerateID(modules[i].Name)
	}

	if len(modules) > 0 {
		if err := s.SaveModules(ctx, modules); err != nil {
			log.Error("saving module list", err)
			keep(err)
			return 0, firstErr
		}
	}

	log.Debug("installed default catalog", "modules", len(modules))
	return len(modules), firstErr
}
