package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcliao/tako/internal/model"
)

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// GetModule returns the stored module with the given id.
func GetModule(ctx context.Context, s Store, id string) (*model.Module, error) {
	modules, err := s.ListAllModules(ctx)
	if err != nil {
		return nil, err
	}
	m, ok := model.FindModule(modules, id)
	if !ok {
		return nil, fmt.Errorf("module %s: %w", id, ErrNotFound)
	}
	return &m, nil
}

// AddModule lints m, assigns it a fresh id and appends it to the
// collection.
func AddModule(ctx context.Context, s Store, m model.Module) (*model.Module, error) {
	m.RegexPatterns = model.CleanLines(m.RegexPatterns)
	m.URLs = model.CleanLines(m.URLs)
	if err := model.Validate(m); err != nil {
		return nil, err
	}

	modules, err := s.ListAllModules(ctx)
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	m.ID = model.GenerateID(m.Name)
	if _, dup := model.FindModule(modules, m.ID); dup {
		return nil, fmt.Errorf("module id %s already exists", m.ID)
	}

	if err := s.SaveModules(ctx, append(modules, m)); err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateModule applies fn to the module with the given id, lints the
// result and saves the collection. The id cannot be changed.
func UpdateModule(ctx context.Context, s Store, id string, fn func(*model.Module)) (*model.Module, error) {
	modules, err := s.ListAllModules(ctx)
	if err != nil {
		return nil, err
	}

	for i := range modules {
		if modules[i].ID != id {
			continue
		}
		updated := modules[i]
		fn(&updated)
		updated.ID = id
		updated.RegexPatterns = model.CleanLines(updated.RegexPatterns)
		updated.URLs = model.CleanLines(updated.URLs)
		if err := model.Validate(updated); err != nil {
			return nil, err
		}
		modules[i] = updated
		if err := s.SaveModules(ctx, modules); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, fmt.Errorf("module %s: %w", id, ErrNotFound)
}

// SetModuleEnabled toggles the module's enabled flag.
func SetModuleEnabled(ctx context.Context, s Store, id string, enabled bool) (*model.Module, error) {
	return UpdateModule(ctx, s, id, func(m *model.Module) { m.Enabled = enabled })
}

// DeleteModule removes the module with the given id.
func DeleteModule(ctx context.Context, s Store, id string) error {
	modules, err := s.ListAllModules(ctx)
	if err != nil {
		return err
	}
	for i := range modules {
		if modules[i].ID == id {
			return s.SaveModules(ctx, append(modules[:i], modules[i+1:]...))
		}
	}
	return fmt.Errorf("module %s: %w", id, ErrNotFound)
}
