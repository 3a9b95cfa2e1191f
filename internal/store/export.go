package store

import (
	"context"
	"fmt"

	"github.com/rcliao/tako/internal/model"
)

// ImportResult reports what Import did with each incoming module.
type ImportResult struct {
	Imported int            `json:"imported"`
	Skipped  []SkippedEntry `json:"skipped,omitempty"`
}

// SkippedEntry is a module Import refused.
type SkippedEntry struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Export returns the whole module collection, including disabled modules.
func Export(ctx context.Context, s Store) ([]model.Module, error) {
	return s.ListAllModules(ctx)
}

// Import lints and appends modules to the stored collection. Modules
// without an id get a generated one; ids already present are skipped.
// With replace set the stored collection is discarded first. A missing
// collection is treated as empty.
func Import(ctx context.Context, s Store, modules []model.Module, replace bool) (*ImportResult, error) {
	var current []model.Module
	if !replace {
		existing, err := s.ListAllModules(ctx)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		current = existing
	}

	seen := make(map[string]bool, len(current))
	for _, m := range current {
		seen[m.ID] = true
	}

	res := &ImportResult{}
	for _, m := range modules {
		m.RegexPatterns = model.CleanLines(m.RegexPatterns)
		m.URLs = model.CleanLines(m.URLs)
		if err := model.Validate(m); err != nil {
			res.Skipped = append(res.Skipped, SkippedEntry{Name: m.Name, Reason: err.Error()})
			continue
		}
		if m.ID == "" {
			m.ID = model.GenerateID(m.Name)
		}
		if seen[m.ID] {
			res.Skipped = append(res.Skipped, SkippedEntry{Name: m.Name, Reason: fmt.Sprintf("duplicate id %s", m.ID)})
			continue
		}
		seen[m.ID] = true
		current = append(current, m)
		res.Imported++
	}

	if err := s.SaveModules(ctx, current); err != nil {
		return nil, err
	}
	return res, nil
}
