package store

import (
	"context"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/rcliao/tako/internal/model"
)

// Search returns the modules where every whitespace separated word of
// query occurs in the name, the description or one of the URLs, ignoring
// case. Results are sorted by name. An empty query returns everything.
func Search(ctx context.Context, s Store, query string) ([]model.Module, error) {
	modules, err := s.ListAllModules(ctx)
	if err != nil {
		return nil, err
	}

	words := strings.Fields(strings.ToLower(query))
	results := lo.Filter(modules, func(m model.Module, _ int) bool {
		return lo.EveryBy(words, func(w string) bool { return moduleContains(m, w) })
	})

	SortByName(results)
	return results, nil
}

func moduleContains(m model.Module, word string) bool {
	if strings.Contains(strings.ToLower(m.Name), word) ||
		strings.Contains(strings.ToLower(m.Description), word) {
		return true
	}
	return lo.SomeBy(m.URLs, func(u string) bool {
		return strings.Contains(strings.ToLower(u), word)
	})
}

// SortByName sorts modules by name, case-insensitively.
func SortByName(modules []model.Module) {
	slices.SortStableFunc(modules, func(a, b model.Module) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}
