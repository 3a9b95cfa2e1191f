// Package matcher selects the modules whose match patterns apply to a
// piece of selected text.
package matcher

import (
	"github.com/samber/lo"

	"github.com/rcliao/tako/internal/logging"
	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/pattern"
)

// Matcher evaluates module patterns against selected text.
type Matcher struct {
	patterns *pattern.Cache
	log      *logging.Logger
}

// New returns a Matcher compiling through cache. A nil cache gets a
// private one.
func New(cache *pattern.Cache, log *logging.Logger) *Matcher {
	if cache == nil {
		cache = pattern.NewCache()
	}
	return &Matcher{patterns: cache, log: log}
}

// MatchModules returns the modules with at least one pattern matching
// selectionText, unique by id, in encounter order. Patterns that fail to
// compile are logged and never count as a match. Empty text matches
// nothing.
func (m *Matcher) MatchModules(selectionText string, modules []model.Module) []model.Module {
	if selectionText == "" {
		return nil
	}

	var matched []model.Module
	for _, mod := range modules {
		if m.matches(mod, selectionText) {
			matched = append(matched, mod)
		}
	}
	return lo.UniqBy(matched, func(mod model.Module) string { return mod.ID })
}

func (m *Matcher) matches(mod model.Module, text string) bool {
	for _, p := range mod.RegexPatterns {
		ok, err := m.patterns.Match(p, text)
		if err != nil {
			m.log.Error("skipping module pattern", err, "module", mod.Name)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
