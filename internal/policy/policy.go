// Package policy decides whether privacy settings permit a module to be
// offered or opened for a piece of selected text.
package policy

import (
	"regexp"

	"github.com/rcliao/tako/internal/logging"
	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/pattern"
)

// Private IPv4 ranges, whole-string match. Octets are not range checked.
var localIPRegex = regexp.MustCompile(`^(10\.\d{1,3}\.\d{1,3}\.\d{1,3}|172\.(1[6-9]|2[0-9]|3[01])\.\d{1,3}\.\d{1,3}|192\.168\.\d{1,3}\.\d{1,3})$`)

// IsLocalIP reports whether text is exactly a private-range IPv4 address.
func IsLocalIP(text string) bool {
	return localIPRegex.MatchString(text)
}

// Evaluator runs the privacy checks. The zero value is not usable; use New.
type Evaluator struct {
	patterns *pattern.Cache
	log      *logging.Logger
}

// New returns an Evaluator compiling excluded patterns through cache.
// A nil cache gets a private one.
func New(cache *pattern.Cache, log *logging.Logger) *Evaluator {
	if cache == nil {
		cache = pattern.NewCache()
	}
	return &Evaluator{patterns: cache, log: log}
}

// IsAdmissible reports whether m may be presented or activated for
// selectionText. Green modules always pass; red modules must pass both the
// local IP check and the excluded pattern check.
func (e *Evaluator) IsAdmissible(m model.Module, selectionText string, ps model.PrivacySettings) bool {
	if m.IsGreen() {
		return true
	}
	return e.CheckLocalIP(m, selectionText, ps) && e.CheckExcluded(m, selectionText, ps)
}

// CheckLocalIP fails red modules when the selection is a private IPv4
// address and the override is off.
func (e *Evaluator) CheckLocalIP(m model.Module, selectionText string, ps model.PrivacySettings) bool {
	if m.IsGreen() || ps.AllowLocalIPOnRed {
		e.log.Debug("local ip check passed", "module", m.Name, "reason", "green or override")
		return true
	}
	if !IsLocalIP(selectionText) {
		e.log.Debug("local ip check passed", "module", m.Name, "reason", "not a local ip")
		return true
	}
	e.log.Info("red module blocked by local ip check", "module", m.Name, "selection", selectionText)
	return false
}

// CheckExcluded fails red modules when any excluded pattern matches the
// selection. Patterns that do not compile are logged and skipped.
func (e *Evaluator) CheckExcluded(m model.Module, selectionText string, ps model.PrivacySettings) bool {
	if m.IsGreen() {
		e.log.Debug("excluded pattern check passed", "module", m.Name, "reason", "green")
		return true
	}
	for _, p := range ps.ExcludedPatterns {
		ok, err := e.patterns.Match(p, selectionText)
		if err != nil {
			e.log.Error("skipping excluded pattern", err)
			continue
		}
		if ok {
			e.log.Info("red module blocked by excluded pattern", "module", m.Name, "pattern", p)
			return false
		}
	}
	e.log.Debug("excluded pattern check passed", "module", m.Name, "reason", "no pattern matched")
	return true
}

// Filter returns the modules of candidates admissible for selectionText,
// preserving order.
func (e *Evaluator) Filter(candidates []model.Module, selectionText string, ps model.PrivacySettings) []model.Module {
	out := make([]model.Module, 0, len(candidates))
	for _, m := range candidates {
		if e.IsAdmissible(m, selectionText, ps) {
			out = append(out, m)
		}
	}
	return out
}
