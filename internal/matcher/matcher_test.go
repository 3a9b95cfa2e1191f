package matcher

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"github.com/rcliao/tako/internal/logging"
	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/pattern"
)

func ids(mods []model.Module) []string {
	return lo.Map(mods, func(m model.Module, _ int) string { return m.ID })
}

func TestMatchModulesAnyPattern(t *testing.T) {
	m := New(pattern.NewCache(), logging.Discard())
	mods := []model.Module{
		{ID: "A", RegexPatterns: []string{"foo"}},
		{ID: "B", RegexPatterns: []string{"bar"}},
		{ID: "C", RegexPatterns: []string{"baz"}},
	}

	assert.Equal(t, []string{"A", "B"}, ids(m.MatchModules("foo bar", mods)))
}

func TestMatchModulesDeterministic(t *testing.T) {
	m := New(nil, nil)
	mods := []model.Module{
		{ID: "B", RegexPatterns: []string{"bar"}},
		{ID: "A", RegexPatterns: []string{"foo"}},
	}

	first := ids(m.MatchModules("foo bar", mods))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ids(m.MatchModules("foo bar", mods)))
	}
	assert.ElementsMatch(t, []string{"A", "B"}, first)
}

func TestMatchModulesEmptySelection(t *testing.T) {
	cache := pattern.NewCache()
	m := New(cache, nil)
	mods := []model.Module{{ID: "A", RegexPatterns: []string{".*"}}}

	assert.Empty(t, m.MatchModules("", mods))
	assert.Zero(t, cache.Len(), "no pattern should be compiled for empty text")
}

func TestMatchModulesInvalidPatternSkipped(t *testing.T) {
	m := New(nil, logging.Discard())
	mods := []model.Module{
		{ID: "A", RegexPatterns: []string{"(", "example"}},
		{ID: "B", RegexPatterns: []string{"["}},
	}

	assert.Equal(t, []string{"A"}, ids(m.MatchModules("example.com", mods)))
}

func TestMatchModulesUniqueByID(t *testing.T) {
	m := New(nil, nil)
	mods := []model.Module{
		{ID: "A", RegexPatterns: []string{"a", "b"}},
		{ID: "A", RegexPatterns: []string{"ab"}},
	}

	assert.Equal(t, []string{"A"}, ids(m.MatchModules("ab", mods)))
}

func TestMatchModulesECMAScriptSyntax(t *testing.T) {
	m := New(nil, nil)
	mods := []model.Module{
		{ID: "md5", RegexPatterns: []string{`^[a-fA-F0-9]{32}$`}},
		{ID: "cve", RegexPatterns: []string{`^CVE-\d{4}-\d{4,}$`}},
		{ID: "not-ip", RegexPatterns: []string{`^(?!\d+\.\d+\.\d+\.\d+$)[\w.-]+\.[a-z]{2,}$`}},
	}

	assert.Equal(t, []string{"md5"}, ids(m.MatchModules("d41d8cd98f00b204e9800998ecf8427e", mods)))
	assert.Equal(t, []string{"cve"}, ids(m.MatchModules("CVE-2021-44228", mods)))
	assert.Equal(t, []string{"not-ip"}, ids(m.MatchModules("example.com", mods)))
	assert.Empty(t, m.MatchModules("1.2.3.4", mods))
}
