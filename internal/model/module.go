// Package model defines the lookup module and settings data types.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Sensitivity is the PAP classification of a module.
type Sensitivity string

const (
	// PAPGreen modules are always permitted.
	PAPGreen Sensitivity = "green"
	// PAPRed modules are subject to the privacy checks.
	PAPRed Sensitivity = "red"
)

// SelectionPlaceholder is replaced by the selected text in URL templates.
const SelectionPlaceholder = "{SELECTION_TEXT_AREA}"

// Module is a configured lookup target.
type Module struct {
	ID            string      `json:"id" yaml:"id,omitempty"`
	Name          string      `json:"name" yaml:"name"`
	Category      string      `json:"category" yaml:"category"`
	Description   string      `json:"description" yaml:"description"`
	RegexPatterns []string    `json:"regexPatterns" yaml:"regexPatterns"`
	URLs          []string    `json:"urls" yaml:"urls"`
	PAP           Sensitivity `json:"pap" yaml:"pap"`
	Enabled       bool        `json:"enabled" yaml:"enabled"`
}

// IsGreen reports whether privacy checks are skipped for m.
func (m Module) IsGreen() bool {
	return m.PAP == PAPGreen
}

// PrivacySettings apply to red modules only.
type PrivacySettings struct {
	AllowLocalIPOnRed bool     `json:"allowLocalIPonPAPred" yaml:"allowLocalIPonPAPred"`
	ExcludedPatterns  []string `json:"excludedRegexPatternsonPAPred" yaml:"excludedRegexPatternsonPAPred"`
}

// TroubleshootSettings gate diagnostic output.
type TroubleshootSettings struct {
	DebugMode bool `json:"debugMode" yaml:"debugMode"`
}

// DefaultPrivacySettings returns the settings written at install time.
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{AllowLocalIPOnRed: false, ExcludedPatterns: []string{}}
}

// DefaultTroubleshootSettings returns the settings written at install time.
func DefaultTroubleshootSettings() TroubleshootSettings {
	return TroubleshootSettings{DebugMode: false}
}

// GenerateID returns the SHA-256 hex digest of the current unix
// millisecond timestamp followed by name.
func GenerateID(name string) string {
	return generateID(name, time.Now())
}

func generateID(name string, now time.Time) string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(now.UnixMilli(), 10) + name))
	return hex.EncodeToString(sum[:])
}

// FindModule returns the module with the given id.
func FindModule(modules []Module, id string) (Module, bool) {
	for _, m := range modules {
		if m.ID == id {
			return m, true
		}
	}
	return Module{}, false
}
