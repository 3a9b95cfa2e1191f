package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/tako/internal/pattern"
)

const (
	maxNameLen        = 30
	maxCategoryLen    = 30
	maxDescriptionLen = 500
)

// ValidationError is a linter failure on a single module field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var urlRegex = regexp.MustCompile(`^(https?://)?([\w-]+\.)+[\w-]{2,}(/[\w\-.~:?#\[\]@!$&'()*+,;={}]*)*/?$`)

// ValidateName checks the module name is non-blank and at most 30 chars.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "Module name cannot be empty."}
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return &ValidationError{Field: "name", Message: "Module name cannot exceed 30 characters."}
	}
	return nil
}

// ValidateCategory checks the category is non-blank and at most 30 chars.
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return &ValidationError{Field: "category", Message: "Module category cannot be empty."}
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return &ValidationError{Field: "category", Message: "Module category cannot exceed 30 characters."}
	}
	return nil
}

// ValidateDescription checks the description is at most 500 chars.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return &ValidationError{Field: "description", Message: "Description cannot exceed 500 characters."}
	}
	return nil
}

// ValidateRegexPatterns requires at least one non-blank pattern and that
// every pattern compiles.
func ValidateRegexPatterns(patterns []string) error {
	patterns = CleanLines(patterns)
	if len(patterns) == 0 {
		return &ValidationError{Field: "regexPatterns", Message: "At least one regex pattern is required."}
	}
	for _, p := range patterns {
		if _, err := pattern.Compile(p); err != nil {
			cause := err
			var perr *pattern.Error
			if errors.As(err, &perr) {
				cause = perr.Err
			}
			return &ValidationError{
				Field:   "regexPatterns",
				Message: fmt.Sprintf("Regex error: %q. %v", p, cause),
			}
		}
	}
	return nil
}

// ValidateURLs requires at least one URL template and that every template
// looks like a URL.
func ValidateURLs(urls []string) error {
	urls = CleanLines(urls)
	if len(urls) == 0 {
		return &ValidationError{Field: "urls", Message: "At least one URL is required."}
	}
	var invalid []string
	for _, u := range urls {
		if !urlRegex.MatchString(u) {
			invalid = append(invalid, u)
		}
	}
	if len(invalid) > 0 {
		return &ValidationError{
			Field:   "urls",
			Message: "The following URLs are invalid:\n" + strings.Join(invalid, "\n"),
		}
	}
	return nil
}

// ValidatePAP accepts only green and red.
func ValidatePAP(pap Sensitivity) error {
	if pap != PAPGreen && pap != PAPRed {
		return &ValidationError{Field: "pap", Message: "PAP value must be 'green' or 'red'."}
	}
	return nil
}

// Validate runs every field linter and joins the failures.
func Validate(m Module) error {
	return errors.Join(
		ValidateName(m.Name),
		ValidateCategory(m.Category),
		ValidateDescription(m.Description),
		ValidateRegexPatterns(m.RegexPatterns),
		ValidateURLs(m.URLs),
		ValidatePAP(m.PAP),
	)
}

// CleanLines trims every entry and drops blank ones.
func CleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// SplitLines splits newline separated input into cleaned entries.
func SplitLines(s string) []string {
	return CleanLines(strings.Split(s, "\n"))
}
