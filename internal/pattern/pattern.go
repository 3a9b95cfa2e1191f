// Package pattern compiles user supplied match and exclusion patterns.
//
// Patterns use ECMAScript syntax so module definitions written for the
// browser extension keep their meaning (lookarounds, backreferences).
package pattern

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dlclark/regexp2"
)

// ErrInvalidPattern is matched by every compile failure.
var ErrInvalidPattern = errors.New("invalid pattern")

// Error describes a pattern that failed to compile.
type Error struct {
	Pattern string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrInvalidPattern, e.Err}
}

// Compile compiles p with ECMAScript semantics.
func Compile(p string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(p, regexp2.ECMAScript)
	if err != nil {
		return nil, &Error{Pattern: p, Err: err}
	}
	return re, nil
}

type entry struct {
	re  *regexp2.Regexp
	err error
}

// Cache memoizes compiled patterns, failures included. It is safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Compile returns the cached compilation of p.
func (c *Cache) Compile(p string) (*regexp2.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[p]; ok {
		return e.re, e.err
	}
	re, err := Compile(p)
	c.entries[p] = entry{re: re, err: err}
	return re, err
}

// Match reports whether p finds a match anywhere in text.
func (c *Cache) Match(p, text string) (bool, error) {
	re, err := c.Compile(p)
	if err != nil {
		return false, err
	}
	ok, err := re.MatchString(text)
	if err != nil {
		return false, fmt.Errorf("match %q: %w", p, err)
	}
	return ok, nil
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
