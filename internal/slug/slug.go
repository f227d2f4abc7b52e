// Package slug derives URL-safe, scope-unique identifiers from free-text
// titles. Uniqueness is probed against the caller's store; the check is
// not transactional, so two concurrent creates with the same title can
// still collide at insert time. Callers are expected to retry on a
// unique-violation error.
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// maxAttempts bounds the suffix probe so corrupted data cannot spin the
// allocator forever.
const maxAttempts = 1000

var ErrSpaceExhausted = errors.New("slug space exhausted")

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases the title, collapses every run of non-alphanumeric
// characters into a single hyphen, and trims leading/trailing hyphens.
// A title with no usable characters yields "untitled".
func Make(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "untitled"
	}
	return s
}

// ExistsFunc reports whether a sibling row in scopeID already carries the
// candidate slug. excludeID (0 for none) omits the row being updated so a
// row never collides with itself.
type ExistsFunc func(ctx context.Context, scopeID int64, candidate string, excludeID int64) (bool, error)

// Allocator probes a scope for the first free slug derived from a title:
// base, base-1, base-2, ...
type Allocator struct {
	Exists ExistsFunc
}

// Allocate returns the first candidate the scope does not contain. The
// returned slug is unique within the scope at the time of the check only.
func (a Allocator) Allocate(ctx context.Context, scopeID int64, title string, excludeID int64) (string, error) {
	base := Make(title)

	candidate := base
	for counter := 1; counter <= maxAttempts; counter++ {
		taken, err := a.Exists(ctx, scopeID, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}

	return "", ErrSpaceExhausted
}
