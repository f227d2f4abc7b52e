package slug

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Hello World!":          "hello-world",
		"  Red   Widget  ":      "red-widget",
		"Crème brûlée & co.":    "cr-me-br-l-e-co",
		"UPPER-case_mixed 123":  "upper-case-mixed-123",
		"---":                   "untitled",
		"!!!":                   "untitled",
		"already-a-slug":        "already-a-slug",
		"trailing punctuation?": "trailing-punctuation",
	}
	for title, want := range cases {
		assert.Equal(t, want, Make(title), "title %q", title)
	}
}

// siblingSet fakes a scope: slug -> owning row id.
type siblingSet map[string]int64

func (s siblingSet) exists(_ context.Context, _ int64, candidate string, excludeID int64) (bool, error) {
	id, ok := s[candidate]
	if !ok {
		return false, nil
	}
	return id != excludeID, nil
}

func TestAllocateEmptyScope(t *testing.T) {
	a := Allocator{Exists: siblingSet{}.exists}

	got, err := a.Allocate(context.Background(), 1, "Hello World!", 0)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", got)
}

func TestAllocateProbesSequentialSuffixes(t *testing.T) {
	scope := siblingSet{"widget": 1, "widget-1": 2, "widget-2": 3}
	a := Allocator{Exists: scope.exists}

	got, err := a.Allocate(context.Background(), 1, "Widget", 0)
	require.NoError(t, err)
	assert.Equal(t, "widget-3", got)
}

func TestAllocateSelfExclusionOnUpdate(t *testing.T) {
	// Row 7 already owns "widget"; reallocating for its own unchanged
	// title must return "widget", not "widget-1".
	scope := siblingSet{"widget": 7}
	a := Allocator{Exists: scope.exists}

	got, err := a.Allocate(context.Background(), 1, "Widget", 7)
	require.NoError(t, err)
	assert.Equal(t, "widget", got)
}

func TestAllocateGivesUpAfterBound(t *testing.T) {
	a := Allocator{Exists: func(context.Context, int64, string, int64) (bool, error) {
		return true, nil
	}}

	_, err := a.Allocate(context.Background(), 1, "Widget", 0)
	assert.ErrorIs(t, err, ErrSpaceExhausted)
}

func TestAllocatePropagatesProbeError(t *testing.T) {
	probeErr := errors.New("connection reset")
	a := Allocator{Exists: func(context.Context, int64, string, int64) (bool, error) {
		return false, probeErr
	}}

	_, err := a.Allocate(context.Background(), 1, "Widget", 0)
	assert.ErrorIs(t, err, probeErr)
}

func TestAllocateProbeCountIsBoundedBySiblings(t *testing.T) {
	scope := siblingSet{"widget": 1, "widget-1": 2}
	probes := 0
	a := Allocator{Exists: func(ctx context.Context, scopeID int64, candidate string, excludeID int64) (bool, error) {
		probes++
		return scope.exists(ctx, scopeID, candidate, excludeID)
	}}

	got, err := a.Allocate(context.Background(), 1, "Widget", 0)
	require.NoError(t, err)
	assert.Equal(t, "widget-2", got)
	assert.Equal(t, 3, probes, fmt.Sprintf("expected colliding siblings + 1 probes, got %d", probes))
}
