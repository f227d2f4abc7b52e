package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func list(ids ...int64) []Item {
	items := make([]Item, len(ids))
	for i, id := range ids {
		items[i] = Item{ID: id, Position: i}
	}
	return items
}

func orderOf(items []Item) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func TestRepositionMoveDown(t *testing.T) {
	items := list(10, 20, 30, 40, 50)

	reordered, updates := Reposition(items, 20, 3)

	assert.Equal(t, []int64{10, 30, 40, 20, 50}, orderOf(reordered))
	// slice [1,3] rewritten, nothing else
	assert.Len(t, updates, 3)
	assert.Equal(t, []PositionUpdate{{30, 1}, {40, 2}, {20, 3}}, updates)
	for i, it := range reordered {
		assert.Equal(t, i, it.Position)
	}
}

func TestRepositionMoveUp(t *testing.T) {
	items := list(10, 20, 30, 40, 50)

	reordered, updates := Reposition(items, 50, 0)

	assert.Equal(t, []int64{50, 10, 20, 30, 40}, orderOf(reordered))
	assert.Len(t, updates, 5)
	for i, it := range reordered {
		assert.Equal(t, i, it.Position)
	}
}

func TestRepositionFirstToLastAndBack(t *testing.T) {
	items := list(1, 2, 3, 4)

	reordered, updates := Reposition(items, 1, 3)
	assert.Equal(t, []int64{2, 3, 4, 1}, orderOf(reordered))
	assert.Len(t, updates, 4)

	restored, updates := Reposition(reordered, 1, 0)
	assert.Equal(t, []int64{1, 2, 3, 4}, orderOf(restored))
	assert.Len(t, updates, 4)
}

func TestRepositionNoops(t *testing.T) {
	t.Run("target equals source", func(t *testing.T) {
		items := list(1, 2, 3)
		reordered, updates := Reposition(items, 2, 1)
		assert.Equal(t, items, reordered)
		assert.Nil(t, updates)
	})

	t.Run("unknown id", func(t *testing.T) {
		items := list(1, 2, 3)
		reordered, updates := Reposition(items, 99, 0)
		assert.Equal(t, items, reordered)
		assert.Nil(t, updates)
	})

	t.Run("single element", func(t *testing.T) {
		items := list(7)
		reordered, updates := Reposition(items, 7, 0)
		assert.Equal(t, items, reordered)
		assert.Nil(t, updates)
	})

	t.Run("target out of range", func(t *testing.T) {
		items := list(1, 2, 3)
		reordered, updates := Reposition(items, 1, 3)
		assert.Equal(t, items, reordered)
		assert.Nil(t, updates)
	})

	t.Run("empty list", func(t *testing.T) {
		reordered, updates := Reposition(nil, 1, 0)
		assert.Empty(t, reordered)
		assert.Nil(t, updates)
	})
}

func TestRepositionDoesNotMutateInput(t *testing.T) {
	items := list(1, 2, 3, 4)
	_, _ = Reposition(items, 4, 0)
	assert.Equal(t, list(1, 2, 3, 4), items)
}

func TestCompact(t *testing.T) {
	items := []Item{{ID: 1, Position: 0}, {ID: 3, Position: 2}, {ID: 4, Position: 3}}

	compacted, updates := Compact(items)

	assert.Equal(t, []Item{{1, 0}, {3, 1}, {4, 2}}, compacted)
	assert.Equal(t, []PositionUpdate{{3, 1}, {4, 2}}, updates)
}

func TestCompactAlreadyDense(t *testing.T) {
	items := list(1, 2, 3)
	compacted, updates := Compact(items)
	assert.Equal(t, items, compacted)
	assert.Nil(t, updates)
}
