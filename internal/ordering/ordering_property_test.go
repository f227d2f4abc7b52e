package ordering

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: after any move, positions are still a permutation of 0..n-1
// and the moved item sits at the target index.
func TestProperty_RepositionKeepsDensePermutation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("positions stay a dense permutation", prop.ForAll(
		func(n int, sourceSeed int, targetSeed int) bool {
			items := make([]Item, n)
			for i := range items {
				items[i] = Item{ID: int64(i + 1), Position: i}
			}
			sourceIndex := sourceSeed % n
			targetIndex := targetSeed % n
			movedID := items[sourceIndex].ID

			reordered, _ := Reposition(items, movedID, targetIndex)

			if len(reordered) != n {
				return false
			}
			seen := make(map[int64]bool, n)
			for i, it := range reordered {
				if it.Position != i {
					return false
				}
				if seen[it.ID] {
					return false
				}
				seen[it.ID] = true
			}
			return reordered[targetIndex].ID == movedID
		},
		gen.IntRange(1, 50),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// Property: the persisted write set is exactly the slice between source
// and target, |target-source|+1 rows, and no row outside it changes.
func TestProperty_RepositionMinimalWriteSet(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("write set spans exactly [lo,hi]", prop.ForAll(
		func(n int, sourceSeed int, targetSeed int) bool {
			items := make([]Item, n)
			for i := range items {
				items[i] = Item{ID: int64(i + 1), Position: i}
			}
			sourceIndex := sourceSeed % n
			targetIndex := targetSeed % n

			reordered, updates := Reposition(items, items[sourceIndex].ID, targetIndex)

			if sourceIndex == targetIndex {
				return len(updates) == 0
			}

			lo, hi := sourceIndex, targetIndex
			if lo > hi {
				lo, hi = hi, lo
			}
			if len(updates) != hi-lo+1 {
				return false
			}
			updated := make(map[int64]bool, len(updates))
			for _, u := range updates {
				updated[u.ID] = true
			}
			for i, it := range reordered {
				inside := i >= lo && i <= hi
				if inside != updated[it.ID] {
					return false
				}
				if !inside && it.Position != i {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
