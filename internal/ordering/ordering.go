// Package ordering recomputes dense position values when an item of an
// ordered collection is dragged to a new index. Products and categories
// share the same algorithm.
package ordering

// Item is the minimal view of an ordered row: a stable id plus its
// current position. Callers pass the full list sorted by position,
// so index i corresponds to position i.
type Item struct {
	ID       int64
	Position int
}

// PositionUpdate is one (id, newPosition) pair to persist.
type PositionUpdate struct {
	ID       int64
	Position int
}

// Reposition moves the item with movedID to targetIndex and returns the
// new ordering together with the minimal set of position writes.
//
// Only items whose index falls between the source and target index are
// touched; everything outside that slice keeps its position, which bounds
// the write set to |targetIndex-sourceIndex|+1 rows. An unknown movedID,
// an out-of-range targetIndex, or target == source is a no-op: the input
// order is returned unchanged with a nil update set.
func Reposition(items []Item, movedID int64, targetIndex int) ([]Item, []PositionUpdate) {
	if targetIndex < 0 || targetIndex >= len(items) {
		return items, nil
	}

	sourceIndex := -1
	for i, it := range items {
		if it.ID == movedID {
			sourceIndex = i
			break
		}
	}
	if sourceIndex == -1 || sourceIndex == targetIndex {
		return items, nil
	}

	reordered := make([]Item, 0, len(items))
	reordered = append(reordered, items[:sourceIndex]...)
	reordered = append(reordered, items[sourceIndex+1:]...)
	reordered = append(reordered[:targetIndex], append([]Item{items[sourceIndex]}, reordered[targetIndex:]...)...)

	lo, hi := sourceIndex, targetIndex
	if lo > hi {
		lo, hi = hi, lo
	}

	updates := make([]PositionUpdate, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		reordered[i].Position = i
		updates = append(updates, PositionUpdate{ID: reordered[i].ID, Position: i})
	}

	return reordered, updates
}

// Compact renumbers items to a dense 0..n-1 sequence, returning writes
// only for rows whose position actually changes. Used after a delete left
// a gap in the sequence.
func Compact(items []Item) ([]Item, []PositionUpdate) {
	compacted := make([]Item, len(items))
	copy(compacted, items)

	var updates []PositionUpdate
	for i := range compacted {
		if compacted[i].Position != i {
			compacted[i].Position = i
			updates = append(updates, PositionUpdate{ID: compacted[i].ID, Position: i})
		}
	}
	return compacted, updates
}
