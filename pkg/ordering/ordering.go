// Package ordering keeps sibling positions contiguous (1..N) within a parent.
package ordering

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyOrder is returned when a reorder payload carries no items.
	ErrEmptyOrder = errors.New("ordering: no items supplied")
	// ErrDuplicateID is returned when the same sibling appears twice in a reorder payload.
	ErrDuplicateID = errors.New("ordering: duplicate id")
	// ErrInvalidPosition is returned for positions below 1.
	ErrInvalidPosition = errors.New("ordering: position must be positive")
	// ErrUnknownID is returned when a reorder item does not belong to the parent.
	ErrUnknownID = errors.New("ordering: id does not belong to parent")
	// ErrTargetNotFound is returned when a delete target is not among the siblings.
	ErrTargetNotFound = errors.New("ordering: target not found among siblings")
)

// Item is one sibling and its position.
type Item struct {
	ID       string `json:"id" db:"id"`
	Position int    `json:"position" db:"position"`
}

// NextPosition returns the position for an appended sibling: max + 1, or 1 for an empty parent.
func NextPosition(maxPosition *int) int {
	if maxPosition == nil || *maxPosition < 1 {
		return 1
	}
	return *maxPosition + 1
}

// Compact removes targetID from siblings (ordered by position) and returns the
// position updates needed to renumber the remainder 1..N-1. Rows that already
// sit at their final position are omitted.
func Compact(siblings []Item, targetID string) ([]Item, error) {
	found := false
	updates := make([]Item, 0, len(siblings))
	next := 1
	for _, s := range siblings {
		if s.ID == targetID {
			found = true
			continue
		}
		if s.Position != next {
			updates = append(updates, Item{ID: s.ID, Position: next})
		}
		next++
	}
	if !found {
		return nil, ErrTargetNotFound
	}
	return updates, nil
}

// ValidateReorder checks a caller-supplied ordering against the parent's
// current children. Positions are trusted as sent; the payload does not have to
// cover every child or form a permutation.
func ValidateReorder(items []Item, children []string) error {
	if len(items) == 0 {
		return ErrEmptyOrder
	}

	known := make(map[string]struct{}, len(children))
	for _, id := range children {
		known[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Position < 1 {
			return fmt.Errorf("%w: %s", ErrInvalidPosition, it.ID)
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, it.ID)
		}
		seen[it.ID] = struct{}{}
		if children != nil {
			if _, ok := known[it.ID]; !ok {
				return fmt.Errorf("%w: %s", ErrUnknownID, it.ID)
			}
		}
	}
	return nil
}

// IsContiguous reports whether the positions form exactly {1..N}.
func IsContiguous(items []Item) bool {
	seen := make([]bool, len(items)+1)
	for _, it := range items {
		if it.Position < 1 || it.Position > len(items) || seen[it.Position] {
			return false
		}
		seen[it.Position] = true
	}
	return true
}
