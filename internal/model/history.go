package model

import (
	"fmt"
	"slices"
	"time"
)

// UndoPatch is the minimal data needed to reverse the effect of one item.
// Exactly one of the forms is used: a single field restore, or the full snapshot
// of a plant that was removed and needs to be re-created.
type UndoPatch struct {
	Field        Field
	OldValue     string
	FullSnapshot *Plant
}

// Validate validates the undo patch.
func (u UndoPatch) Validate() error {
	hasField := u.Field != ""
	hasSnapshot := u.FullSnapshot != nil

	switch {
	case hasField && hasSnapshot:
		return fmt.Errorf("undo patch can't have a field and a snapshot: %w", ErrNotValid)
	case !hasField && !hasSnapshot:
		return fmt.Errorf("undo patch requires a field or a snapshot: %w", ErrNotValid)
	case hasField && !u.Field.Valid():
		return fmt.Errorf("field %q is not patchable: %w", u.Field, ErrNotValid)
	}

	return nil
}

// IsSnapshot returns true if the patch restores a removed plant.
func (u UndoPatch) IsSnapshot() bool { return u.FullSnapshot != nil }

// Copy returns a deep copy of the undo patch.
func (u UndoPatch) Copy() UndoPatch {
	if u.FullSnapshot != nil {
		s := *u.FullSnapshot
		u.FullSnapshot = &s
	}
	return u
}

// EntityUndoPatch is the undo patch of a specific plant.
type EntityUndoPatch struct {
	EntityID string
	Patch    UndoPatch
}

// HistoryEntry is the record of a completed bulk job.
type HistoryEntry struct {
	ID            string
	JobID         string
	OperationKind OperationKind
	Timestamp     time.Time
	ItemCount     int
	SuccessCount  int
	FailureCount  int
	Input         OperationInput
	Undoable      bool
	// UndoPatches are only present if the operation is undoable.
	UndoPatches []EntityUndoPatch
	// Restored tracks the entities already restored by a previous partial undo.
	Restored []string
}

// CanUndo returns true if the entry can be reverted.
func (h HistoryEntry) CanUndo() bool {
	return h.Undoable && len(h.UndoPatches) > 0
}

// Copy returns a deep copy of the history entry.
func (h HistoryEntry) Copy() HistoryEntry {
	h.Input = h.Input.Copy()
	h.UndoPatches = slices.Clone(h.UndoPatches)
	for i, p := range h.UndoPatches {
		h.UndoPatches[i].Patch = p.Patch.Copy()
	}
	h.Restored = slices.Clone(h.Restored)
	return h
}
