package selection

import (
	"maps"
	"slices"
	"sync"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

// Set is the set of selected plant IDs plus the selection mode flag. It's safe for
// concurrent use and the zero value is an empty set ready to use.
type Set struct {
	mu     sync.RWMutex
	ids    map[string]struct{}
	active bool
}

// New returns a new empty selection set, optionally with some IDs selected.
func New(ids ...string) *Set {
	s := &Set{ids: map[string]struct{}{}}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Toggle adds the ID if absent or removes it if present.
func (s *Set) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	if s.ids == nil {
		s.ids = map[string]struct{}{}
	}
	s.ids[id] = struct{}{}
}

// SelectAll replaces the selection with the given IDs.
func (s *Set) SelectAll(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// SelectWhere replaces the selection with the plants that match the predicate.
func (s *Set) SelectWhere(plants []model.Plant, predicate func(model.Plant) bool) {
	ids := make([]string, 0, len(plants))
	for _, p := range plants {
		if predicate(p) {
			ids = append(ids, p.ID)
		}
	}
	s.SelectAll(ids)
}

// Clear empties the selection.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.ids)
}

// SetSelectionMode sets the selection mode, turning it off clears the selection.
func (s *Set) SetSelectionMode(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = active
	if !active {
		clear(s.ids)
	}
}

// SelectionMode returns true if the selection mode is active.
func (s *Set) SelectionMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active
}

// Count returns the number of selected IDs.
func (s *Set) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.ids)
}

// IsEmpty returns true when nothing is selected.
func (s *Set) IsEmpty() bool { return s.Count() == 0 }

// Has returns true if the ID is selected.
func (s *Set) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected IDs sorted.
func (s *Set) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := slices.AppendSeq(make([]string, 0, len(s.ids)), maps.Keys(s.ids))
	slices.Sort(ids)
	return ids
}

// Resolve returns the selected plants in the order they are received.
func (s *Set) Resolve(plants []model.Plant) []model.Plant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Plant, 0, len(s.ids))
	for _, p := range plants {
		if _, ok := s.ids[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}
