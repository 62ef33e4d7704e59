// Package store owns the in-memory annotation state for one video-viewing
// session. It is the single source of truth the gesture interpreter mutates
// and the rendering layer reads; it never talks to the network.
//
// The store is not safe for concurrent use. It is owned by the session,
// which serializes access the way a single-threaded event loop would.
package store

import "github.com/lewtec/polypmark/internal/domain"

// Store keeps annotations keyed by polyp identity, preserving insertion
// order, plus the identity of the currently selected annotation.
type Store struct {
	order    []int64
	items    map[int64]domain.Annotation
	selected int64
}

// New returns an empty store.
func New() *Store {
	return &Store{items: make(map[int64]domain.Annotation)}
}

// Upsert inserts or replaces an annotation. A new identity is appended to
// the iteration order; an existing one keeps its position.
func (s *Store) Upsert(a domain.Annotation) {
	if _, ok := s.items[a.ID]; !ok {
		s.order = append(s.order, a.ID)
	}
	s.items[a.ID] = a
}

// Remove deletes an annotation. If it was selected the selection is
// cleared. Removing an unknown identity is a no-op.
func (s *Store) Remove(id int64) {
	if _, ok := s.items[id]; !ok {
		return
	}
	delete(s.items, id)
	s.dropFromOrder(id)
	if s.selected == id {
		s.selected = 0
	}
}

// Get returns the annotation for an identity.
func (s *Store) Get(id int64) (domain.Annotation, bool) {
	a, ok := s.items[id]
	return a, ok
}

// Len returns the number of stored annotations.
func (s *Store) Len() int { return len(s.items) }

// List returns all annotations in insertion order.
func (s *Store) List() []domain.Annotation {
	out := make([]domain.Annotation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// FilterByFrame returns the annotations anchored at a frame, in insertion
// order.
func (s *Store) FilterByFrame(frame int) []domain.Annotation {
	var out []domain.Annotation
	for _, id := range s.order {
		if a := s.items[id]; a.Frame == frame {
			out = append(out, a)
		}
	}
	return out
}

// FilterOpen returns the annotations that have no end frame yet.
func (s *Store) FilterOpen() []domain.Annotation {
	var out []domain.Annotation
	for _, id := range s.order {
		if a := s.items[id]; a.Open() {
			out = append(out, a)
		}
	}
	return out
}

// Select marks an annotation as selected. Selecting an unknown identity
// reports false and leaves the previous selection intact.
func (s *Store) Select(id int64) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	s.selected = id
	return true
}

// ClearSelection removes the current selection.
func (s *Store) ClearSelection() { s.selected = 0 }

// Selected returns the identity of the selected annotation, if any.
func (s *Store) Selected() (int64, bool) {
	if s.selected == 0 {
		return 0, false
	}
	if _, ok := s.items[s.selected]; !ok {
		s.selected = 0
		return 0, false
	}
	return s.selected, true
}

// Rekey moves an annotation to a new identity, keeping its position and
// selection. Used when the backend mints its own identity on first create.
func (s *Store) Rekey(oldID, newID int64) bool {
	if oldID == newID {
		_, ok := s.items[oldID]
		return ok
	}
	a, ok := s.items[oldID]
	if !ok {
		return false
	}
	if _, taken := s.items[newID]; taken {
		return false
	}
	a.ID = newID
	delete(s.items, oldID)
	s.items[newID] = a
	for i, id := range s.order {
		if id == oldID {
			s.order[i] = newID
			break
		}
	}
	if s.selected == oldID {
		s.selected = newID
	}
	return true
}

// ReplaceFrame swaps every annotation anchored at a frame for the given
// set. Reloading a frame replaces its view, it never merges.
func (s *Store) ReplaceFrame(frame int, anns []domain.Annotation) {
	for _, id := range s.frameIDs(frame) {
		s.Remove(id)
	}
	for _, a := range anns {
		a.Frame = frame
		s.Upsert(a)
	}
}

func (s *Store) frameIDs(frame int) []int64 {
	var ids []int64
	for _, id := range s.order {
		if s.items[id].Frame == frame {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) dropFromOrder(id int64) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
