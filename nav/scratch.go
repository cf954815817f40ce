package nav

import "fmt"

// Scratch is an algorithm-local side table of per-node working records.
// Each algorithm run owns its own table, so runs over the same frozen graph
// never share state.
type Scratch[T any] struct {
	records map[NodeID]*T
}

func NewScratch[T any]() *Scratch[T] {
	return &Scratch[T]{records: make(map[NodeID]*T)}
}

// Create attaches a zeroed record to id, replacing any previous one.
func (s *Scratch[T]) Create(id NodeID) *T {
	rec := new(T)
	s.records[id] = rec
	return rec
}

// Has reports whether a record exists for id.
func (s *Scratch[T]) Has(id NodeID) bool {
	_, ok := s.records[id]
	return ok
}

// Get returns the record for id. Reading a record that was never created is
// a programming error and panics.
func (s *Scratch[T]) Get(id NodeID) *T {
	rec, ok := s.records[id]
	if !ok {
		panic(fmt.Sprintf("nav: no scratch record for node %d", id))
	}
	return rec
}

// Len returns the number of records.
func (s *Scratch[T]) Len() int {
	return len(s.records)
}

// Clear drops every record.
func (s *Scratch[T]) Clear() {
	clear(s.records)
}
