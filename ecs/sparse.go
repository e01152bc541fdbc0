package ecs

import "iter"

// SparseSetIndex is implemented by the dense integer handles of this package
// (ComponentId, BundleId, ArchetypeId) so generic containers can map them to
// dense storage.
type SparseSetIndex interface {
	~uint32
	Index() int
}

// SparseSet maps integer handles to values stored in a dense slice.
// Lookup is O(1); iteration visits values in insertion order until a Remove
// swaps the last entry into the vacated slot.
type SparseSet[I SparseSetIndex, V any] struct {
	sparse  []int32 // handle index -> dense slot + 1, 0 means absent
	dense   []V
	indices []I
}

// NewSparseSet creates a sparse set with room for capacity values.
func NewSparseSet[I SparseSetIndex, V any](capacity int) *SparseSet[I, V] {
	return &SparseSet[I, V]{
		dense:   make([]V, 0, capacity),
		indices: make([]I, 0, capacity),
	}
}

// Insert stores value under index, replacing any previous value.
func (s *SparseSet[I, V]) Insert(index I, value V) {
	i := index.Index()
	if i < len(s.sparse) && s.sparse[i] != 0 {
		s.dense[s.sparse[i]-1] = value
		return
	}
	if i >= len(s.sparse) {
		grown := make([]int32, i+1, max(i+1, 2*len(s.sparse)))
		copy(grown, s.sparse)
		s.sparse = grown[:cap(grown)]
	}
	s.dense = append(s.dense, value)
	s.indices = append(s.indices, index)
	s.sparse[i] = int32(len(s.dense))
}

// Get returns the value stored under index.
func (s *SparseSet[I, V]) Get(index I) (V, bool) {
	i := index.Index()
	if i >= len(s.sparse) || s.sparse[i] == 0 {
		var zero V
		return zero, false
	}
	return s.dense[s.sparse[i]-1], true
}

// Slot returns the dense position of index, or -1.
func (s *SparseSet[I, V]) Slot(index I) int {
	i := index.Index()
	if i >= len(s.sparse) {
		return -1
	}
	return int(s.sparse[i]) - 1
}

// Contains reports whether a value is stored under index.
func (s *SparseSet[I, V]) Contains(index I) bool {
	return s.Slot(index) >= 0
}

// Remove deletes the value stored under index and returns it.
func (s *SparseSet[I, V]) Remove(index I) (V, bool) {
	slot := s.Slot(index)
	if slot < 0 {
		var zero V
		return zero, false
	}
	value := s.dense[slot]
	last := len(s.dense) - 1
	if slot != last {
		s.dense[slot] = s.dense[last]
		s.indices[slot] = s.indices[last]
		s.sparse[s.indices[slot].Index()] = int32(slot + 1)
	}
	var zero V
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.indices = s.indices[:last]
	s.sparse[index.Index()] = 0
	return value, true
}

// Len returns the number of stored values.
func (s *SparseSet[I, V]) Len() int {
	return len(s.dense)
}

// Indices returns the stored handles in dense order.
func (s *SparseSet[I, V]) Indices() []I {
	return s.indices
}

// Values returns the stored values in dense order.
func (s *SparseSet[I, V]) Values() []V {
	return s.dense
}

// All iterates over handle/value pairs in dense order.
func (s *SparseSet[I, V]) All() iter.Seq2[I, V] {
	return func(yield func(I, V) bool) {
		for i, v := range s.dense {
			if !yield(s.indices[i], v) {
				return
			}
		}
	}
}
