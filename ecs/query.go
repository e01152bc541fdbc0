package ecs

import (
	"fmt"
	"iter"
	"unsafe"
)

// cursor walks the rows of the archetypes matching a bundle.
type cursor struct {
	world        *World
	info         *BundleInfo
	archetypeIds []ArchetypeId
	current      int
	row          int
	entity       Entity
	release      func()
}

func newCursor(w *World, info *BundleInfo, release func()) cursor {
	w.mu.Lock()
	ids := w.archetypes.matching(info)
	w.mu.Unlock()
	return cursor{
		world:        w,
		info:         info,
		archetypeIds: ids,
		release:      release,
	}
}

// viewInfo resolves the view bundle V, panicking if it is not a view.
func viewInfo[V any](w *World) *BundleInfo {
	info := bundleInfo[V](w)
	info.mustBeView()
	return info
}

// next fills dst from the next row. It returns false once every matching
// archetype is exhausted, releasing the world borrow.
func (c *cursor) next(dst unsafe.Pointer) bool {
	for c.current < len(c.archetypeIds) {
		arch := c.world.archetypes.getUnchecked(c.archetypeIds[c.current])
		if c.row >= arch.Len() {
			c.current++
			c.row = 0
			continue
		}
		row := c.row
		c.row++
		c.entity = arch.entities[row]
		arch.getUnchecked(c.info, row, dst)
		return true
	}
	c.close()
	return false
}

func (c *cursor) close() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
	c.current = len(c.archetypeIds)
}

// count returns the number of rows across matching archetypes.
func (c *cursor) count() int {
	total := 0
	for _, id := range c.archetypeIds {
		total += c.world.archetypes.getUnchecked(id).Len()
	}
	return total
}

// Query iterates over every entity holding the required components of V.
// V is a view bundle: a pointer to a component, or a composite whose fields
// are pointers. Any number of Query values may be live at once, from several
// goroutines, each query owned by one of them. Structural changes fail with
// ErrWorldBorrowed until each one is exhausted or closed.
// Components must not be written through a Query; use QueryMut.
type Query[V any] struct {
	cursor
}

// NewQuery borrows w for shared iteration over V.
func NewQuery[V any](w *World) *Query[V] {
	info := viewInfo[V](w)
	for {
		state := w.borrow.Load()
		if state < 0 {
			panic(fmt.Sprintf("query %T: world is exclusively borrowed", *new(V)))
		}
		if w.borrow.CompareAndSwap(state, state+1) {
			break
		}
	}
	return &Query[V]{cursor: newCursor(w, info, func() { w.borrow.Add(-1) })}
}

// Next returns the view of the next matching row.
func (q *Query[V]) Next() (V, bool) {
	var view V
	ok := q.next(unsafe.Pointer(&view))
	return view, ok
}

// Entity returns the entity of the row last returned by Next.
func (q *Query[V]) Entity() Entity {
	return q.entity
}

// Count returns the number of matching rows.
func (q *Query[V]) Count() int {
	return q.count()
}

// Close ends the query and releases the world. Closing twice is harmless.
func (q *Query[V]) Close() {
	q.close()
}

// All yields the remaining rows and closes the query when iteration stops.
func (q *Query[V]) All() iter.Seq2[Entity, V] {
	return func(yield func(Entity, V) bool) {
		defer q.close()
		for {
			view, ok := q.Next()
			if !ok || !yield(q.entity, view) {
				return
			}
		}
	}
}

// QueryMut iterates like Query but holds the world exclusively, so no other
// query may be live while it is.
type QueryMut[V any] struct {
	cursor
}

// NewQueryMut borrows w exclusively for iteration over V. It panics if any
// other query is live.
func NewQueryMut[V any](w *World) *QueryMut[V] {
	info := viewInfo[V](w)
	if !w.borrow.CompareAndSwap(0, -1) {
		panic(fmt.Sprintf("query %T: world is already borrowed", *new(V)))
	}
	return &QueryMut[V]{cursor: newCursor(w, info, func() { w.borrow.Store(0) })}
}

// Next returns the view of the next matching row.
func (q *QueryMut[V]) Next() (V, bool) {
	var view V
	ok := q.next(unsafe.Pointer(&view))
	return view, ok
}

// Entity returns the entity of the row last returned by Next.
func (q *QueryMut[V]) Entity() Entity {
	return q.entity
}

// Count returns the number of matching rows.
func (q *QueryMut[V]) Count() int {
	return q.count()
}

// Close ends the query and releases the world. Closing twice is harmless.
func (q *QueryMut[V]) Close() {
	q.close()
}

// All yields the remaining rows and closes the query when iteration stops.
func (q *QueryMut[V]) All() iter.Seq2[Entity, V] {
	return func(yield func(Entity, V) bool) {
		defer q.close()
		for {
			view, ok := q.Next()
			if !ok || !yield(q.entity, view) {
				return
			}
		}
	}
}
