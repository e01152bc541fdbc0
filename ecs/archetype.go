package ecs

import (
	"slices"
	"unsafe"

	"github.com/kamstrup/intmap"
)

// ArchetypeId identifies an archetype within one World. Id 0 is the
// archetype of entities without components.
type ArchetypeId uint32

// Index returns the id as a dense index.
func (id ArchetypeId) Index() int {
	return int(id)
}

// Archetype stores every entity that has exactly the components of its
// signature. Each component gets one contiguous column; row i of every
// column and of the entity column belongs to the same entity.
type Archetype struct {
	id        ArchetypeId
	signature []ComponentId // sorted
	columns   *SparseSet[ComponentId, *column]
	entities  []Entity

	// transitions cached per bundle, see Archetypes.afterInsert
	insertEdges *intmap.Map[BundleId, ArchetypeId]
	removeEdges *intmap.Map[BundleId, ArchetypeId]
}

func newArchetype(id ArchetypeId, signature []ComponentId, components *Components, capacity int) *Archetype {
	a := &Archetype{
		id:          id,
		signature:   signature,
		columns:     NewSparseSet[ComponentId, *column](len(signature)),
		entities:    make([]Entity, 0, capacity),
		insertEdges: intmap.New[BundleId, ArchetypeId](4),
		removeEdges: intmap.New[BundleId, ArchetypeId](4),
	}
	for _, cid := range signature {
		a.columns.Insert(cid, newColumn(components.descriptionUnchecked(cid), capacity))
	}
	return a
}

// ID returns the archetype's identifier.
func (a *Archetype) ID() ArchetypeId {
	return a.id
}

// Signature returns the sorted component ids stored in this archetype.
func (a *Archetype) Signature() []ComponentId {
	return a.signature
}

// Len returns the number of rows.
func (a *Archetype) Len() int {
	return len(a.entities)
}

// Contains reports whether the archetype stores component id.
func (a *Archetype) Contains(id ComponentId) bool {
	return a.columns.Contains(id)
}

// ContainsAll reports whether the signature is a superset of ids.
func (a *Archetype) ContainsAll(ids []ComponentId) bool {
	for _, id := range ids {
		if !a.columns.Contains(id) {
			return false
		}
	}
	return true
}

// EntityAt returns the entity stored in row.
func (a *Archetype) EntityAt(row int) Entity {
	return a.entities[row]
}

// Entities returns the entity column. The slice must not be modified.
func (a *Archetype) Entities() []Entity {
	return a.entities
}

func (a *Archetype) column(id ComponentId) *column {
	col, _ := a.columns.Get(id)
	return col
}

// getUnchecked fills the view at dst with pointers into row. The caller
// guarantees that row is in range and that the signature holds every
// required component of info.
func (a *Archetype) getUnchecked(info *BundleInfo, row int, dst unsafe.Pointer) {
	info.fill(dst, func(id ComponentId) unsafe.Pointer {
		col, ok := a.columns.Get(id)
		if !ok {
			return nil
		}
		return col.ptr(row)
	})
}

// allocate appends a zeroed row for e and returns its index.
func (a *Archetype) allocate(e Entity) int {
	for _, col := range a.columns.Values() {
		col.push()
	}
	a.entities = append(a.entities, e)
	return len(a.entities) - 1
}

// dropRow runs the destructor of every component in row.
func (a *Archetype) dropRow(row int) {
	for _, col := range a.columns.Values() {
		col.drop(row)
	}
}

// swapRemove fills row with the last row and truncates every column. It
// returns the entity that now occupies row, if any moved.
func (a *Archetype) swapRemove(row int) (Entity, bool) {
	for _, col := range a.columns.Values() {
		col.swapRemove(row)
	}
	last := len(a.entities) - 1
	moved := row != last
	if moved {
		a.entities[row] = a.entities[last]
	}
	a.entities[last] = Entity{}
	a.entities = a.entities[:last]
	if moved {
		return a.entities[row], true
	}
	return Entity{}, false
}

// moveTo transfers row into dst. Components shared by both signatures are
// copied, components missing from dst are dropped, and components new in dst
// are left zeroed for the caller. It returns the row in dst and the entity
// swapped into row, if any.
func (a *Archetype) moveTo(row int, dst *Archetype) (int, Entity, bool) {
	newRow := dst.allocate(a.entities[row])
	for cid, col := range a.columns.All() {
		if target, ok := dst.columns.Get(cid); ok {
			target.set(newRow, col.ptr(row))
		} else {
			col.drop(row)
		}
	}
	moved, ok := a.swapRemove(row)
	return newRow, moved, ok
}

func signatureWith(signature []ComponentId, ids []ComponentId) []ComponentId {
	out := slices.Clone(signature)
	for _, id := range ids {
		if i, found := slices.BinarySearch(out, id); !found {
			out = slices.Insert(out, i, id)
		}
	}
	return out
}

func signatureWithout(signature []ComponentId, ids []ComponentId) []ComponentId {
	out := make([]ComponentId, 0, len(signature))
	for _, id := range signature {
		if !slices.Contains(ids, id) {
			out = append(out, id)
		}
	}
	return out
}
