package ecs

import "fmt"

// Entity is a generational identifier. A recycled Index carries a new
// Generation, so stale copies of a despawned entity never match the new
// occupant. The zero Entity is never alive.
type Entity struct {
	Index      uint32
	Generation uint32
}

func (e Entity) String() string {
	return fmt.Sprintf("%dv%d", e.Index, e.Generation)
}

// EntityLocation is where an entity's row currently lives.
type EntityLocation struct {
	Archetype ArchetypeId
	Row       int
}

type entityMeta struct {
	generation uint32
	alive      bool
	location   EntityLocation
}

// Entities allocates entity identifiers and records the location of every
// live entity. Freed indices are reused last-in first-out with a bumped
// generation.
type Entities struct {
	metas []entityMeta
	free  []uint32
	alive int
}

// NewEntities creates a directory with room for capacity entities.
func NewEntities(capacity int) *Entities {
	return &Entities{
		metas: make([]entityMeta, 0, capacity),
	}
}

func (d *Entities) alloc() Entity {
	d.alive++
	if n := len(d.free); n > 0 {
		index := d.free[n-1]
		d.free = d.free[:n-1]
		meta := &d.metas[index]
		meta.alive = true
		return Entity{Index: index, Generation: meta.generation}
	}
	index := uint32(len(d.metas))
	d.metas = append(d.metas, entityMeta{generation: 1, alive: true})
	return Entity{Index: index, Generation: 1}
}

func (d *Entities) release(e Entity) bool {
	meta := d.meta(e)
	if meta == nil {
		return false
	}
	meta.alive = false
	meta.location = EntityLocation{}
	meta.generation++
	if meta.generation == 0 {
		meta.generation = 1
	}
	d.free = append(d.free, e.Index)
	d.alive--
	return true
}

func (d *Entities) meta(e Entity) *entityMeta {
	if int(e.Index) >= len(d.metas) {
		return nil
	}
	meta := &d.metas[e.Index]
	if !meta.alive || meta.generation != e.Generation {
		return nil
	}
	return meta
}

// set records the location of a live entity.
func (d *Entities) set(e Entity, loc EntityLocation) {
	d.metas[e.Index].location = loc
}

// Location returns where e is stored.
func (d *Entities) Location(e Entity) (EntityLocation, bool) {
	meta := d.meta(e)
	if meta == nil {
		return EntityLocation{}, false
	}
	return meta.location, true
}

// Contains reports whether e is alive.
func (d *Entities) Contains(e Entity) bool {
	return d.meta(e) != nil
}

// Len returns the number of live entities.
func (d *Entities) Len() int {
	return d.alive
}
