package ecs

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// World composes the component and bundle registries, the entity directory
// and the archetype tables. Shared queries, Get and Has may run from several
// goroutines at once; the host must keep structural changes and mutable
// queries exclusive.
type World struct {
	components *Components
	bundles    *Bundles
	entities   *Entities
	archetypes *Archetypes
	logger     zerolog.Logger

	// guards registration and the query match cache
	mu sync.Mutex

	// number of live shared queries, or -1 while a QueryMut is live
	borrow atomic.Int32
}

// NewWorld creates an empty world.
func NewWorld(opts ...Option) *World {
	cfg := defaultWorldConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	components := NewComponents()
	w := &World{
		components: components,
		bundles:    NewBundles(),
		entities:   NewEntities(cfg.entityCapacity),
		archetypes: newArchetypes(components, cfg.columnCapacity),
		logger:     cfg.logger,
	}
	w.installLogHooks()
	return w
}

// Components returns the component registry.
func (w *World) Components() *Components { return w.components }

// Bundles returns the bundle registry.
func (w *World) Bundles() *Bundles { return w.bundles }

// Archetypes returns the archetype tables.
func (w *World) Archetypes() *Archetypes { return w.archetypes }

// Entities returns the entity directory.
func (w *World) Entities() *Entities { return w.entities }

// Logger returns the world's logger.
func (w *World) Logger() *zerolog.Logger { return &w.logger }

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.Len()
}

// Contains reports whether e is alive.
func (w *World) Contains(e Entity) bool {
	return w.entities.Contains(e)
}

// Location returns the archetype and row holding e.
func (w *World) Location(e Entity) (EntityLocation, bool) {
	return w.entities.Location(e)
}

// Borrowed reports whether a query is live.
func (w *World) Borrowed() bool {
	return w.borrow.Load() != 0
}

// bundleInfo resolves B under the registry lock.
func bundleInfo[B any](w *World) *BundleInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return InitBundle[B](w.bundles, w.components)
}

// stage copies the value at src into storage owned by no archetype, so it
// survives rows being moved or swapped before it is written.
func (w *World) stage(id ComponentId, src unsafe.Pointer) unsafe.Pointer {
	col := newColumn(w.components.descriptionUnchecked(id), 1)
	col.push()
	col.set(0, src)
	return col.ptr(0)
}

func (w *World) checkStructural() error {
	if w.Borrowed() {
		return ErrWorldBorrowed
	}
	return nil
}

func (w *World) relocate(e Entity, archetype ArchetypeId, row int) {
	w.entities.set(e, EntityLocation{Archetype: archetype, Row: row})
}

// Spawn creates an entity holding the components of bundle.
func Spawn[B any](w *World, bundle B) (Entity, error) {
	if err := w.checkStructural(); err != nil {
		return Entity{}, eris.Wrap(err, "spawn")
	}
	info := bundleInfo[B](w)

	var ids []ComponentId
	var ptrs []unsafe.Pointer
	info.each(unsafe.Pointer(&bundle), func(id ComponentId, ptr unsafe.Pointer) {
		ids = append(ids, id)
		ptrs = append(ptrs, ptr)
	})

	var arch *Archetype
	if info.hasOptional {
		arch = w.archetypes.getOrCreate(signatureWith(nil, ids))
	} else {
		arch = w.archetypes.afterInsert(w.archetypes.getUnchecked(0), info, ids)
	}

	e := w.entities.alloc()
	row := arch.allocate(e)
	for i, id := range ids {
		arch.column(id).set(row, ptrs[i])
	}
	w.relocate(e, arch.id, row)
	return e, nil
}

// SpawnEmpty creates an entity without components.
func (w *World) SpawnEmpty() (Entity, error) {
	if err := w.checkStructural(); err != nil {
		return Entity{}, eris.Wrap(err, "spawn")
	}
	arch := w.archetypes.getUnchecked(0)
	e := w.entities.alloc()
	w.relocate(e, arch.id, arch.allocate(e))
	return e, nil
}

// Despawn drops every component of e and frees its identifier.
func (w *World) Despawn(e Entity) error {
	if err := w.checkStructural(); err != nil {
		return eris.Wrapf(err, "despawn %s", e)
	}
	loc, ok := w.entities.Location(e)
	if !ok {
		return eris.Wrapf(ErrEntityNotFound, "despawn %s", e)
	}
	arch := w.archetypes.getUnchecked(loc.Archetype)
	arch.dropRow(loc.Row)
	if moved, ok := arch.swapRemove(loc.Row); ok {
		w.relocate(moved, arch.id, loc.Row)
	}
	w.entities.release(e)
	return nil
}

// Insert adds the components of bundle to e, moving it to the matching
// archetype. Components e already has are overwritten and the old values
// dropped. Values are copied out of bundle before the entity moves, so its
// pointer fields may reference rows returned by Get or a query.
func Insert[B any](w *World, e Entity, bundle B) error {
	if err := w.checkStructural(); err != nil {
		return eris.Wrapf(err, "insert into %s", e)
	}
	loc, ok := w.entities.Location(e)
	if !ok {
		return eris.Wrapf(ErrEntityNotFound, "insert into %s", e)
	}
	info := bundleInfo[B](w)

	var ids []ComponentId
	var ptrs []unsafe.Pointer
	info.each(unsafe.Pointer(&bundle), func(id ComponentId, ptr unsafe.Pointer) {
		if info.indirect {
			ptr = w.stage(id, ptr)
		}
		ids = append(ids, id)
		ptrs = append(ptrs, ptr)
	})

	src := w.archetypes.getUnchecked(loc.Archetype)
	dst := w.archetypes.afterInsert(src, info, ids)
	w.insertPtrs(e, loc, src, dst, ids, ptrs)
	return nil
}

func (w *World) insertPtrs(e Entity, loc EntityLocation, src, dst *Archetype, ids []ComponentId, ptrs []unsafe.Pointer) {
	row := loc.Row
	if dst != src {
		newRow, moved, ok := src.moveTo(loc.Row, dst)
		if ok {
			w.relocate(moved, src.id, loc.Row)
		}
		row = newRow
		w.relocate(e, dst.id, row)
	}
	for i, id := range ids {
		col := dst.column(id)
		if src.Contains(id) {
			col.drop(row)
		}
		col.set(row, ptrs[i])
	}
}

// Remove takes the components of bundle B off e. Components e does not have
// are ignored; an entity left without components stays alive.
func Remove[B any](w *World, e Entity) error {
	if err := w.checkStructural(); err != nil {
		return eris.Wrapf(err, "remove from %s", e)
	}
	loc, ok := w.entities.Location(e)
	if !ok {
		return eris.Wrapf(ErrEntityNotFound, "remove from %s", e)
	}
	info := bundleInfo[B](w)
	src := w.archetypes.getUnchecked(loc.Archetype)
	w.moveEntity(e, loc, src, w.archetypes.afterRemove(src, info))
	return nil
}

// RemoveComponents takes the given components off e.
func (w *World) RemoveComponents(e Entity, ids ...ComponentId) error {
	if err := w.checkStructural(); err != nil {
		return eris.Wrapf(err, "remove from %s", e)
	}
	loc, ok := w.entities.Location(e)
	if !ok {
		return eris.Wrapf(ErrEntityNotFound, "remove from %s", e)
	}
	for _, id := range ids {
		if _, ok := w.components.Description(id); !ok {
			return eris.Wrapf(ErrComponentNotFound, "remove component %d from %s", id, e)
		}
	}
	src := w.archetypes.getUnchecked(loc.Archetype)
	w.moveEntity(e, loc, src, w.archetypes.getOrCreate(signatureWithout(src.signature, ids)))
	return nil
}

func (w *World) moveEntity(e Entity, loc EntityLocation, src, dst *Archetype) {
	if dst == src {
		return
	}
	newRow, moved, ok := src.moveTo(loc.Row, dst)
	if ok {
		w.relocate(moved, src.id, loc.Row)
	}
	w.relocate(e, dst.id, newRow)
}

// InsertRaw copies data into component id of e. The component must be
// pointer-free and data must be exactly its size.
func (w *World) InsertRaw(e Entity, id ComponentId, data []byte) error {
	if err := w.checkStructural(); err != nil {
		return eris.Wrapf(err, "insert into %s", e)
	}
	loc, ok := w.entities.Location(e)
	if !ok {
		return eris.Wrapf(ErrEntityNotFound, "insert into %s", e)
	}
	desc, ok := w.components.Description(id)
	if !ok {
		return eris.Wrapf(ErrComponentNotFound, "component %d", id)
	}
	if !desc.pointerFree || uintptr(len(data)) != desc.layout.Size {
		return eris.Wrapf(ErrLayoutMismatch, "component %s with %d bytes", desc.name, len(data))
	}

	// staging copy in carrier memory keeps alignment for the column copy
	staging := newColumn(desc, 1)
	staging.push()
	copy(staging.bytes(0), data)

	src := w.archetypes.getUnchecked(loc.Archetype)
	dst := src
	if !src.Contains(id) {
		dst = w.archetypes.getOrCreate(signatureWith(src.signature, []ComponentId{id}))
	}
	w.insertPtrs(e, loc, src, dst, []ComponentId{id}, []unsafe.Pointer{staging.ptr(0)})
	return nil
}

// GetRaw returns the bytes of component id on e. The slice aliases storage
// and is valid until the next structural change.
func (w *World) GetRaw(e Entity, id ComponentId) ([]byte, bool) {
	loc, ok := w.entities.Location(e)
	if !ok {
		return nil, false
	}
	col := w.archetypes.getUnchecked(loc.Archetype).column(id)
	if col == nil || !col.pointerFree {
		return nil, false
	}
	return col.bytes(loc.Row), true
}

// Get returns a view of e's components. V follows the bundle rules with
// pointer fields; the pointers stay valid until the next structural change.
func Get[V any](w *World, e Entity) (V, bool) {
	var view V
	loc, ok := w.entities.Location(e)
	if !ok {
		return view, false
	}
	info := viewInfo[V](w)
	arch := w.archetypes.getUnchecked(loc.Archetype)
	if !arch.ContainsAll(info.required) {
		return view, false
	}
	arch.getUnchecked(info, loc.Row, unsafe.Pointer(&view))
	return view, true
}

// Has reports whether e holds every required component of bundle B.
func Has[B any](w *World, e Entity) bool {
	loc, ok := w.entities.Location(e)
	if !ok {
		return false
	}
	info := bundleInfo[B](w)
	return w.archetypes.getUnchecked(loc.Archetype).ContainsAll(info.required)
}
