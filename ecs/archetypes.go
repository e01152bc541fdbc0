package ecs

import (
	"iter"
	"slices"

	"github.com/kamstrup/intmap"
)

// Archetypes owns every archetype of a World, indexed by signature.
type Archetypes struct {
	archetypes  []*Archetype
	bySignature *intmap.Map[uint64, []ArchetypeId]
	matches     *intmap.Map[BundleId, *archetypeMatch]
	components  *Components
	capacity    int
	onCreate    func(*Archetype)
}

// archetypeMatch caches the archetypes matching a bundle. Archetypes are
// never removed, so only those created since the last scan need checking.
type archetypeMatch struct {
	scanned int
	ids     []ArchetypeId
}

func newArchetypes(components *Components, capacity int) *Archetypes {
	a := &Archetypes{
		bySignature: intmap.New[uint64, []ArchetypeId](64),
		matches:     intmap.New[BundleId, *archetypeMatch](64),
		components:  components,
		capacity:    capacity,
	}
	a.getOrCreate(nil)
	return a
}

// hashSignature generates an FNV-1a hash for a sorted signature.
func hashSignature(signature []ComponentId) uint64 {
	var h uint64 = 14695981039346656037 // FNV-1a 64-bit offset basis
	const prime uint64 = 1099511628211  // FNV-1a 64-bit prime

	for _, id := range signature {
		v := uint32(id)
		for i := 0; i < 4; i++ {
			h ^= uint64(byte(v >> (8 * i)))
			h *= prime
		}
	}
	return h
}

// Find returns the archetype with exactly the given sorted signature.
func (a *Archetypes) Find(signature []ComponentId) (*Archetype, bool) {
	bucket, ok := a.bySignature.Get(hashSignature(signature))
	if !ok {
		return nil, false
	}
	for _, id := range bucket {
		if slices.Equal(a.archetypes[id].signature, signature) {
			return a.archetypes[id], true
		}
	}
	return nil, false
}

func (a *Archetypes) getOrCreate(signature []ComponentId) *Archetype {
	if arch, ok := a.Find(signature); ok {
		return arch
	}
	id := ArchetypeId(len(a.archetypes))
	arch := newArchetype(id, slices.Clone(signature), a.components, a.capacity)
	a.archetypes = append(a.archetypes, arch)

	hash := hashSignature(signature)
	bucket, _ := a.bySignature.Get(hash)
	a.bySignature.Put(hash, append(bucket, id))

	if a.onCreate != nil {
		a.onCreate(arch)
	}
	return arch
}

// afterInsert returns the archetype reached from src by adding ids. The
// transition is cached on src when the bundle always yields the same ids.
func (a *Archetypes) afterInsert(src *Archetype, info *BundleInfo, ids []ComponentId) *Archetype {
	if !info.hasOptional {
		if id, ok := src.insertEdges.Get(info.id); ok {
			return a.archetypes[id]
		}
	}
	dst := a.getOrCreate(signatureWith(src.signature, ids))
	if !info.hasOptional {
		src.insertEdges.Put(info.id, dst.id)
	}
	return dst
}

// afterRemove returns the archetype reached from src by removing the
// components of info.
func (a *Archetypes) afterRemove(src *Archetype, info *BundleInfo) *Archetype {
	if id, ok := src.removeEdges.Get(info.id); ok {
		return a.archetypes[id]
	}
	dst := a.getOrCreate(signatureWithout(src.signature, info.components))
	src.removeEdges.Put(info.id, dst.id)
	return dst
}

// matching returns the ids of every archetype whose signature is a superset
// of the bundle's required components.
func (a *Archetypes) matching(info *BundleInfo) []ArchetypeId {
	m, ok := a.matches.Get(info.id)
	if !ok {
		m = &archetypeMatch{}
		a.matches.Put(info.id, m)
	}
	for ; m.scanned < len(a.archetypes); m.scanned++ {
		if a.archetypes[m.scanned].ContainsAll(info.required) {
			m.ids = append(m.ids, ArchetypeId(m.scanned))
		}
	}
	return m.ids
}

// Get returns the archetype with the given id.
func (a *Archetypes) Get(id ArchetypeId) (*Archetype, bool) {
	if id.Index() >= len(a.archetypes) {
		return nil, false
	}
	return a.archetypes[id], true
}

func (a *Archetypes) getUnchecked(id ArchetypeId) *Archetype {
	return a.archetypes[id]
}

// Len returns the number of archetypes, including the empty one.
func (a *Archetypes) Len() int {
	return len(a.archetypes)
}

// Rows returns the total number of rows across all archetypes.
func (a *Archetypes) Rows() int {
	total := 0
	for _, arch := range a.archetypes {
		total += arch.Len()
	}
	return total
}

// All iterates over every archetype in id order.
func (a *Archetypes) All() iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		for _, arch := range a.archetypes {
			if !yield(arch) {
				return
			}
		}
	}
}
