package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"unsafe"
)

// Bundle marks a struct as a composite bundle when embedded. Every other
// field of the struct is itself a bundle: a component value, a pointer to a
// component, or another composite. Composites nest, so a field holding a
// Tuple2 contributes both of its components.
//
//	type Movement struct {
//		ecs.Bundle
//		*Position
//		*Velocity
//		Health *Health `ecs:"optional"`
//	}
//
// A type that does not embed Bundle is a bundle of exactly one component.
// Value fields are accepted by Spawn and Insert; queries and Get need
// pointer fields, which are aimed at the stored rows.
type Bundle struct{}

var bundleMarkerType = reflect.TypeFor[Bundle]()

// BundleId identifies a composite type within one World.
type BundleId uint32

// Index returns the id as a dense index.
func (id BundleId) Index() int {
	return int(id)
}

type bundleField struct {
	id       ComponentId
	offset   uintptr
	indirect bool
	optional bool
}

// BundleInfo is the immutable record of one bundle type.
type BundleInfo struct {
	id          BundleId
	name        string
	typ         reflect.Type
	components  []ComponentId
	required    []ComponentId // sorted
	sorted      []ComponentId
	fields      []bundleField
	hasOptional bool
	indirect    bool // some field is a pointer
	view        bool
}

// ID returns the bundle id.
func (b *BundleInfo) ID() BundleId { return b.id }

// Name returns the Go type name of the bundle.
func (b *BundleInfo) Name() string { return b.name }

// Type returns the Go type of the bundle.
func (b *BundleInfo) Type() reflect.Type { return b.typ }

// Components returns the component ids in declaration order.
func (b *BundleInfo) Components() []ComponentId { return b.components }

// Required returns the sorted ids that a matching archetype must contain.
func (b *BundleInfo) Required() []ComponentId { return b.required }

// IsView reports whether every component of the bundle is referenced through
// a pointer, which is what queries and Get fill in.
func (b *BundleInfo) IsView() bool { return b.view }

// each hands every present component of the bundle value at src to sink.
// The sink receives a pointer to the value and copies it out; the bundle
// keeps no claim on it afterwards.
func (b *BundleInfo) each(src unsafe.Pointer, sink func(ComponentId, unsafe.Pointer)) {
	for _, f := range b.fields {
		ptr := unsafe.Add(src, f.offset)
		if f.indirect {
			ptr = *(*unsafe.Pointer)(ptr)
			if ptr == nil {
				if f.optional {
					continue
				}
				panic(fmt.Sprintf("bundle %s: required component is nil", b.name))
			}
		}
		sink(f.id, ptr)
	}
}

// fill writes into the view at dst a pointer per component, as returned by
// source. It reports false when a required component has no pointer.
func (b *BundleInfo) fill(dst unsafe.Pointer, source func(ComponentId) unsafe.Pointer) bool {
	for _, f := range b.fields {
		ptr := source(f.id)
		if ptr == nil && !f.optional {
			return false
		}
		*(*unsafe.Pointer)(unsafe.Add(dst, f.offset)) = ptr
	}
	return true
}

func (b *BundleInfo) mustBeView() {
	if !b.view {
		panic(fmt.Sprintf("bundle %s: view fields must be pointers", b.name))
	}
}

// Bundles is the bundle registry of a World. It only grows.
type Bundles struct {
	infos   []*BundleInfo
	indices map[reflect.Type]BundleId
	onInit  func(*BundleInfo)
}

// NewBundles creates an empty registry.
func NewBundles() *Bundles {
	return &Bundles{
		indices: make(map[reflect.Type]BundleId),
	}
}

// InitBundle returns the info of bundle type B, registering B and its
// components on first use. It panics if B names a component type twice.
func InitBundle[B any](b *Bundles, components *Components) *BundleInfo {
	return b.initType(reflect.TypeFor[B](), components)
}

func (b *Bundles) initType(t reflect.Type, components *Components) *BundleInfo {
	if id, ok := b.indices[t]; ok {
		return b.infos[id]
	}

	info := &BundleInfo{
		id:   BundleId(len(b.infos)),
		name: t.String(),
		typ:  t,
		view: true,
	}
	walkBundle(t, 0, false, components, info)

	info.sorted = slices.Clone(info.components)
	slices.Sort(info.sorted)
	if len(slices.Compact(slices.Clone(info.sorted))) != len(info.sorted) {
		panic(fmt.Sprintf("bundle %s has duplicate components", info.name))
	}
	for _, f := range info.fields {
		if !f.optional {
			info.required = append(info.required, f.id)
		}
	}
	slices.Sort(info.required)

	b.infos = append(b.infos, info)
	b.indices[t] = info.id
	if b.onInit != nil {
		b.onInit(info)
	}
	return info
}

func isCompositeBundle(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == bundleMarkerType {
			return true
		}
	}
	return false
}

func walkBundle(t reflect.Type, offset uintptr, optional bool, components *Components, info *BundleInfo) {
	if t == bundleMarkerType {
		panic(fmt.Sprintf("bundle %s: the Bundle marker is not a component", info.name))
	}

	if isCompositeBundle(t) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous && f.Type == bundleMarkerType {
				continue
			}
			fieldOptional := false
			switch tag := f.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				if f.Type.Kind() != reflect.Pointer {
					panic(fmt.Sprintf("bundle %s: optional field %s must be a pointer", info.name, f.Name))
				}
				fieldOptional = true
			default:
				panic(fmt.Sprintf("bundle %s: invalid ecs tag value %q (only \"optional\" is supported)", info.name, tag))
			}
			walkBundle(f.Type, offset+f.Offset, fieldOptional, components, info)
		}
		return
	}

	field := bundleField{offset: offset, optional: optional}
	if t.Kind() == reflect.Pointer {
		if isCompositeBundle(t.Elem()) {
			panic(fmt.Sprintf("bundle %s: pointers to composite bundles are not supported", info.name))
		}
		field.indirect = true
		info.indirect = true
		t = t.Elem()
	} else {
		info.view = false
	}
	field.id = components.initType(t)
	info.hasOptional = info.hasOptional || optional
	info.fields = append(info.fields, field)
	info.components = append(info.components, field.id)
}

// Info returns the record for id.
func (b *Bundles) Info(id BundleId) (*BundleInfo, bool) {
	if id.Index() >= len(b.infos) {
		return nil, false
	}
	return b.infos[id], true
}

func (b *Bundles) infoUnchecked(id BundleId) *BundleInfo {
	return b.infos[id]
}

// ID returns the id registered for the bundle type t.
func (b *Bundles) ID(t reflect.Type) (BundleId, bool) {
	id, ok := b.indices[t]
	return id, ok
}

// Len returns the number of registered bundles.
func (b *Bundles) Len() int {
	return len(b.infos)
}

// All iterates over every registered bundle in id order.
func (b *Bundles) All() iter.Seq[*BundleInfo] {
	return func(yield func(*BundleInfo) bool) {
		for _, info := range b.infos {
			if !yield(info) {
				return
			}
		}
	}
}

// Tuple2 is a ready-made composite of two bundles.
type Tuple2[X, Y any] struct {
	Bundle
	A X
	B Y
}

// Tuple3 is a ready-made composite of three bundles.
type Tuple3[X, Y, Z any] struct {
	Bundle
	A X
	B Y
	C Z
}

// Tuple4 is a ready-made composite of four bundles.
type Tuple4[X, Y, Z, W any] struct {
	Bundle
	A X
	B Y
	C Z
	D W
}

// T2 builds a Tuple2.
func T2[A, B any](a A, b B) Tuple2[A, B] {
	return Tuple2[A, B]{A: a, B: b}
}

// T3 builds a Tuple3.
func T3[A, B, C any](a A, b B, c C) Tuple3[A, B, C] {
	return Tuple3[A, B, C]{A: a, B: b, C: c}
}

// T4 builds a Tuple4.
func T4[A, B, C, D any](a A, b B, c C, d D) Tuple4[A, B, C, D] {
	return Tuple4[A, B, C, D]{A: a, B: b, C: c, D: d}
}
