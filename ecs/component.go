package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"unsafe"
)

// ComponentId identifies a component type within one World. Ids are dense,
// assigned in registration order and never reused.
type ComponentId uint32

// Index returns the id as a dense index.
func (id ComponentId) Index() int {
	return int(id)
}

// Dropper is implemented by components that own resources which must be
// released when the value leaves storage. Drop is called on despawn, on
// removal of the component, and when an insert overwrites the value.
type Dropper interface {
	Drop()
}

var dropperType = reflect.TypeFor[Dropper]()

// ComponentDescription is the immutable record kept per ComponentId.
// Layout and destructor always describe the same concrete type, which is why
// descriptions can only be built through the constructors below.
type ComponentDescription struct {
	name     string
	sendSync bool
	typ      reflect.Type
	layout   Layout
	drop     func(unsafe.Pointer)

	// carrier is the Go type backing the column
	carrier     reflect.Type
	pointerFree bool
}

// NewComponentDescription describes the component type T.
func NewComponentDescription[T any]() *ComponentDescription {
	return describeType(reflect.TypeFor[T](), true)
}

// NewNonSendSyncDescription describes T and flags it as unsafe to share
// between goroutines.
func NewNonSendSyncDescription[T any]() *ComponentDescription {
	return describeType(reflect.TypeFor[T](), false)
}

// NewRawComponentDescription describes a component that has no Go type.
// Its bytes live in pointer-free storage, so the data must never hold Go
// pointers. drop may be nil.
func NewRawComponentDescription(name string, layout Layout, drop func(unsafe.Pointer)) *ComponentDescription {
	if layout.Align == 0 {
		layout.Align = 1
	}
	return &ComponentDescription{
		name:        name,
		sendSync:    true,
		layout:      layout,
		drop:        drop,
		carrier:     carrierFor(layout),
		pointerFree: true,
	}
}

func describeType(t reflect.Type, sendSync bool) *ComponentDescription {
	if t.Kind() == reflect.Interface {
		panic("component type " + t.String() + " must be concrete")
	}
	desc := &ComponentDescription{
		name:        t.String(),
		sendSync:    sendSync,
		typ:         t,
		layout:      LayoutFor(t),
		carrier:     t,
		pointerFree: !hasPointers(t),
	}
	if reflect.PointerTo(t).Implements(dropperType) {
		desc.drop = func(ptr unsafe.Pointer) {
			reflect.NewAt(t, ptr).Interface().(Dropper).Drop()
		}
	}
	return desc
}

// Name returns the display name of the component.
func (d *ComponentDescription) Name() string { return d.name }

// SendSync reports whether values may be shared across goroutines.
func (d *ComponentDescription) SendSync() bool { return d.sendSync }

// Type returns the Go type of the component, or nil for raw components.
func (d *ComponentDescription) Type() reflect.Type { return d.typ }

// Layout returns the memory layout of the component.
func (d *ComponentDescription) Layout() Layout { return d.layout }

// Drop returns the destructor of the component, or nil if none is needed.
func (d *ComponentDescription) Drop() func(unsafe.Pointer) { return d.drop }

// IsRaw reports whether the component was registered without a Go type.
func (d *ComponentDescription) IsRaw() bool { return d.typ == nil }

func (d *ComponentDescription) String() string {
	return fmt.Sprintf("%s{%s drop=%t}", d.name, d.layout, d.drop != nil)
}

// Components is the component registry of a World. It only grows.
type Components struct {
	descriptions []*ComponentDescription
	indices      map[reflect.Type]ComponentId
	onInit       func(ComponentId, *ComponentDescription)
}

// NewComponents creates an empty registry.
func NewComponents() *Components {
	return &Components{
		indices: make(map[reflect.Type]ComponentId),
	}
}

// InitComponent returns the id of T, registering it on first use.
func InitComponent[T any](c *Components) ComponentId {
	return c.initType(reflect.TypeFor[T]())
}

func (c *Components) initType(t reflect.Type) ComponentId {
	if id, ok := c.indices[t]; ok {
		return id
	}
	id := c.push(describeType(t, true))
	c.indices[t] = id
	return id
}

// InitFromDescription registers desc under a fresh id. No deduplication is
// performed; registering the same description twice yields two ids.
func (c *Components) InitFromDescription(desc *ComponentDescription) ComponentId {
	if desc == nil {
		panic("nil component description")
	}
	return c.push(desc)
}

func (c *Components) push(desc *ComponentDescription) ComponentId {
	id := ComponentId(len(c.descriptions))
	c.descriptions = append(c.descriptions, desc)
	if c.onInit != nil {
		c.onInit(id, desc)
	}
	return id
}

// Description returns the record for id.
func (c *Components) Description(id ComponentId) (*ComponentDescription, bool) {
	if id.Index() >= len(c.descriptions) {
		return nil, false
	}
	return c.descriptions[id], true
}

// descriptionUnchecked is for callers that obtained id from a live archetype
// or bundle.
func (c *Components) descriptionUnchecked(id ComponentId) *ComponentDescription {
	return c.descriptions[id]
}

// ID returns the id registered for t.
func (c *Components) ID(t reflect.Type) (ComponentId, bool) {
	id, ok := c.indices[t]
	return id, ok
}

// ComponentIdOf returns the id registered for T without registering it.
func ComponentIdOf[T any](c *Components) (ComponentId, bool) {
	return c.ID(reflect.TypeFor[T]())
}

// Len returns the number of registered components.
func (c *Components) Len() int {
	return len(c.descriptions)
}

// All iterates over every registered component in id order.
func (c *Components) All() iter.Seq2[ComponentId, *ComponentDescription] {
	return func(yield func(ComponentId, *ComponentDescription) bool) {
		for i, desc := range c.descriptions {
			if !yield(ComponentId(i), desc) {
				return
			}
		}
	}
}
