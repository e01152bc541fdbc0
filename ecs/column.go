package ecs

import (
	"reflect"
	"unsafe"
)

// zeroSized is the address handed out for rows of zero-sized components.
var zeroSized struct{}

// column is the type-erased storage of one component inside an archetype.
// Values are packed contiguously in a slice of the component's carrier type,
// so the garbage collector keeps seeing every pointer they hold. Rows are
// addressed by pointer arithmetic over the slice base.
type column struct {
	desc        *ComponentDescription
	data        reflect.Value // slice of desc.carrier
	base        unsafe.Pointer
	stride      uintptr
	pointerFree bool
}

func newColumn(desc *ComponentDescription, capacity int) *column {
	data := reflect.MakeSlice(reflect.SliceOf(desc.carrier), 0, capacity)
	return &column{
		desc:        desc,
		data:        data,
		base:        data.UnsafePointer(),
		stride:      desc.carrier.Size(),
		pointerFree: desc.pointerFree,
	}
}

func (c *column) len() int {
	return c.data.Len()
}

// push appends a zeroed row.
func (c *column) push() {
	c.data = reflect.Append(c.data, reflect.Zero(c.desc.carrier))
	c.base = c.data.UnsafePointer()
}

func (c *column) ptr(row int) unsafe.Pointer {
	if c.stride == 0 {
		return unsafe.Pointer(&zeroSized)
	}
	return unsafe.Add(c.base, uintptr(row)*c.stride)
}

// set copies the value at src into row. src must point to a value of the
// column's type.
func (c *column) set(row int, src unsafe.Pointer) {
	c.copy(c.ptr(row), src)
}

func (c *column) copy(dst, src unsafe.Pointer) {
	if c.stride == 0 || dst == src {
		return
	}
	if c.pointerFree {
		copy(unsafe.Slice((*byte)(dst), c.stride), unsafe.Slice((*byte)(src), c.stride))
		return
	}
	t := c.desc.carrier
	reflect.NewAt(t, dst).Elem().Set(reflect.NewAt(t, src).Elem())
}

// drop runs the destructor of the value at row, if the component has one.
func (c *column) drop(row int) {
	if c.desc.drop != nil {
		c.desc.drop(c.ptr(row))
	}
}

// swapRemove moves the last row into row and shrinks the column by one. The
// value previously at row is overwritten without being dropped.
func (c *column) swapRemove(row int) {
	last := c.data.Len() - 1
	if row != last {
		c.copy(c.ptr(row), c.ptr(last))
	}
	c.data.Index(last).SetZero()
	c.data = c.data.Slice(0, last)
}

// bytes exposes the row as raw memory. Only valid for pointer-free columns.
func (c *column) bytes(row int) []byte {
	return unsafe.Slice((*byte)(c.ptr(row)), c.desc.layout.Size)
}
