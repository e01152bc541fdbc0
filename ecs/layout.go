package ecs

import (
	"fmt"
	"reflect"
)

// Layout describes the memory footprint of a component.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// LayoutOf returns the layout of T.
func LayoutOf[T any]() Layout {
	return LayoutFor(reflect.TypeFor[T]())
}

// LayoutFor returns the layout of t.
func LayoutFor(t reflect.Type) Layout {
	return Layout{Size: t.Size(), Align: uintptr(t.Align())}
}

// Stride is the distance between two consecutive values in a column.
func (l Layout) Stride() uintptr {
	if l.Align <= 1 {
		return l.Size
	}
	return (l.Size + l.Align - 1) &^ (l.Align - 1)
}

func (l Layout) String() string {
	return fmt.Sprintf("size=%d align=%d", l.Size, l.Align)
}

// carrierFor picks a pointer-free Go type with the given layout. Raw
// components are stored in columns of this type.
func carrierFor(l Layout) reflect.Type {
	var word reflect.Type
	switch l.Align {
	case 0, 1:
		word = reflect.TypeFor[uint8]()
	case 2:
		word = reflect.TypeFor[uint16]()
	case 4:
		word = reflect.TypeFor[uint32]()
	case 8:
		word = reflect.TypeFor[uint64]()
	default:
		panic(fmt.Sprintf("unsupported raw component alignment %d", l.Align))
	}
	return reflect.ArrayOf(int(l.Stride()/word.Size()), word)
}

// hasPointers reports whether values of t may hold Go pointers. Pointer-free
// values can be moved with a plain memory copy.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
