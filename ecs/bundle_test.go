package ecs_test

import (
	"testing"

	"github.com/plus3/archstore/ecs"
	"github.com/stretchr/testify/assert"
)

func TestLeafBundle(t *testing.T) {
	components := ecs.NewComponents()
	bundles := ecs.NewBundles()

	info := ecs.InitBundle[Position](bundles, components)
	pos, _ := ecs.ComponentIdOf[Position](components)

	assert.Equal(t, []ecs.ComponentId{pos}, info.Components())
	assert.Equal(t, []ecs.ComponentId{pos}, info.Required())
	assert.False(t, info.IsView())

	ptrInfo := ecs.InitBundle[*Position](bundles, components)
	assert.NotEqual(t, info.ID(), ptrInfo.ID())
	assert.Equal(t, info.Components(), ptrInfo.Components())
	assert.True(t, ptrInfo.IsView())
}

func TestBundleIdsAreStable(t *testing.T) {
	components := ecs.NewComponents()
	bundles := ecs.NewBundles()

	first := ecs.InitBundle[Movement](bundles, components)
	second := ecs.InitBundle[Movement](bundles, components)

	assert.Same(t, first, second)
	assert.Equal(t, 1, bundles.Len())
	assert.Equal(t, 2, components.Len())

	info, ok := bundles.Info(first.ID())
	assert.True(t, ok)
	assert.Same(t, first, info)

	_, ok = bundles.Info(ecs.BundleId(9))
	assert.False(t, ok)
}

func TestCompositeBundleOrder(t *testing.T) {
	components := ecs.NewComponents()
	bundles := ecs.NewBundles()

	vel := ecs.InitComponent[Velocity](components)
	info := ecs.InitBundle[Character](bundles, components)
	pos, _ := ecs.ComponentIdOf[Position](components)
	name, _ := ecs.ComponentIdOf[Name](components)

	assert.Equal(t, []ecs.ComponentId{pos, vel, name}, info.Components(), "declaration order")
	assert.Equal(t, []ecs.ComponentId{vel, pos, name}, info.Required(), "sorted")
}

func TestNestedTuplesFlatten(t *testing.T) {
	components := ecs.NewComponents()
	bundles := ecs.NewBundles()

	flat := ecs.InitBundle[ecs.Tuple3[Position, Velocity, Health]](bundles, components)
	nested := ecs.InitBundle[ecs.Tuple2[Position, ecs.Tuple2[Velocity, Health]]](bundles, components)

	assert.Equal(t, flat.Components(), nested.Components())
	assert.NotEqual(t, flat.ID(), nested.ID())
}

func TestDuplicateComponentPanics(t *testing.T) {
	components := ecs.NewComponents()
	bundles := ecs.NewBundles()

	func() {
		defer func() {
			assert.Contains(t, recover(), "has duplicate components")
		}()
		ecs.InitBundle[ecs.Tuple2[Position, Position]](bundles, components)
	}()

	assert.Panics(t, func() {
		ecs.InitBundle[ecs.Tuple2[*Position, ecs.Tuple2[Velocity, Position]]](bundles, components)
	}, "duplicates are found across nesting levels")
	assert.Equal(t, 0, bundles.Len())
}

func TestOptionalFields(t *testing.T) {
	components := ecs.NewComponents()
	bundles := ecs.NewBundles()

	info := ecs.InitBundle[MovementWithHealth](bundles, components)
	health, _ := ecs.ComponentIdOf[Health](components)

	assert.Len(t, info.Components(), 3)
	assert.Len(t, info.Required(), 2)
	assert.NotContains(t, info.Required(), health)
	assert.True(t, info.IsView())
}

func TestMalformedBundlesPanic(t *testing.T) {
	components := ecs.NewComponents()
	bundles := ecs.NewBundles()

	assert.Panics(t, func() {
		ecs.InitBundle[struct {
			ecs.Bundle
			Health Health `ecs:"optional"`
		}](bundles, components)
	}, "optional fields must be pointers")

	assert.Panics(t, func() {
		ecs.InitBundle[struct {
			ecs.Bundle
			Health *Health `ecs:"maybe"`
		}](bundles, components)
	}, "unknown tag")

	assert.Panics(t, func() {
		ecs.InitBundle[struct {
			ecs.Bundle
			*Movement
		}](bundles, components)
	}, "pointer to composite")

	assert.Panics(t, func() {
		ecs.InitBundle[ecs.Bundle](bundles, components)
	}, "marker alone")
}

func TestBundlesAll(t *testing.T) {
	components := ecs.NewComponents()
	bundles := ecs.NewBundles()
	ecs.InitBundle[Position](bundles, components)
	ecs.InitBundle[Movement](bundles, components)

	var names []string
	for info := range bundles.All() {
		names = append(names, info.Name())
	}
	assert.Equal(t, []string{"ecs_test.Position", "ecs_test.Movement"}, names)
}
