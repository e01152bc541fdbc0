package ecs_test

import (
	"testing"

	"github.com/plus3/archstore/ecs"
	"github.com/stretchr/testify/assert"
)

func TestSparseSetInsertGet(t *testing.T) {
	set := ecs.NewSparseSet[ecs.ComponentId, string](2)

	set.Insert(7, "seven")
	set.Insert(2, "two")

	v, ok := set.Get(7)
	assert.True(t, ok)
	assert.Equal(t, "seven", v)
	assert.True(t, set.Contains(2))
	assert.False(t, set.Contains(3))
	assert.False(t, set.Contains(1000))
	assert.Equal(t, 2, set.Len())

	set.Insert(7, "SEVEN")
	v, _ = set.Get(7)
	assert.Equal(t, "SEVEN", v)
	assert.Equal(t, 2, set.Len(), "replacing keeps the slot")
}

func TestSparseSetRemoveSwapsLast(t *testing.T) {
	set := ecs.NewSparseSet[ecs.ArchetypeId, int](0)
	set.Insert(1, 10)
	set.Insert(2, 20)
	set.Insert(3, 30)

	v, ok := set.Remove(1)
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	assert.Equal(t, []ecs.ArchetypeId{3, 2}, set.Indices())
	assert.Equal(t, []int{30, 20}, set.Values())
	assert.Equal(t, 0, set.Slot(3))

	_, ok = set.Remove(1)
	assert.False(t, ok)

	v, ok = set.Get(3)
	assert.True(t, ok)
	assert.Equal(t, 30, v)
}

func TestSparseSetAll(t *testing.T) {
	set := ecs.NewSparseSet[ecs.BundleId, string](4)
	set.Insert(4, "d")
	set.Insert(0, "a")

	got := map[ecs.BundleId]string{}
	for id, v := range set.All() {
		got[id] = v
	}
	assert.Equal(t, map[ecs.BundleId]string{4: "d", 0: "a"}, got)
}
