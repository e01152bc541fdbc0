package ecs_test

import "github.com/plus3/archstore/ecs"

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

type Score int32

type Inventory struct {
	Items []string
}

// Resource counts every Drop call through a shared counter.
type Resource struct {
	ID    int
	Drops *int
}

func (r *Resource) Drop() {
	if r.Drops != nil {
		*r.Drops++
	}
}

type Movement struct {
	ecs.Bundle
	*Position
	*Velocity
}

type MovementWithHealth struct {
	ecs.Bundle
	*Position
	*Velocity
	Health *Health `ecs:"optional"`
}

type Character struct {
	ecs.Bundle
	Position
	Velocity
	Name
}

func newTestWorld() *ecs.World {
	return ecs.NewWorld(ecs.WithEntityCapacity(16), ecs.WithColumnCapacity(4))
}
