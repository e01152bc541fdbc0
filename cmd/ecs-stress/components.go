package main

import (
	"math/rand"

	"github.com/plus3/archstore/ecs"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Health struct {
	Current, Max int
}

type Lifetime struct {
	Ticks int
}

type Label struct {
	Value string
}

type Cargo struct {
	Items []int
}

type Mover struct {
	ecs.Bundle
	*Position
	*Velocity
}

type Aging struct {
	ecs.Bundle
	*Lifetime
	Health *Health `ecs:"optional"`
}

// spawnRandom spawns an entity with a random subset of the stress
// components. Every entity has a Position so the movement query has work.
func spawnRandom(w *ecs.World, rng *rand.Rand) (ecs.Entity, error) {
	pos := Position{X: rng.Float64() * 100, Y: rng.Float64() * 100}
	vel := Velocity{DX: rng.Float64() - 0.5, DY: rng.Float64() - 0.5}
	life := Lifetime{Ticks: 10 + rng.Intn(200)}

	switch rng.Intn(6) {
	case 0:
		return ecs.Spawn(w, pos)
	case 1:
		return ecs.Spawn(w, ecs.T2(pos, vel))
	case 2:
		return ecs.Spawn(w, ecs.T3(pos, vel, life))
	case 3:
		return ecs.Spawn(w, ecs.T4(pos, vel, life, Health{Current: 100, Max: 100}))
	case 4:
		return ecs.Spawn(w, ecs.T3(pos, life, Label{Value: "drifter"}))
	default:
		return ecs.Spawn(w, ecs.T4(pos, vel, life, Cargo{Items: make([]int, rng.Intn(4))}))
	}
}
