package ecs_test

import (
	"fmt"
	"slices"

	"github.com/plus3/archstore/ecs"
)

// ExampleSpawn shows spawning entities from single components, tuples and
// named composite bundles.
func ExampleSpawn() {
	w := ecs.NewWorld()

	player, _ := ecs.Spawn(w, Character{
		Position: Position{X: 1, Y: 1},
		Velocity: Velocity{DX: 1},
		Name:     Name{Value: "player"},
	})
	_, _ = ecs.Spawn(w, ecs.T2(Position{X: 5}, Velocity{DY: 1}))
	_, _ = ecs.Spawn(w, Position{X: 9, Y: 9})

	name, _ := ecs.Get[*Name](w, player)
	fmt.Println("entities:", w.Len())
	fmt.Println("archetypes:", w.Archetypes().Len())
	fmt.Println("player:", name.Value)

	// Output:
	// entities: 3
	// archetypes: 4
	// player: player
}

// ExampleNewQueryMut integrates velocity into position for every entity
// holding both.
func ExampleNewQueryMut() {
	w := ecs.NewWorld()
	_, _ = ecs.Spawn(w, ecs.T2(Position{X: 0, Y: 0}, Velocity{DX: 1, DY: 0}))
	_, _ = ecs.Spawn(w, ecs.T3(Position{X: 10, Y: 10}, Velocity{DX: 0, DY: 1}, Health{Current: 100, Max: 100}))
	_, _ = ecs.Spawn(w, ecs.T2(Position{X: 20, Y: 20}, Velocity{DX: -1, DY: -1}))
	_, _ = ecs.Spawn(w, Position{X: 99, Y: 99})

	var moved []string
	for _, m := range ecs.NewQueryMut[Movement](w).All() {
		m.Position.X += m.Velocity.DX
		m.Position.Y += m.Velocity.DY
		moved = append(moved, fmt.Sprintf("(%.0f, %.0f)", m.Position.X, m.Position.Y))
	}
	slices.Sort(moved)

	fmt.Println("Moved entities:")
	for _, m := range moved {
		fmt.Println(m)
	}

	// Output:
	// Moved entities:
	// (1, 0)
	// (10, 11)
	// (19, 19)
}

// ExampleCommands despawns entities from inside a query. Structural changes
// are queued and applied once the query has finished.
func ExampleCommands() {
	w := ecs.NewWorld()
	for i := 0; i < 5; i++ {
		_, _ = ecs.Spawn(w, Health{Current: i * 25, Max: 100})
	}

	cmds := ecs.NewCommands()
	for e, h := range ecs.NewQuery[*Health](w).All() {
		if h.Current == 0 {
			cmds.Despawn(e)
		}
	}
	if err := cmds.Flush(w); err != nil {
		fmt.Println("flush:", err)
	}
	fmt.Println("alive:", w.Len())

	// Output:
	// alive: 4
}
