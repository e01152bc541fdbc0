package ecs_test

import (
	"sync"
	"testing"

	"github.com/plus3/archstore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnMovers(t *testing.T, w *ecs.World, n int) []ecs.Entity {
	t.Helper()
	entities := make([]ecs.Entity, 0, n)
	for i := 0; i < n; i++ {
		e, err := ecs.Spawn(w, ecs.T2(Position{X: float32(i)}, Velocity{DX: 1, DY: 2}))
		require.NoError(t, err)
		entities = append(entities, e)
	}
	return entities
}

func TestQueryAcrossArchetypes(t *testing.T) {
	w := newTestWorld()
	spawnMovers(t, w, 3)
	_, _ = ecs.Spawn(w, ecs.T3(Position{}, Velocity{}, Health{}))
	_, _ = ecs.Spawn(w, ecs.T3(Position{}, Velocity{}, Name{"x"}))
	_, _ = ecs.Spawn(w, Position{})

	q := ecs.NewQuery[Movement](w)
	assert.Equal(t, 5, q.Count())

	n := 0
	for range q.All() {
		n++
	}
	assert.Equal(t, 5, n)
	assert.False(t, w.Borrowed())
}

func TestQueryMutWritesThrough(t *testing.T) {
	w := newTestWorld()
	entities := spawnMovers(t, w, 10)

	q := ecs.NewQueryMut[Movement](w)
	for {
		m, ok := q.Next()
		if !ok {
			break
		}
		m.Position.X += m.Velocity.DX
		m.Position.Y += m.Velocity.DY
	}
	assert.False(t, w.Borrowed())

	for i, e := range entities {
		pos, ok := ecs.Get[*Position](w, e)
		require.True(t, ok)
		assert.Equal(t, Position{X: float32(i) + 1, Y: 2}, *pos)
	}
}

func TestQueryEmptyWorld(t *testing.T) {
	w := newTestWorld()

	q := ecs.NewQuery[*Position](w)
	_, ok := q.Next()
	assert.False(t, ok)
	assert.False(t, w.Borrowed(), "exhaustion releases the borrow")

	_, ok = q.Next()
	assert.False(t, ok, "a finished query stays finished")
}

func TestQueryEarlyBreakReleasesBorrow(t *testing.T) {
	w := newTestWorld()
	spawnMovers(t, w, 5)

	for range ecs.NewQueryMut[Movement](w).All() {
		break
	}
	assert.False(t, w.Borrowed())

	_, err := ecs.Spawn(w, Position{})
	assert.NoError(t, err)
}

func TestSharedQueriesCoexist(t *testing.T) {
	w := newTestWorld()
	spawnMovers(t, w, 2)

	a := ecs.NewQuery[*Position](w)
	b := ecs.NewQuery[*Velocity](w)

	pairs := 0
	for range a.All() {
		for range b.All() {
			pairs++
		}
	}
	assert.Equal(t, 2, pairs, "b is exhausted after the first pass")
	assert.False(t, w.Borrowed())
}

func TestBorrowConflictsPanic(t *testing.T) {
	w := newTestWorld()
	spawnMovers(t, w, 1)

	shared := ecs.NewQuery[*Position](w)
	assert.Panics(t, func() {
		ecs.NewQueryMut[*Velocity](w)
	})
	shared.Close()

	exclusive := ecs.NewQueryMut[*Position](w)
	assert.Panics(t, func() {
		ecs.NewQuery[*Velocity](w)
	})
	assert.Panics(t, func() {
		ecs.NewQueryMut[*Velocity](w)
	})
	exclusive.Close()
	exclusive.Close()

	assert.False(t, w.Borrowed())
}

func TestQueryRejectsValueBundles(t *testing.T) {
	w := newTestWorld()
	assert.Panics(t, func() {
		ecs.NewQuery[Position](w)
	})
	assert.False(t, w.Borrowed())
}

func TestQueryCacheSeesNewArchetypes(t *testing.T) {
	w := newTestWorld()
	spawnMovers(t, w, 1)

	first := ecs.NewQuery[*Position](w)
	assert.Equal(t, 1, first.Count())
	first.Close()

	_, _ = ecs.Spawn(w, ecs.T2(Position{}, Score(1)))
	q := ecs.NewQuery[*Position](w)
	assert.Equal(t, 2, q.Count())
	q.Close()
}

func TestDespawnedEntitiesAreNotQueried(t *testing.T) {
	w := newTestWorld()
	entities := spawnMovers(t, w, 4)
	require.NoError(t, w.Despawn(entities[1]))
	require.NoError(t, w.Despawn(entities[3]))

	var seen []ecs.Entity
	for e := range ecs.NewQuery[Movement](w).All() {
		seen = append(seen, e)
	}
	assert.ElementsMatch(t, []ecs.Entity{entities[0], entities[2]}, seen)
	assert.Equal(t, w.Len(), w.Archetypes().Rows())
}

func TestQueryOverEmptyArchetype(t *testing.T) {
	w := newTestWorld()
	e, _ := ecs.Spawn(w, Position{})
	require.NoError(t, w.Despawn(e))
	spawnMovers(t, w, 1)

	// the Position-only archetype is empty and must be skipped
	n := 0
	for range ecs.NewQuery[*Position](w).All() {
		n++
	}
	assert.Equal(t, 1, n)
}

func TestSharedQueriesFromGoroutines(t *testing.T) {
	w := newTestWorld()
	entities := spawnMovers(t, w, 50)
	_, _ = ecs.Spawn(w, Position{})

	const workers = 8
	counts := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				for range ecs.NewQuery[*Position](w).All() {
					counts[i]++
				}
				// first use of Movement races on registration
				for range ecs.NewQuery[Movement](w).All() {
				}
				_, _ = ecs.Get[*Velocity](w, entities[i])
			}
		}()
	}
	wg.Wait()

	for i := range counts {
		assert.Equal(t, 20*51, counts[i])
	}
	assert.False(t, w.Borrowed(), "every shared borrow is released")

	_, err := ecs.Spawn(w, Position{})
	assert.NoError(t, err)
}

func TestExclusiveQueryBlocksGoroutines(t *testing.T) {
	w := newTestWorld()
	spawnMovers(t, w, 1)

	q := ecs.NewQueryMut[*Position](w)
	panicked := make(chan bool)
	go func() {
		defer func() { panicked <- recover() != nil }()
		ecs.NewQuery[*Position](w)
	}()
	assert.True(t, <-panicked)
	q.Close()
	assert.False(t, w.Borrowed())
}
