package ecs

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Commands buffers structural changes issued while the world is borrowed by
// a query. Flush applies them once the queries are done.
type Commands struct {
	spawns   []func(*World) error
	despawns []Entity
	inserts  []entityCommand
	removes  []entityCommand
	defers   []func(*World) error
}

type entityCommand struct {
	entity Entity
	apply  func(*World, Entity) error
}

// NewCommands creates an empty buffer.
func NewCommands() *Commands {
	return &Commands{}
}

// QueueSpawn queues the spawn of an entity holding bundle.
func QueueSpawn[B any](c *Commands, bundle B) {
	c.spawns = append(c.spawns, func(w *World) error {
		_, err := Spawn(w, bundle)
		return err
	})
}

// QueueInsert queues the insertion of bundle into e.
func QueueInsert[B any](c *Commands, e Entity, bundle B) {
	c.inserts = append(c.inserts, entityCommand{
		entity: e,
		apply: func(w *World, e Entity) error {
			return Insert(w, e, bundle)
		},
	})
}

// QueueRemove queues the removal of the components of B from e.
func QueueRemove[B any](c *Commands, e Entity) {
	c.removes = append(c.removes, entityCommand{
		entity: e,
		apply:  Remove[B],
	})
}

// Despawn queues the despawn of e.
func (c *Commands) Despawn(e Entity) {
	c.despawns = append(c.despawns, e)
}

// Defer queues fn to run after every other queued command.
func (c *Commands) Defer(fn func(*World) error) {
	c.defers = append(c.defers, fn)
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.despawns) + len(c.inserts) + len(c.removes) + len(c.defers)
}

// Flush applies despawns, removals, insertions, spawns and deferred
// functions in that order, then resets the buffer. Commands queued on c by
// deferred functions are applied in the same Flush, as a following batch.
// Commands addressed to entities despawned earlier in the flush are skipped;
// other failures are collected and returned together.
func (c *Commands) Flush(w *World) error {
	if w.Borrowed() {
		return eris.Wrap(ErrWorldBorrowed, "flush commands")
	}

	var errs []error
	despawned := make(map[Entity]bool, len(c.despawns))
	for c.Len() > 0 {
		batch := *c
		*c = Commands{}
		errs = batch.apply(w, despawned, errs)
		if c.Len() == 0 {
			// keep the drained slices for the next round of queueing
			batch.reset()
			*c = batch
		}
	}
	return errors.Join(errs...)
}

func (c *Commands) apply(w *World, despawned map[Entity]bool, errs []error) []error {
	for _, e := range c.despawns {
		if despawned[e] {
			continue
		}
		despawned[e] = true
		if err := w.Despawn(e); err != nil {
			errs = append(errs, err)
		}
	}
	for _, cmd := range c.removes {
		if despawned[cmd.entity] {
			continue
		}
		if err := cmd.apply(w, cmd.entity); err != nil {
			errs = append(errs, err)
		}
	}
	for _, cmd := range c.inserts {
		if despawned[cmd.entity] {
			continue
		}
		if err := cmd.apply(w, cmd.entity); err != nil {
			errs = append(errs, err)
		}
	}
	for _, spawn := range c.spawns {
		if err := spawn(w); err != nil {
			errs = append(errs, err)
		}
	}
	for _, fn := range c.defers {
		if err := fn(w); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (c *Commands) reset() {
	clear(c.spawns)
	clear(c.inserts)
	clear(c.removes)
	clear(c.defers)
	c.spawns = c.spawns[:0]
	c.despawns = c.despawns[:0]
	c.inserts = c.inserts[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
}
