package ecs

import "github.com/rotisserie/eris"

var (
	// ErrEntityNotFound is returned for despawned or stale entities.
	ErrEntityNotFound = eris.New("entity not found")

	// ErrWorldBorrowed is returned by structural changes while a query is
	// live. Queue them on a Commands buffer instead.
	ErrWorldBorrowed = eris.New("world is borrowed by a live query")

	// ErrComponentNotFound is returned for unknown component ids.
	ErrComponentNotFound = eris.New("component not found")

	// ErrLayoutMismatch is returned when raw data does not match the
	// component's layout.
	ErrLayoutMismatch = eris.New("data does not match component layout")
)
