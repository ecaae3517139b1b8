package beacon

import "errors"

// Beacon errors.
var (
	// ErrNoBus is returned by New when Options.Bus is nil.
	ErrNoBus = errors.New("beacon: bus is required")

	// ErrNoScheduler is returned by New when deferred recomputes are
	// configured without a scheduler.
	ErrNoScheduler = errors.New("beacon: deferred recompute requires a scheduler")

	// ErrBadArgument indicates a relay call without a usable client id.
	ErrBadArgument = errors.New("beacon: client id must be a non-empty string")

	// ErrNotOwner is returned by relay handlers of an instance that has
	// already given up ownership.
	ErrNotOwner = errors.New("beacon: instance is no longer owner")

	// ErrIsland indicates an instance could neither claim ownership nor
	// reach the owner and is counting its client locally.
	ErrIsland = errors.New("beacon: no reachable owner, counting locally")

	// ErrPanic indicates a recovered panic inside a public operation.
	ErrPanic = errors.New("beacon: recovered panic")
)
