package beacon

import (
	"context"

	"github.com/dshills/beacon/internal/bus"
)

// Where a registry mutation came from.
const (
	originLocal  = "local"
	originRelay  = "relay"
	originIsland = "island"
)

// addLocal is the only path that inserts into the registry, for direct
// calls and relay handlers alike. It does not recompute the indicator;
// callers request that once they know the insertion stands.
func (b *Beacon) addLocal(clientID, origin string) (bool, error) {
	b.mu.Lock()
	if origin == originRelay && b.abdicated {
		b.mu.Unlock()
		return false, ErrNotOwner
	}
	b.disposed = false
	inserted := b.registry.Add(clientID)
	b.mu.Unlock()

	if !inserted {
		b.journal.Log("client already registered", "client", clientID, "origin", origin)
		return false, nil
	}
	b.journal.Log("client registered", "client", clientID, "origin", origin, "count", b.registry.Size())
	return true, nil
}

// dropLocal undoes an insertion that was never shown.
func (b *Beacon) dropLocal(clientID string) {
	b.mu.Lock()
	b.registry.Remove(clientID)
	b.mu.Unlock()
}

// removeLocal is the only path that removes from the registry. With
// ReleaseOnEmpty set, the owner gives up its endpoints and destroys its
// item when the last client leaves, so the next owner's item is the only one.
func (b *Beacon) removeLocal(clientID, origin string) (bool, error) {
	b.mu.Lock()
	if origin == originRelay && b.abdicated {
		b.mu.Unlock()
		return false, ErrNotOwner
	}
	removed := b.registry.Remove(clientID)
	var released []*bus.Handle
	if removed && b.registry.Size() == 0 && b.cfg.Relay.ReleaseOnEmpty && b.ownerLocked() {
		released = b.takeOwnerHandlesLocked()
	}
	b.mu.Unlock()

	if !removed {
		b.journal.Log("client not registered", "client", clientID, "origin", origin)
		return false, nil
	}
	b.journal.Log("client unregistered", "client", clientID, "origin", origin, "count", b.registry.Size())
	b.recompute.Request()

	if len(released) > 0 {
		releaseAll(released)
		if err := b.indicator.Teardown(); err != nil {
			b.journal.LogError("indicator.teardown", err)
		}
		b.journal.Log("ownership released", "reason", "registry empty")
	}
	return true, nil
}

// handleRegister is the owner's relay endpoint for registrations.
func (b *Beacon) handleRegister(_ context.Context, args ...any) (any, error) {
	clientID, err := clientArg(args)
	if err != nil {
		return nil, err
	}
	inserted, err := b.addLocal(clientID, originRelay)
	if err != nil {
		return nil, err
	}
	if inserted {
		b.recompute.Request()
	}
	return b.registry.Size(), nil
}

// handleUnregister is the owner's relay endpoint for unregistrations.
func (b *Beacon) handleUnregister(_ context.Context, args ...any) (any, error) {
	clientID, err := clientArg(args)
	if err != nil {
		return nil, err
	}
	if _, err := b.removeLocal(clientID, originRelay); err != nil {
		return nil, err
	}
	return b.registry.Size(), nil
}

func clientArg(args []any) (string, error) {
	if len(args) == 0 {
		return "", ErrBadArgument
	}
	id, ok := args[0].(string)
	if !ok || id == "" {
		return "", ErrBadArgument
	}
	return id, nil
}
