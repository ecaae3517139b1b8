package beacon

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/beacon/internal/bus"
)

// Outcome is the result of one election step.
type Outcome int

const (
	// Failed means the step could not reach or become the owner.
	Failed Outcome = iota
	// Forwarded means a live owner accepted the operation.
	Forwarded
	// Owner means this instance now holds the relay endpoints.
	Owner
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Forwarded:
		return "forwarded"
	case Owner:
		return "owner"
	default:
		return "failed"
	}
}

// Result is the tagged result of tryForward and tryClaimOwnership.
type Result struct {
	Outcome Outcome
	Err     error
}

type op int

const (
	opRegister op = iota
	opUnregister
)

func (o op) String() string {
	if o == opUnregister {
		return "unregister"
	}
	return "register"
}

func (b *Beacon) endpoint(o op) string {
	if o == opUnregister {
		return b.names.Unregister
	}
	return b.names.Register
}

// tryForward invokes the owner's relay endpoint for o. A missing endpoint,
// a failing handler and a timeout are all Failed.
func (b *Beacon) tryForward(ctx context.Context, o op, clientID string) Result {
	ctx, cancel := b.relayContext(ctx)
	defer cancel()

	if _, err := b.bus.Invoke(ctx, b.endpoint(o), clientID); err != nil {
		return Result{Outcome: Failed, Err: err}
	}
	return Result{Outcome: Forwarded}
}

func (b *Beacon) relayContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := b.cfg.Relay.Timeout.Std(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// tryClaimOwnership registers both relay endpoints. If the second
// registration fails the first is released again, so no instance is ever
// left holding half of the pair.
func (b *Beacon) tryClaimOwnership() Result {
	b.mu.Lock()
	b.abdicated = false
	b.mu.Unlock()

	reg, err := b.bus.Register(b.names.Register, b.handleRegister)
	if err != nil {
		return Result{Outcome: Failed, Err: err}
	}
	unreg, err := b.bus.Register(b.names.Unregister, b.handleUnregister)
	if err != nil {
		reg.Release()
		return Result{Outcome: Failed, Err: err}
	}

	b.mu.Lock()
	b.relay = []*bus.Handle{reg, unreg}
	b.mu.Unlock()

	b.publishMenu()
	return Result{Outcome: Owner}
}

// publishMenu registers the owner-only menu endpoint bound to the indicator.
func (b *Beacon) publishMenu() {
	h, err := b.bus.Register(b.names.Menu, b.menu.Handler())
	if err != nil {
		b.journal.LogError("menu.publish", err)
		return
	}
	b.mu.Lock()
	b.menuHandle = h
	b.mu.Unlock()
}

// takeOwnerHandlesLocked detaches the relay and menu handles and marks the
// instance as no longer accepting relayed calls. The caller releases them.
func (b *Beacon) takeOwnerHandlesLocked() []*bus.Handle {
	handles := append([]*bus.Handle(nil), b.relay...)
	if b.menuHandle != nil {
		handles = append(handles, b.menuHandle)
	}
	b.relay = nil
	b.menuHandle = nil
	b.abdicated = true
	return handles
}

func releaseAll(handles []*bus.Handle) {
	for _, h := range handles {
		h.Release()
	}
}

func (b *Beacon) registerClient(ctx context.Context, clientID string) {
	fwd := b.tryForward(ctx, opRegister, clientID)
	if fwd.Outcome == Forwarded {
		b.journal.Debug("registration forwarded", "client", clientID)
		return
	}
	b.noteFallback(opRegister, clientID, fwd.Err)

	inserted, _ := b.addLocal(clientID, originLocal)

	if b.IsOwner() {
		if inserted {
			b.recompute.Request()
		}
		return
	}

	claim := b.tryClaimOwnership()
	if claim.Outcome == Owner {
		b.journal.Log("ownership claimed", "client", clientID)
		if inserted {
			b.recompute.Request()
		}
		return
	}

	b.journal.Debug("ownership race lost", "client", clientID, "error", claim.Err.Error())

	retry := b.tryForward(ctx, opRegister, clientID)
	if retry.Outcome == Forwarded {
		if inserted {
			b.dropLocal(clientID)
		}
		b.journal.Log("registration forwarded after race", "client", clientID)
		return
	}

	b.journal.LogError("relay.island",
		fmt.Errorf("%w: %w", ErrIsland, errors.Join(claim.Err, retry.Err)),
		"client", clientID)
	if inserted {
		b.recompute.Request()
	}
}

func (b *Beacon) unregisterClient(ctx context.Context, clientID string) {
	fwd := b.tryForward(ctx, opUnregister, clientID)
	if fwd.Outcome == Forwarded {
		b.journal.Debug("unregistration forwarded", "client", clientID)
		if !b.IsOwner() && b.registry.Has(clientID) {
			_, _ = b.removeLocal(clientID, originIsland)
		}
		return
	}
	b.noteFallback(opUnregister, clientID, fwd.Err)

	_, _ = b.removeLocal(clientID, originLocal)
}

// noteFallback logs why a forward failed. No owner is the expected case on
// first use and is not recorded as an error.
func (b *Beacon) noteFallback(o op, clientID string, err error) {
	if errors.Is(err, bus.ErrEndpointNotFound) {
		b.journal.Debug("no owner reachable", "op", o.String(), "client", clientID)
		return
	}
	b.journal.LogError("relay.forward", err, "op", o.String(), "client", clientID)
}
