package beacon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/beacon/internal/bus"
	"github.com/dshills/beacon/internal/diag"
	"github.com/dshills/beacon/internal/logging"
)

// SetOutputChannel installs the host's text output channel. The first call
// wins; later calls are logged and ignored. The first call also publishes
// the diagnostics endpoint unless another instance already has.
func (b *Beacon) SetOutputChannel(sink logging.Sink) {
	defer b.guard("output", "")

	if sink == nil {
		b.journal.Log("output channel ignored", "reason", "nil sink")
		return
	}

	b.mu.Lock()
	if b.sink != nil {
		b.mu.Unlock()
		b.journal.Log("output channel ignored", "reason", "already set")
		return
	}
	b.sink = sink
	b.mu.Unlock()

	if !b.log.SetSink(sink) {
		b.journal.Debug("logger already mirrors to another output channel")
	}
	b.journal.Log("output channel set")

	h, err := b.bus.Register(b.names.Diagnostics, b.handleDiagnostics)
	if err != nil {
		if errors.Is(err, bus.ErrNameTaken) {
			b.journal.Log("diagnostics endpoint provided by another instance")
			return
		}
		b.journal.LogError("diagnostics.publish", err)
		return
	}
	b.mu.Lock()
	b.diagHandle = h
	b.mu.Unlock()
}

// handleDiagnostics writes this instance's snapshot to its output channel
// and returns it.
func (b *Beacon) handleDiagnostics(_ context.Context, _ ...any) (any, error) {
	snap := b.DiagnosticInfo()

	b.mu.Lock()
	sink := b.sink
	b.mu.Unlock()

	if sink != nil {
		for _, line := range snap.Lines() {
			sink.AppendLine(line)
		}
	}
	return snap, nil
}

// DiagnosticInfo returns a snapshot computed from live state.
func (b *Beacon) DiagnosticInfo() diag.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	held := func(h *bus.Handle) bool {
		return h != nil && !h.Released()
	}
	relayHeld := func(i int) bool {
		return i < len(b.relay) && held(b.relay[i])
	}

	return diag.Snapshot{
		InstanceID:       b.id,
		TakenAt:          time.Now(),
		ClientCount:      b.registry.Size(),
		Clients:          b.registry.Members(),
		IndicatorExists:  b.indicator.Exists(),
		IndicatorVisible: b.indicator.Visible(),
		Owner:            b.ownerLocked(),
		Endpoints: map[string]bool{
			b.names.Register:    relayHeld(0),
			b.names.Unregister:  relayHeld(1),
			b.names.Menu:        held(b.menuHandle),
			b.names.Diagnostics: held(b.diagHandle),
		},
		OutputChannel: b.sink != nil,
		Disposed:      b.disposed,
		LastError:     b.journal.LastError(),
	}
}

// Dispose tears the instance down: relay, menu and diagnostics endpoints
// are released, the indicator is destroyed and the registry is cleared.
// The last error is cleared first, so a failing step stays visible in the
// snapshot. Each step runs even if an earlier one fails. A second call is a
// no-op.
func (b *Beacon) Dispose() {
	defer b.guard("dispose", "")

	b.callMu.Lock()
	defer b.callMu.Unlock()

	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		b.journal.Debug("already disposed")
		return
	}
	owned := b.takeOwnerHandlesLocked()
	diagHandle := b.diagHandle
	b.diagHandle = nil
	b.disposed = true
	b.mu.Unlock()

	b.journal.ClearLastError()

	b.isolate("dispose.relay", func() error {
		releaseAll(owned)
		return nil
	})
	b.isolate("dispose.diagnostics", func() error {
		diagHandle.Release()
		return nil
	})
	b.isolate("dispose.indicator", b.indicator.Teardown)
	b.isolate("dispose.registry", func() error {
		b.registry.Clear()
		return nil
	})

	b.journal.Log("disposed", "released", len(owned))
}

// isolate runs one teardown step so that its failure cannot stop the next.
func (b *Beacon) isolate(event string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			b.journal.LogError(event, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()
	if err := fn(); err != nil {
		b.journal.LogError(event, err)
	}
}
