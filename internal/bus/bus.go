package bus

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dshills/beacon/internal/logging"
)

// Handler is the callable behind an endpoint.
type Handler func(ctx context.Context, args ...any) (any, error)

// Bus is the process-wide namespace of named endpoints.
type Bus struct {
	mu        sync.RWMutex
	endpoints map[string]*endpoint
	nextID    atomic.Uint64
	log       *logging.Logger
}

type endpoint struct {
	id      uint64
	handler Handler
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for registration traffic.
func WithLogger(l *logging.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		endpoints: make(map[string]*endpoint),
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithComponent("bus")
	return b
}

// Register claims name for h. The existence check and the insert happen
// under one lock, so exactly one of any number of concurrent callers wins.
func (b *Bus) Register(name string, h Handler) (*Handle, error) {
	if name == "" || h == nil {
		return nil, ErrInvalidEndpoint
	}

	b.mu.Lock()
	if _, exists := b.endpoints[name]; exists {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNameTaken, name)
	}
	id := b.nextID.Add(1)
	b.endpoints[name] = &endpoint{id: id, handler: h}
	b.mu.Unlock()

	b.log.Debug("endpoint registered", "endpoint", name)
	return &Handle{bus: b, name: name, id: id}, nil
}

// Invoke calls the handler registered under name.
//
// If ctx can be cancelled the handler runs on its own goroutine and Invoke
// returns ErrInvokeTimeout once ctx is done; the handler keeps running to
// completion in the background.
func (b *Bus) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	b.mu.RLock()
	ep, ok := b.endpoints[name]
	b.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEndpointNotFound, name)
	}

	if ctx.Done() == nil {
		return call(ctx, name, ep.handler, args)
	}

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := call(ctx, name, ep.handler, args)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %w", ErrInvokeTimeout, name, ctx.Err())
	}
}

// call runs a handler with panic recovery.
func call(ctx context.Context, name string, h Handler, args []any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = &RemoteError{
				Name: name,
				Err:  fmt.Errorf("%w: %v\n%s", ErrHandlerPanic, r, debug.Stack()),
			}
		}
	}()

	value, err = h(ctx, args...)
	if err != nil {
		return nil, &RemoteError{Name: name, Err: err}
	}
	return value, nil
}

// Has reports whether name is registered.
func (b *Bus) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.endpoints[name]
	return ok
}

// Names returns all registered endpoint names, sorted.
func (b *Bus) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.endpoints))
	for name := range b.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered endpoints.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.endpoints)
}

// release removes name if it is still held by registration id.
func (b *Bus) release(name string, id uint64) bool {
	b.mu.Lock()
	ep, ok := b.endpoints[name]
	if ok && ep.id == id {
		delete(b.endpoints, name)
	} else {
		ok = false
	}
	b.mu.Unlock()

	if ok {
		b.log.Debug("endpoint released", "endpoint", name)
	}
	return ok
}

// Handle is the proof of one successful registration.
type Handle struct {
	bus      *Bus
	name     string
	id       uint64
	released atomic.Bool
}

// Name returns the endpoint name this handle holds.
func (h *Handle) Name() string {
	return h.name
}

// Release frees the name for reuse. It only removes the registration made
// through this handle and is safe to call more than once.
func (h *Handle) Release() bool {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return false
	}
	return h.bus.release(h.name, h.id)
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	return h.released.Load()
}
