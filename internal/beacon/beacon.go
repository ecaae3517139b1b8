package beacon

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/beacon/internal/bus"
	"github.com/dshills/beacon/internal/config"
	"github.com/dshills/beacon/internal/diag"
	"github.com/dshills/beacon/internal/indicator"
	"github.com/dshills/beacon/internal/logging"
	"github.com/dshills/beacon/internal/menu"
	"github.com/dshills/beacon/internal/registry"
)

// Options configures a Beacon.
type Options struct {
	// Bus is the host's shared endpoint namespace. Required.
	Bus *bus.Bus

	// Host creates the indicator item when this instance needs one.
	Host indicator.Host

	// Presenter shows the client menu when this instance is owner.
	Presenter menu.Presenter

	// Config overrides config.Default().
	Config *config.Config

	// Logger is the default log sink. Defaults to a no-op logger.
	Logger *logging.Logger

	// Scheduler drains deferred indicator recomputes. Required when
	// Config.Relay.Deferred is set.
	Scheduler indicator.Scheduler
}

// Beacon is one plugin copy's view of the shared indicator.
type Beacon struct {
	id      string
	cfg     config.Config
	names   config.Endpoints
	bus     *bus.Bus
	log     *logging.Logger
	journal *diag.Journal

	registry  *registry.Registry
	indicator *indicator.Manager
	recompute *indicator.Coalescer
	menu      *menu.Menu

	// callMu serializes the public operations of this instance.
	callMu sync.Mutex

	// mu guards the fields below.
	mu         sync.Mutex
	relay      []*bus.Handle
	menuHandle *bus.Handle
	diagHandle *bus.Handle
	abdicated  bool
	sink       logging.Sink
	disposed   bool
}

// New creates a Beacon. Nothing is registered on the bus until the first
// RegisterExtension or SetOutputChannel call.
func New(opts Options) (*Beacon, error) {
	if opts.Bus == nil {
		return nil, ErrNoBus
	}

	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var sched indicator.Scheduler
	if cfg.Relay.Deferred {
		if opts.Scheduler == nil {
			return nil, ErrNoScheduler
		}
		sched = opts.Scheduler
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	id := uuid.NewString()
	log = log.Scoped().WithComponent("beacon").WithField("instance", id[:8])

	b := &Beacon{
		id:       id,
		cfg:      cfg,
		names:    cfg.Endpoints(),
		bus:      opts.Bus,
		log:      log,
		journal:  diag.NewJournal(log),
		registry: registry.New(),
	}
	b.indicator = indicator.NewManager(opts.Host, indicator.Options{
		Text:    cfg.Indicator.Text,
		Command: b.names.Menu,
		Tooltip: cfg.TooltipFunc(),
	}, log)
	b.recompute = indicator.NewCoalescer(sched, b.syncIndicator)
	b.menu = menu.New(opts.Presenter, b.registry.Members, b.journal)

	return b, nil
}

// ID returns the instance id.
func (b *Beacon) ID() string {
	return b.id
}

// Endpoints returns the bus endpoint names this instance uses.
func (b *Beacon) Endpoints() config.Endpoints {
	return b.names
}

// IsOwner reports whether this instance currently holds the relay endpoints.
func (b *Beacon) IsOwner() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ownerLocked()
}

// SetLogLevel changes the log level of this instance's logger tree.
func (b *Beacon) SetLogLevel(level logging.Level) {
	b.log.SetLevel(level)
}

// RegisterExtension adds clientID to the shared registry, forwarding to the
// owner or becoming the owner as needed. It never fails.
func (b *Beacon) RegisterExtension(ctx context.Context, clientID string) {
	defer b.guard("register", clientID)

	if clientID == "" {
		b.journal.LogError("register", ErrBadArgument)
		return
	}

	b.callMu.Lock()
	defer b.callMu.Unlock()

	b.registerClient(ctx, clientID)
}

// UnregisterExtension removes clientID from the shared registry. Unknown
// ids are ignored. It never fails.
func (b *Beacon) UnregisterExtension(ctx context.Context, clientID string) {
	defer b.guard("unregister", clientID)

	if clientID == "" {
		b.journal.LogError("unregister", ErrBadArgument)
		return
	}

	b.callMu.Lock()
	defer b.callMu.Unlock()

	b.unregisterClient(ctx, clientID)
}

// guard turns a panic in a public operation into a logged error.
func (b *Beacon) guard(event, clientID string) {
	if r := recover(); r != nil {
		b.journal.LogError(event, fmt.Errorf("%w: %v", ErrPanic, r), "client", clientID)
	}
}

func (b *Beacon) syncIndicator() {
	if err := b.indicator.SyncTo(b.registry.Size); err != nil {
		b.journal.LogError("indicator.sync", err)
	}
}

func (b *Beacon) ownerLocked() bool {
	if len(b.relay) != 2 {
		return false
	}
	for _, h := range b.relay {
		if h.Released() {
			return false
		}
	}
	return true
}
