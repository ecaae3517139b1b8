package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/beacon/internal/beacon"
	"github.com/dshills/beacon/internal/bus"
	"github.com/dshills/beacon/internal/config"
	"github.com/dshills/beacon/internal/indicator"
	"github.com/dshills/beacon/internal/logging"
	"github.com/dshills/beacon/internal/menu"
	plua "github.com/dshills/beacon/internal/plugin/lua"
)

// Plugin is one loaded script and its beacon.
type Plugin struct {
	name   string
	path   string
	state  *plua.State
	beacon *beacon.Beacon
	log    *logging.Logger

	mu     sync.RWMutex
	status State
	err    error
}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return p.name
}

// Path returns the script path.
func (p *Plugin) Path() string {
	return p.path
}

// Beacon returns the plugin's beacon.
func (p *Plugin) Beacon() *beacon.Beacon {
	return p.beacon
}

// State returns the current plugin state.
func (p *Plugin) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Error returns the activation error, if any.
func (p *Plugin) Error() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

func (p *Plugin) setState(s State, err error) {
	p.mu.Lock()
	p.status = s
	p.err = err
	p.mu.Unlock()
}

// Options configures a Host.
type Options struct {
	Bus       *bus.Bus
	Indicator indicator.Host
	Presenter menu.Presenter
	Config    *config.Config
	Logger    *logging.Logger
	Scheduler indicator.Scheduler

	// Output, when set, is installed as every plugin beacon's output
	// channel.
	Output logging.Sink

	// Timeout bounds each script run. Zero uses plua.DefaultTimeout.
	Timeout time.Duration
}

// Host loads and unloads plugins.
type Host struct {
	opts Options
	log  *logging.Logger

	mu      sync.Mutex
	plugins map[string]*Plugin
	order   []string
	closed  bool
}

// NewHost creates a host. Options.Bus is required.
func NewHost(opts Options) (*Host, error) {
	if opts.Bus == nil {
		return nil, beacon.ErrNoBus
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Timeout == 0 {
		opts.Timeout = plua.DefaultTimeout
	}
	return &Host{
		opts:    opts,
		log:     opts.Logger.WithComponent("plugin"),
		plugins: make(map[string]*Plugin),
	}, nil
}

// Load runs the plugin at path, a .lua file or a directory with init.lua,
// and calls its activate() function if it defines one. A failing
// activate() leaves the plugin loaded in StateError.
func (h *Host) Load(ctx context.Context, path string) (*Plugin, error) {
	entry, err := resolve(path)
	if err != nil {
		return nil, err
	}
	return h.load(ctx, entry)
}

// LoadDir loads every plugin Discover finds in dir. Failures are joined;
// the plugins that loaded are returned either way.
func (h *Host) LoadDir(ctx context.Context, dir string) ([]*Plugin, error) {
	entries, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	var loaded []*Plugin
	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		p, err := h.load(ctx, entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		loaded = append(loaded, p)
	}
	return loaded, errors.Join(errs...)
}

func (h *Host) load(ctx context.Context, entry Entry) (*Plugin, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHostClosed
	}
	if _, exists := h.plugins[entry.Name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyLoaded, entry.Name)
	}

	log := h.log.WithField("plugin", entry.Name)
	bc, err := beacon.New(beacon.Options{
		Bus:       h.opts.Bus,
		Host:      h.opts.Indicator,
		Presenter: h.opts.Presenter,
		Config:    h.opts.Config,
		Logger:    log,
		Scheduler: h.opts.Scheduler,
	})
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", entry.Name, err)
	}
	if h.opts.Output != nil {
		bc.SetOutputChannel(h.opts.Output)
	}

	state, err := plua.NewState(
		plua.WithTimeout(h.opts.Timeout),
		plua.WithPrint(func(line string) { log.Info(line, "source", "print") }),
	)
	if err != nil {
		bc.Dispose()
		return nil, fmt.Errorf("plugin %s: %w", entry.Name, err)
	}

	p := &Plugin{
		name:   entry.Name,
		path:   entry.Path,
		state:  state,
		beacon: bc,
		log:    log,
	}
	state.SetModule("beacon", moduleFuncs(ctx, p))

	if err := state.DoFile(entry.Path); err != nil {
		_ = state.Close()
		bc.Dispose()
		log.Error("plugin failed to load", "error", err.Error())
		return nil, fmt.Errorf("plugin %s: %w", entry.Name, err)
	}

	p.setState(StateActive, nil)
	if state.HasFunction("activate") {
		if _, err := state.Call("activate"); err != nil {
			p.setState(StateError, err)
			log.Error("activate failed", "error", err.Error())
		}
	}

	h.plugins[entry.Name] = p
	h.order = append(h.order, entry.Name)
	log.Info("plugin loaded", "path", entry.Path, "state", p.State().String())
	return p, nil
}

// Unload calls deactivate() if the plugin defines it, disposes its beacon
// and closes its interpreter. Teardown always completes; a deactivate()
// failure is returned.
func (h *Host) Unload(ctx context.Context, name string) error {
	h.mu.Lock()
	p, ok := h.plugins[name]
	if ok {
		delete(h.plugins, name)
		h.removeFromOrder(name)
	}
	h.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotLoaded, name)
	}
	return h.teardown(p)
}

func (h *Host) teardown(p *Plugin) error {
	var err error
	if p.state.HasFunction("deactivate") {
		if _, callErr := p.state.Call("deactivate"); callErr != nil {
			err = fmt.Errorf("plugin %s: deactivate: %w", p.name, callErr)
			p.log.Error("deactivate failed", "error", callErr.Error())
		}
	}
	p.beacon.Dispose()
	_ = p.state.Close()
	p.setState(StateUnloaded, nil)
	p.log.Info("plugin unloaded")
	return err
}

// Get returns a loaded plugin by name.
func (h *Host) Get(name string) (*Plugin, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.plugins[name]
	return p, ok
}

// List returns the loaded plugins in load order.
func (h *Host) List() []*Plugin {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*Plugin, 0, len(h.order))
	for _, name := range h.order {
		out = append(out, h.plugins[name])
	}
	return out
}

// Close unloads every plugin in reverse load order. Later Loads fail.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	order := append([]string(nil), h.order...)
	h.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		if err := h.Unload(ctx, order[i]); err != nil && !errors.Is(err, ErrNotLoaded) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Host) removeFromOrder(name string) {
	for i, n := range h.order {
		if n == name {
			h.order = append(h.order[:i], h.order[i+1:]...)
			return
		}
	}
}
