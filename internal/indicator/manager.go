package indicator

import (
	"fmt"
	"sync"

	"github.com/dshills/beacon/internal/logging"
)

// Options configures the indicator item.
type Options struct {
	// Text is the static label.
	Text string

	// Command is the bus endpoint bound as the activation handler.
	Command string

	// Tooltip renders the count-bearing tooltip.
	Tooltip func(count int) string
}

// DefaultTooltip renders "N active".
func DefaultTooltip(count int) string {
	if count == 1 {
		return "1 extension active"
	}
	return fmt.Sprintf("%d extensions active", count)
}

// Manager owns the lifecycle of the single indicator item.
type Manager struct {
	mu   sync.Mutex
	host Host
	opts Options
	log  *logging.Logger

	item      Item
	visible   bool
	creations int
}

// NewManager creates a manager. No item is created until the first Sync
// with a positive count.
func NewManager(host Host, opts Options, log *logging.Logger) *Manager {
	if opts.Tooltip == nil {
		opts.Tooltip = DefaultTooltip
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		host: host,
		opts: opts,
		log:  log.WithComponent("indicator"),
	}
}

// Sync brings the item in line with count.
func (m *Manager) Sync(count int) error {
	return m.SyncTo(func() int { return count })
}

// SyncTo is Sync with the count read while the manager is locked, so that
// concurrent callers always leave the item showing the latest count.
func (m *Manager) SyncTo(size func() int) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: sync panic: %v", ErrResourceCreation, r)
		}
	}()

	count := size()

	if count <= 0 {
		if m.item == nil {
			return nil
		}
		if err := m.item.Hide(); err != nil {
			return fmt.Errorf("%w: hide: %w", ErrResourceCreation, err)
		}
		m.visible = false
		m.log.Debug("indicator hidden")
		return nil
	}

	if m.item == nil {
		if m.host == nil {
			return fmt.Errorf("%w: no host", ErrResourceCreation)
		}
		item, err := m.host.CreateItem()
		if err != nil {
			return fmt.Errorf("%w: create: %w", ErrResourceCreation, err)
		}
		if item == nil {
			return fmt.Errorf("%w: host returned nil item", ErrResourceCreation)
		}
		item.SetText(m.opts.Text)
		item.SetCommand(m.opts.Command)
		m.item = item
		m.creations++
		m.log.Info("indicator created", "count", count)
	} else {
		m.log.Debug("indicator reused", "count", count)
	}

	m.item.SetTooltip(m.opts.Tooltip(count))
	if err := m.item.Show(); err != nil {
		return fmt.Errorf("%w: show: %w", ErrResourceCreation, err)
	}
	m.visible = true
	return nil
}

// Teardown destroys the item and clears the reference unconditionally.
// A destroy failure is returned, never raised.
func (m *Manager) Teardown() (err error) {
	m.mu.Lock()
	item := m.item
	m.item = nil
	m.visible = false
	m.creations = 0
	m.mu.Unlock()

	if item == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: dispose panic: %v", ErrResourceCreation, r)
		}
	}()

	if err := item.Dispose(); err != nil {
		return fmt.Errorf("%w: dispose: %w", ErrResourceCreation, err)
	}
	m.log.Info("indicator disposed")
	return nil
}

// Exists reports whether an item has been created and not torn down.
func (m *Manager) Exists() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.item != nil
}

// Visible reports whether the item is currently shown.
func (m *Manager) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// Creations returns how many items were created since the last teardown.
func (m *Manager) Creations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creations
}
