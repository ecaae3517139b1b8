// Package headless implements the indicator and menu host capabilities
// without a screen. Every transition is logged and recorded so that the
// simulate command and tests can inspect what a real host would show.
package headless

import (
	"errors"
	"sync"

	"github.com/dshills/beacon/internal/indicator"
	"github.com/dshills/beacon/internal/logging"
	"github.com/dshills/beacon/internal/menu"
)

// ErrDisposed is returned by an item used after Dispose.
var ErrDisposed = errors.New("headless: item disposed")

// Host records indicator items.
type Host struct {
	mu    sync.Mutex
	log   *logging.Logger
	items []*Item
}

// NewHost creates a host logging to log.
func NewHost(log *logging.Logger) *Host {
	if log == nil {
		log = logging.Nop()
	}
	return &Host{log: log.WithComponent("headless")}
}

// CreateItem implements indicator.Host.
func (h *Host) CreateItem() (indicator.Item, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	item := &Item{log: h.log}
	h.items = append(h.items, item)
	h.log.Debug("item created", "items", len(h.items))
	return item, nil
}

// Creations returns how many items were ever created.
func (h *Host) Creations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

// Current returns the most recently created item, or nil.
func (h *Host) Current() *Item {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.items) == 0 {
		return nil
	}
	return h.items[len(h.items)-1]
}

// Item is a recorded indicator item.
type Item struct {
	mu       sync.Mutex
	log      *logging.Logger
	text     string
	tooltip  string
	command  string
	visible  bool
	disposed bool
	shows    int
	hides    int
}

// SetText implements indicator.Item.
func (i *Item) SetText(text string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.text = text
}

// SetTooltip implements indicator.Item.
func (i *Item) SetTooltip(text string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tooltip = text
}

// SetCommand implements indicator.Item.
func (i *Item) SetCommand(endpoint string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.command = endpoint
}

// Show implements indicator.Item.
func (i *Item) Show() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	i.visible = true
	i.shows++
	i.log.Info("indicator shown", "text", i.text, "tooltip", i.tooltip)
	return nil
}

// Hide implements indicator.Item.
func (i *Item) Hide() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	i.visible = false
	i.hides++
	i.log.Info("indicator hidden")
	return nil
}

// Dispose implements indicator.Item.
func (i *Item) Dispose() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.disposed = true
	i.visible = false
	return nil
}

// Text returns the label.
func (i *Item) Text() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.text
}

// Tooltip returns the tooltip.
func (i *Item) Tooltip() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.tooltip
}

// Command returns the bound endpoint.
func (i *Item) Command() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.command
}

// Visible reports whether the item is shown.
func (i *Item) Visible() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.visible
}

// Disposed reports whether the item was destroyed.
func (i *Item) Disposed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.disposed
}

// Shows returns how many times Show succeeded.
func (i *Item) Shows() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.shows
}

// Hides returns how many times Hide succeeded.
func (i *Item) Hides() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.hides
}

// Notice is a recorded user notice.
type Notice struct {
	Message string
	Level   menu.Level
}

// Presenter records menus and notices and answers every Select with Choice.
type Presenter struct {
	mu      sync.Mutex
	log     *logging.Logger
	choice  int
	menus   [][]string
	notices []Notice
}

// NewPresenter creates a presenter that picks index choice (-1 cancels).
func NewPresenter(log *logging.Logger, choice int) *Presenter {
	if log == nil {
		log = logging.Nop()
	}
	return &Presenter{log: log.WithComponent("headless"), choice: choice}
}

// Select implements menu.Presenter.
func (p *Presenter) Select(items []string, opts menu.SelectOptions) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.menus = append(p.menus, append([]string(nil), items...))
	p.log.Info("menu shown", "title", opts.Title, "items", items)
	if p.choice < 0 || p.choice >= len(items) {
		return -1, nil
	}
	return p.choice, nil
}

// Notify implements menu.Presenter.
func (p *Presenter) Notify(message string, level menu.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.notices = append(p.notices, Notice{Message: message, Level: level})
	p.log.Info("notice", "level", string(level), "message", message)
	return nil
}

// Menus returns every list shown so far.
func (p *Presenter) Menus() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]string(nil), p.menus...)
}

// Notices returns every notice shown so far.
func (p *Presenter) Notices() []Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Notice(nil), p.notices...)
}
