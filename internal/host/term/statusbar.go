package term

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/beacon/internal/bus"
	"github.com/dshills/beacon/internal/indicator"
	"github.com/dshills/beacon/internal/logging"
	"github.com/dshills/beacon/internal/menu"
)

// Errors returned by the terminal host.
var (
	// ErrNoItem indicates activation with no visible item.
	ErrNoItem = errors.New("term: no visible item")

	// ErrDisposed indicates use of an item after Dispose.
	ErrDisposed = errors.New("term: item disposed")
)

// Default styles.
var (
	StyleBar     = tcell.StyleDefault.Reverse(true)
	StyleTooltip = tcell.StyleDefault.Reverse(true).Dim(true)
	StyleError   = tcell.StyleDefault.Foreground(tcell.ColorRed).Reverse(true)
)

// DefaultKey activates the visible item.
const DefaultKey = tcell.KeyF2

// StatusBar implements indicator.Host on a tcell screen.
type StatusBar struct {
	mu     sync.Mutex
	screen tcell.Screen
	bus    *bus.Bus
	log    *logging.Logger
	key    tcell.Key

	items       []*Item
	notice      string
	noticeLevel menu.Level

	// hit is the clickable span of the drawn item on the bottom row.
	hitFrom, hitTo, hitRow int
}

// Option configures a StatusBar.
type Option func(*StatusBar)

// WithKey binds the activation key.
func WithKey(key tcell.Key) Option {
	return func(s *StatusBar) {
		s.key = key
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(s *StatusBar) {
		s.log = log
	}
}

// NewStatusBar creates a status bar on an initialized screen. Activation
// invokes item commands on b.
func NewStatusBar(screen tcell.Screen, b *bus.Bus, opts ...Option) *StatusBar {
	s := &StatusBar{
		screen: screen,
		bus:    b,
		log:    logging.Nop(),
		key:    DefaultKey,
		hitRow: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("term")
	return s
}

// Screen returns the underlying screen.
func (s *StatusBar) Screen() tcell.Screen {
	return s.screen
}

// CreateItem implements indicator.Host.
func (s *StatusBar) CreateItem() (indicator.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &Item{bar: s}
	s.items = append(s.items, item)
	s.log.Debug("status item created", "items", len(s.items))
	return item, nil
}

// SetNotice shows msg at the left of the status row until replaced.
func (s *StatusBar) SetNotice(msg string, level menu.Level) {
	s.mu.Lock()
	s.notice = msg
	s.noticeLevel = level
	s.mu.Unlock()
	s.Draw()
}

// Notice returns the current notice.
func (s *StatusBar) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// visibleLocked returns the newest visible item.
func (s *StatusBar) visibleLocked() *Item {
	for i := len(s.items) - 1; i >= 0; i-- {
		it := s.items[i]
		if it.visible && !it.disposed {
			return it
		}
	}
	return nil
}

// Draw repaints the bottom row and shows the screen.
func (s *StatusBar) Draw() {
	s.mu.Lock()
	defer s.mu.Unlock()

	width, height := s.screen.Size()
	if width <= 0 || height <= 0 {
		return
	}
	row := height - 1
	for x := 0; x < width; x++ {
		s.screen.SetContent(x, row, ' ', nil, StyleBar)
	}

	if s.notice != "" {
		style := StyleBar
		if s.noticeLevel == menu.LevelError {
			style = StyleError
		}
		drawString(s.screen, 1, row, width, s.notice, style)
	}

	s.hitFrom, s.hitTo, s.hitRow = 0, 0, -1
	if it := s.visibleLocked(); it != nil {
		label := expandIcons(it.text)
		tip := it.tooltip
		total := runewidth.StringWidth(label)
		if tip != "" {
			total += 1 + runewidth.StringWidth(tip)
		}
		x := width - total - 1
		if x < 0 {
			x = 0
		}
		end := drawString(s.screen, x, row, width, label, StyleBar)
		s.hitFrom, s.hitTo, s.hitRow = x, end, row
		if tip != "" {
			drawString(s.screen, end+1, row, width, tip, StyleTooltip)
		}
	}
	s.screen.Show()
}

// HandleEvent reacts to activation keys, clicks on the item and resizes.
// It reports whether the event was consumed.
func (s *StatusBar) HandleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() != s.key {
			return false
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 {
			return false
		}
		x, y := ev.Position()
		s.mu.Lock()
		hit := y == s.hitRow && x >= s.hitFrom && x < s.hitTo
		s.mu.Unlock()
		if !hit {
			return false
		}
	case *tcell.EventResize:
		s.screen.Sync()
		s.Draw()
		return true
	default:
		return false
	}

	if _, err := s.Activate(ctx); err != nil && !errors.Is(err, ErrNoItem) {
		s.log.Warn("activation failed", "error", err.Error())
	}
	return true
}

// Activate invokes the command bound to the visible item.
func (s *StatusBar) Activate(ctx context.Context) (any, error) {
	s.mu.Lock()
	it := s.visibleLocked()
	var command string
	if it != nil {
		command = it.command
	}
	s.mu.Unlock()

	if command == "" {
		return nil, ErrNoItem
	}
	s.log.Debug("item activated", "command", command)
	v, err := s.bus.Invoke(ctx, command)
	if err != nil {
		return nil, fmt.Errorf("term: activate %s: %w", command, err)
	}
	return v, nil
}

// Run polls events until ctx ends or Ctrl-C is pressed. Events the bar
// does not consume are passed to other, if set.
func (s *StatusBar) Run(ctx context.Context, other func(tcell.Event)) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	s.Draw()
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if _, ok := ev.(*tcell.EventInterrupt); ok && ctx.Err() != nil {
			return ctx.Err()
		}
		if key, ok := ev.(*tcell.EventKey); ok && key.Key() == tcell.KeyCtrlC {
			return nil
		}
		if s.HandleEvent(ctx, ev) {
			continue
		}
		if other != nil {
			other(ev)
		}
	}
}

// Item is one status bar entry.
type Item struct {
	bar *StatusBar

	// guarded by bar.mu
	text     string
	tooltip  string
	command  string
	visible  bool
	disposed bool
}

func (i *Item) set(fn func()) {
	i.bar.mu.Lock()
	fn()
	i.bar.mu.Unlock()
}

// SetText implements indicator.Item.
func (i *Item) SetText(text string) {
	i.set(func() { i.text = text })
	i.bar.Draw()
}

// SetTooltip implements indicator.Item.
func (i *Item) SetTooltip(text string) {
	i.set(func() { i.tooltip = text })
	i.bar.Draw()
}

// SetCommand implements indicator.Item.
func (i *Item) SetCommand(endpoint string) {
	i.set(func() { i.command = endpoint })
}

// Show implements indicator.Item.
func (i *Item) Show() error {
	return i.setVisible(true)
}

// Hide implements indicator.Item.
func (i *Item) Hide() error {
	return i.setVisible(false)
}

func (i *Item) setVisible(v bool) error {
	var err error
	i.set(func() {
		if i.disposed {
			err = ErrDisposed
			return
		}
		i.visible = v
	})
	if err != nil {
		return err
	}
	i.bar.Draw()
	return nil
}

// Dispose implements indicator.Item.
func (i *Item) Dispose() error {
	i.set(func() {
		i.disposed = true
		i.visible = false
	})
	i.bar.Draw()
	return nil
}

// drawString writes str from x and returns the column after the last cell.
func drawString(screen tcell.Screen, x, y, limit int, str string, style tcell.Style) int {
	for _, r := range str {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > limit {
			break
		}
		screen.SetContent(x, y, r, nil, style)
		x += w
	}
	return x
}

// expandIcons replaces "$(name)" icon references with a glyph.
func expandIcons(text string) string {
	var b strings.Builder
	for {
		start := strings.Index(text, "$(")
		if start < 0 {
			b.WriteString(text)
			return b.String()
		}
		end := strings.IndexByte(text[start:], ')')
		if end < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:start])
		b.WriteRune('◆')
		text = text[start+end+1:]
	}
}
