package term

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/beacon/internal/beacon"
	"github.com/dshills/beacon/internal/bus"
	"github.com/dshills/beacon/internal/menu"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(60, 12)
	t.Cleanup(s.Fini)
	return s
}

func rowText(s tcell.Screen, y int) string {
	width, _ := s.Size()
	var b strings.Builder
	for x := 0; x < width; x++ {
		r, _, _, _ := s.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
		b.WriteRune(r)
	}
	return b.String()
}

func bottomRow(s tcell.Screen) string {
	_, height := s.Size()
	return rowText(s, height-1)
}

func TestStatusBar_DrawsVisibleItem(t *testing.T) {
	screen := newScreen(t)
	bar := NewStatusBar(screen, bus.New())

	it, err := bar.CreateItem()
	require.NoError(t, err)
	it.SetText("$(extensions) Siblings")
	it.SetTooltip("2 extensions active")
	it.SetCommand("beacon.showMenu")

	assert.NotContains(t, bottomRow(screen), "Siblings", "hidden until shown")

	require.NoError(t, it.Show())
	row := bottomRow(screen)
	assert.Contains(t, row, "Siblings 2 extensions active")
	assert.NotContains(t, row, "$(", "icon references are expanded")
	assert.True(t, strings.HasSuffix(strings.TrimRight(row, " "), "active"))

	require.NoError(t, it.Hide())
	assert.NotContains(t, bottomRow(screen), "Siblings")

	require.NoError(t, it.Dispose())
	assert.ErrorIs(t, it.Show(), ErrDisposed)
}

func TestStatusBar_Activation(t *testing.T) {
	ctx := context.Background()
	screen := newScreen(t)
	b := bus.New()
	bar := NewStatusBar(screen, b)

	var calls atomic.Int32
	_, err := b.Register("beacon.showMenu", func(context.Context, ...any) (any, error) {
		calls.Add(1)
		return "ok", nil
	})
	require.NoError(t, err)

	_, err = bar.Activate(ctx)
	assert.ErrorIs(t, err, ErrNoItem)

	it, err := bar.CreateItem()
	require.NoError(t, err)
	it.SetText("Siblings")
	it.SetCommand("beacon.showMenu")
	require.NoError(t, it.Show())

	got, err := bar.Activate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	assert.True(t, bar.HandleEvent(ctx, tcell.NewEventKey(DefaultKey, 0, tcell.ModNone)))
	assert.False(t, bar.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)))

	_, height := screen.Size()
	bar.mu.Lock()
	x := bar.hitFrom
	bar.mu.Unlock()
	assert.True(t, bar.HandleEvent(ctx, tcell.NewEventMouse(x, height-1, tcell.Button1, tcell.ModNone)))
	assert.False(t, bar.HandleEvent(ctx, tcell.NewEventMouse(0, 0, tcell.Button1, tcell.ModNone)))
	assert.False(t, bar.HandleEvent(ctx, tcell.NewEventMouse(x, height-1, tcell.ButtonNone, tcell.ModNone)))

	assert.Equal(t, int32(3), calls.Load())
}

func TestStatusBar_CustomKey(t *testing.T) {
	ctx := context.Background()
	screen := newScreen(t)
	bar := NewStatusBar(screen, bus.New(), WithKey(tcell.KeyF5))

	assert.False(t, bar.HandleEvent(ctx, tcell.NewEventKey(DefaultKey, 0, tcell.ModNone)))
	assert.True(t, bar.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone)), "consumed even with no item")
}

func TestPicker_Select(t *testing.T) {
	tests := []struct {
		name string
		keys []*tcell.EventKey
		want int
	}{
		{"enter picks first", []*tcell.EventKey{
			tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone),
		}, 0},
		{"down then enter", []*tcell.EventKey{
			tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone),
			tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone),
		}, 1},
		{"down stops at end", []*tcell.EventKey{
			tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone),
			tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone),
			tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone),
			tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone),
		}, 2},
		{"vim keys", []*tcell.EventKey{
			tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone),
			tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone),
			tcell.NewEventKey(tcell.KeyRune, 'k', tcell.ModNone),
			tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone),
		}, 1},
		{"escape cancels", []*tcell.EventKey{
			tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone),
			tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
		}, -1},
		{"q cancels", []*tcell.EventKey{
			tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone),
		}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := newScreen(t)
			picker := NewPicker(NewStatusBar(screen, bus.New()))

			for _, k := range tt.keys {
				require.NoError(t, screen.PostEvent(k))
			}
			got, err := picker.Select([]string{"ext.a", "ext.b", "ext.c"}, menu.SelectOptions{Title: "3 active extensions"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPicker_Notify(t *testing.T) {
	screen := newScreen(t)
	bar := NewStatusBar(screen, bus.New())
	picker := NewPicker(bar)

	require.NoError(t, picker.Notify("No extensions are active.", menu.LevelInfo))
	assert.Equal(t, "No extensions are active.", bar.Notice())
	assert.Contains(t, bottomRow(screen), "No extensions are active.")
}

func TestBeaconOnTerminal(t *testing.T) {
	ctx := context.Background()
	screen := newScreen(t)
	b := bus.New()
	bar := NewStatusBar(screen, b)

	owner, err := beacon.New(beacon.Options{Bus: b, Host: bar, Presenter: NewPicker(bar)})
	require.NoError(t, err)
	sibling, err := beacon.New(beacon.Options{Bus: b, Host: NewStatusBar(newScreen(t), b)})
	require.NoError(t, err)

	owner.RegisterExtension(ctx, "ext.b")
	sibling.RegisterExtension(ctx, "ext.a")
	assert.Contains(t, bottomRow(screen), "2 extensions active")

	require.NoError(t, screen.PostEvent(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)))
	got, err := bar.Activate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ext.a", got)

	owner.Dispose()
	assert.NotContains(t, bottomRow(screen), "extensions active")
}
