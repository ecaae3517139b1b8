package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/beacon/internal/bus"
	"github.com/dshills/beacon/internal/config"
	"github.com/dshills/beacon/internal/host/headless"
	plua "github.com/dshills/beacon/internal/plugin/lua"
)

const clientScript = `
function activate()
	beacon.register("%[1]s")
	was_owner = beacon.owner()
end

function deactivate()
	beacon.unregister("%[1]s")
end
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func clientPlugin(id string) string {
	return fmt.Sprintf(clientScript, id)
}

type fixture struct {
	bus  *bus.Bus
	ui   *headless.Host
	host *Host
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{bus: bus.New(), ui: headless.NewHost(nil)}
	opts.Bus = f.bus
	opts.Indicator = f.ui
	h, err := NewHost(opts)
	require.NoError(t, err)
	f.host = h
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	return f
}

func TestNewHost_RequiresBus(t *testing.T) {
	_, err := NewHost(Options{})
	assert.Error(t, err)
}

func TestHost_LoadDirSharesOneIndicator(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "alpha.lua"), clientPlugin("ext.alpha"))
	writeFile(t, filepath.Join(dir, "beta.lua"), clientPlugin("ext.beta"))
	writeFile(t, filepath.Join(dir, "gamma", "init.lua"), clientPlugin("ext.gamma"))
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	f := newFixture(t, Options{})
	loaded, err := f.host.LoadDir(ctx, dir)
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	names := []string{loaded[0].Name(), loaded[1].Name(), loaded[2].Name()}
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, names)

	alpha := loaded[0]
	assert.True(t, alpha.Beacon().IsOwner())
	assert.Equal(t, true, alpha.state.GetGlobal("was_owner"))
	assert.Equal(t, false, loaded[1].state.GetGlobal("was_owner"))
	assert.Equal(t, 3, alpha.Beacon().DiagnosticInfo().ClientCount)

	assert.Equal(t, 1, f.ui.Creations())
	assert.Equal(t, "3 extensions active", f.ui.Current().Tooltip())

	for _, p := range loaded {
		assert.Equal(t, StateActive, p.State())
	}
}

func TestHost_UnloadOwnerHandsOff(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "alpha.lua"), clientPlugin("ext.alpha"))
	writeFile(t, filepath.Join(dir, "beta.lua"), clientPlugin("ext.beta"))

	f := newFixture(t, Options{})
	_, err := f.host.LoadDir(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, f.host.Unload(ctx, "alpha"))
	_, ok := f.host.Get("alpha")
	assert.False(t, ok)
	assert.False(t, f.bus.Has(config.Default().Endpoints().Register))

	beta, ok := f.host.Get("beta")
	require.True(t, ok)
	require.NoError(t, beta.state.DoString(`beacon.register("ext.beta.2")`))
	assert.True(t, beta.Beacon().IsOwner())
	assert.Equal(t, 1, beta.Beacon().DiagnosticInfo().ClientCount)

	assert.ErrorIs(t, f.host.Unload(ctx, "alpha"), ErrNotLoaded)
}

func TestHost_LoadErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.lua"), "this is not lua")
	writeFile(t, filepath.Join(dir, "ok.lua"), clientPlugin("ext.ok"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	f := newFixture(t, Options{})

	_, err := f.host.Load(ctx, filepath.Join(dir, "missing.lua"))
	assert.ErrorIs(t, err, ErrPluginNotFound)

	_, err = f.host.Load(ctx, filepath.Join(dir, "empty"))
	assert.ErrorIs(t, err, ErrNoEntryPoint)

	_, err = f.host.Load(ctx, filepath.Join(dir, "broken.lua"))
	assert.Error(t, err)
	_, ok := f.host.Get("broken")
	assert.False(t, ok)

	_, err = f.host.Load(ctx, filepath.Join(dir, "ok.lua"))
	require.NoError(t, err)
	_, err = f.host.Load(ctx, filepath.Join(dir, "ok.lua"))
	assert.ErrorIs(t, err, ErrAlreadyLoaded)

	assert.Len(t, f.host.List(), 1)
}

func TestHost_LoadDirJoinsErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.lua"), clientPlugin("ext.a"))
	writeFile(t, filepath.Join(dir, "b.lua"), "error('nope')")

	f := newFixture(t, Options{})
	loaded, err := f.host.LoadDir(context.Background(), dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
	require.Len(t, loaded, 1)
	assert.Equal(t, "a", loaded[0].Name())
}

func TestHost_ActivateFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.lua")
	writeFile(t, path, `function activate() error("activation exploded") end`)

	f := newFixture(t, Options{})
	p, err := f.host.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, StateError, p.State())
	assert.Contains(t, p.Error().Error(), "activation exploded")
}

func TestHost_DeactivateFailureStillTearsDown(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "p.lua")
	writeFile(t, path, `
function activate() beacon.register("ext.p") end
function deactivate() error("refusing") end
`)

	f := newFixture(t, Options{})
	p, err := f.host.Load(ctx, path)
	require.NoError(t, err)

	err = f.host.Unload(ctx, "p")
	assert.ErrorContains(t, err, "refusing")
	assert.Equal(t, StateUnloaded, p.State())
	assert.True(t, p.state.IsClosed())
	assert.True(t, p.Beacon().DiagnosticInfo().Disposed)
	assert.True(t, f.ui.Current().Disposed())
}

func TestHost_ScriptAPI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.lua")
	writeFile(t, path, `
beacon.register("one")
beacon.register("two")
beacon.register("two")
beacon.unregister("one")
beacon.log("hello from lua")
print("printed")
n = beacon.count()
me = beacon.id()
d = beacon.diagnostics()
`)

	f := newFixture(t, Options{})
	p, err := f.host.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, int64(1), p.state.GetGlobal("n"))
	assert.Equal(t, p.Beacon().ID(), p.state.GetGlobal("me"))

	d, ok := p.state.GetGlobal("d").(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(1), d["client_count"])
	assert.Equal(t, []any{"two"}, d["clients"])
	assert.Equal(t, true, d["owner"])
	assert.Equal(t, true, d["indicator_visible"])
}

type lines struct {
	mu  sync.Mutex
	all []string
}

func (l *lines) AppendLine(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.all = append(l.all, s)
}

func TestHost_OutputChannel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.lua"), clientPlugin("ext.a"))
	writeFile(t, filepath.Join(dir, "b.lua"), clientPlugin("ext.b"))

	out := &lines{}
	f := newFixture(t, Options{Output: out})
	loaded, err := f.host.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	names := config.Default().Endpoints()
	require.True(t, f.bus.Has(names.Diagnostics))
	assert.True(t, loaded[0].Beacon().DiagnosticInfo().Endpoints[names.Diagnostics])
	assert.False(t, loaded[1].Beacon().DiagnosticInfo().Endpoints[names.Diagnostics])
}

func TestHost_CloseUnloadsAll(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.lua"), clientPlugin("ext.a"))
	writeFile(t, filepath.Join(dir, "b.lua"), clientPlugin("ext.b"))

	f := newFixture(t, Options{})
	loaded, err := f.host.LoadDir(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, f.host.Close(ctx))
	require.NoError(t, f.host.Close(ctx))
	assert.Empty(t, f.host.List())
	assert.Zero(t, f.bus.Count(), "every endpoint released")
	for _, p := range loaded {
		assert.Equal(t, StateUnloaded, p.State())
	}

	_, err = f.host.Load(ctx, filepath.Join(dir, "a.lua"))
	assert.ErrorIs(t, err, ErrHostClosed)
}

func TestHost_ScriptTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spin.lua")
	writeFile(t, path, `while true do end`)

	f := newFixture(t, Options{Timeout: 50 * time.Millisecond})
	_, err := f.host.Load(context.Background(), path)
	assert.ErrorIs(t, err, plua.ErrExecutionTimeout)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "zeta.lua"), "")
	writeFile(t, filepath.Join(dir, "alpha", "init.lua"), "")
	writeFile(t, filepath.Join(dir, "readme.md"), "")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "noinit"), 0o755))

	entries, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Name: "alpha", Path: filepath.Join(dir, "alpha", "init.lua")},
		{Name: "zeta", Path: filepath.Join(dir, "zeta.lua")},
	}, entries)

	entries, err = Discover(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unloaded", StateUnloaded.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "unknown", State(42).String())
}
