package plugin

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	plua "github.com/dshills/beacon/internal/plugin/lua"
)

// moduleFuncs builds the beacon global for p. Calls made from the script
// carry the interpreter's context so relay timeouts stay inside the run
// timeout; base is used when the script runs without one.
func moduleFuncs(base context.Context, p *Plugin) map[string]lua.LGFunction {
	if base == nil {
		base = context.Background()
	}
	callCtx := func(L *lua.LState) context.Context {
		if ctx := L.Context(); ctx != nil {
			return ctx
		}
		return base
	}

	return map[string]lua.LGFunction{
		"register": func(L *lua.LState) int {
			p.beacon.RegisterExtension(callCtx(L), L.CheckString(1))
			return 0
		},
		"unregister": func(L *lua.LState) int {
			p.beacon.UnregisterExtension(callCtx(L), L.CheckString(1))
			return 0
		},
		"count": func(L *lua.LState) int {
			L.Push(lua.LNumber(p.beacon.DiagnosticInfo().ClientCount))
			return 1
		},
		"owner": func(L *lua.LState) int {
			L.Push(lua.LBool(p.beacon.IsOwner()))
			return 1
		},
		"id": func(L *lua.LState) int {
			L.Push(lua.LString(p.beacon.ID()))
			return 1
		},
		"diagnostics": func(L *lua.LState) int {
			snap := p.beacon.DiagnosticInfo()
			out := map[string]any{
				"instance_id":       snap.InstanceID,
				"client_count":      snap.ClientCount,
				"clients":           snap.Clients,
				"indicator_exists":  snap.IndicatorExists,
				"indicator_visible": snap.IndicatorVisible,
				"owner":             snap.Owner,
				"endpoints":         snap.Endpoints,
				"output_channel":    snap.OutputChannel,
				"disposed":          snap.Disposed,
			}
			if snap.LastError != nil {
				out["last_error"] = map[string]any{
					"event":   snap.LastError.Event,
					"message": snap.LastError.Message,
				}
			}
			L.Push(plua.ToLua(L, out))
			return 1
		},
		"log": func(L *lua.LState) int {
			p.log.Info(L.CheckString(1), "source", "script")
			return 0
		},
	}
}
