// Package lua hosts plugin scripts on gopher-lua.
//
// A State is a sandboxed interpreter: only the base, table, string and
// math libraries are opened, the file and code loading functions are
// removed, and print is routed to a Go callback. Every run is bounded by
// an execution timeout carried on the interpreter's context.
//
//	state, err := lua.NewState(lua.WithTimeout(time.Second))
//	if err != nil {
//	    return err
//	}
//	defer state.Close()
//
//	state.SetModule("beacon", funcs)
//	if err := state.DoFile("plugin.lua"); err != nil {
//	    return err
//	}
//	if state.HasFunction("activate") {
//	    _, err = state.Call("activate")
//	}
//
// ToGo and ToLua convert values across the boundary.
package lua
