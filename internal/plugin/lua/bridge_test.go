package lua

import (
	"reflect"
	"testing"

	glua "github.com/yuin/gopher-lua"
)

func TestToGo(t *testing.T) {
	L := glua.NewState()
	defer L.Close()

	if err := L.DoString(`
		arr = {"a", "b"}
		obj = {name = "x", n = 1.5, ok = true}
		empty = {}
	`); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		lv   glua.LValue
		want any
	}{
		{"nil", glua.LNil, nil},
		{"bool", glua.LTrue, true},
		{"int", glua.LNumber(3), int64(3)},
		{"float", glua.LNumber(2.5), 2.5},
		{"string", glua.LString("s"), "s"},
		{"array", L.GetGlobal("arr"), []any{"a", "b"}},
		{"object", L.GetGlobal("obj"), map[string]any{"name": "x", "n": 1.5, "ok": true}},
		{"empty", L.GetGlobal("empty"), map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToGo(tt.lv); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ToGo() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestToGoCycle(t *testing.T) {
	L := glua.NewState()
	defer L.Close()

	if err := L.DoString(`t = {} t.self = t`); err != nil {
		t.Fatal(err)
	}
	got, ok := ToGo(L.GetGlobal("t")).(map[string]any)
	if !ok {
		t.Fatalf("ToGo() = %T", got)
	}
	if got["self"] != nil {
		t.Errorf("cycle should break to nil, got %v", got["self"])
	}
}

func TestToLuaRoundTrip(t *testing.T) {
	L := glua.NewState()
	defer L.Close()

	in := map[string]any{
		"clients":   []string{"a", "b"},
		"count":     2,
		"endpoints": map[string]bool{"x.register": true},
		"owner":     true,
		"error":     nil,
	}
	got := ToGo(ToLua(L, in))
	want := map[string]any{
		"clients":   []any{"a", "b"},
		"count":     int64(2),
		"endpoints": map[string]any{"x.register": true},
		"owner":     true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %#v, want %#v", got, want)
	}

	if s := ToLua(L, struct{ A int }{1}); s.Type() != glua.LTString {
		t.Errorf("unsupported type = %s, want string", s.Type())
	}
}
