package lua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds a single DoFile, DoString or Call.
const DefaultTimeout = 5 * time.Second

// State wraps a gopher-lua interpreter for one plugin.
//
// gopher-lua's LState is not goroutine-safe; State serializes every run
// with a mutex. Go functions exposed to the script run while that mutex is
// held and must not call back into the same State.
type State struct {
	L *lua.LState

	mu      sync.Mutex
	timeout time.Duration
	print   func(string)
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithTimeout sets the per-run execution timeout. Zero disables it.
func WithTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.timeout = d
	}
}

// WithPrint routes the script's print calls to fn.
func WithPrint(fn func(string)) StateOption {
	return func(s *State) {
		s.print = fn
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...StateOption) (*State, error) {
	s := &State{
		timeout: DefaultTimeout,
		print:   func(string) {},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	s.installSandbox()
	return s, nil
}

// openSafeLibraries opens only libraries without file, process or module
// access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

func (s *State) installSandbox() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		s.print(strings.Join(parts, "\t"))
		return 0
	}))
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	return s.run(func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes a Lua chunk.
func (s *State) DoString(code string) error {
	return s.run(func() error {
		return s.L.DoString(code)
	})
}

// HasFunction reports whether the global name is a function.
func (s *State) HasFunction(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.L.GetGlobal(name).Type() == lua.LTFunction
}

// Call calls the global function name with Go arguments and returns its
// results converted with ToGo.
func (s *State) Call(name string, args ...any) ([]any, error) {
	var results []any
	err := s.run(func() error {
		fn := s.L.GetGlobal(name)
		if fn.Type() != lua.LTFunction {
			return fmt.Errorf("%w: %s (got %s)", ErrNotFunction, name, fn.Type())
		}

		top := s.L.GetTop()
		s.L.Push(fn)
		for _, arg := range args {
			s.L.Push(ToLua(s.L, arg))
		}
		if err := s.L.PCall(len(args), lua.MultRet, nil); err != nil {
			return err
		}

		n := s.L.GetTop() - top
		results = make([]any, n)
		for i := 0; i < n; i++ {
			results[i] = ToGo(s.L.Get(top + i + 1))
		}
		s.L.Pop(n)
		return nil
	})
	return results, err
}

// GetGlobal returns a global variable converted with ToGo.
func (s *State) GetGlobal(name string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return ToGo(s.L.GetGlobal(name))
}

// SetModule installs a global table of Go functions.
func (s *State) SetModule(name string, funcs map[string]lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.L.SetFuncs(s.L.NewTable(), funcs))
}

// IsClosed reports whether Close has been called.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the interpreter. It is safe to call more than once.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

// run executes fn with the state locked, the timeout applied and panics
// recovered.
func (s *State) run(fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	err = fn()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrExecutionTimeout, err)
	}
	return err
}
