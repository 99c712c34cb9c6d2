package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rewind/internal/logging"
)

// Default limits for a Lua state.
const (
	DefaultTimeout   = 5 * time.Second
	DefaultCallLimit = 100_000
)

// State wraps a sandboxed gopher-lua state.
type State struct {
	L *lua.LState

	mu sync.Mutex

	timeout   time.Duration
	callLimit int64
	calls     int64
	output    io.Writer
	logger    *logging.Logger

	// raised holds the Go error behind the most recent RaiseError so that
	// callers can match it with errors.Is.
	raised error

	closers []func()
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithTimeout bounds the wall-clock time of each run. Zero disables it.
func WithTimeout(d time.Duration) StateOption {
	return func(s *State) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithCallLimit bounds the number of module calls per run. Zero disables it.
func WithCallLimit(n int64) StateOption {
	return func(s *State) {
		if n >= 0 {
			s.callLimit = n
		}
	}
}

// WithOutput sets where print writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) StateOption {
	return func(s *State) {
		if w != nil {
			s.output = w
		}
	}
}

// WithLogger sets the logger for script diagnostics.
func WithLogger(l *logging.Logger) StateOption {
	return func(s *State) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewState creates a new sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	s := &State{
		timeout:   DefaultTimeout,
		callLimit: DefaultCallLimit,
		output:    os.Stdout,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("script")

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	s.L = L

	openSafeLibraries(L)
	s.installSandbox()

	return s
}

// openSafeLibraries opens only the Lua standard libraries that cannot reach
// outside the process.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

func (s *State) installSandbox() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		fmt.Fprintln(s.output, strings.Join(parts, "\t"))
		return 0
	}))
}

// DoString executes a chunk of Lua code.
func (s *State) DoString(ctx context.Context, code string) error {
	return s.run(ctx, "string", func() error {
		return s.L.DoString(code)
	})
}

// DoFile executes the Lua file at path.
func (s *State) DoFile(ctx context.Context, path string) error {
	return s.run(ctx, path, func() error {
		return s.L.DoFile(path)
	})
}

func (s *State) run(ctx context.Context, name string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	s.calls = 0
	s.raised = nil

	start := time.Now()
	err := s.doWithRecovery(fn)
	s.logger.Debug("ran %s in %s (%d calls)", name, time.Since(start), s.calls)

	if err == nil {
		return nil
	}
	switch {
	case s.raised != nil:
		return fmt.Errorf("%w: %v", s.raised, err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return err
}

// doWithRecovery executes a function with panic recovery.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// charge counts one module call, raising a Lua error once the budget is spent.
func (s *State) charge(L *lua.LState) {
	s.calls++
	if s.callLimit > 0 && s.calls > s.callLimit {
		s.raise(L, ErrCallLimit)
	}
}

// raise records err and raises it as a Lua error. It does not return.
func (s *State) raise(L *lua.LState, err error) {
	s.raised = err
	L.RaiseError("%s", err.Error())
}

// RegisterModule installs funcs as the global table name.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	mod := s.L.SetFuncs(s.L.NewTable(), funcs)
	s.L.SetGlobal(name, mod)
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// onClose registers cleanup to run when the state is closed.
func (s *State) onClose(fn func()) {
	s.closers = append(s.closers, fn)
}

// Close releases all resources associated with the Lua state.
// After Close is called, runs return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	for _, fn := range s.closers {
		fn()
	}
	s.L.Close()
	s.closed = true
	return nil
}
