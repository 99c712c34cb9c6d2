package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rewind/internal/history"
)

// HistoryModule implements the "history" Lua module over a store.
type HistoryModule struct {
	store  *history.Store[any]
	state  *State
	bridge *Bridge

	subs []*history.Subscription

	// pending holds an error raised by a Lua subscriber during the current
	// transition. It is re-raised once the transition returns.
	pending error
}

// NewHistoryModule creates a module bound to store.
func NewHistoryModule(store *history.Store[any]) *HistoryModule {
	return &HistoryModule{store: store}
}

// Name returns the module name.
func (m *HistoryModule) Name() string {
	return "history"
}

// Register installs the module into s as a global table.
func (m *HistoryModule) Register(s *State) {
	m.state = s
	m.bridge = NewBridge(s.L)

	s.RegisterModule(m.Name(), map[string]lua.LGFunction{
		"present":   m.wrap(m.present),
		"past":      m.wrap(m.past),
		"future":    m.wrap(m.future),
		"can_undo":  m.wrap(m.canUndo),
		"can_redo":  m.wrap(m.canRedo),
		"undo":      m.wrap(m.undo),
		"redo":      m.wrap(m.redo),
		"set":       m.wrap(m.set),
		"reset":     m.wrap(m.reset),
		"len":       m.wrap(m.length),
		"cursor":    m.wrap(m.cursor),
		"load":      m.wrap(m.load),
		"subscribe": m.wrap(m.subscribe),
		"view":      m.wrap(m.view),
	})
	s.onClose(m.unsubscribeAll)
}

// wrap charges each call against the run's budget and surfaces subscriber
// errors after the call completes.
func (m *HistoryModule) wrap(fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		m.state.charge(L)
		n := fn(L)
		if err := m.pending; err != nil {
			m.pending = nil
			m.state.raise(L, err)
		}
		return n
	}
}

// present() -> value
func (m *HistoryModule) present(L *lua.LState) int {
	L.Push(m.bridge.ToLuaValue(m.store.State().Present()))
	return 1
}

// past() -> table
// Values before the present, oldest first.
func (m *HistoryModule) past(L *lua.LState) int {
	L.Push(m.bridge.SliceToTable(m.store.State().Past()))
	return 1
}

// future() -> table
// Values after the present, nearest first.
func (m *HistoryModule) future(L *lua.LState) int {
	L.Push(m.bridge.SliceToTable(m.store.State().Future()))
	return 1
}

// can_undo() -> bool
func (m *HistoryModule) canUndo(L *lua.LState) int {
	L.Push(lua.LBool(m.store.State().CanUndo()))
	return 1
}

// can_redo() -> bool
func (m *HistoryModule) canRedo(L *lua.LState) int {
	L.Push(lua.LBool(m.store.State().CanRedo()))
	return 1
}

// undo() -> bool
// Returns whether the cursor moved.
func (m *HistoryModule) undo(L *lua.LState) int {
	L.Push(lua.LBool(m.store.Undo()))
	return 1
}

// redo() -> bool
// Returns whether the cursor moved.
func (m *HistoryModule) redo(L *lua.LState) int {
	L.Push(lua.LBool(m.store.Redo()))
	return 1
}

// set(value)
func (m *HistoryModule) set(L *lua.LState) int {
	m.store.Set(m.bridge.ToGoValue(L.CheckAny(1)))
	return 0
}

// reset([value])
// Without an argument the history restarts from its initial value.
func (m *HistoryModule) reset(L *lua.LState) int {
	if L.GetTop() == 0 {
		m.store.Reset()
		return 0
	}
	m.store.ResetTo(m.bridge.ToGoValue(L.Get(1)))
	return 0
}

// len() -> number
func (m *HistoryModule) length(L *lua.LState) int {
	L.Push(lua.LNumber(m.store.State().Len()))
	return 1
}

// cursor() -> number
// 1-based position of the present value.
func (m *HistoryModule) cursor(L *lua.LState) int {
	L.Push(lua.LNumber(m.store.State().Cursor() + 1))
	return 1
}

// load(values [, cursor])
// Replaces the whole history. cursor is 1-based and defaults to the last
// value. Raises if values is empty or cursor is out of range.
func (m *HistoryModule) load(L *lua.LState) int {
	tbl := L.CheckTable(1)
	n := tbl.Len()
	cursor := L.OptInt(2, n)

	values := make([]any, n)
	for i := 1; i <= n; i++ {
		values[i-1] = m.bridge.ToGoValue(tbl.RawGetInt(i))
	}

	st, err := history.FromValues(values, cursor-1)
	if err != nil {
		m.state.raise(L, err)
		return 0
	}
	if err := m.store.Replace(st); err != nil {
		m.state.raise(L, err)
	}
	return 0
}

// subscribe(fn) -> function
// fn(view) is called after every transition that changed the history.
// Returns a function that cancels the subscription.
func (m *HistoryModule) subscribe(L *lua.LState) int {
	fn := L.CheckFunction(1)

	sub := m.store.Subscribe(func(v history.View[any]) {
		err := m.state.L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, m.viewTable(v))
		if err != nil && m.pending == nil {
			m.pending = err
		}
	})
	m.subs = append(m.subs, sub)

	L.Push(L.NewFunction(func(L *lua.LState) int {
		sub.Unsubscribe()
		return 0
	}))
	return 1
}

// view() -> table
// {past, present, future, can_undo, can_redo, cursor, len}
func (m *HistoryModule) view(L *lua.LState) int {
	L.Push(m.viewTable(m.store.View()))
	return 1
}

func (m *HistoryModule) viewTable(v history.View[any]) *lua.LTable {
	t := m.state.L.NewTable()
	t.RawSetString("past", m.bridge.SliceToTable(v.Past))
	t.RawSetString("present", m.bridge.ToLuaValue(v.Present))
	t.RawSetString("future", m.bridge.SliceToTable(v.Future))
	t.RawSetString("can_undo", lua.LBool(v.CanUndo))
	t.RawSetString("can_redo", lua.LBool(v.CanRedo))
	t.RawSetString("cursor", lua.LNumber(v.Cursor+1))
	t.RawSetString("len", lua.LNumber(v.Len))
	return t
}

func (m *HistoryModule) unsubscribeAll() {
	for _, sub := range m.subs {
		sub.Unsubscribe()
	}
	m.subs = nil
}
