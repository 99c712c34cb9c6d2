// Package script runs Lua scripts against a value history.
//
// Scripts execute in a sandboxed gopher-lua state: only the base, table,
// string and math libraries are opened, and the loaders that could reach
// the file system are removed. Each run is bounded by a wall-clock timeout
// and by a budget of calls into Go modules.
//
// The history module exposes a history.Store to Lua as the global table
// "history":
//
//	history.set("a")
//	history.set("b")
//	history.undo()            -- true
//	print(history.present())  -- a
//	print(history.cursor())   -- 1
//
// Cursor positions are 1-based on the Lua side, as Lua arrays are.
//
// A State is not safe for concurrent use. Stores bound to a State must
// only be driven from the goroutine running its scripts, because
// subscriptions call back into Lua.
package script
