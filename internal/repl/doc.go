// Package repl drives a string history from line commands.
//
// Each input line holds one command. Leading and trailing space is trimmed
// and lines starting with '#' are ignored. After a command changes the
// history, the resulting view is printed either as text:
//
//	past=["a", "b"] present="c" future=[]
//
// or, in JSON mode, as an object with past, present, future, canUndo,
// canRedo and cursor fields.
//
// Commands:
//
//	set <value>        commit value (the rest of the line, may be empty)
//	undo               move back one step
//	redo               move forward one step
//	reset [value]      start over from the initial value, or from value
//	show               print the current view
//	past, future       print one side of the history
//	get <path>         query the present value as JSON with a gjson path
//	checkpoint <name>  remember the current position
//	restore <name>     move to a remembered position
//	help               list commands
//	quit, exit         stop
package repl
