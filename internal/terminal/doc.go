// Package terminal provides a single-line terminal editor whose every edit
// is committed to a string history.
//
// Typing and pasting append to the present value, Backspace removes the
// last grapheme cluster, and the keymap binds undo, redo, reset and quit.
// Below the edit line a status line shows how many steps can be undone and
// redone, followed by the nearest past and future values.
package terminal
