package repl

import "errors"

// Errors returned by command execution.
var (
	// ErrUnknownCommand is returned for a command name the REPL does not know.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMissingArgument is returned when a command needs an argument.
	ErrMissingArgument = errors.New("missing argument")

	// ErrUnknownCheckpoint is returned when restoring a name never saved.
	ErrUnknownCheckpoint = errors.New("unknown checkpoint")

	// ErrNotJSON is returned by get when the present value is not JSON.
	ErrNotJSON = errors.New("present value is not valid JSON")
)
