package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/rewind/internal/history"
	"github.com/dshills/rewind/internal/logging"
)

// REPL reads commands and applies them to a store.
type REPL struct {
	store *history.Store[string]
	in    io.Reader
	out   io.Writer

	json   bool
	prompt string
	logger *logging.Logger

	checkpoints map[string]history.Checkpoint
}

// Option configures a REPL.
type Option func(*REPL)

// WithJSON prints views as JSON objects.
func WithJSON(enabled bool) Option {
	return func(r *REPL) {
		r.json = enabled
	}
}

// WithPrompt writes prompt before reading each line.
func WithPrompt(prompt string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// WithLogger sets the logger for command diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(r *REPL) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a REPL over store reading from in and writing to out.
func New(store *history.Store[string], in io.Reader, out io.Writer, opts ...Option) *REPL {
	r := &REPL{
		store:       store,
		in:          in,
		out:         out,
		logger:      logging.Nop(),
		checkpoints: make(map[string]history.Checkpoint),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("repl")
	return r
}

// Run executes commands until input ends, a quit command is read, or ctx
// is done. Command errors are printed and do not stop the loop. Input is
// read on a separate goroutine so cancellation is seen while waiting for a
// line; that goroutine exits once the pending read returns.
func (r *REPL) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.prompt != "" {
			fmt.Fprint(r.out, r.prompt)
		}

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line = <-lines:
		}

		quit, err := r.Exec(line)
		if err != nil {
			r.logger.Debug("command failed: %v", err)
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Exec runs a single command line. It reports whether the line asked the
// REPL to stop.
func (r *REPL) Exec(line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}

	name, arg, hasArg := strings.Cut(line, " ")

	switch strings.ToLower(name) {
	case "set":
		r.store.Set(arg)
		return false, r.show()

	case "undo":
		return false, r.showIf(r.store.Undo())

	case "redo":
		return false, r.showIf(r.store.Redo())

	case "reset":
		if hasArg {
			r.store.ResetTo(arg)
		} else {
			r.store.Reset()
		}
		return false, r.show()

	case "show":
		return false, r.show()

	case "past":
		return false, r.printList("past", r.store.View().Past)

	case "future":
		return false, r.printList("future", r.store.View().Future)

	case "get":
		return false, r.get(strings.TrimSpace(arg))

	case "checkpoint":
		label := strings.TrimSpace(arg)
		if label == "" {
			return false, fmt.Errorf("checkpoint: %w", ErrMissingArgument)
		}
		r.checkpoints[label] = r.store.CreateCheckpoint()
		return false, nil

	case "restore":
		label := strings.TrimSpace(arg)
		if label == "" {
			return false, fmt.Errorf("restore: %w", ErrMissingArgument)
		}
		cp, ok := r.checkpoints[label]
		if !ok {
			return false, fmt.Errorf("%w: %q", ErrUnknownCheckpoint, label)
		}
		return false, r.showIf(r.store.RestoreCheckpoint(cp))

	case "help":
		r.help()
		return false, nil

	case "quit", "exit":
		return true, nil
	}

	return false, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// Checkpoints returns the saved checkpoint names in order.
func (r *REPL) Checkpoints() []string {
	names := make([]string, 0, len(r.checkpoints))
	for name := range r.checkpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *REPL) showIf(changed bool) error {
	if !changed {
		return nil
	}
	return r.show()
}

func (r *REPL) show() error {
	v := r.store.View()
	if !r.json {
		fmt.Fprintln(r.out, FormatText(v))
		return nil
	}

	out, err := FormatJSON(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, out)
	return nil
}

func (r *REPL) printList(field string, values []string) error {
	if !r.json {
		fmt.Fprintln(r.out, quoteList(values))
		return nil
	}

	out, err := FormatJSON(r.store.View())
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, gjson.Get(out, field).Raw)
	return nil
}

// get treats the present value as a JSON document and prints the result of
// the gjson path query. An empty path prints the whole document.
func (r *REPL) get(path string) error {
	present := r.store.View().Present
	if !gjson.Valid(present) {
		return ErrNotJSON
	}
	if path == "" {
		fmt.Fprintln(r.out, present)
		return nil
	}

	res := gjson.Get(present, path)
	if !res.Exists() {
		fmt.Fprintln(r.out, "null")
		return nil
	}
	fmt.Fprintln(r.out, res.Raw)
	return nil
}

func (r *REPL) help() {
	fmt.Fprint(r.out, `commands:
  set <value>        commit a new present value
  undo               move back one step
  redo               move forward one step
  reset [value]      start over from the initial value, or from value
  show               print the current view
  past               print past values
  future             print future values
  get <path>         query the present value as JSON
  checkpoint <name>  remember the current position
  restore <name>     move to a remembered position
  help               show this help
  quit, exit         stop
`)
}
