package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/rewind/internal/config"
)

// Action is an editor command bound to a key.
type Action int

const (
	// ActionNone means the key is not bound.
	ActionNone Action = iota
	ActionUndo
	ActionRedo
	ActionReset
	ActionQuit
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionUndo:
		return "undo"
	case ActionRedo:
		return "redo"
	case ActionReset:
		return "reset"
	case ActionQuit:
		return "quit"
	default:
		return "none"
	}
}

// Keymap maps keys to actions.
type Keymap struct {
	bindings map[Key]Action
}

// DefaultKeymap returns the built-in bindings.
func DefaultKeymap() *Keymap {
	km, err := NewKeymap(config.Default().Keymap)
	if err != nil {
		panic(fmt.Sprintf("default keymap: %v", err))
	}
	return km
}

// NewKeymap builds a keymap from configuration. Esc always quits.
func NewKeymap(cfg config.KeymapConfig) (*Keymap, error) {
	km := &Keymap{
		bindings: map[Key]Action{
			{Code: tcell.KeyEscape}: ActionQuit,
		},
	}

	specs := []struct {
		field  string
		spec   string
		action Action
	}{
		{"keymap.undo", cfg.Undo, ActionUndo},
		{"keymap.redo", cfg.Redo, ActionRedo},
		{"keymap.reset", cfg.Reset, ActionReset},
		{"keymap.quit", cfg.Quit, ActionQuit},
	}
	for _, s := range specs {
		if err := km.Bind(s.spec, s.action); err != nil {
			return nil, fmt.Errorf("%s: %w", s.field, err)
		}
	}
	return km, nil
}

// Bind binds the key described by spec to action.
func (km *Keymap) Bind(spec string, action Action) error {
	k, err := ParseKey(spec)
	if err != nil {
		return err
	}
	km.bindings[k] = action
	return nil
}

// Lookup returns the action bound to ev, or ActionNone.
func (km *Keymap) Lookup(ev *tcell.EventKey) Action {
	return km.bindings[KeyOf(ev)]
}
