package terminal

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// Parse errors.
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Key is a normalized key press. Control letters are represented as the
// lower-case rune with ModCtrl, whichever way the terminal reported them.
type Key struct {
	Code tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

// String returns the key in "ctrl+z" form.
func (k Key) String() string {
	var b strings.Builder
	if k.Mod&tcell.ModCtrl != 0 {
		b.WriteString("ctrl+")
	}
	if k.Mod&tcell.ModAlt != 0 {
		b.WriteString("alt+")
	}
	if k.Mod&tcell.ModShift != 0 {
		b.WriteString("shift+")
	}
	if k.Code == tcell.KeyRune {
		b.WriteRune(k.Rune)
		return b.String()
	}
	for name, code := range namedKeys {
		if code == k.Code {
			b.WriteString(name)
			return b.String()
		}
	}
	fmt.Fprintf(&b, "key(%d)", k.Code)
	return b.String()
}

var namedKeys = map[string]tcell.Key{
	"esc":       tcell.KeyEscape,
	"enter":     tcell.KeyEnter,
	"tab":       tcell.KeyTab,
	"backspace": tcell.KeyBackspace2,
	"delete":    tcell.KeyDelete,
	"insert":    tcell.KeyInsert,
	"up":        tcell.KeyUp,
	"down":      tcell.KeyDown,
	"left":      tcell.KeyLeft,
	"right":     tcell.KeyRight,
	"home":      tcell.KeyHome,
	"end":       tcell.KeyEnd,
	"pageup":    tcell.KeyPgUp,
	"pagedown":  tcell.KeyPgDn,
	"f1":        tcell.KeyF1,
	"f2":        tcell.KeyF2,
	"f3":        tcell.KeyF3,
	"f4":        tcell.KeyF4,
	"f5":        tcell.KeyF5,
	"f6":        tcell.KeyF6,
	"f7":        tcell.KeyF7,
	"f8":        tcell.KeyF8,
	"f9":        tcell.KeyF9,
	"f10":       tcell.KeyF10,
	"f11":       tcell.KeyF11,
	"f12":       tcell.KeyF12,
}

var keyAliases = map[string]string{
	"escape": "esc",
	"return": "enter",
	"cr":     "enter",
	"bs":     "backspace",
	"del":    "delete",
	"ins":    "insert",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
}

// ParseKey parses a key specification.
//
// Supported formats:
//   - Single character: "a", "?"
//   - Named keys: "esc", "enter", "tab", "f1"
//   - With modifiers: "ctrl+z", "alt+x", "ctrl+shift+f5"
//   - Vim-style: "<C-z>", "<A-x>", "<Esc>"
func ParseKey(spec string) (Key, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Key{}, ErrEmptySpec
	}

	if strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") && len(spec) > 2 {
		return parseVimStyle(spec[1 : len(spec)-1])
	}
	if len(spec) > 1 && strings.Contains(spec, "+") {
		parts := strings.Split(spec, "+")
		return parseWithModifiers(parts[:len(parts)-1], parts[len(parts)-1])
	}
	return parseWithModifiers(nil, spec)
}

func parseVimStyle(inner string) (Key, error) {
	parts := strings.Split(inner, "-")
	mods := make([]string, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "c":
			mods = append(mods, "ctrl")
		case "a", "m":
			mods = append(mods, "alt")
		case "s":
			mods = append(mods, "shift")
		default:
			return Key{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
	}
	return parseWithModifiers(mods, parts[len(parts)-1])
}

func parseWithModifiers(modNames []string, keyPart string) (Key, error) {
	var mods tcell.ModMask
	for _, name := range modNames {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ctrl", "control", "c":
			mods |= tcell.ModCtrl
		case "alt", "meta", "opt", "option", "a":
			mods |= tcell.ModAlt
		case "shift", "s":
			mods |= tcell.ModShift
		default:
			return Key{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, name)
		}
	}

	keyPart = strings.TrimSpace(keyPart)
	if keyPart == "" {
		return Key{}, ErrInvalidSpec
	}

	lower := strings.ToLower(keyPart)
	if alias, ok := keyAliases[lower]; ok {
		lower = alias
	}
	if lower == "space" {
		return Key{Code: tcell.KeyRune, Rune: ' ', Mod: mods}, nil
	}
	if code, ok := namedKeys[lower]; ok {
		return Key{Code: code, Mod: mods}, nil
	}

	runes := []rune(keyPart)
	if len(runes) != 1 {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidSpec, keyPart)
	}
	r := runes[0]
	if mods&tcell.ModCtrl != 0 {
		// Terminals cannot distinguish ctrl+Z from ctrl+z
		r = unicode.ToLower(r)
		mods &^= tcell.ModShift
	}
	return Key{Code: tcell.KeyRune, Rune: r, Mod: mods}, nil
}

// KeyOf normalizes a tcell key event.
func KeyOf(ev *tcell.EventKey) Key {
	code, r, mods := ev.Key(), ev.Rune(), ev.Modifiers()

	switch {
	case code >= tcell.KeyCtrlA && code <= tcell.KeyCtrlZ &&
		code != tcell.KeyBackspace && code != tcell.KeyTab && code != tcell.KeyEnter:
		return Key{Code: tcell.KeyRune, Rune: rune('a' + code - tcell.KeyCtrlA), Mod: tcell.ModCtrl | (mods & tcell.ModAlt)}
	case code == tcell.KeyRune && mods&tcell.ModCtrl != 0:
		return Key{Code: tcell.KeyRune, Rune: unicode.ToLower(r), Mod: mods &^ tcell.ModShift}
	case code == tcell.KeyRune:
		// Shift is implied by the rune itself
		return Key{Code: tcell.KeyRune, Rune: r, Mod: mods & tcell.ModAlt}
	case code == tcell.KeyBackspace:
		return Key{Code: tcell.KeyBackspace2, Mod: mods}
	}
	return Key{Code: code, Mod: mods}
}
