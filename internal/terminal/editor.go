package terminal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/rewind/internal/history"
	"github.com/dshills/rewind/internal/logging"
)

// Editor is a single-line editor bound to a string history.
type Editor struct {
	screen tcell.Screen
	store  *history.Store[string]
	logger *logging.Logger

	mu     sync.Mutex
	keymap *Keymap
	theme  Theme

	// Bracketed paste collects runes and commits them as one edit.
	pasting bool
	paste   strings.Builder
}

// Option configures an Editor.
type Option func(*Editor)

// WithKeymap sets the key bindings.
func WithKeymap(km *Keymap) Option {
	return func(e *Editor) {
		if km != nil {
			e.keymap = km
		}
	}
}

// WithTheme sets the drawing styles.
func WithTheme(th Theme) Option {
	return func(e *Editor) {
		e.theme = th
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an editor drawing on screen. The screen must already be
// initialized; the caller owns it and calls Fini.
func New(screen tcell.Screen, store *history.Store[string], opts ...Option) *Editor {
	e := &Editor{
		screen: screen,
		store:  store,
		logger: logging.Nop(),
		keymap: DefaultKeymap(),
		theme:  DefaultTheme(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithComponent("terminal")
	return e
}

// Reload swaps the keymap and theme and redraws. Safe to call from any
// goroutine.
func (e *Editor) Reload(km *Keymap, th Theme) {
	e.mu.Lock()
	if km != nil {
		e.keymap = km
	}
	e.theme = th
	e.mu.Unlock()

	e.logger.Info("keymap and theme reloaded")
	_ = e.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// Run draws and handles events until a quit key is pressed or ctx is done.
func (e *Editor) Run(ctx context.Context) error {
	e.screen.EnablePaste()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = e.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-done:
		}
	}()

	for {
		e.Draw()

		ev := e.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return nil
		}
		if e.HandleEvent(ev) {
			return nil
		}
	}
}

// HandleEvent applies a single event. It reports whether the editor should
// stop.
func (e *Editor) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		e.screen.Sync()

	case *tcell.EventPaste:
		if ev.Start() {
			e.pasting = true
			e.paste.Reset()
			return false
		}
		e.pasting = false
		if e.paste.Len() > 0 {
			e.insert(e.paste.String())
		}

	case *tcell.EventKey:
		return e.handleKey(ev)
	}
	return false
}

func (e *Editor) handleKey(ev *tcell.EventKey) bool {
	if e.pasting {
		switch ev.Key() {
		case tcell.KeyRune:
			e.paste.WriteRune(ev.Rune())
		case tcell.KeyTab, tcell.KeyEnter:
			e.paste.WriteRune(' ')
		}
		return false
	}

	e.mu.Lock()
	action := e.keymap.Lookup(ev)
	e.mu.Unlock()

	switch action {
	case ActionUndo:
		e.store.Undo()
		return false
	case ActionRedo:
		e.store.Redo()
		return false
	case ActionReset:
		e.store.Reset()
		return false
	case ActionQuit:
		return true
	}

	k := KeyOf(ev)
	switch {
	case k.Code == tcell.KeyBackspace2 && k.Mod&tcell.ModAlt == 0:
		e.backspace()
	case k.Code == tcell.KeyRune && k.Mod&(tcell.ModCtrl|tcell.ModAlt) == 0:
		e.insert(string(k.Rune))
	default:
		e.logger.Debug("unbound key %s", k)
	}
	return false
}

func (e *Editor) insert(text string) {
	_ = e.store.Transaction(func(present string) (string, error) {
		return present + text, nil
	})
}

func (e *Editor) backspace() {
	if e.store.View().Present == "" {
		return
	}
	_ = e.store.Transaction(func(present string) (string, error) {
		return trimLastGrapheme(present), nil
	})
}

// trimLastGrapheme removes the last user-perceived character from s.
func trimLastGrapheme(s string) string {
	last := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		last, _ = g.Positions()
	}
	return s[:last]
}

// Draw renders the present value, the status line and the neighbouring
// past and future values.
func (e *Editor) Draw() {
	e.mu.Lock()
	th := e.theme
	e.mu.Unlock()

	v := e.store.View()
	s := e.screen
	w, h := s.Size()

	s.Fill(' ', th.Text)

	x := drawText(s, 0, 0, w, v.Present, th.Text)
	s.ShowCursor(x, 0)

	if h > 1 {
		status := fmt.Sprintf(" undo:%d redo:%d ", len(v.Past), len(v.Future))
		drawText(s, 0, 1, w, status, th.Status)
	}
	if h > 2 && len(v.Past) > 0 {
		drawText(s, 0, 2, w, "< "+v.Past[len(v.Past)-1], th.Dim)
	}
	if h > 3 && len(v.Future) > 0 {
		drawText(s, 0, 3, w, "> "+v.Future[0], th.Dim)
	}

	s.Show()
}

// drawText draws text from (x, y) up to column maxX one grapheme cluster per
// cell group and returns the column after the last drawn cluster.
func drawText(s tcell.Screen, x, y, maxX int, text string, style tcell.Style) int {
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		width := g.Width()
		if width == 0 {
			continue
		}
		if x+width > maxX {
			break
		}
		runes := g.Runes()
		s.SetContent(x, y, runes[0], runes[1:], style)
		x += width
	}
	return x
}
