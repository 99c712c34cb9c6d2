package terminal

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/rewind/internal/config"
)

func TestNewTheme(t *testing.T) {
	th, err := NewTheme(config.ThemeConfig{
		Foreground: "#ff0000",
		Background: "#000000",
		Status:     "#00ff00",
	})
	if err != nil {
		t.Fatalf("NewTheme failed: %v", err)
	}

	fg, bg, _ := th.Text.Decompose()
	if fg != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("text foreground = %v", fg)
	}
	if bg != tcell.NewRGBColor(0, 0, 0) {
		t.Errorf("text background = %v", bg)
	}

	sfg, _, attrs := th.Status.Decompose()
	if sfg != tcell.NewRGBColor(0, 255, 0) {
		t.Errorf("status foreground = %v", sfg)
	}
	if attrs&tcell.AttrBold == 0 {
		t.Error("status is not bold")
	}

	dfg, _, _ := th.Dim.Decompose()
	if dfg == fg || dfg == bg {
		t.Errorf("dim foreground %v not blended", dfg)
	}
}

func TestNewTheme_Empty(t *testing.T) {
	th, err := NewTheme(config.ThemeConfig{})
	if err != nil {
		t.Fatalf("NewTheme failed: %v", err)
	}
	if th.Text != tcell.StyleDefault {
		t.Errorf("Text = %v, want default style", th.Text)
	}
}

func TestNewTheme_Invalid(t *testing.T) {
	if _, err := NewTheme(config.ThemeConfig{Foreground: "red"}); err == nil {
		t.Error("expected error for non-hex colour")
	}
}
