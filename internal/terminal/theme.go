package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/rewind/internal/config"
)

// Theme holds the styles the editor draws with.
type Theme struct {
	Text   tcell.Style
	Status tcell.Style
	Dim    tcell.Style
}

// DefaultTheme returns the built-in theme.
func DefaultTheme() Theme {
	th, err := NewTheme(config.Default().Theme)
	if err != nil {
		panic(fmt.Sprintf("default theme: %v", err))
	}
	return th
}

// NewTheme builds a theme from hex colours. Empty colours use the terminal
// default. The dim style used for past and future values is the foreground
// blended halfway towards the background.
func NewTheme(cfg config.ThemeConfig) (Theme, error) {
	fg, err := parseColor("theme.foreground", cfg.Foreground)
	if err != nil {
		return Theme{}, err
	}
	bg, err := parseColor("theme.background", cfg.Background)
	if err != nil {
		return Theme{}, err
	}
	status, err := parseColor("theme.status", cfg.Status)
	if err != nil {
		return Theme{}, err
	}

	base := tcell.StyleDefault
	if bg != nil {
		base = base.Background(toTcell(*bg))
	}

	th := Theme{
		Text:   base,
		Status: base.Reverse(true),
		Dim:    base.Dim(true),
	}
	if fg != nil {
		th.Text = th.Text.Foreground(toTcell(*fg))
		towards := colorful.Color{}
		if bg != nil {
			towards = *bg
		}
		th.Dim = base.Foreground(toTcell(fg.BlendLab(towards, 0.5).Clamped()))
	}
	if status != nil {
		th.Status = base.Foreground(toTcell(*status)).Bold(true)
	}
	return th, nil
}

func parseColor(field, hex string) (*colorful.Color, error) {
	if hex == "" {
		return nil, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid colour %q: %w", field, hex, err)
	}
	return &c, nil
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
