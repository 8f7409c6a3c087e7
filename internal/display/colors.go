package display

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Role names what a piece of text means so the palette can pick its color
type Role int

const (
	RolePlain Role = iota
	RoleHeader
	RoleKeep
	RoleDelete
	RoleMuted
	RoleWarning
	RoleError
)

// Palette colors output for a terminal and leaves it untouched otherwise
type Palette struct {
	enabled bool
	colors  map[Role]*color.Color
}

// NewPalette creates a palette for out. Colors are used only when out is a
// terminal that supports them.
func NewPalette(out io.Writer) *Palette {
	return newPalette(detectColorSupport(out))
}

// NewPlainPalette creates a palette that never emits escape codes
func NewPlainPalette() *Palette {
	return newPalette(false)
}

func newPalette(enabled bool) *Palette {
	p := &Palette{
		enabled: enabled,
		colors: map[Role]*color.Color{
			RoleHeader:  color.New(color.FgBlue, color.Bold),
			RoleKeep:    color.New(color.FgGreen),
			RoleDelete:  color.New(color.FgRed),
			RoleMuted:   color.New(color.FgHiBlack),
			RoleWarning: color.New(color.FgYellow),
			RoleError:   color.New(color.FgHiRed, color.Bold),
		},
	}

	// fatih/color decides on its own from os.Stdout; the palette decides per writer
	if enabled {
		for _, c := range p.colors {
			c.EnableColor()
		}
	}
	return p
}

// detectColorSupport checks whether out is a color capable terminal
func detectColorSupport(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}

	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}

	if os.Getenv("TERM") == "dumb" {
		return false
	}

	// Honors NO_COLOR and CLICOLOR_FORCE
	return termenv.EnvColorProfile() != termenv.Ascii
}

// Enabled reports whether the palette emits colors
func (p *Palette) Enabled() bool {
	return p.enabled
}

// Sprint colors text for role
func (p *Palette) Sprint(role Role, text string) string {
	if !p.enabled {
		return text
	}
	if c, ok := p.colors[role]; ok {
		return c.Sprint(text)
	}
	return text
}

// Sprintf formats and colors text for role
func (p *Palette) Sprintf(role Role, format string, args ...interface{}) string {
	return p.Sprint(role, fmt.Sprintf(format, args...))
}
