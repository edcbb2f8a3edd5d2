// Package ui holds the presentation tokens shared by the desktop window and
// the terminal browser: which style a priority gets, and the colours each
// theme assigns to those styles.
package ui

import (
	"fmt"
	"image/color"

	"gioui.org/widget/material"

	"todo-desk/internal/config"
	"todo-desk/pkg/task"
)

// Token names a visual style. Frontends map tokens to their own colours.
type Token string

const (
	TokenLow     Token = "priority-low"
	TokenMedium  Token = "priority-medium"
	TokenHigh    Token = "priority-high"
	TokenUnknown Token = "priority-unknown"
	TokenDone    Token = "completed"
	TokenOverdue Token = "overdue"
)

// StyleToken returns the token for a priority. Priorities read from a
// hand-edited file may be unknown; they get TokenUnknown.
func StyleToken(p task.Priority) Token {
	switch p {
	case task.Low:
		return TokenLow
	case task.Medium:
		return TokenMedium
	case task.High:
		return TokenHigh
	}
	return TokenUnknown
}

// TaskToken is the token for a whole task card: completion wins over
// overdue, which wins over priority.
func TaskToken(t task.Task, today task.Date) Token {
	switch {
	case t.Completed:
		return TokenDone
	case t.Overdue(today):
		return TokenOverdue
	}
	return StyleToken(t.Priority)
}

// Palette is a theme's colours as 0xRRGGBB values.
type Palette struct {
	Name       string
	Bg         uint32
	Fg         uint32
	Muted      uint32
	Surface    uint32
	Accent     uint32
	AccentFg   uint32
	TokenColor map[Token]uint32
}

var (
	Light = Palette{
		Name:     config.ThemeLight,
		Bg:       0xFAFAFA,
		Fg:       0x202124,
		Muted:    0x80868B,
		Surface:  0xFFFFFF,
		Accent:   0x1A73E8,
		AccentFg: 0xFFFFFF,
		TokenColor: map[Token]uint32{
			TokenLow:     0x34A853,
			TokenMedium:  0xF9AB00,
			TokenHigh:    0xD93025,
			TokenUnknown: 0x80868B,
			TokenDone:    0x9AA0A6,
			TokenOverdue: 0xB31412,
		},
	}
	Dark = Palette{
		Name:     config.ThemeDark,
		Bg:       0x121212,
		Fg:       0xE0E0E0,
		Muted:    0x808080,
		Surface:  0x1E1E1E,
		Accent:   0x3060A0,
		AccentFg: 0xFFFFFF,
		TokenColor: map[Token]uint32{
			TokenLow:     0x00C000,
			TokenMedium:  0xFFA000,
			TokenHigh:    0xFF4040,
			TokenUnknown: 0x808080,
			TokenDone:    0x606060,
			TokenOverdue: 0xFF6E6E,
		},
	}
)

// PaletteFor returns the palette for a theme name; anything but "dark" is light.
func PaletteFor(theme string) Palette {
	if theme == config.ThemeDark {
		return Dark
	}
	return Light
}

// Color returns the colour for tok, or Fg when the palette has none.
func (p Palette) Color(tok Token) uint32 {
	if c, ok := p.TokenColor[tok]; ok {
		return c
	}
	return p.Fg
}

// Hex formats an 0xRRGGBB value as "#rrggbb".
func Hex(c uint32) string {
	return fmt.Sprintf("#%06x", c&0xFFFFFF)
}

// NRGBA converts an 0xRRGGBB value to an opaque colour.
func NRGBA(c uint32) color.NRGBA {
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 0xFF}
}

// Material returns the Gio material palette for p.
func (p Palette) Material() material.Palette {
	return material.Palette{
		Bg:         NRGBA(p.Bg),
		Fg:         NRGBA(p.Fg),
		ContrastBg: NRGBA(p.Accent),
		ContrastFg: NRGBA(p.AccentFg),
	}
}
