package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/mstream/internal/player"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	tab    lipgloss.Style
	active lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	info   lipgloss.Style
	help   lipgloss.Style
	footer lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		tab:    NewStyle(h).Padding(0, 1),
		active: NewBold(t).Padding(0, 1).Underline(true),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		info:   NewStyle(t),
		help:   NewEm(h),
		footer: lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderTop(true).BorderForeground(lipgloss.Color(h)),
	}
}

// level picks the toast style for a notification level.
func (p *Palette) level(l player.Level) lipgloss.Style {
	switch l {
	case player.LevelSuccess:
		return p.ok
	case player.LevelWarning:
		return p.warn
	case player.LevelError:
		return p.err
	default:
		return p.info
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
