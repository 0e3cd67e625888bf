// Package console renders the styled fragments printed by the runner: bold
// status messages and the colored per-command prefixes of multiplexed output.
// Styling is dropped automatically when the destination is not a terminal.
package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

const prefixSeparatorConstant = ": "

// DefaultPalette lists the ANSI colors assigned to multiplexed commands.
var DefaultPalette = []lipgloss.Color{
	lipgloss.Color("2"),
	lipgloss.Color("6"),
	lipgloss.Color("3"),
	lipgloss.Color("5"),
	lipgloss.Color("4"),
	lipgloss.Color("1"),
}

// Styler renders text for a specific writer.
type Styler struct {
	renderer *lipgloss.Renderer
	palette  []lipgloss.Color
}

// NewStyler constructs a Styler whose color profile follows writer.
func NewStyler(writer io.Writer) *Styler {
	return &Styler{
		renderer: lipgloss.NewRenderer(writer),
		palette:  DefaultPalette,
	}
}

// Bold renders text in bold.
func (styler *Styler) Bold(text string) string {
	return styler.renderer.NewStyle().Bold(true).Render(text)
}

// ColorSlot returns the palette color of slot, cycling past the palette end.
func (styler *Styler) ColorSlot(slot int) lipgloss.Color {
	if slot < 0 {
		slot = -slot
	}
	return styler.palette[slot%len(styler.palette)]
}

// Prefix renders the `name: ` label of multiplexed output in the slot color.
func (styler *Styler) Prefix(slot int, name string) string {
	return styler.renderer.NewStyle().Foreground(styler.ColorSlot(slot)).Render(name + prefixSeparatorConstant)
}
