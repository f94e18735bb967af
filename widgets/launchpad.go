package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Cell is one pad as drawn in the terminal
type Cell struct {
	Color  [3]uint8
	Symbol rune
}

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8) string {
	return RenderCell(Cell{Color: color, Symbol: '■'})
}

// RenderCell renders a pad with its own symbol. Off pads are drawn dim so
// the symbol stays visible.
func RenderCell(c Cell) string {
	color := c.Color
	if color == [3]uint8{} {
		color = [3]uint8{70, 70, 70}
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render(string(c.Symbol))
}

// RenderPadGrid renders a width x height grid of cells indexed row-major
// from the bottom-left (row 0 at the bottom). Optional sceneCol adds a
// column of scene buttons, indexed by row.
func RenderPadGrid(width, height int, cells []Cell, sceneCol []Cell) string {
	var lines []string
	for row := height - 1; row >= 0; row-- {
		var line strings.Builder
		for col := 0; col < width; col++ {
			i := row*width + col
			if i < len(cells) {
				line.WriteString(RenderCell(cells[i]))
			} else {
				line.WriteString(" ")
			}
			line.WriteString(" ")
		}
		if row < len(sceneCol) {
			line.WriteString(" ")
			line.WriteString(RenderCell(sceneCol[row]))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(color), name, desc)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
