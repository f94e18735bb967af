package widgets

import (
	"strings"
	"testing"
)

func TestRenderPadGrid(t *testing.T) {
	cells := make([]Cell, 8)
	for i := range cells {
		cells[i] = Cell{Symbol: '·'}
	}
	cells[0].Symbol = '●' // bottom-left
	cells[7].Symbol = '▶' // top-right

	out := RenderPadGrid(4, 2, cells, []Cell{{Symbol: '□'}, {Symbol: '■'}})
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("%d lines", len(lines))
	}
	if !strings.Contains(lines[0], "▶") || !strings.Contains(lines[0], "■") {
		t.Errorf("top line %q", lines[0])
	}
	if !strings.Contains(lines[1], "●") || !strings.Contains(lines[1], "□") {
		t.Errorf("bottom line %q", lines[1])
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{
		{Title: "Grid", Keys: []KeyBinding{{Key: "space", Desc: "tap pad"}}},
	})
	if !strings.HasPrefix(out, "Grid\n") || !strings.Contains(out, "space") || !strings.Contains(out, "tap pad") {
		t.Fatalf("help %q", out)
	}
}
