package sequencer

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is an RGB pad color; controllers map it to their palette
type Color [3]uint8

var ColorOff = Color{0, 0, 0}

// GridFrame holds one color per pad index
type GridFrame []Color

// OffFrame is the all-off frame for n pads
func OffFrame(n int) GridFrame {
	return make(GridFrame, n)
}

// Equal reports whether two frames light every pad identically
func (f GridFrame) Equal(other GridFrame) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if f[i] != other[i] {
			return false
		}
	}
	return true
}

// StepColors are the color classes of a step cell
type StepColors struct {
	Empty         Color
	EmptyPlayhead Color
	Note          Color // used when the lane has no color of its own
	NotePlayhead  Color
}

var DefaultStepColors = StepColors{
	Empty:         Color{0, 0, 0},
	EmptyPlayhead: Color{0, 200, 0},
	Note:          Color{0, 100, 255},
	NotePlayhead:  Color{150, 255, 100},
}

// LaneColors supplies the drum pad color of a pad slot (SelectedPad + lane)
type LaneColors interface {
	LaneColor(padIndex int) (Color, bool)
}

// RenderInput is everything a frame depends on
type RenderInput struct {
	Layout     Layout
	Paging     PagingState
	Channel    int
	Clip       Clip
	Active     bool
	LaneColors LaneColors
	Colors     StepColors
}

// PlayheadColumn returns the highlighted column, or -1 when the playhead
// is stopped or off the displayed page
func PlayheadColumn(clip Clip, pageWidth int) int {
	step := clip.CurrentStep()
	if step < 0 || pageWidth <= 0 || !clip.IsInXRange(step) {
		return -1
	}
	return step % pageWidth
}

// Render computes a complete frame. It reads but never mutates its input,
// so unchanged input gives an identical frame.
func Render(in RenderInput) GridFrame {
	frame := OffFrame(in.Layout.Pads())
	if !in.Active || in.Clip == nil {
		return frame
	}

	hilite := PlayheadColumn(in.Clip, in.Layout.PageWidth())
	for pad := range frame {
		addr, ok := in.Layout.PhysicalToLogical(pad, in.Paging)
		if !ok || addr.Row < 0 || addr.Row > MaxNote {
			continue
		}
		step := in.Clip.GetStep(in.Channel, addr.Column, addr.Row)
		frame[pad] = in.stepColor(step.State, addr.Column == hilite, in.Paging.SelectedPad+addr.Lane)
	}
	return frame
}

func (in RenderInput) stepColor(state NoteState, playhead bool, padIndex int) Color {
	if state == StateOff {
		if playhead {
			return in.Colors.EmptyPlayhead
		}
		return in.Colors.Empty
	}

	note := in.Colors.Note
	if in.LaneColors != nil {
		if c, ok := in.LaneColors.LaneColor(padIndex); ok {
			note = c
		}
	}
	if playhead {
		return blend(note, in.Colors.NotePlayhead, 0.6)
	}
	if state == StateNoteContinue {
		return blend(note, ColorOff, 0.6)
	}
	return note
}

func toColorful(c Color) colorful.Color {
	return colorful.Color{R: float64(c[0]) / 255, G: float64(c[1]) / 255, B: float64(c[2]) / 255}
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{r, g, b}
}

// blend mixes a toward b by t in RGB space
func blend(a, b Color, t float64) Color {
	return fromColorful(toColorful(a).BlendRgb(toColorful(b), t))
}
