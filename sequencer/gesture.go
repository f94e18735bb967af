package sequencer

import "fmt"

// ButtonID identifies a physical button. Pads use their pad index.
type ButtonID int

const (
	ButtonDuplicate ButtonID = 1000 + iota
	ButtonAccent
	ButtonShift
)

// PadButton returns the button id of a pad
func PadButton(pad int) ButtonID {
	return ButtonID(pad)
}

// Buttons is the input collaborator. Long-press timing and the consumed
// flag are owned by the implementation; IsLongPressed must report false
// once the button has been consumed.
type Buttons interface {
	IsPressed(id ButtonID) bool
	IsLongPressed(id ButtonID) bool
	SetConsumed(id ButtonID)
}

// tryConsumeLongPress is the only place a long press is read, so a press
// is never turned into two edits
func tryConsumeLongPress(b Buttons, id ButtonID) bool {
	if !b.IsLongPressed(id) {
		return false
	}
	b.SetConsumed(id)
	return true
}

// Accent supplies the global fixed-velocity mode
type Accent interface {
	AccentActive() bool
	FixedAccentValue() int
}

// EventKind is the kind of a physical pad event
type EventKind int

const (
	Press EventKind = iota
	Release
	LongPress
)

func (k EventKind) String() string {
	switch k {
	case Press:
		return "press"
	case Release:
		return "release"
	case LongPress:
		return "longpress"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// PhysicalEvent is one hardware pad callback
type PhysicalEvent struct {
	Pad      int
	Velocity int
	Kind     EventKind
}

// EditKind classifies a StepEdit
type EditKind int

const (
	EditToggle         EditKind = iota + 1 // toggle the cell
	EditSet                                // create a note with velocity and duration
	EditPaste                              // write the copy buffer verbatim
	EditUpdateDuration                     // change duration in place
	EditCapture                            // store the cell in the copy buffer
	EditNote                               // open the note detail editor
)

func (k EditKind) String() string {
	switch k {
	case EditToggle:
		return "toggle"
	case EditSet:
		return "set"
	case EditPaste:
		return "paste"
	case EditUpdateDuration:
		return "duration"
	case EditCapture:
		return "capture"
	case EditNote:
		return "note-edit"
	}
	return fmt.Sprintf("EditKind(%d)", int(k))
}

// StepEdit is a single mutation decided for one physical event
type StepEdit struct {
	Kind     EditKind
	Channel  int
	Column   int
	Row      int
	Velocity int
	Duration float64
	Step     StepInfo // EditPaste and EditCapture payload
}

// GestureResolver turns a pad event into at most one StepEdit
type GestureResolver struct {
	Layout  Layout
	Buttons Buttons
	Accent  Accent
}

// GestureContext is the per-event input of Resolve
type GestureContext struct {
	Event      PhysicalEvent
	Address    Address
	Channel    int
	Resolution float64   // beats per step
	CopyBuffer *StepInfo // nil when empty
}

func (g *GestureResolver) velocity(v int) int {
	if g.Accent != nil && g.Accent.AccentActive() {
		return g.Accent.FixedAccentValue()
	}
	return v
}

// Resolve applies the gesture rules in priority order: duplicate, extend,
// toggle. The first matching rule decides the event.
func (g *GestureResolver) Resolve(ctx GestureContext, clip Clip) (StepEdit, bool) {
	addr := ctx.Address

	if g.Buttons != nil && g.Buttons.IsPressed(ButtonDuplicate) {
		g.Buttons.SetConsumed(ButtonDuplicate)
		step := clip.GetStep(ctx.Channel, addr.Column, addr.Row)
		if step.State == StateNoteStart {
			return StepEdit{Kind: EditCapture, Channel: ctx.Channel, Column: addr.Column, Row: addr.Row, Step: step}, true
		}
		if ctx.CopyBuffer == nil {
			return StepEdit{}, false
		}
		return StepEdit{Kind: EditPaste, Channel: ctx.Channel, Column: addr.Column, Row: addr.Row, Step: *ctx.CopyBuffer}, true
	}

	if edit, ok := g.resolveExtend(ctx, clip); ok {
		return edit, true
	}

	if ctx.Event.Velocity == 0 {
		return StepEdit{}, false
	}
	return StepEdit{
		Kind:     EditToggle,
		Channel:  ctx.Channel,
		Column:   addr.Column,
		Row:      addr.Row,
		Velocity: g.velocity(ctx.Event.Velocity),
		Duration: ctx.Resolution,
	}, true
}

// resolveExtend looks for a held pad left of the target in the same
// physical row. The lowest column wins.
func (g *GestureResolver) resolveExtend(ctx GestureContext, clip Clip) (StepEdit, bool) {
	if g.Buttons == nil {
		return StepEdit{}, false
	}
	x, y := g.Layout.Coords(ctx.Event.Pad)
	base := g.Layout.BandBase(y)
	for sx := 0; sx < x; sx++ {
		if !tryConsumeLongPress(g.Buttons, PadButton(y*g.Layout.Width+sx)) {
			continue
		}
		start := base + sx
		length := ctx.Address.Column - start + 1
		duration := float64(length) * ctx.Resolution
		if clip.GetStep(ctx.Channel, start, ctx.Address.Row).State == StateNoteStart {
			return StepEdit{Kind: EditUpdateDuration, Channel: ctx.Channel, Column: start, Row: ctx.Address.Row, Duration: duration}, true
		}
		return StepEdit{
			Kind:     EditSet,
			Channel:  ctx.Channel,
			Column:   start,
			Row:      ctx.Address.Row,
			Velocity: g.velocity(ctx.Event.Velocity),
			Duration: duration,
		}, true
	}
	return StepEdit{}, false
}
