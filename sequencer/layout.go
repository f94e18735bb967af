package sequencer

// Layout describes how a physical pad grid is split into lanes and step
// bands. Pads are indexed row-major from the bottom-left: x = pad % Width,
// y = pad / Width.
//
// Each band of Lanes physical rows shows Width consecutive steps, so one
// page holds Width*Bands() steps for Lanes sounds. Inverted puts the first
// steps in the top band (Push); otherwise the bottom band shows them (Fire).
type Layout struct {
	Width    int
	Height   int
	Lanes    int
	Inverted bool
}

var (
	PushLayout      = Layout{Width: 8, Height: 8, Lanes: 4, Inverted: true}
	FireLayout      = Layout{Width: 8, Height: 8, Lanes: 4, Inverted: false}
	LaunchpadLayout = Layout{Width: 8, Height: 8, Lanes: 4, Inverted: true}
)

// LayoutPreset looks up a named layout
func LayoutPreset(name string) (Layout, bool) {
	switch name {
	case "push":
		return PushLayout, true
	case "fire":
		return FireLayout, true
	case "launchpad":
		return LaunchpadLayout, true
	}
	return Layout{}, false
}

// Valid reports whether the dimensions describe a usable grid
func (l Layout) Valid() bool {
	return l.Width > 0 && l.Height > 0 && l.Lanes > 0 && l.Height%l.Lanes == 0
}

// Pads is the number of physical pads
func (l Layout) Pads() int {
	return l.Width * l.Height
}

// Bands is the number of step bands stacked vertically
func (l Layout) Bands() int {
	return l.Height / l.Lanes
}

// PageWidth is the number of steps shown at once
func (l Layout) PageWidth() int {
	return l.Width * l.Bands()
}

// Coords splits a pad index into grid coordinates
func (l Layout) Coords(pad int) (x, y int) {
	return pad % l.Width, pad / l.Width
}

// band maps a physical row to its logical band, applying the orientation
func (l Layout) band(y int) int {
	b := y / l.Lanes
	if l.Inverted {
		b = l.Bands() - 1 - b
	}
	return b
}

// BandBase is the first column shown by the band containing physical row y
func (l Layout) BandBase(y int) int {
	return l.Width * l.band(y)
}

// PagingState is the per-view scroll state
type PagingState struct {
	SelectedPad int // first drum pad of the active group
	SoundOffset int // lane group offset chosen with the lower scene buttons
	DrumOffset  int // base note from the scale mapping
}

// BaseRow is the note row of lane 0
func (p PagingState) BaseRow() int {
	return p.DrumOffset + p.SelectedPad
}

// Address is a logical cell
type Address struct {
	Lane   int // lane including SoundOffset
	Column int // page-relative step
	Row    int // note row
}

// PhysicalToLogical resolves a pad to its cell. ok is false for pads
// outside the grid.
func (l Layout) PhysicalToLogical(pad int, p PagingState) (Address, bool) {
	if pad < 0 || pad >= l.Pads() {
		return Address{}, false
	}
	x, y := l.Coords(pad)
	lane := y%l.Lanes + p.SoundOffset
	return Address{
		Lane:   lane,
		Column: l.BandBase(y) + x,
		Row:    p.BaseRow() + lane,
	}, true
}

// LogicalToPhysical is the inverse of PhysicalToLogical. ok is false when
// the lane or column is not visible.
func (l Layout) LogicalToPhysical(lane, column int, p PagingState) (int, bool) {
	inGroup := lane - p.SoundOffset
	if inGroup < 0 || inGroup >= l.Lanes || column < 0 || column >= l.PageWidth() {
		return 0, false
	}
	b := column / l.Width
	if l.Inverted {
		b = l.Bands() - 1 - b
	}
	y := b*l.Lanes + inGroup
	return y*l.Width + column%l.Width, true
}
