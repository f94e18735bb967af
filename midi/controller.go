package midi

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerLaunchpad
	ControllerKeyboard
)

func (t ControllerType) String() string {
	switch t {
	case ControllerLaunchpad:
		return "launchpad"
	case ControllerKeyboard:
		return "keyboard"
	}
	return "unknown"
}

// Grid geometry of a Launchpad in programmer mode. Row 8 is the top control
// row, column 8 the scene column.
const (
	GridSize   = 8
	ControlRow = 8
	SceneCol   = 8
)

// PadEvent is sent when a pad/button is pressed or released on a grid controller
type PadEvent struct {
	Row, Col int
	Velocity uint8
	Pressed  bool
}

// IsGrid reports whether the event comes from the main 8x8 grid
func (e PadEvent) IsGrid() bool {
	return e.Row >= 0 && e.Row < GridSize && e.Col >= 0 && e.Col < GridSize
}

// NoteEvent is sent when a note is played on a keyboard, or when a grid pad
// with a key translation plays its note
type NoteEvent struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// LEDUpdate is one pad color change
type LEDUpdate struct {
	Row, Col int
	Color    [3]uint8
	Channel  uint8 // ChannelStatic, ChannelFlash or ChannelPulse
}

// Controller is the interface for MIDI input devices
type Controller interface {
	ID() string
	Type() ControllerType

	// Input events from the controller
	PadEvents() <-chan PadEvent   // For grid controllers (Launchpad)
	NoteEvents() <-chan NoteEvent // For keyboards and translated pads

	// Output to the controller
	SetLEDRGB(row, col int, rgb [3]uint8, channel uint8) error // maps RGB to palette
	SetLEDBatch(updates []LEDUpdate) error
	ClearLEDs() error

	// SetKeyTranslationTable maps the notes the grid sends to the notes
	// they play; -1 plays nothing
	SetKeyTranslationTable(table []int)

	// Lifecycle
	Close() error
}

// Channel modes for LEDUpdate
const (
	ChannelStatic uint8 = 0 // solid color
	ChannelFlash  uint8 = 1 // flashing A/B alternating
	ChannelPulse  uint8 = 2 // pulsing (fades)
)
