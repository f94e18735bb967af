package sequencer

import "fmt"

// NoteState is the state of a single (channel, column, row) cell
type NoteState int

const (
	StateOff NoteState = iota
	StateNoteStart
	StateNoteContinue
)

func (s NoteState) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateNoteStart:
		return "start"
	case StateNoteContinue:
		return "continue"
	default:
		return fmt.Sprintf("NoteState(%d)", int(s))
	}
}

// StepInfo describes a cell. Velocity and Duration are only meaningful for
// StateNoteStart; Duration is in beats.
type StepInfo struct {
	State    NoteState `json:"state"`
	Velocity int       `json:"velocity"`
	Duration float64   `json:"duration"`
}

// IsSet reports whether a note starts at or covers the cell
func (s StepInfo) IsSet() bool {
	return s.State != StateOff
}

// Resolution is a step length in beats
type Resolution struct {
	Name  string
	Beats float64
}

// Resolutions lists the selectable step lengths, longest first
var Resolutions = []Resolution{
	{"1/4", 1.0},
	{"1/4t", 2.0 / 3.0},
	{"1/8", 0.5},
	{"1/8t", 1.0 / 3.0},
	{"1/16", 0.25},
	{"1/16t", 1.0 / 6.0},
	{"1/32", 0.125},
	{"1/32t", 1.0 / 12.0},
}

// DefaultResolutionIndex selects 1/16
const DefaultResolutionIndex = 4

// ResolutionAt clamps index into Resolutions
func ResolutionAt(index int) Resolution {
	if index < 0 {
		index = 0
	}
	if index >= len(Resolutions) {
		index = len(Resolutions) - 1
	}
	return Resolutions[index]
}

const (
	MinVelocity = 1
	MaxVelocity = 127
	MaxNote     = 127
)

func clampVelocity(v int) int {
	if v < MinVelocity {
		return MinVelocity
	}
	if v > MaxVelocity {
		return MaxVelocity
	}
	return v
}
