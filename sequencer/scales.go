package sequencer

import "sync"

// Scales is the scale/mapping collaborator
type Scales interface {
	DrumOffset() int
	// TranslateMatrixToGrid turns a per-pad note matrix into a table indexed
	// by the device's raw note numbers. -1 entries do not play a note.
	TranslateMatrixToGrid(matrix []int) []int
}

// KeyTranslator receives the translation table published by a view
type KeyTranslator interface {
	SetKeyTranslationTable(table []int)
}

const (
	drumBaseNote  = 36
	drumOctaveLen = 16
	MinDrumOctave = -2
	MaxDrumOctave = 5
)

// DrumScales is a Scales for drum pads. PadNote maps a pad index to the
// note number the device sends for it.
type DrumScales struct {
	mu      sync.RWMutex
	octave  int
	padNote func(pad int) int
}

// NewDrumScales creates scales for a device numbering its pads with padNote
func NewDrumScales(padNote func(pad int) int) *DrumScales {
	return &DrumScales{padNote: padNote}
}

func (s *DrumScales) DrumOffset() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return drumBaseNote + drumOctaveLen*s.octave
}

// DrumOctave returns the current drum octave
func (s *DrumScales) DrumOctave() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.octave
}

// SetDrumOctave clamps and sets the drum octave
func (s *DrumScales) SetDrumOctave(octave int) {
	if octave < MinDrumOctave {
		octave = MinDrumOctave
	}
	if octave > MaxDrumOctave {
		octave = MaxDrumOctave
	}
	s.mu.Lock()
	s.octave = octave
	s.mu.Unlock()
}

// EmptyMatrix returns a matrix of n pads that play no notes
func EmptyMatrix(n int) []int {
	m := make([]int, n)
	for i := range m {
		m[i] = -1
	}
	return m
}

func (s *DrumScales) TranslateMatrixToGrid(matrix []int) []int {
	table := EmptyMatrix(MaxNote + 1)
	if s.padNote == nil {
		return table
	}
	for pad, note := range matrix {
		raw := s.padNote(pad)
		if raw >= 0 && raw <= MaxNote {
			table[raw] = note
		}
	}
	return table
}
