package sequencer

import (
	"sort"
	"sync"
)

// Clip is the note clip the engine edits. Columns are relative to the
// clip's currently displayed page; rows are MIDI note numbers.
type Clip interface {
	GetStep(channel, column, row int) StepInfo
	ToggleStep(channel, column, row, velocity int)
	SetStep(channel, column, row, velocity int, duration float64)
	// CopyStep writes a NoteStart verbatim (velocity and duration)
	CopyStep(channel, column, row int, step StepInfo)
	UpdateStepDuration(channel, column, row int, duration float64)

	// CurrentStep is the absolute playhead step, -1 when stopped
	CurrentStep() int
	// IsInXRange reports whether an absolute step lies on the displayed page
	IsInXRange(step int) bool
	// NumColumns is the number of editable columns on the displayed page
	NumColumns() int
}

// ClipNote is a stored note. Start and Duration are in beats, so notes keep
// their position in time when the step length changes.
type ClipNote struct {
	Channel  int     `json:"channel"`
	Start    float64 `json:"start"`
	Row      int     `json:"row"`
	Velocity int     `json:"velocity"`
	Duration float64 `json:"duration"`
}

type laneKey struct {
	channel, row int
}

// MemoryClip is an in-process Clip. Continuation cells are derived from
// each note's duration and the clip's step length.
type MemoryClip struct {
	mu sync.RWMutex

	notes      map[laneKey][]ClipNote // sorted by Start
	numSteps   int
	pageWidth  int
	page       int
	stepLength float64 // beats per step
	current    int
}

// beatEpsilon absorbs float error when comparing beat positions
const beatEpsilon = 1e-9

// NewMemoryClip creates an empty clip of numSteps steps viewed pageWidth
// steps at a time
func NewMemoryClip(numSteps, pageWidth int, stepLength float64) *MemoryClip {
	if numSteps < 1 {
		numSteps = 1
	}
	if pageWidth < 1 {
		pageWidth = 1
	}
	if stepLength <= 0 {
		stepLength = Resolutions[DefaultResolutionIndex].Beats
	}
	return &MemoryClip{
		notes:      make(map[laneKey][]ClipNote),
		numSteps:   numSteps,
		pageWidth:  pageWidth,
		stepLength: stepLength,
		current:    -1,
	}
}

func (c *MemoryClip) absolute(column int) (int, bool) {
	if column < 0 || column >= c.pageWidth {
		return 0, false
	}
	abs := c.page*c.pageWidth + column
	if abs >= c.numSteps {
		return 0, false
	}
	return abs, true
}

func validCell(channel, row int) bool {
	return channel >= 0 && channel < 16 && row >= 0 && row <= MaxNote
}

// beat is the position of an absolute step
func (c *MemoryClip) beat(abs int) float64 {
	return float64(abs) * c.stepLength
}

// find returns the index of the first note starting inside step abs, or of
// the latest note covering it. starts is true for a note starting there.
func (c *MemoryClip) find(key laneKey, abs int) (idx int, starts bool) {
	lo := c.beat(abs)
	hi := lo + c.stepLength
	idx = -1
	for i, n := range c.notes[key] {
		if n.Start >= lo-beatEpsilon && n.Start < hi-beatEpsilon {
			return i, true
		}
		if n.Start < lo-beatEpsilon && n.Start+n.Duration > lo+beatEpsilon {
			idx = i
		}
	}
	return idx, false
}

func (c *MemoryClip) insert(n ClipNote) {
	key := laneKey{n.Channel, n.Row}
	lane := c.notes[key]
	for i := range lane {
		if lane[i].Start > n.Start-beatEpsilon && lane[i].Start < n.Start+beatEpsilon {
			lane[i] = n
			return
		}
	}
	lane = append(lane, n)
	sort.Slice(lane, func(i, j int) bool { return lane[i].Start < lane[j].Start })
	c.notes[key] = lane
}

func (c *MemoryClip) remove(key laneKey, idx int) {
	lane := c.notes[key]
	lane = append(lane[:idx], lane[idx+1:]...)
	if len(lane) == 0 {
		delete(c.notes, key)
		return
	}
	c.notes[key] = lane
}

func (c *MemoryClip) GetStep(channel, column, row int) StepInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	abs, ok := c.absolute(column)
	if !ok || !validCell(channel, row) {
		return StepInfo{}
	}
	key := laneKey{channel, row}
	idx, starts := c.find(key, abs)
	if idx < 0 {
		return StepInfo{}
	}
	if starts {
		n := c.notes[key][idx]
		return StepInfo{State: StateNoteStart, Velocity: n.Velocity, Duration: n.Duration}
	}
	return StepInfo{State: StateNoteContinue}
}

// ToggleStep removes the note starting at or covering the cell, or creates a
// one-step note when the cell is empty
func (c *MemoryClip) ToggleStep(channel, column, row, velocity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	abs, ok := c.absolute(column)
	if !ok || !validCell(channel, row) {
		return
	}
	key := laneKey{channel, row}
	if idx, _ := c.find(key, abs); idx >= 0 {
		c.remove(key, idx)
		return
	}
	c.insert(ClipNote{Channel: channel, Start: c.beat(abs), Row: row, Velocity: clampVelocity(velocity), Duration: c.stepLength})
}

func (c *MemoryClip) SetStep(channel, column, row, velocity int, duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	abs, ok := c.absolute(column)
	if !ok || !validCell(channel, row) || duration <= 0 {
		return
	}
	key := laneKey{channel, row}
	if idx, starts := c.find(key, abs); starts {
		c.remove(key, idx)
	}
	c.insert(ClipNote{Channel: channel, Start: c.beat(abs), Row: row, Velocity: clampVelocity(velocity), Duration: duration})
}

func (c *MemoryClip) CopyStep(channel, column, row int, step StepInfo) {
	if step.State != StateNoteStart {
		return
	}
	c.SetStep(channel, column, row, step.Velocity, step.Duration)
}

func (c *MemoryClip) UpdateStepDuration(channel, column, row int, duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	abs, ok := c.absolute(column)
	if !ok || !validCell(channel, row) || duration <= 0 {
		return
	}
	key := laneKey{channel, row}
	if idx, starts := c.find(key, abs); starts {
		c.notes[key][idx].Duration = duration
	}
}

// UpdateStepVelocity changes the velocity of the note starting at the cell
func (c *MemoryClip) UpdateStepVelocity(channel, column, row, velocity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	abs, ok := c.absolute(column)
	if !ok || !validCell(channel, row) {
		return
	}
	key := laneKey{channel, row}
	if idx, starts := c.find(key, abs); starts {
		c.notes[key][idx].Velocity = clampVelocity(velocity)
	}
}

func (c *MemoryClip) CurrentStep() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// SetCurrentStep moves the playhead; -1 stops it
func (c *MemoryClip) SetCurrentStep(step int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if step < 0 {
		c.current = -1
		return
	}
	c.current = step % c.numSteps
}

// Advance moves the playhead one step, wrapping at the clip length
func (c *MemoryClip) Advance() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = (c.current + 1) % c.numSteps
	return c.current
}

func (c *MemoryClip) IsInXRange(step int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	start := c.page * c.pageWidth
	return step >= start && step < start+c.pageWidth
}

func (c *MemoryClip) NumColumns() int {
	return c.pageWidth
}

// NumSteps is the clip length in steps
func (c *MemoryClip) NumSteps() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.numSteps
}

// StepLength is the clip's step size in beats
func (c *MemoryClip) StepLength() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stepLength
}

// SetStepLength changes the grid's step size. Notes stay at their beat
// positions; only the cells they map to change. A running playhead keeps
// its beat position too.
func (c *MemoryClip) SetStepLength(beats float64) {
	if beats <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current >= 0 {
		c.current = int(c.beat(c.current)/beats+beatEpsilon) % c.numSteps
	}
	c.stepLength = beats
}

// Page returns the displayed page index and the page count
func (c *MemoryClip) Page() (page, pages int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.page, (c.numSteps + c.pageWidth - 1) / c.pageWidth
}

// ScrollPage moves the displayed page by delta, returning false at the edges
func (c *MemoryClip) ScrollPage(delta int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	pages := (c.numSteps + c.pageWidth - 1) / c.pageWidth
	next := c.page + delta
	if next < 0 || next >= pages {
		return false
	}
	c.page = next
	return true
}

// Notes returns a copy of all notes ordered by start, channel and row
func (c *MemoryClip) Notes() []ClipNote {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []ClipNote
	for _, lane := range c.notes {
		out = append(out, lane...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].Row < out[j].Row
	})
	return out
}

// Clear removes every note
func (c *MemoryClip) Clear() {
	c.mu.Lock()
	c.notes = make(map[laneKey][]ClipNote)
	c.mu.Unlock()
}
