package sequencer

import "sync"

// VelocityClip is a Clip whose note velocity can be edited in place
type VelocityClip interface {
	Clip
	UpdateStepVelocity(channel, column, row, velocity int)
}

// NoteEditor is the per-note detail mode entered by long-pressing a note.
// It implements ModeSelector.
type NoteEditor struct {
	mu   sync.Mutex
	clip VelocityClip

	open                 bool
	channel, column, row int
}

func NewNoteEditor(clip VelocityClip) *NoteEditor {
	return &NoteEditor{clip: clip}
}

func (n *NoteEditor) EditNote(channel, column, row int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.open = true
	n.channel, n.column, n.row = channel, column, row
}

// Close leaves the editor
func (n *NoteEditor) Close() {
	n.mu.Lock()
	n.open = false
	n.mu.Unlock()
}

// Current returns the edited note and its cell. ok is false when the editor
// is closed or the note has been removed meanwhile.
func (n *NoteEditor) Current() (step StepInfo, column, row int, ok bool) {
	step, _, column, row, ok = n.current()
	return step, column, row, ok
}

func (n *NoteEditor) current() (step StepInfo, channel, column, row int, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.open {
		return StepInfo{}, 0, 0, 0, false
	}
	step = n.clip.GetStep(n.channel, n.column, n.row)
	if step.State != StateNoteStart {
		n.open = false
		return StepInfo{}, 0, 0, 0, false
	}
	return step, n.channel, n.column, n.row, true
}

// ChangeVelocity nudges the note's velocity
func (n *NoteEditor) ChangeVelocity(delta int) {
	step, ch, col, row, ok := n.current()
	if !ok {
		return
	}
	n.clip.UpdateStepVelocity(ch, col, row, clampVelocity(step.Velocity+delta))
}

// ChangeDuration nudges the note's duration by delta beats, keeping it
// at least minBeats long
func (n *NoteEditor) ChangeDuration(delta, minBeats float64) {
	step, ch, col, row, ok := n.current()
	if !ok {
		return
	}
	d := step.Duration + delta
	if d < minBeats {
		d = minBeats
	}
	n.clip.UpdateStepDuration(ch, col, row, d)
}
