package sequencer

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-stepgrid/midi"
)

type fakeController struct {
	mu       sync.Mutex
	pads     chan midi.PadEvent
	notes    chan midi.NoteEvent
	batches  [][]midi.LEDUpdate
	keyTable []int
}

func newFakeController() *fakeController {
	return &fakeController{
		pads:  make(chan midi.PadEvent),
		notes: make(chan midi.NoteEvent),
	}
}

func (c *fakeController) ID() string                                { return "fake" }
func (c *fakeController) Type() midi.ControllerType                 { return midi.ControllerLaunchpad }
func (c *fakeController) PadEvents() <-chan midi.PadEvent           { return c.pads }
func (c *fakeController) NoteEvents() <-chan midi.NoteEvent         { return c.notes }
func (c *fakeController) SetLEDRGB(int, int, [3]uint8, uint8) error { return nil }
func (c *fakeController) ClearLEDs() error                          { return nil }
func (c *fakeController) Close() error                              { return nil }

func (c *fakeController) SetLEDBatch(updates []midi.LEDUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, updates)
	return nil
}

func (c *fakeController) SetKeyTranslationTable(table []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keyTable = table
}

func (c *fakeController) table() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keyTable
}

type recordingDisplay struct {
	mu       sync.Mutex
	messages []string
}

func (d *recordingDisplay) Notify(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
}

func newTestManager() *Manager {
	cfg := DefaultManagerConfig()
	cfg.Engine.Channel = testChannel
	return NewManager(cfg)
}

func TestManagerPressPad(t *testing.T) {
	m := newTestManager()

	// launchpad layout: the top band shows the first 8 steps
	m.PressPad(32, 100)
	m.ReleasePad(32)
	got := m.Clip().GetStep(testChannel, 0, 36)
	if got.State != StateNoteStart || got.Velocity != 100 {
		t.Fatalf("pad 32: %+v", got)
	}

	m.HandlePad(midi.PadEvent{Row: 4, Col: 0, Velocity: 90, Pressed: true})
	m.HandlePad(midi.PadEvent{Row: 4, Col: 0})
	if m.Clip().GetStep(testChannel, 0, 36).IsSet() {
		t.Fatal("second press did not remove the note")
	}
}

func TestManagerHoldExtends(t *testing.T) {
	m := newTestManager()

	m.PressPad(32, 100)
	m.HoldPad(32)
	m.PressPad(35, 100)
	m.ReleasePad(35)
	m.ReleasePad(32)

	got := m.Clip().GetStep(testChannel, 0, 36)
	if got.State != StateNoteStart || got.Duration != 1.0 {
		t.Fatalf("extended note: %+v", got)
	}
	if m.Clip().GetStep(testChannel, 3, 36).State != StateNoteContinue {
		t.Fatal("column 3 not covered")
	}
}

func TestManagerControls(t *testing.T) {
	m := newTestManager()
	display := &recordingDisplay{}
	m.SetDisplay(display)

	m.HandlePad(midi.PadEvent{Row: midi.ControlRow, Col: ctrlAccent, Velocity: 127, Pressed: true})
	if !m.Status().AccentOn {
		t.Fatal("accent button did not toggle accent")
	}

	m.HandlePad(midi.PadEvent{Row: midi.ControlRow, Col: ctrlDuplicate, Velocity: 127, Pressed: true})
	if !m.DuplicateHeld() {
		t.Fatal("duplicate not held")
	}
	m.HandlePad(midi.PadEvent{Row: midi.ControlRow, Col: ctrlDuplicate})
	if m.DuplicateHeld() {
		t.Fatal("duplicate still held")
	}

	// bottom scene button is the last lower scene
	m.HandlePad(midi.PadEvent{Row: 0, Col: midi.SceneCol, Velocity: 127, Pressed: true})
	if got := m.Status().Paging.SoundOffset; got != 12 {
		t.Fatalf("offset %d, want 12", got)
	}

	m.HandlePad(midi.PadEvent{Row: midi.ControlRow, Col: ctrlResolutionUp, Velocity: 127, Pressed: true})
	if got := m.Status().Resolution.Name; got != "1/16t" {
		t.Fatalf("resolution %s", got)
	}

	m.HandlePad(midi.PadEvent{Row: midi.ControlRow, Col: ctrlPageRight, Velocity: 127, Pressed: true})
	if st := m.Status(); st.Page != 1 {
		t.Fatalf("page %d", st.Page)
	}

	display.mu.Lock()
	defer display.mu.Unlock()
	want := []string{"Accent: on", "Offset: 12", "Resolution: 1/16t", "Page: 2/4"}
	if len(display.messages) != len(want) {
		t.Fatalf("display got %q, want %q", display.messages, want)
	}
	for i := range want {
		if display.messages[i] != want[i] {
			t.Errorf("message %d: %q, want %q", i, display.messages[i], want[i])
		}
	}
}

func TestManagerOctaveRepublishesKeys(t *testing.T) {
	m := newTestManager()
	c := newFakeController()
	m.SetController(c)

	if len(c.table()) != MaxNote+1 {
		t.Fatalf("key table has %d entries", len(c.table()))
	}

	m.ChangeOctave(1)
	if m.Message() != "Octave: +1" {
		t.Fatalf("message %q", m.Message())
	}
	if m.Status().Paging.DrumOffset != 52 {
		t.Fatalf("drum offset %d", m.Status().Paging.DrumOffset)
	}

	m.PressPad(32, 100)
	if !m.Clip().GetStep(testChannel, 0, 52).IsSet() {
		t.Fatal("octave not applied to new notes")
	}
}

func TestManagerOctaveClampsLaneGroup(t *testing.T) {
	m := newTestManager()
	m.LowerScene(3)
	m.ChangeOctave(5)

	p := m.Status().Paging
	if p.DrumOffset != 116 || p.SoundOffset != 8 {
		t.Fatalf("paging after octave change: %+v", p)
	}
	if top := p.BaseRow() + p.SoundOffset + 3; top != MaxNote {
		t.Fatalf("top lane on row %d", top)
	}
	if !m.Engine().LowerSceneSelected(2) || m.Engine().LowerSceneSelected(3) {
		t.Error("scene feedback does not follow the clamped offset")
	}

	// the top lane of the first band is the highest note
	m.PressPad(56, 100)
	if !m.Clip().GetStep(testChannel, 0, MaxNote).IsSet() {
		t.Fatal("press on the top lane dropped")
	}
}

func TestManagerLEDDiff(t *testing.T) {
	m := newTestManager()
	c := newFakeController()
	m.SetController(c)

	first := m.pendingLEDs()
	if want := 64 + 16; len(first) != want {
		t.Fatalf("first flush sent %d LEDs, want %d", len(first), want)
	}
	if again := m.pendingLEDs(); len(again) != 0 {
		t.Fatalf("unchanged frame sent %d LEDs", len(again))
	}

	m.PressPad(32, 100)
	m.ReleasePad(32)
	diff := m.pendingLEDs()
	if len(diff) != 1 || diff[0].Row != 4 || diff[0].Col != 0 {
		t.Fatalf("diff %+v", diff)
	}

	m.flushLEDs()
	m.SetController(c)
	if all := m.pendingLEDs(); len(all) != 64+16 {
		t.Fatalf("new controller got %d LEDs", len(all))
	}
}

func TestManagerTransport(t *testing.T) {
	m := newTestManager()

	m.SetTempo(1000)
	if m.Tempo() != MaxTempo {
		t.Fatalf("tempo %d not clamped", m.Tempo())
	}
	m.SetTempo(120)

	m.Play()
	m.tick(time.Now().Add(time.Millisecond))
	if got := m.Clip().CurrentStep(); got != 0 {
		t.Fatalf("first step %d", got)
	}
	if !m.Status().Playing {
		t.Fatal("not playing")
	}

	m.TogglePlay()
	if m.IsPlaying() || m.Clip().CurrentStep() != -1 {
		t.Fatal("stop did not reset the playhead")
	}
	m.tick(time.Now().Add(time.Hour))
	if m.Clip().CurrentStep() != -1 {
		t.Fatal("stopped transport advanced")
	}
}

func TestManagerPreview(t *testing.T) {
	m := newTestManager()

	var mu sync.Mutex
	var sent []gomidi.Message
	m.SetOutput(midi.NewOutput("test", func(msg gomidi.Message) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, msg)
		return nil
	}))

	m.PressPad(32, 100)
	mu.Lock()
	defer mu.Unlock()
	if len(sent) == 0 {
		t.Fatal("new note not auditioned")
	}
	var ch, key, vel uint8
	if !sent[0].GetNoteStart(&ch, &key, &vel) || ch != testChannel || key != 36 || vel != 100 {
		t.Fatalf("preview %v", sent[0])
	}
}

func TestManagerLongPressPoll(t *testing.T) {
	cfg := DefaultManagerConfig()
	cfg.Engine.Channel = testChannel
	cfg.Engine.NoteEditor = true
	cfg.LongPress = 50 * time.Millisecond
	m := NewManager(cfg)

	m.PressPad(32, 100)
	m.pollLongPress(time.Now().Add(time.Second))

	st := m.Status()
	if !st.EditorOpen || st.EditorColumn != 0 || st.EditorRow != 36 {
		t.Fatalf("editor not opened: %+v", st)
	}
	m.HandlePad(midi.PadEvent{Row: sceneCloseNote, Col: midi.SceneCol, Velocity: 127, Pressed: true})
	if m.Status().EditorOpen {
		t.Fatal("scene button did not close the editor")
	}
}

func TestManagerSaveExport(t *testing.T) {
	m := newTestManager()
	m.PressPad(32, 100)

	path := filepath.Join(t.TempDir(), "out.mid")
	if err := m.ExportClip(path); err != nil {
		t.Fatalf("export: %v", err)
	}
	if m.Message() != "Exported "+path {
		t.Errorf("message %q", m.Message())
	}
}
