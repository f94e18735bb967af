package sequencer

import (
	"testing"
	"time"
)

type fakeScales struct {
	offset int
	table  []int
}

func (s *fakeScales) DrumOffset() int { return s.offset }

func (s *fakeScales) TranslateMatrixToGrid(matrix []int) []int {
	s.table = append([]int(nil), matrix...)
	return s.table
}

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) Notify(msg string) { n.messages = append(n.messages, msg) }

func (n *fakeNotifier) last() string {
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1]
}

type fakeGrid struct {
	frame GridFrame
	off   bool
}

func (g *fakeGrid) Light(frame GridFrame) { g.frame = frame }
func (g *fakeGrid) TurnOff()              { g.off = true }

type fakeModes struct {
	opened bool
	column int
	row    int
}

func (m *fakeModes) EditNote(channel, column, row int) {
	m.opened, m.column, m.row = true, column, row
}

type engineFixture struct {
	engine   *Engine
	clip     *MemoryClip
	buttons  *ButtonTracker
	accent   *AccentSettings
	notifier *fakeNotifier
	modes    *fakeModes
}

const testChannel = 9

// newFixture builds an engine on the non-inverted 8x8 layout with drum
// offset 36 and 1/16 resolution
func newFixture(t *testing.T, mutate func(*EngineConfig)) *engineFixture {
	t.Helper()
	cfg := DefaultEngineConfig()
	cfg.Layout = FireLayout
	cfg.Channel = testChannel
	if mutate != nil {
		mutate(&cfg)
	}
	f := &engineFixture{
		clip:     NewMemoryClip(64, FireLayout.PageWidth(), 0.25),
		buttons:  NewButtonTracker(time.Hour),
		accent:   NewAccentSettings(false, DefaultAccentValue),
		notifier: &fakeNotifier{},
		modes:    &fakeModes{},
	}
	f.engine = NewEngine(cfg, EngineDeps{
		Clip:     f.clip,
		Buttons:  f.buttons,
		Scales:   &fakeScales{offset: 36},
		Accent:   f.accent,
		Notifier: f.notifier,
		Modes:    f.modes,
	})
	return f
}

func (f *engineFixture) press(pad, velocity int) (StepEdit, bool) {
	return f.engine.HandleEvent(PhysicalEvent{Pad: pad, Velocity: velocity, Kind: Press})
}

// hold puts a pad down and flags it long-pressed
func (f *engineFixture) hold(pad int) {
	f.buttons.Press(PadButton(pad), time.Now())
	f.buttons.MarkLongPressed(PadButton(pad))
}

func TestPadZeroToggles(t *testing.T) {
	f := newFixture(t, nil)

	edit, ok := f.press(0, 100)
	if !ok || edit.Kind != EditToggle || edit.Column != 0 || edit.Row != 36 {
		t.Fatalf("first press: %+v ok=%v", edit, ok)
	}
	got := f.clip.GetStep(testChannel, 0, 36)
	if got.State != StateNoteStart || got.Velocity != 100 {
		t.Fatalf("after first press: %+v", got)
	}

	if _, ok := f.press(0, 100); !ok {
		t.Fatal("second press ignored")
	}
	if got := f.clip.GetStep(testChannel, 0, 36); got.State != StateOff {
		t.Fatalf("after second press: %+v", got)
	}
}

func TestZeroVelocityPressIgnored(t *testing.T) {
	f := newFixture(t, nil)
	if _, ok := f.press(0, 0); ok {
		t.Fatal("velocity 0 press produced an edit")
	}
	if _, ok := f.engine.HandleEvent(PhysicalEvent{Pad: 0, Kind: Release}); ok {
		t.Fatal("release produced an edit")
	}
	if n := len(f.clip.Notes()); n != 0 {
		t.Fatalf("clip has %d notes", n)
	}
}

func TestExtendUpdatesExistingNote(t *testing.T) {
	f := newFixture(t, nil)
	f.clip.SetStep(testChannel, 2, 36, 100, 0.25)

	f.hold(2)
	edit, ok := f.press(5, 100)
	if !ok || edit.Kind != EditUpdateDuration {
		t.Fatalf("extend: %+v ok=%v", edit, ok)
	}
	if edit.Column != 2 || edit.Duration != 4*0.25 {
		t.Fatalf("extend: column %d duration %v", edit.Column, edit.Duration)
	}

	start := f.clip.GetStep(testChannel, 2, 36)
	if start.State != StateNoteStart || start.Duration != 1.0 || start.Velocity != 100 {
		t.Fatalf("start cell: %+v", start)
	}
	if got := f.clip.GetStep(testChannel, 5, 36).State; got != StateNoteContinue {
		t.Fatalf("column 5 is %s, want continue", got)
	}
	if n := len(f.clip.Notes()); n != 1 {
		t.Fatalf("extend created a note: %d notes", n)
	}

	// the long press is used up
	if f.buttons.IsLongPressed(PadButton(2)) {
		t.Error("held pad still long-pressed after extend")
	}
	if !f.buttons.Release(PadButton(2)) {
		t.Error("held pad not consumed")
	}
}

func TestExtendCreatesNote(t *testing.T) {
	f := newFixture(t, nil)
	f.hold(1)

	edit, ok := f.press(3, 64)
	if !ok || edit.Kind != EditSet {
		t.Fatalf("extend: %+v ok=%v", edit, ok)
	}
	got := f.clip.GetStep(testChannel, 1, 36)
	if got.State != StateNoteStart || got.Velocity != 64 || got.Duration != 0.75 {
		t.Fatalf("created note: %+v", got)
	}
	if f.clip.GetStep(testChannel, 3, 36).State != StateNoteContinue {
		t.Error("target column not covered")
	}
}

func TestExtendIgnoresOtherRows(t *testing.T) {
	f := newFixture(t, nil)
	f.hold(8 + 1) // lane 1, column 1

	edit, ok := f.press(4, 100)
	if !ok || edit.Kind != EditToggle {
		t.Fatalf("expected a plain toggle, got %+v ok=%v", edit, ok)
	}
	if !f.buttons.IsLongPressed(PadButton(9)) {
		t.Error("long press on another row was consumed")
	}
}

func TestExtendLowestColumnWins(t *testing.T) {
	f := newFixture(t, nil)
	f.hold(1)
	f.hold(3)

	edit, _ := f.press(6, 100)
	if edit.Column != 1 || edit.Duration != 6*0.25 {
		t.Fatalf("got column %d duration %v", edit.Column, edit.Duration)
	}
	if !f.buttons.IsLongPressed(PadButton(3)) {
		t.Error("second held pad consumed too")
	}
}

func TestDuplicateRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	f.clip.SetStep(testChannel, 1, 37, 100, 0.5)
	f.buttons.Press(ButtonDuplicate, time.Now())

	edit, ok := f.press(8+1, 30) // lane 1, column 1
	if !ok || edit.Kind != EditCapture {
		t.Fatalf("capture: %+v ok=%v", edit, ok)
	}
	buf, ok := f.engine.CopyBuffer()
	if !ok || buf.Velocity != 100 || buf.Duration != 0.5 {
		t.Fatalf("copy buffer: %+v ok=%v", buf, ok)
	}

	edit, ok = f.press(8+6, 30)
	if !ok || edit.Kind != EditPaste {
		t.Fatalf("paste: %+v ok=%v", edit, ok)
	}
	got := f.clip.GetStep(testChannel, 6, 37)
	if got.State != StateNoteStart || got.Velocity != 100 || got.Duration != 0.5 {
		t.Fatalf("pasted: %+v", got)
	}
	if orig := f.clip.GetStep(testChannel, 1, 37); orig.Velocity != 100 || orig.Duration != 0.5 {
		t.Fatalf("original changed: %+v", orig)
	}
	if !f.buttons.Release(ButtonDuplicate) {
		t.Error("duplicate button not consumed")
	}
}

func TestDuplicateEmptyBuffer(t *testing.T) {
	f := newFixture(t, nil)
	f.buttons.Press(ButtonDuplicate, time.Now())

	if edit, ok := f.press(0, 100); ok {
		t.Fatalf("empty cell with empty buffer produced %+v", edit)
	}
	if n := len(f.clip.Notes()); n != 0 {
		t.Fatal("duplicate fell through to toggle")
	}
}

func TestAccentOverride(t *testing.T) {
	tests := []struct {
		name   string
		active bool
		value  int
		input  int
		want   int
	}{
		{"off", false, 127, 40, 40},
		{"on", true, 110, 40, 110},
		{"on max", true, 127, 1, 127},
	}
	for _, tt := range tests {
		f := newFixture(t, nil)
		f.accent.SetActive(tt.active)
		f.accent.SetValue(tt.value)

		f.press(0, tt.input)
		if got := f.clip.GetStep(testChannel, 0, 36).Velocity; got != tt.want {
			t.Errorf("%s: toggle velocity %d, want %d", tt.name, got, tt.want)
		}

		f.hold(2)
		f.press(4, tt.input)
		if got := f.clip.GetStep(testChannel, 2, 36).Velocity; got != tt.want {
			t.Errorf("%s: extend velocity %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestNoClipNotifies(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.SetClip(nil)

	if _, ok := f.press(0, 100); ok {
		t.Fatal("edit without a clip")
	}
	if f.notifier.last() != "Please select a clip." {
		t.Fatalf("notification %q", f.notifier.last())
	}
}

func TestInactiveEngine(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.SetActive(false)

	if _, ok := f.press(0, 100); ok {
		t.Fatal("inactive engine edited the clip")
	}
	g := &fakeGrid{}
	f.engine.DrawGrid(g)
	if !g.off || g.frame != nil {
		t.Fatal("inactive engine lit the grid")
	}

	f.engine.SetActive(true)
	f.engine.DrawGrid(g)
	if len(g.frame) != FireLayout.Pads() {
		t.Fatalf("frame has %d pads", len(g.frame))
	}
}

func TestLowerScene(t *testing.T) {
	f := newFixture(t, nil)

	f.engine.OnLowerScene(2)
	if got := f.engine.Paging().SoundOffset; got != 8 {
		t.Fatalf("offset %d, want 8", got)
	}
	if f.notifier.last() != "Offset: 8" {
		t.Errorf("notification %q", f.notifier.last())
	}
	if !f.engine.LowerSceneSelected(2) || f.engine.LowerSceneSelected(0) {
		t.Error("scene selection not reported")
	}

	// pad 0 now addresses lane 8
	f.press(0, 100)
	if !f.clip.GetStep(testChannel, 0, 36+8).IsSet() {
		t.Error("offset not applied to the row")
	}

	f.engine.OnLowerScene(4)
	f.engine.OnLowerScene(-1)
	if got := f.engine.Paging().SoundOffset; got != 8 {
		t.Errorf("out of range scene changed offset to %d", got)
	}
}

func TestPagingClamp(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.scales = &fakeScales{offset: 120}

	// 127 - 3 lanes - 120 leaves room for a base of 4
	f.engine.OnLowerScene(3)
	if got := f.engine.Paging().SoundOffset; got != 4 {
		t.Fatalf("offset %d, want 4", got)
	}
	f.engine.SelectPad(10)
	if got := f.engine.Paging().SelectedPad; got != 0 {
		t.Fatalf("selected pad %d, want 0", got)
	}

	checkRowsValid(t, f)
}

func TestPagingClampAfterOffsetChange(t *testing.T) {
	f := newFixture(t, nil)
	scales := &fakeScales{offset: 36}
	f.engine.scales = scales

	f.engine.OnLowerScene(3)
	f.engine.SelectPad(20)
	if p := f.engine.Paging(); p.SoundOffset != 12 || p.SelectedPad != 20 {
		t.Fatalf("paging %+v", p)
	}

	scales.offset = 116
	p := f.engine.Paging()
	if p.SelectedPad != 8 || p.SoundOffset != 0 {
		t.Fatalf("paging after offset change: %+v", p)
	}
	if !f.engine.LowerSceneSelected(0) {
		t.Error("scene 0 not shown as selected")
	}
	checkRowsValid(t, f)
}

// checkRowsValid presses every pad and checks no note lands above MaxNote
func checkRowsValid(t *testing.T, f *engineFixture) {
	t.Helper()
	for pad := 0; pad < FireLayout.Pads(); pad++ {
		f.press(pad, 100)
	}
	for _, n := range f.clip.Notes() {
		if n.Row > MaxNote {
			t.Fatalf("row %d stored", n.Row)
		}
	}
}

func TestLongPressOpensNoteEditor(t *testing.T) {
	f := newFixture(t, func(c *EngineConfig) { c.NoteEditor = true })

	// empty cell: the long press stays available for extend
	f.hold(3)
	if _, ok := f.engine.HandleEvent(PhysicalEvent{Pad: 3, Kind: LongPress}); ok {
		t.Fatal("long press on an empty cell opened the editor")
	}
	if !f.buttons.IsLongPressed(PadButton(3)) {
		t.Fatal("long press consumed on an empty cell")
	}
	f.buttons.Release(PadButton(3))

	f.press(2, 100)
	f.hold(2)
	edit, ok := f.engine.HandleEvent(PhysicalEvent{Pad: 2, Kind: LongPress})
	if !ok || edit.Kind != EditNote {
		t.Fatalf("long press: %+v ok=%v", edit, ok)
	}
	if !f.modes.opened || f.modes.column != 2 || f.modes.row != 36 {
		t.Fatalf("editor: %+v", f.modes)
	}
	if f.buttons.IsLongPressed(PadButton(2)) {
		t.Error("pad still long-pressed after opening the editor")
	}
}

func TestLongPressWithoutEditor(t *testing.T) {
	f := newFixture(t, nil)
	f.press(2, 100)
	f.hold(2)
	if _, ok := f.engine.HandleEvent(PhysicalEvent{Pad: 2, Kind: LongPress}); ok {
		t.Fatal("editor opened while disabled")
	}
	if f.modes.opened {
		t.Fatal("mode selector called")
	}
}

func TestResolutionChange(t *testing.T) {
	f := newFixture(t, nil)

	f.engine.ChangeResolution(-2)
	if got := f.engine.Resolution().Name; got != "1/8" {
		t.Fatalf("resolution %s", got)
	}
	if f.clip.StepLength() != 0.5 {
		t.Errorf("clip step length %v", f.clip.StepLength())
	}
	if f.notifier.last() != "Resolution: 1/8" {
		t.Errorf("notification %q", f.notifier.last())
	}

	f.press(0, 100)
	if d := f.clip.GetStep(testChannel, 0, 36).Duration; d != 0.5 {
		t.Errorf("toggle duration %v, want one step", d)
	}

	// beat 1 sits on column 2 at 1/8 and on column 4 at 1/16
	f.press(2, 100)
	f.engine.ChangeResolution(2)
	if got := f.clip.GetStep(testChannel, 4, 36).State; got != StateNoteStart {
		t.Errorf("column 4 at 1/16 is %s", got)
	}
	if got := f.clip.GetStep(testChannel, 2, 36).State; got != StateOff {
		t.Errorf("column 2 at 1/16 is %s", got)
	}
	for _, n := range f.clip.Notes() {
		if n.Start != 0 && n.Start != 1 {
			t.Errorf("note moved to beat %v", n.Start)
		}
	}

	f.engine.ChangeResolution(-10)
	if f.engine.ResolutionIndex() != 0 {
		t.Errorf("index %d not clamped", f.engine.ResolutionIndex())
	}
}

func TestUpdateNoteMapping(t *testing.T) {
	f := newFixture(t, nil)
	var table []int
	f.engine.UpdateNoteMapping(keyTableFunc(func(tbl []int) { table = tbl }))
	if len(table) != FireLayout.Pads() {
		t.Fatalf("table has %d entries", len(table))
	}
	for i, v := range table {
		if v != -1 {
			t.Fatalf("pad %d plays note %d", i, v)
		}
	}
}

type keyTableFunc func([]int)

func (f keyTableFunc) SetKeyTranslationTable(table []int) { f(table) }
