package sequencer

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go-stepgrid/debug"
	"go-stepgrid/midi"
)

// LED refresh rate
const ledFPS = 30

// clock resolution of the transport and long-press polling
const clockInterval = 5 * time.Millisecond

const (
	MinTempo     = 20
	MaxTempo     = 300
	DefaultTempo = 120
)

// previewLength is how long an auditioned note sounds
const previewLength = 100 * time.Millisecond

// Launchpad top row assignments
const (
	ctrlOctaveUp = iota
	ctrlOctaveDown
	ctrlPageLeft
	ctrlPageRight
	ctrlDuplicate
	ctrlAccent
	ctrlResolutionDown
	ctrlResolutionUp
)

// Launchpad scene column assignments above the lower scenes
const (
	scenePadDown   = 4
	scenePadUp     = 5
	sceneCloseNote = 6
	scenePlay      = 7
)

// Aux button colors
var (
	colorScene         = [3]uint8{0, 100, 0}
	colorSceneSelected = [3]uint8{255, 200, 0}
	colorNav           = [3]uint8{40, 60, 120}
	colorModifier      = [3]uint8{180, 180, 60}
	colorModifierOn    = [3]uint8{255, 255, 255}
	colorAccentOn      = [3]uint8{255, 100, 0}
	colorPlay          = [3]uint8{0, 255, 0}
)

// ManagerConfig sets up a Manager
type ManagerConfig struct {
	Engine      EngineConfig
	ClipSteps   int
	Kit         string
	AccentOn    bool
	AccentValue int
	DrumOctave  int
	LongPress   time.Duration
	Tempo       int

	// PadNote is the raw note each pad sends, used for the key table
	PadNote func(pad int) int
}

// DefaultManagerConfig is a 64 step clip on a Launchpad
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Engine:      DefaultEngineConfig(),
		ClipSteps:   64,
		Kit:         DefaultKit,
		AccentValue: DefaultAccentValue,
		LongPress:   DefaultLongPress,
		Tempo:       DefaultTempo,
		PadNote:     midi.PadNote,
	}
}

// Status is a snapshot of everything the UI shows besides the grid
type Status struct {
	Active      bool
	Paging      PagingState
	Resolution  Resolution
	Page, Pages int
	Step        int
	Playing     bool
	Tempo       int
	AccentOn    bool
	AccentValue int
	Octave      int
	Kit         string
	Duplicate   bool
	Copy        *StepInfo
	Message     string
	Controller  string

	EditorOpen   bool
	EditorStep   StepInfo
	EditorColumn int
	EditorRow    int
}

// Manager runs the step sequencer: it feeds controller input to the engine,
// keeps the pad LEDs in sync and moves the playhead
type Manager struct {
	engine  *Engine
	clip    *MemoryClip
	buttons *ButtonTracker
	accent  *AccentSettings
	scales  *DrumScales
	editor  *NoteEditor
	kit     DrumKit

	controller midi.Controller
	output     *midi.Output
	display    Notifier

	mu       sync.Mutex
	message  string
	tempo    int
	playing  bool
	nextStep time.Time

	// LED rendering at fixed FPS
	ledMu     sync.Mutex
	ledDirty  bool
	prevFrame GridFrame
	prevAux   map[[2]int][3]uint8

	stopChan chan struct{}
	stopOnce sync.Once

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager creates a manager with an empty clip
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.ClipSteps <= 0 {
		cfg.ClipSteps = 64
	}
	if !cfg.Engine.Layout.Valid() {
		cfg.Engine.Layout = LaunchpadLayout
	}
	if cfg.Tempo == 0 {
		cfg.Tempo = DefaultTempo
	}

	m := &Manager{
		clip:       NewMemoryClip(cfg.ClipSteps, cfg.Engine.Layout.PageWidth(), ResolutionAt(cfg.Engine.ResolutionIndex).Beats),
		buttons:    NewButtonTracker(cfg.LongPress),
		accent:     NewAccentSettings(cfg.AccentOn, cfg.AccentValue),
		scales:     NewDrumScales(cfg.PadNote),
		kit:        GetKit(cfg.Kit),
		tempo:      clampTempo(cfg.Tempo),
		prevAux:    make(map[[2]int][3]uint8),
		stopChan:   make(chan struct{}),
		UpdateChan: make(chan struct{}, 1),
	}
	m.scales.SetDrumOctave(cfg.DrumOctave)
	m.editor = NewNoteEditor(m.clip)
	m.engine = NewEngine(cfg.Engine, EngineDeps{
		Clip:       m.clip,
		Buttons:    m.buttons,
		Scales:     m.scales,
		Accent:     m.accent,
		LaneColors: m.kit,
		Notifier:   m,
		Modes:      m.editor,
	})
	return m
}

func clampTempo(bpm int) int {
	if bpm < MinTempo {
		return MinTempo
	}
	if bpm > MaxTempo {
		return MaxTempo
	}
	return bpm
}

// Engine returns the step sequencer view
func (m *Manager) Engine() *Engine {
	return m.engine
}

// Clip returns the edited clip
func (m *Manager) Clip() *MemoryClip {
	return m.clip
}

// Editor returns the note detail editor
func (m *Manager) Editor() *NoteEditor {
	return m.editor
}

// Kit returns the active drum kit
func (m *Manager) Kit() DrumKit {
	return m.kit
}

// StartRuntime starts the LED and clock goroutines (called once at startup)
func (m *Manager) StartRuntime() {
	go m.ledLoop()
	go m.clockLoop()
}

// Stop ends the runtime goroutines
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// SetOutput sets the synth port used for note previews
func (m *Manager) SetOutput(out *midi.Output) {
	m.mu.Lock()
	m.output = out
	m.mu.Unlock()
}

// SetDisplay forwards notifications to a hardware display
func (m *Manager) SetDisplay(d Notifier) {
	m.mu.Lock()
	m.display = d
	m.mu.Unlock()
}

// SetController sets the MIDI controller for input and LED feedback
func (m *Manager) SetController(c midi.Controller) {
	debug.Log("ctrl", "SetController called, resetting diff state")

	m.mu.Lock()
	m.controller = c
	m.mu.Unlock()

	m.ledMu.Lock()
	m.prevFrame = nil
	m.prevAux = make(map[[2]int][3]uint8)
	m.ledMu.Unlock()

	if c == nil {
		return
	}
	m.engine.UpdateNoteMapping(c)
	go m.padLoop(c)
	go m.noteLoop(c)
	m.notifyUpdate()
}

// AddKeyboard auditions the notes played on a keyboard
func (m *Manager) AddKeyboard(c midi.Controller) {
	debug.Log("ctrl", "keyboard %s added", c.ID())
	go m.noteLoop(c)
}

// ControllerID returns the connected controller's id, or ""
func (m *Manager) ControllerID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.controller == nil {
		return ""
	}
	return m.controller.ID()
}

// DisconnectController drops the controller if it is the current one
func (m *Manager) DisconnectController(id string) {
	m.mu.Lock()
	if m.controller == nil || m.controller.ID() != id {
		m.mu.Unlock()
		return
	}
	m.controller = nil
	m.mu.Unlock()
	m.buttons.ReleaseAll()
	m.notifyUpdate()
}

// Notify implements Notifier
func (m *Manager) Notify(msg string) {
	debug.Log("notify", "%s", msg)
	m.mu.Lock()
	m.message = msg
	display := m.display
	m.mu.Unlock()
	if display != nil {
		display.Notify(msg)
	}
}

// Message returns the last notification
func (m *Manager) Message() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.message
}

// padLoop consumes pad events until the controller closes its channel
func (m *Manager) padLoop(c midi.Controller) {
	for evt := range c.PadEvents() {
		m.HandlePad(evt)
	}
	debug.Log("ctrl", "pad loop for %s ended", c.ID())
}

// noteLoop auditions notes played on keyboards and translated pads
func (m *Manager) noteLoop(c midi.Controller) {
	for evt := range c.NoteEvents() {
		ch := uint8(m.engine.Channel())
		if evt.Velocity == 0 {
			m.send(midi.Event{Type: midi.NoteOff, Channel: ch, Note: evt.Note})
			continue
		}
		m.send(midi.Event{Type: midi.NoteOn, Channel: ch, Note: evt.Note, Velocity: evt.Velocity})
	}
}

// HandlePad routes a controller event to the grid or the control buttons
func (m *Manager) HandlePad(evt midi.PadEvent) {
	layout := m.engine.Layout()
	switch {
	case evt.Row == midi.ControlRow:
		m.handleControl(evt.Col, evt.Pressed)
	case evt.Col == midi.SceneCol:
		if evt.Pressed {
			m.handleScene(evt.Row)
		}
	case evt.Row < layout.Height && evt.Col < layout.Width:
		pad := evt.Row*layout.Width + evt.Col
		if evt.Pressed {
			m.PressPad(pad, int(evt.Velocity))
		} else {
			m.ReleasePad(pad)
		}
	}
}

func (m *Manager) handleControl(col int, pressed bool) {
	if col == ctrlDuplicate {
		m.SetDuplicate(pressed)
		return
	}
	if !pressed {
		return
	}
	switch col {
	case ctrlOctaveUp:
		m.ChangeOctave(1)
	case ctrlOctaveDown:
		m.ChangeOctave(-1)
	case ctrlPageLeft:
		m.ScrollPage(-1)
	case ctrlPageRight:
		m.ScrollPage(1)
	case ctrlAccent:
		m.ToggleAccent()
	case ctrlResolutionDown:
		m.ChangeResolution(-1)
	case ctrlResolutionUp:
		m.ChangeResolution(1)
	}
}

// lowerSceneIndex maps a scene column row to a lower scene button, counted
// from the top of the lower group
func lowerSceneIndex(row int) int {
	return scenePadDown - 1 - row
}

func (m *Manager) handleScene(row int) {
	switch {
	case row < scenePadDown:
		m.LowerScene(lowerSceneIndex(row))
	case row == scenePadDown:
		m.ChangeSelectedPad(-1)
	case row == scenePadUp:
		m.ChangeSelectedPad(1)
	case row == sceneCloseNote:
		m.editor.Close()
		m.notifyUpdate()
	case row == scenePlay:
		m.TogglePlay()
	}
}

// PressPad sends a pad press through the engine
func (m *Manager) PressPad(pad, velocity int) {
	m.buttons.Press(PadButton(pad), time.Now())
	if edit, ok := m.engine.HandleEvent(PhysicalEvent{Pad: pad, Velocity: velocity, Kind: Press}); ok {
		m.afterEdit(edit)
	}
	m.notifyUpdate()
}

// ReleasePad sends a pad release through the engine
func (m *Manager) ReleasePad(pad int) {
	if m.buttons.Release(PadButton(pad)) {
		debug.Log("gesture", "pad %d released after being consumed", pad)
	}
	m.engine.HandleEvent(PhysicalEvent{Pad: pad, Kind: Release})
	m.notifyUpdate()
}

// HoldPad presses a pad and flags it long-pressed immediately, for inputs
// that cannot hold a key down
func (m *Manager) HoldPad(pad int) {
	m.buttons.Press(PadButton(pad), time.Now())
	m.buttons.MarkLongPressed(PadButton(pad))
	m.longPress(pad)
}

// ReleaseAll lets go of every held pad and modifier
func (m *Manager) ReleaseAll() {
	m.buttons.ReleaseAll()
	m.notifyUpdate()
}

func (m *Manager) longPress(pad int) {
	if edit, ok := m.engine.HandleEvent(PhysicalEvent{Pad: pad, Kind: LongPress}); ok {
		m.afterEdit(edit)
	}
	m.notifyUpdate()
}

// afterEdit auditions a note that was just created
func (m *Manager) afterEdit(edit StepEdit) {
	switch edit.Kind {
	case EditToggle, EditSet, EditPaste:
	default:
		return
	}
	step := m.clip.GetStep(edit.Channel, edit.Column, edit.Row)
	if step.State != StateNoteStart {
		return
	}
	m.preview(edit.Channel, edit.Row, step.Velocity)
}

func (m *Manager) preview(channel, row, velocity int) {
	note := m.kit.OutputNote(row, m.scales.DrumOffset())
	ch := uint8(channel)
	m.send(midi.Event{Type: midi.NoteOn, Channel: ch, Note: note, Velocity: uint8(velocity)})
	go func() {
		time.Sleep(previewLength)
		m.send(midi.Event{Type: midi.NoteOff, Channel: ch, Note: note})
	}()
}

func (m *Manager) send(e midi.Event) {
	m.mu.Lock()
	out := m.output
	m.mu.Unlock()
	if out == nil {
		return
	}
	if err := out.Send(e); err != nil {
		debug.Log("output", "send to %s failed: %v", out.Name(), err)
	}
}

// SetDuplicate presses or releases the duplicate modifier
func (m *Manager) SetDuplicate(held bool) {
	if held {
		m.buttons.Press(ButtonDuplicate, time.Now())
	} else {
		m.buttons.Release(ButtonDuplicate)
	}
	m.notifyUpdate()
}

// DuplicateHeld reports whether the duplicate modifier is down
func (m *Manager) DuplicateHeld() bool {
	return m.buttons.IsPressed(ButtonDuplicate)
}

// LowerScene selects a lane group
func (m *Manager) LowerScene(index int) {
	m.engine.OnLowerScene(index)
	m.notifyUpdate()
}

// ChangeSelectedPad moves the first drum pad of the edited group
func (m *Manager) ChangeSelectedPad(delta int) {
	m.engine.SelectPad(m.engine.Paging().SelectedPad + delta)
	m.Notify("Pad: " + SlotName(m.engine.Paging().SelectedPad))
	m.notifyUpdate()
}

// ChangeOctave shifts the drum octave and republishes the key table
func (m *Manager) ChangeOctave(delta int) {
	m.scales.SetDrumOctave(m.scales.DrumOctave() + delta)
	m.mu.Lock()
	c := m.controller
	m.mu.Unlock()
	if c != nil {
		m.engine.UpdateNoteMapping(c)
	}
	m.Notify(fmt.Sprintf("Octave: %+d", m.scales.DrumOctave()))
	m.notifyUpdate()
}

// ScrollPage moves the visible page
func (m *Manager) ScrollPage(delta int) {
	if m.engine.ScrollPage(delta) {
		page, pages := m.clip.Page()
		m.Notify(fmt.Sprintf("Page: %d/%d", page+1, pages))
	}
	m.notifyUpdate()
}

// ToggleAccent switches fixed accent velocity on or off
func (m *Manager) ToggleAccent() {
	if m.accent.Toggle() {
		m.Notify("Accent: on")
	} else {
		m.Notify("Accent: off")
	}
	m.notifyUpdate()
}

// ChangeAccentValue adjusts the fixed accent velocity
func (m *Manager) ChangeAccentValue(delta int) {
	v := m.accent.ChangeValue(delta)
	m.Notify(fmt.Sprintf("Accent: %d", v))
	m.notifyUpdate()
}

// ChangeResolution moves the step resolution selection
func (m *Manager) ChangeResolution(delta int) {
	m.engine.ChangeResolution(delta)
	m.resync()
	m.notifyUpdate()
}

// SetTempo sets the BPM
func (m *Manager) SetTempo(bpm int) {
	m.mu.Lock()
	m.tempo = clampTempo(bpm)
	m.mu.Unlock()
	m.notifyUpdate()
}

// Tempo returns the BPM
func (m *Manager) Tempo() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tempo
}

// Play starts the playhead from the first step
func (m *Manager) Play() {
	m.mu.Lock()
	if m.playing {
		m.mu.Unlock()
		return
	}
	m.playing = true
	m.nextStep = time.Now()
	m.mu.Unlock()
	m.clip.SetCurrentStep(-1)
	debug.Log("transport", "play at %d bpm", m.Tempo())
	m.notifyUpdate()
}

// StopPlayback stops and hides the playhead
func (m *Manager) StopPlayback() {
	m.mu.Lock()
	if !m.playing {
		m.mu.Unlock()
		return
	}
	m.playing = false
	m.mu.Unlock()
	m.clip.SetCurrentStep(-1)
	debug.Log("transport", "stop")
	m.notifyUpdate()
}

// TogglePlay starts or stops the playhead
func (m *Manager) TogglePlay() {
	if m.IsPlaying() {
		m.StopPlayback()
	} else {
		m.Play()
	}
}

func (m *Manager) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// stepDuration is the wall time of one step at the current tempo
func (m *Manager) stepDuration() time.Duration {
	m.mu.Lock()
	tempo := m.tempo
	m.mu.Unlock()
	beat := time.Minute / time.Duration(tempo)
	return time.Duration(float64(beat) * m.clip.StepLength())
}

// resync restarts step timing after a resolution change
func (m *Manager) resync() {
	m.mu.Lock()
	if m.playing {
		m.nextStep = time.Now()
	}
	m.mu.Unlock()
}

// clockLoop advances the playhead and fires long presses
func (m *Manager) clockLoop() {
	ticker := time.NewTicker(clockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case now := <-ticker.C:
			m.pollLongPress(now)
			m.tick(now)
		}
	}
}

func (m *Manager) pollLongPress(now time.Time) {
	pads := m.engine.Layout().Pads()
	for _, id := range m.buttons.Poll(now) {
		if int(id) >= 0 && int(id) < pads {
			m.longPress(int(id))
		}
	}
}

func (m *Manager) tick(now time.Time) {
	step := m.stepDuration()

	m.mu.Lock()
	if !m.playing || now.Before(m.nextStep) {
		m.mu.Unlock()
		return
	}
	m.nextStep = m.nextStep.Add(step)
	if m.nextStep.Before(now) {
		// fell behind, skip rather than burst
		m.nextStep = now.Add(step)
	}
	m.mu.Unlock()

	cur := m.clip.Advance()
	debug.LogEvery(64, "transport", "step %d", cur)
	m.notifyUpdate()
}

// Frame renders the grid as the controller shows it
func (m *Manager) Frame() GridFrame {
	return m.engine.Render()
}

// Status collects the UI state
func (m *Manager) Status() Status {
	res := m.engine.Resolution()
	page, pages := m.clip.Page()
	s := Status{
		Active:      m.engine.IsActive(),
		Paging:      m.engine.Paging(),
		Resolution:  res,
		Page:        page,
		Pages:       pages,
		Step:        m.clip.CurrentStep(),
		AccentOn:    m.accent.AccentActive(),
		AccentValue: m.accent.FixedAccentValue(),
		Octave:      m.scales.DrumOctave(),
		Kit:         m.kit.Name,
		Duplicate:   m.DuplicateHeld(),
		Controller:  m.ControllerID(),
	}
	if cp, ok := m.engine.CopyBuffer(); ok {
		s.Copy = &cp
	}
	if step, col, row, ok := m.editor.Current(); ok {
		s.EditorOpen = true
		s.EditorStep = step
		s.EditorColumn = col
		s.EditorRow = row
	}

	m.mu.Lock()
	s.Playing = m.playing
	s.Tempo = m.tempo
	s.Message = m.message
	m.mu.Unlock()
	return s
}

// notifyUpdate refreshes LEDs and notifies TUI
func (m *Manager) notifyUpdate() {
	m.markLEDsDirty()
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// markLEDsDirty flags that LEDs need refresh
func (m *Manager) markLEDsDirty() {
	m.ledMu.Lock()
	m.ledDirty = true
	m.ledMu.Unlock()
}

// ledLoop runs at fixed FPS and flushes LED updates
func (m *Manager) ledLoop() {
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.ledMu.Lock()
			dirty := m.ledDirty
			m.ledDirty = false
			m.ledMu.Unlock()

			if dirty {
				m.flushLEDs()
			}
		}
	}
}

// frameGrid collects the frame drawn by the engine
type frameGrid struct {
	pads  int
	frame GridFrame
}

func (g *frameGrid) Light(frame GridFrame) { g.frame = frame }
func (g *frameGrid) TurnOff()              { g.frame = OffFrame(g.pads) }

// flushLEDs sends only changed LEDs to the controller
func (m *Manager) flushLEDs() {
	m.mu.Lock()
	c := m.controller
	m.mu.Unlock()
	if c == nil {
		return
	}

	updates := m.pendingLEDs()
	if len(updates) == 0 {
		return
	}
	debug.Log("led", "flushLEDs: batch=%d", len(updates))
	if err := c.SetLEDBatch(updates); err != nil {
		debug.Log("led", "batch failed: %v", err)
		// resend everything next frame
		m.ledMu.Lock()
		m.prevFrame = nil
		m.prevAux = make(map[[2]int][3]uint8)
		m.ledDirty = true
		m.ledMu.Unlock()
	}
}

// pendingLEDs diffs the current frame and aux buttons against what was last
// sent
func (m *Manager) pendingLEDs() []midi.LEDUpdate {
	layout := m.engine.Layout()
	g := &frameGrid{pads: layout.Pads()}
	m.engine.DrawGrid(g)
	aux := m.auxLEDs()

	m.ledMu.Lock()
	defer m.ledMu.Unlock()

	var updates []midi.LEDUpdate
	for pad, color := range g.frame {
		if m.prevFrame != nil && pad < len(m.prevFrame) && m.prevFrame[pad] == color {
			continue
		}
		x, y := layout.Coords(pad)
		if x >= midi.GridSize || y >= midi.GridSize {
			continue
		}
		updates = append(updates, midi.LEDUpdate{Row: y, Col: x, Color: color})
	}
	for key, color := range aux {
		if prev, ok := m.prevAux[key]; ok && prev == color {
			continue
		}
		updates = append(updates, midi.LEDUpdate{Row: key[0], Col: key[1], Color: color})
	}

	m.prevFrame = g.frame
	m.prevAux = aux
	return updates
}

// auxLEDs colors the scene column and the top control row
func (m *Manager) auxLEDs() map[[2]int][3]uint8 {
	aux := make(map[[2]int][3]uint8)

	for row := 0; row < scenePadDown; row++ {
		color := colorScene
		if m.engine.LowerSceneSelected(lowerSceneIndex(row)) {
			color = colorSceneSelected
		}
		aux[[2]int{row, midi.SceneCol}] = color
	}
	aux[[2]int{scenePadDown, midi.SceneCol}] = colorNav
	aux[[2]int{scenePadUp, midi.SceneCol}] = colorNav
	aux[[2]int{sceneCloseNote, midi.SceneCol}] = [3]uint8{}
	if _, _, _, ok := m.editor.Current(); ok {
		aux[[2]int{sceneCloseNote, midi.SceneCol}] = colorModifierOn
	}
	play := colorScene
	if m.IsPlaying() {
		play = colorPlay
	}
	aux[[2]int{scenePlay, midi.SceneCol}] = play

	for col := ctrlOctaveUp; col <= ctrlPageRight; col++ {
		aux[[2]int{midi.ControlRow, col}] = colorNav
	}
	dup := colorModifier
	if m.DuplicateHeld() {
		dup = colorModifierOn
	}
	aux[[2]int{midi.ControlRow, ctrlDuplicate}] = dup
	accent := colorModifier
	if m.accent.AccentActive() {
		accent = colorAccentOn
	}
	aux[[2]int{midi.ControlRow, ctrlAccent}] = accent
	aux[[2]int{midi.ControlRow, ctrlResolutionDown}] = colorNav
	aux[[2]int{midi.ControlRow, ctrlResolutionUp}] = colorNav
	return aux
}

// SaveClip writes the clip to the clips directory
func (m *Manager) SaveClip() (string, error) {
	dir, err := ClipsDir()
	if err != nil {
		return "", err
	}
	path, err := SaveClip(dir, m.clip)
	if err != nil {
		return "", err
	}
	m.Notify("Saved " + path)
	return path, nil
}

// LoadLatestClip restores the newest saved clip, if any
func (m *Manager) LoadLatestClip() error {
	dir, err := ClipsDir()
	if err != nil {
		return err
	}
	saves, err := ListClips(dir)
	if err != nil {
		return err
	}
	if len(saves) == 0 {
		m.Notify("No saved clips")
		return nil
	}
	if err := LoadClip(filepath.Join(dir, saves[0].Filename), m.clip); err != nil {
		return err
	}
	m.engine.SetResolutionIndex(resolutionIndexFor(m.clip.StepLength()))
	m.Notify("Loaded " + saves[0].Filename)
	m.notifyUpdate()
	return nil
}

// ExportClip writes the clip as a MIDI file
func (m *Manager) ExportClip(path string) error {
	if err := ExportSMF(path, m.clip, m.Tempo(), m.kit, m.scales.DrumOffset()); err != nil {
		return err
	}
	m.Notify("Exported " + path)
	return nil
}

// resolutionIndexFor finds the resolution matching a step length
func resolutionIndexFor(beats float64) int {
	for i, r := range Resolutions {
		if r.Beats == beats {
			return i
		}
	}
	return DefaultResolutionIndex
}
