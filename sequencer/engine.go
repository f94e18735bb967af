package sequencer

import (
	"fmt"
	"sync"

	"go-stepgrid/debug"
)

// Notifier shows a short message on the surface's display
type Notifier interface {
	Notify(msg string)
}

// ModeSelector receives mode transitions requested by a gesture
type ModeSelector interface {
	EditNote(channel, column, row int)
}

// Grid is the physical pad grid
type Grid interface {
	Light(frame GridFrame)
	TurnOff()
}

// stepLengthSetter is implemented by clips whose step size follows the
// selected resolution
type stepLengthSetter interface {
	SetStepLength(beats float64)
}

type pager interface {
	ScrollPage(delta int) bool
}

// EngineConfig parameterizes an Engine for one device family
type EngineConfig struct {
	Layout          Layout
	Channel         int  // MIDI edit channel, 0-15
	ResolutionIndex int  // index into Resolutions
	NoteEditor      bool // long press on a note opens the note editor
	Scenes          int  // lower scene buttons selecting SoundOffset
	Colors          StepColors
}

// DefaultEngineConfig is a 4-lane, 16-step view for an 8x8 grid
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Layout:          LaunchpadLayout,
		ResolutionIndex: DefaultResolutionIndex,
		Scenes:          4,
		Colors:          DefaultStepColors,
	}
}

// EngineDeps are the engine's collaborators. Only Clip and Scales are
// required for editing; the rest may be nil.
type EngineDeps struct {
	Clip       Clip
	Buttons    Buttons
	Scales     Scales
	Accent     Accent
	LaneColors LaneColors
	Notifier   Notifier
	Modes      ModeSelector
}

// Engine is the step sequencer view: it resolves pad events into clip
// edits and renders the clip back onto the grid. All methods are safe for
// concurrent use; state is guarded by a single mutex.
type Engine struct {
	mu sync.Mutex

	cfg        EngineConfig
	clip       Clip
	resolver   GestureResolver
	scales     Scales
	laneColors LaneColors
	notifier   Notifier
	modes      ModeSelector

	paging     PagingState
	copyBuffer *StepInfo
	active     bool
	resIndex   int
}

// NewEngine creates an active engine
func NewEngine(cfg EngineConfig, deps EngineDeps) *Engine {
	if !cfg.Layout.Valid() {
		cfg.Layout = LaunchpadLayout
	}
	if cfg.Scenes <= 0 {
		cfg.Scenes = 4
	}
	if cfg.Colors == (StepColors{}) {
		cfg.Colors = DefaultStepColors
	}
	e := &Engine{
		cfg:  cfg,
		clip: deps.Clip,
		resolver: GestureResolver{
			Layout:  cfg.Layout,
			Buttons: deps.Buttons,
			Accent:  deps.Accent,
		},
		scales:     deps.Scales,
		laneColors: deps.LaneColors,
		notifier:   deps.Notifier,
		modes:      deps.Modes,
		active:     true,
	}
	e.setResolution(cfg.ResolutionIndex)
	return e
}

func (e *Engine) notify(format string, args ...any) {
	if e.notifier != nil {
		e.notifier.Notify(fmt.Sprintf(format, args...))
	}
}

// currentPaging returns the paging state with the latest drum offset. The
// offset can change underneath the engine (octave switch), so the pad and
// lane group are clamped again every time.
func (e *Engine) currentPaging() PagingState {
	if e.scales != nil {
		e.paging.DrumOffset = e.scales.DrumOffset()
	}
	e.clampPaging()
	return e.paging
}

// clampPaging keeps every lane of the group on a valid row
func (e *Engine) clampPaging() {
	limit := e.maxBase()
	if e.paging.SelectedPad > limit {
		e.paging.SelectedPad = limit
	}
	if e.paging.SelectedPad+e.paging.SoundOffset > limit {
		e.paging.SoundOffset = max(0, limit-e.paging.SelectedPad)
	}
}

// Layout returns the engine's grid layout
func (e *Engine) Layout() Layout {
	return e.cfg.Layout
}

// Channel returns the MIDI edit channel
func (e *Engine) Channel() int {
	return e.cfg.Channel
}

// Paging returns a snapshot of the paging state
func (e *Engine) Paging() PagingState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPaging()
}

// CopyBuffer returns the captured step, if any
func (e *Engine) CopyBuffer() (StepInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.copyBuffer == nil {
		return StepInfo{}, false
	}
	return *e.copyBuffer, true
}

// SetClip switches the edited clip; nil leaves nothing to edit
func (e *Engine) SetClip(clip Clip) {
	e.mu.Lock()
	e.clip = clip
	e.mu.Unlock()
}

// Clip returns the edited clip
func (e *Engine) Clip() Clip {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clip
}

// SetActive shows or hides the view
func (e *Engine) SetActive(active bool) {
	e.mu.Lock()
	e.active = active
	e.mu.Unlock()
}

func (e *Engine) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// HandleEvent processes one pad event and returns the applied edit
func (e *Engine) HandleEvent(ev PhysicalEvent) (StepEdit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return StepEdit{}, false
	}
	if e.clip == nil {
		if ev.Kind == Press && ev.Velocity > 0 {
			e.notify("Please select a clip.")
		}
		return StepEdit{}, false
	}

	switch ev.Kind {
	case Release:
		return StepEdit{}, false
	case LongPress:
		return e.handleLongPress(ev)
	}
	if ev.Velocity == 0 {
		return StepEdit{}, false
	}

	addr, ok := e.resolve(ev.Pad)
	if !ok {
		return StepEdit{}, false
	}

	edit, ok := e.resolver.Resolve(GestureContext{
		Event:      ev,
		Address:    addr,
		Channel:    e.cfg.Channel,
		Resolution: ResolutionAt(e.resIndex).Beats,
		CopyBuffer: e.copyBuffer,
	}, e.clip)
	if !ok {
		return StepEdit{}, false
	}
	e.apply(edit)
	return edit, true
}

// resolve maps a pad to a cell inside the clip's addressable range
func (e *Engine) resolve(pad int) (Address, bool) {
	addr, ok := e.cfg.Layout.PhysicalToLogical(pad, e.currentPaging())
	if !ok {
		return Address{}, false
	}
	if addr.Row < 0 || addr.Row > MaxNote || addr.Column >= e.clip.NumColumns() {
		debug.Log("engine", "pad %d out of range: col=%d row=%d", pad, addr.Column, addr.Row)
		return Address{}, false
	}
	return addr, true
}

func (e *Engine) handleLongPress(ev PhysicalEvent) (StepEdit, bool) {
	if !e.cfg.NoteEditor || e.modes == nil {
		return StepEdit{}, false
	}
	addr, ok := e.resolve(ev.Pad)
	if !ok {
		return StepEdit{}, false
	}
	if e.clip.GetStep(e.cfg.Channel, addr.Column, addr.Row).State != StateNoteStart {
		return StepEdit{}, false
	}
	if e.resolver.Buttons != nil {
		e.resolver.Buttons.SetConsumed(PadButton(ev.Pad))
	}
	edit := StepEdit{Kind: EditNote, Channel: e.cfg.Channel, Column: addr.Column, Row: addr.Row}
	e.apply(edit)
	return edit, true
}

func (e *Engine) apply(edit StepEdit) {
	debug.Log("gesture", "%s ch=%d col=%d row=%d vel=%d dur=%.3f", edit.Kind, edit.Channel, edit.Column, edit.Row, edit.Velocity, edit.Duration)

	switch edit.Kind {
	case EditToggle:
		e.clip.ToggleStep(edit.Channel, edit.Column, edit.Row, edit.Velocity)
	case EditSet:
		e.clip.SetStep(edit.Channel, edit.Column, edit.Row, edit.Velocity, edit.Duration)
	case EditPaste:
		e.clip.CopyStep(edit.Channel, edit.Column, edit.Row, edit.Step)
	case EditUpdateDuration:
		e.clip.UpdateStepDuration(edit.Channel, edit.Column, edit.Row, edit.Duration)
	case EditCapture:
		step := edit.Step
		e.copyBuffer = &step
	case EditNote:
		e.modes.EditNote(edit.Channel, edit.Column, edit.Row)
	}
}

// maxBase is the highest SelectedPad+SoundOffset keeping every lane a valid row
func (e *Engine) maxBase() int {
	m := MaxNote - (e.cfg.Layout.Lanes - 1) - e.paging.DrumOffset
	if m < 0 {
		return 0
	}
	return m
}

// OnLowerScene selects the lane group shown by the grid
func (e *Engine) OnLowerScene(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= e.cfg.Scenes {
		return
	}
	e.currentPaging()
	offset := e.cfg.Layout.Lanes * index
	if limit := e.maxBase() - e.paging.SelectedPad; offset > limit {
		offset = max(0, limit)
	}
	e.paging.SoundOffset = offset
	e.notify("Offset: %d", offset)
}

// LowerSceneSelected reports whether the scene button's offset is active
func (e *Engine) LowerSceneSelected(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return index >= 0 && index < e.cfg.Scenes && e.currentPaging().SoundOffset == e.cfg.Layout.Lanes*index
}

// Scenes is the number of lower scene buttons
func (e *Engine) Scenes() int {
	return e.cfg.Scenes
}

// SelectPad chooses the first drum pad of the edited group
func (e *Engine) SelectPad(pad int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pad < 0 {
		pad = 0
	}
	e.currentPaging()
	if limit := e.maxBase() - e.paging.SoundOffset; pad > limit {
		pad = max(0, limit)
	}
	e.paging.SelectedPad = pad
}

// Resolution returns the selected step resolution
func (e *Engine) Resolution() Resolution {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ResolutionAt(e.resIndex)
}

// ResolutionIndex returns the index of the selected resolution
func (e *Engine) ResolutionIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resIndex
}

func (e *Engine) setResolution(index int) Resolution {
	if index < 0 {
		index = 0
	}
	if index >= len(Resolutions) {
		index = len(Resolutions) - 1
	}
	e.resIndex = index
	res := Resolutions[index]
	if s, ok := e.clip.(stepLengthSetter); ok {
		s.SetStepLength(res.Beats)
	}
	return res
}

// SetResolutionIndex selects a resolution from Resolutions
func (e *Engine) SetResolutionIndex(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := e.setResolution(index)
	e.notify("Resolution: %s", res.Name)
}

// ChangeResolution moves the resolution selection by delta
func (e *Engine) ChangeResolution(delta int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := e.setResolution(e.resIndex + delta)
	e.notify("Resolution: %s", res.Name)
}

// ScrollPage shows the previous or next page of the clip
func (e *Engine) ScrollPage(delta int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.clip.(pager)
	if !ok {
		return false
	}
	return p.ScrollPage(delta)
}

// UpdateNoteMapping publishes the pad note table. Step pads play no notes.
func (e *Engine) UpdateNoteMapping(t KeyTranslator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scales == nil || t == nil {
		return
	}
	t.SetKeyTranslationTable(e.scales.TranslateMatrixToGrid(EmptyMatrix(e.cfg.Layout.Pads())))
}

// Render returns the current frame
func (e *Engine) Render() GridFrame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Render(RenderInput{
		Layout:     e.cfg.Layout,
		Paging:     e.currentPaging(),
		Channel:    e.cfg.Channel,
		Clip:       e.clip,
		Active:     e.active,
		LaneColors: e.laneColors,
		Colors:     e.cfg.Colors,
	})
}

// DrawGrid lights the grid, or turns it off while the view is inactive
func (e *Engine) DrawGrid(g Grid) {
	if !e.IsActive() {
		g.TurnOff()
		return
	}
	g.Light(e.Render())
}
