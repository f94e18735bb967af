package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-stepgrid/midi"
	"go-stepgrid/sequencer"
	"go-stepgrid/theme"
	"go-stepgrid/widgets"
)

// keyboardVelocity is the velocity of pads pressed from the terminal
const keyboardVelocity = 100

// velocityStep is the note editor's velocity nudge
const velocityStep = 8

// layoutBounds holds cached layout info
type layoutBounds struct {
	gridTop    int
	gridHeight int
}

type Model struct {
	Manager   *sequencer.Manager
	DeviceMgr *midi.DeviceManager
	Theme     *theme.Theme

	// ExportPath is where 'e' writes the clip as a MIDI file
	ExportPath string

	cursorX, cursorY int
	heldPad          int // pad held with 'l', -1 when none
	showHelp         bool
	quitting         bool
	tooltip          string
	bounds           *layoutBounds
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(manager *sequencer.Manager, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	return Model{
		Manager:    manager,
		DeviceMgr:  deviceMgr,
		Theme:      th,
		ExportPath: "stepgrid.mid",
		heldPad:    -1,
		bounds:     &layoutBounds{},
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Manager)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) layout() sequencer.Layout {
	return m.Manager.Engine().Layout()
}

func (m Model) cursorPad() int {
	return m.cursorY*m.layout().Width + m.cursorX
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Manager.Status().EditorOpen && m.handleEditorKey(msg.String()) {
			return m, nil
		}
		return m.handleKey(msg.String())

	case tea.MouseMsg:
		m.tooltip = m.hitTest(msg.X, msg.Y)
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if pad, ok := m.padAt(msg.X, msg.Y); ok {
				m.cursorX, m.cursorY = m.layout().Coords(pad)
				m.tap(pad)
			}
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			if event.Controller.Type() == midi.ControllerKeyboard {
				m.Manager.AddKeyboard(event.Controller)
			} else {
				m.Manager.SetController(event.Controller)
			}
		case midi.DeviceDisconnected:
			m.Manager.DisconnectController(event.ID)
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	layout := m.layout()

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		m.Manager.Stop()
		return m, tea.Quit

	case "up":
		m.cursorY = min(m.cursorY+1, layout.Height-1)
	case "down":
		m.cursorY = max(m.cursorY-1, 0)
	case "left":
		m.cursorX = max(m.cursorX-1, 0)
	case "right":
		m.cursorX = min(m.cursorX+1, layout.Width-1)

	case " ", "enter":
		m.tap(m.cursorPad())

	case "l":
		if m.heldPad >= 0 {
			m.Manager.ReleasePad(m.heldPad)
			m.heldPad = -1
		} else {
			m.heldPad = m.cursorPad()
			m.Manager.HoldPad(m.heldPad)
		}

	case "d":
		m.Manager.SetDuplicate(!m.Manager.DuplicateHeld())

	case "1", "2", "3", "4":
		m.Manager.LowerScene(int(key[0] - '1'))

	case "a":
		m.Manager.ToggleAccent()
	case "{":
		m.Manager.ChangeAccentValue(-velocityStep)
	case "}":
		m.Manager.ChangeAccentValue(velocityStep)

	case "[":
		m.Manager.ChangeResolution(-1)
	case "]":
		m.Manager.ChangeResolution(1)

	case "<", ",":
		m.Manager.ScrollPage(-1)
	case ">", ".":
		m.Manager.ScrollPage(1)

	case "o":
		m.Manager.ChangeOctave(1)
	case "O":
		m.Manager.ChangeOctave(-1)

	case "n":
		m.Manager.ChangeSelectedPad(1)
	case "N":
		m.Manager.ChangeSelectedPad(-1)

	case "p":
		m.Manager.TogglePlay()
	case "+", "=":
		m.Manager.SetTempo(m.Manager.Tempo() + 5)
	case "-", "_":
		m.Manager.SetTempo(m.Manager.Tempo() - 5)

	case "w":
		if _, err := m.Manager.SaveClip(); err != nil {
			m.Manager.Notify("Save failed: " + err.Error())
		}
	case "r":
		if err := m.Manager.LoadLatestClip(); err != nil {
			m.Manager.Notify("Load failed: " + err.Error())
		}
	case "e":
		if err := m.Manager.ExportClip(m.ExportPath); err != nil {
			m.Manager.Notify("Export failed: " + err.Error())
		}

	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// handleEditorKey handles the note editor keys and reports whether the key
// was used
func (m Model) handleEditorKey(key string) bool {
	editor := m.Manager.Editor()
	step := m.Manager.Engine().Resolution().Beats
	switch key {
	case "v":
		editor.ChangeVelocity(velocityStep)
	case "V":
		editor.ChangeVelocity(-velocityStep)
	case "u":
		editor.ChangeDuration(step, step)
	case "U":
		editor.ChangeDuration(-step, step)
	case "esc":
		editor.Close()
	default:
		return false
	}
	return true
}

// tap presses and releases a pad. A pad held with 'l' is let go afterwards,
// like lifting both fingers.
func (m *Model) tap(pad int) {
	m.Manager.PressPad(pad, keyboardVelocity)
	m.Manager.ReleasePad(pad)
	if m.heldPad >= 0 && m.heldPad != pad {
		m.Manager.ReleasePad(m.heldPad)
		m.heldPad = -1
	}
}

// padAt maps a terminal position to a grid pad
func (m Model) padAt(x, y int) (int, bool) {
	layout := m.layout()
	if y < m.bounds.gridTop || y >= m.bounds.gridTop+m.bounds.gridHeight {
		return 0, false
	}
	col := x / 2
	row := layout.Height - 1 - (y - m.bounds.gridTop)
	if col < 0 || col >= layout.Width || row < 0 || row >= layout.Height {
		return 0, false
	}
	return row*layout.Width + col, true
}

func (m Model) hitTest(x, y int) string {
	pad, ok := m.padAt(x, y)
	if !ok {
		return ""
	}
	st := m.Manager.Status()
	addr, ok := m.layout().PhysicalToLogical(pad, st.Paging)
	if !ok {
		return ""
	}
	step := m.Manager.Clip().GetStep(m.Manager.Engine().Channel(), addr.Column, addr.Row)
	return fmt.Sprintf("%s  step %d  note %d  %s", sequencer.SlotName(st.Paging.SelectedPad+addr.Lane), addr.Column+1, addr.Row, step.State)
}

// cells builds the terminal grid from the rendered frame
func (m Model) cells(st sequencer.Status) []widgets.Cell {
	layout := m.layout()
	frame := m.Manager.Frame()
	clip := m.Manager.Clip()
	ch := m.Manager.Engine().Channel()
	playhead := sequencer.PlayheadColumn(clip, layout.PageWidth())
	sym := m.Theme.Symbols
	cursor := m.cursorPad()

	cells := make([]widgets.Cell, len(frame))
	for pad, color := range frame {
		c := widgets.Cell{Color: [3]uint8(color), Symbol: sym.StepEmpty}
		addr, ok := layout.PhysicalToLogical(pad, st.Paging)
		if ok && st.Active {
			state := clip.GetStep(ch, addr.Column, addr.Row).State
			onPlayhead := addr.Column == playhead
			switch {
			case pad == cursor && state != sequencer.StateOff:
				c.Symbol = sym.CursorActive
			case pad == cursor && onPlayhead:
				c.Symbol = sym.CursorPlayhead
			case pad == cursor:
				c.Symbol = sym.CursorEmpty
			case state == sequencer.StateNoteStart:
				c.Symbol = sym.StepStart
			case state == sequencer.StateNoteContinue:
				c.Symbol = sym.StepContinue
			case onPlayhead:
				c.Symbol = sym.StepPlayhead
			}
		}
		cells[pad] = c
	}
	return cells
}

// sceneCells draws the lower scene buttons in the scene column
func (m Model) sceneCells() []widgets.Cell {
	engine := m.Manager.Engine()
	scenes := make([]widgets.Cell, engine.Scenes())
	for i := range scenes {
		// scene 0 sits at the top of the column
		row := len(scenes) - 1 - i
		if engine.LowerSceneSelected(i) {
			scenes[row] = widgets.Cell{Color: [3]uint8(m.Theme.RGB(theme.RoleSuccess)), Symbol: m.Theme.Symbols.SceneOn}
		} else {
			scenes[row] = widgets.Cell{Color: [3]uint8(m.Theme.RGB(theme.RoleMuted)), Symbol: m.Theme.Symbols.SceneOff}
		}
	}
	return scenes
}

func (m Model) statusLine(st sequencer.Status) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("res %s", st.Resolution.Name))
	parts = append(parts, fmt.Sprintf("page %d/%d", st.Page+1, st.Pages))
	parts = append(parts, fmt.Sprintf("offset %d", st.Paging.SoundOffset))
	parts = append(parts, fmt.Sprintf("pad %s", sequencer.SlotName(st.Paging.SelectedPad)))
	parts = append(parts, fmt.Sprintf("oct %+d", st.Octave))
	if st.AccentOn {
		parts = append(parts, fmt.Sprintf("accent %d", st.AccentValue))
	}
	if st.Duplicate {
		parts = append(parts, "DUP")
	}
	if st.Copy != nil {
		parts = append(parts, fmt.Sprintf("copy v%d", st.Copy.Velocity))
	}
	if m.heldPad >= 0 {
		parts = append(parts, "HOLD")
	}
	return strings.Join(parts, "  ")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.Manager.Status()
	layout := m.layout()

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	msgStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	editorStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())
	tooltipStyle := lipgloss.NewStyle().
		Foreground(m.Theme.FG()).
		Background(m.Theme.Muted()).
		Padding(0, 1)

	playState := "STOP"
	if st.Playing {
		playState = "PLAY"
	}
	deviceStatus := ""
	if st.Controller != "" {
		deviceStatus = "  " + st.Controller
	}
	step := "--"
	if st.Step >= 0 {
		step = fmt.Sprintf("%02d", st.Step+1)
	}
	header := headerStyle.Render(fmt.Sprintf("go-stepgrid  %s  %3dbpm  step:%s  %s%s", playState, st.Tempo, step, st.Kit, deviceStatus))

	grid := widgets.RenderPadGrid(layout.Width, layout.Height, m.cells(st), m.sceneCells())

	// Compute layout bounds
	m.bounds.gridTop = 1 + lipgloss.Height(header) + 1
	m.bounds.gridHeight = layout.Height

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(grid)
	out.WriteString("\n\n")
	out.WriteString(m.statusLine(st))

	if st.EditorOpen {
		out.WriteString("\n")
		out.WriteString(editorStyle.Render(fmt.Sprintf("NOTE step %d row %d  vel %d  dur %.3g beats   v/V vel  u/U length  esc close",
			st.EditorColumn+1, st.EditorRow, st.EditorStep.Velocity, st.EditorStep.Duration)))
	}
	if st.Message != "" {
		out.WriteString("\n")
		out.WriteString(msgStyle.Render(st.Message))
	}

	out.WriteString("\n\n")
	if m.showHelp {
		out.WriteString(widgets.RenderKeyHelp(helpSections))
	} else {
		out.WriteString(dimStyle.Render("arrows:move  space:tap  l:hold  d:dup  1-4:scene  a:accent  [ ]:res  < >:page  p:play  ?:help  q:quit"))
	}

	if m.tooltip != "" {
		out.WriteString("\n")
		out.WriteString(tooltipStyle.Render(m.tooltip))
	}

	return out.String()
}

var helpSections = []widgets.KeySection{
	{Title: "Grid", Keys: []widgets.KeyBinding{
		{Key: "arrows", Desc: "move cursor"},
		{Key: "space", Desc: "tap pad (toggle step)"},
		{Key: "l", Desc: "hold pad; tap a later pad to extend"},
		{Key: "d", Desc: "latch duplicate: tap a note to copy, then a step to paste"},
	}},
	{Title: "View", Keys: []widgets.KeyBinding{
		{Key: "1-4", Desc: "lane group"},
		{Key: "n / N", Desc: "next / previous drum pad"},
		{Key: "o / O", Desc: "octave up / down"},
		{Key: "< >", Desc: "page"},
		{Key: "[ ]", Desc: "step resolution"},
	}},
	{Title: "Notes", Keys: []widgets.KeyBinding{
		{Key: "a", Desc: "accent on/off"},
		{Key: "{ }", Desc: "accent value"},
		{Key: "v / V", Desc: "velocity (note editor)"},
		{Key: "u / U", Desc: "length (note editor)"},
	}},
	{Title: "Transport & files", Keys: []widgets.KeyBinding{
		{Key: "p", Desc: "play / stop"},
		{Key: "+ / -", Desc: "tempo"},
		{Key: "w / r", Desc: "save / load latest clip"},
		{Key: "e", Desc: "export MIDI file"},
	}},
}
