package midi

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go-stepgrid/debug"

	"github.com/lucasb-eyer/go-colorful"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var ledSendCount uint64

// LaunchpadController handles a Novation Launchpad X
type LaunchpadController struct {
	id       string
	outPort  drivers.Out
	inPort   drivers.In
	send     func(msg gomidi.Message) error
	stopFunc func()

	padChan  chan PadEvent
	noteChan chan NoteEvent

	tableMu  sync.RWMutex
	keyTable []int
}

// NewLaunchpadController creates and configures a Launchpad
func NewLaunchpadController(id string, inPort drivers.In, outPort drivers.Out) (*LaunchpadController, error) {
	lp := &LaunchpadController{
		id:       id,
		inPort:   inPort,
		outPort:  outPort,
		padChan:  make(chan PadEvent, 32),
		noteChan: make(chan NoteEvent, 32),
	}

	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		lp.send = send

		// Programmer mode: F0 00 20 29 02 0C 00 7F F7
		lp.send(gomidi.SysEx([]byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F}))
		// Maximum brightness: F0 00 20 29 02 0C 08 <brightness> F7
		lp.send(gomidi.SysEx([]byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x08, 0x7F}))
		// The host drives every LED: F0 00 20 29 02 0C 0A 01 01 F7
		lp.send(gomidi.SysEx([]byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x0A, 0x01, 0x01}))
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, lp.handleMessage)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		lp.stopFunc = stop
	}

	return lp, nil
}

func (lp *LaunchpadController) handleMessage(msg gomidi.Message, timestampms int32) {
	var channel, note, velocity uint8
	var cc, value uint8

	switch {
	case msg.GetNoteStart(&channel, &note, &velocity):
		if row, col := noteToRowCol(note); row >= 0 {
			lp.emitPad(PadEvent{Row: row, Col: col, Velocity: velocity, Pressed: true})
		}
	case msg.GetNoteEnd(&channel, &note):
		// NoteOff, or NoteOn with velocity 0
		if row, col := noteToRowCol(note); row >= 0 {
			lp.emitPad(PadEvent{Row: row, Col: col})
		}
	case msg.GetControlChange(&channel, &cc, &value):
		// Top row buttons CC 91-98
		if row, col := ccToRowCol(cc); row >= 0 {
			lp.emitPad(PadEvent{Row: row, Col: col, Velocity: value, Pressed: value > 0})
		}
	}
}

func (lp *LaunchpadController) emitPad(ev PadEvent) {
	select {
	case lp.padChan <- ev:
	default:
		debug.Log("launchpad", "pad event dropped: row=%d col=%d", ev.Row, ev.Col)
	}

	if !ev.IsGrid() {
		return
	}
	lp.tableMu.RLock()
	raw := int(rowColToNote(ev.Row, ev.Col))
	key := -1
	if raw < len(lp.keyTable) {
		key = lp.keyTable[raw]
	}
	lp.tableMu.RUnlock()
	if key < 0 || key > 127 {
		return
	}
	select {
	case lp.noteChan <- NoteEvent{Note: uint8(key), Velocity: ev.Velocity}:
	default:
	}
}

func (lp *LaunchpadController) ID() string {
	return lp.id
}

func (lp *LaunchpadController) Type() ControllerType {
	return ControllerLaunchpad
}

func (lp *LaunchpadController) PadEvents() <-chan PadEvent {
	return lp.padChan
}

func (lp *LaunchpadController) NoteEvents() <-chan NoteEvent {
	return lp.noteChan
}

func (lp *LaunchpadController) SetKeyTranslationTable(table []int) {
	lp.tableMu.Lock()
	lp.keyTable = append([]int(nil), table...)
	lp.tableMu.Unlock()
	debug.Log("launchpad", "key table updated (%d pads)", len(table))
}

func (lp *LaunchpadController) SetLEDRGB(row, col int, rgb [3]uint8, channel uint8) error {
	if lp.send == nil {
		return nil
	}
	atomic.AddUint64(&ledSendCount, 1)
	return lp.send(gomidi.NoteOn(channel, rowColToNote(row, col), MapRGBToPalette(rgb)))
}

// SetLEDBatch sends multiple LED updates as individual NoteOn messages
func (lp *LaunchpadController) SetLEDBatch(updates []LEDUpdate) error {
	if lp.send == nil || len(updates) == 0 {
		return nil
	}

	for _, u := range updates {
		if err := lp.send(gomidi.NoteOn(u.Channel, rowColToNote(u.Row, u.Col), MapRGBToPalette(u.Color))); err != nil {
			return fmt.Errorf("led %d,%d: %w", u.Row, u.Col, err)
		}
	}

	atomic.AddUint64(&ledSendCount, uint64(len(updates)))
	count := atomic.LoadUint64(&ledSendCount)
	if count%100 < uint64(len(updates)) {
		debug.Log("lp-send", "batch count=%d (this batch=%d)", count, len(updates))
	}
	return nil
}

// ClearLEDs turns off every pad and button
func (lp *LaunchpadController) ClearLEDs() error {
	var updates []LEDUpdate
	for row := 0; row <= ControlRow; row++ {
		for col := 0; col <= SceneCol; col++ {
			if row == ControlRow && col == SceneCol {
				continue // no LED at 8,8
			}
			updates = append(updates, LEDUpdate{Row: row, Col: col})
		}
	}
	return lp.SetLEDBatch(updates)
}

func (lp *LaunchpadController) Close() error {
	if lp.send != nil {
		lp.ClearLEDs()
	}
	if lp.stopFunc != nil {
		lp.stopFunc()
	}
	close(lp.padChan)
	close(lp.noteChan)
	return nil
}

type paletteEntry struct {
	velocity uint8
	color    colorful.Color
}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Launchpad X palette, approximate RGB of the commonly used entries
var launchpadPalette = []paletteEntry{
	{0, rgb(0, 0, 0)},
	{5, rgb(255, 0, 0)},
	{6, rgb(255, 80, 80)},
	{7, rgb(180, 60, 60)},
	{9, rgb(255, 100, 0)},
	{11, rgb(180, 80, 40)},
	{13, rgb(255, 200, 0)},
	{17, rgb(0, 180, 0)},
	{19, rgb(0, 100, 0)},
	{21, rgb(0, 255, 0)},
	{37, rgb(0, 200, 200)},
	{43, rgb(40, 60, 120)},
	{45, rgb(0, 100, 255)},
	{47, rgb(80, 150, 255)},
	{49, rgb(150, 0, 200)},
	{53, rgb(255, 80, 180)},
	{78, rgb(100, 100, 255)},
	{84, rgb(255, 150, 50)},
	{87, rgb(150, 255, 100)},
	{97, rgb(180, 180, 60)},
	{119, rgb(255, 255, 255)},
}

// MapRGBToPalette finds the perceptually nearest Launchpad X palette entry
func MapRGBToPalette(c [3]uint8) uint8 {
	if c == [3]uint8{} {
		return 0
	}
	target := rgb(c[0], c[1], c[2])

	best := launchpadPalette[0].velocity
	bestDist := -1.0
	for _, p := range launchpadPalette {
		d := target.DistanceLab(p.color)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = p.velocity
		}
	}
	return best
}

// Launchpad X note mapping
// 8x8 Grid:  Row 0 (bottom) = notes 11-18, Row 7 = notes 81-88
// Side col:  Col 8 (right side scene buttons) = notes 19, 29, 39, 49, 59, 69, 79, 89
// Top row:   Row 8 (top control row) = CC 91-98

// PadNote is the note a grid pad sends, with pads numbered row*8+col from
// the bottom-left
func PadNote(pad int) int {
	if pad < 0 || pad >= GridSize*GridSize {
		return -1
	}
	return int(rowColToNote(pad/GridSize, pad%GridSize))
}

func rowColToNote(row, col int) uint8 {
	// LEDs of the top row are addressed with notes 91-98
	if row == ControlRow {
		return uint8(91 + col)
	}
	return uint8((row+1)*10 + col + 1)
}

func noteToRowCol(note uint8) (row, col int) {
	if note >= 91 && note <= 98 {
		return ControlRow, int(note - 91)
	}
	row = int(note/10) - 1
	col = int(note%10) - 1
	// 8x8 grid plus side column
	if row < 0 || row > 7 || col < 0 || col > SceneCol {
		return -1, -1
	}
	return row, col
}

func ccToRowCol(cc uint8) (row, col int) {
	if cc >= 91 && cc <= 98 {
		return ControlRow, int(cc - 91)
	}
	return -1, -1
}
