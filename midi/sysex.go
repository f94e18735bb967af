package midi

import (
	"fmt"

	"go-stepgrid/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// SysEx message types of the display protocol
const (
	MsgPing  byte = 0x00
	MsgPong  byte = 0x01
	MsgText  byte = 0x10
	MsgColor byte = 0x11
)

// ManufacturerAkai is the default manufacturer byte of the display protocol
const ManufacturerAkai byte = 0x47

const (
	sysexStart byte = 0xF0
	sysexEnd   byte = 0xF7
	headerLen       = 4
)

// Framer builds and validates SysEx frames of the form
// F0 <manufacturer> 00 <device> <type> <payload...> F7
type Framer struct {
	Manufacturer byte
	DeviceID     byte
}

func (f Framer) header() []byte {
	return []byte{sysexStart, f.Manufacturer & 0x7F, 0x00, f.DeviceID & 0x7F}
}

// Message frames a payload with the given type
func (f Framer) Message(msgType byte, payload []byte) []byte {
	out := make([]byte, 0, headerLen+len(payload)+2)
	out = append(out, f.header()...)
	out = append(out, msgType&0x7F)
	out = append(out, payload...)
	return append(out, sysexEnd)
}

func (f Framer) Ping() []byte {
	return f.Message(MsgPing, nil)
}

func (f Framer) Pong() []byte {
	return f.Message(MsgPong, nil)
}

// Text frames a display text for itemID. Bytes above 0x7F are replaced
// with '?'; text longer than 14 bits allows is truncated.
func (f Framer) Text(itemID int, text string) []byte {
	raw := []byte(text)
	if len(raw) > 0x3FFF {
		raw = raw[:0x3FFF]
	}
	payload := make([]byte, 0, 4+len(raw))
	payload = append(payload, put14(itemID)...)
	payload = append(payload, put14(len(raw))...)
	for _, b := range raw {
		if b > 0x7F {
			b = '?'
		}
		payload = append(payload, b)
	}
	return f.Message(MsgText, payload)
}

// Color frames an item color; channels are scaled from 0-255 to 0-127
func (f Framer) Color(itemID int, rgb [3]uint8) []byte {
	payload := put14(itemID)
	for _, c := range rgb {
		payload = append(payload, c>>1)
	}
	return f.Message(MsgColor, payload)
}

// Content returns everything between the header and the terminator, type
// byte included. Frames with a foreign header or missing terminator yield nil.
func (f Framer) Content(frame []byte) []byte {
	if len(frame) <= headerLen+1 || frame[len(frame)-1] != sysexEnd {
		return nil
	}
	for i, b := range f.header() {
		if frame[i] != b {
			return nil
		}
	}
	content := make([]byte, len(frame)-headerLen-1)
	copy(content, frame[headerLen:])
	return content
}

// Parse splits a frame into its type and payload
func (f Framer) Parse(frame []byte) (msgType byte, payload []byte, ok bool) {
	content := f.Content(frame)
	if len(content) == 0 {
		return 0, nil, false
	}
	return content[0], content[1:], true
}

// IsPong reports whether frame is this device's pong
func (f Framer) IsPong(frame []byte) bool {
	t, payload, ok := f.Parse(frame)
	return ok && t == MsgPong && len(payload) == 0
}

// DecodeText reads a text payload
func DecodeText(payload []byte) (itemID int, text string, ok bool) {
	if len(payload) < 4 {
		return 0, "", false
	}
	itemID = get14(payload[0], payload[1])
	n := get14(payload[2], payload[3])
	if len(payload)-4 != n {
		return 0, "", false
	}
	return itemID, string(payload[4:]), true
}

// DecodeColor reads a color payload and scales it back to 0-255
func DecodeColor(payload []byte) (itemID int, rgb [3]uint8, ok bool) {
	if len(payload) != 5 {
		return 0, rgb, false
	}
	itemID = get14(payload[0], payload[1])
	for i := range rgb {
		rgb[i] = payload[2+i] << 1
	}
	return itemID, rgb, true
}

func put14(v int) []byte {
	return []byte{byte(v>>7) & 0x7F, byte(v) & 0x7F}
}

func get14(msb, lsb byte) int {
	return int(msb&0x7F)<<7 | int(lsb&0x7F)
}

// Display shows notifications on a SysEx text display
type Display struct {
	framer Framer
	item   int
	send   func(msg gomidi.Message) error
}

// OpenDisplay opens the output port whose name contains name
func OpenDisplay(name string, framer Framer, item int) (*Display, error) {
	port, err := gomidi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("display port %q: %w", name, err)
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open display: %w", err)
	}
	return NewDisplay(framer, item, send), nil
}

func NewDisplay(framer Framer, item int, send func(msg gomidi.Message) error) *Display {
	return &Display{framer: framer, item: item, send: send}
}

// Notify writes msg to the display's text item
func (d *Display) Notify(msg string) {
	if err := d.send(gomidi.Message(d.framer.Text(d.item, msg))); err != nil {
		debug.Log("display", "send failed: %v", err)
	}
}

// SetColor sets an item color on the display
func (d *Display) SetColor(item int, rgb [3]uint8) error {
	return d.send(gomidi.Message(d.framer.Color(item, rgb)))
}

// Ping asks the device to answer with a pong
func (d *Display) Ping() error {
	return d.send(gomidi.Message(d.framer.Ping()))
}
