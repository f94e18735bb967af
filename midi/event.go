package midi

import gomidi "gitlab.com/gomidi/midi/v2"

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Event is a channel voice message sent to the synth output
type Event struct {
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8
	Note     uint8 // note number or controller
	Velocity uint8 // velocity or controller value
}

// Message encodes the event for a gomidi sender
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	case CC:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity)
	}
	return nil
}

// Output sends events to a MIDI port
type Output struct {
	name string
	send func(msg gomidi.Message) error
}

// OpenOutput opens the first output port whose name contains name
func OpenOutput(name string) (*Output, error) {
	port, err := gomidi.FindOutPort(name)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, err
	}
	return &Output{name: port.String(), send: send}, nil
}

// NewOutput wraps an existing send function
func NewOutput(name string, send func(msg gomidi.Message) error) *Output {
	return &Output{name: name, send: send}
}

func (o *Output) Name() string {
	return o.name
}

// Send writes one event; unknown types are dropped
func (o *Output) Send(e Event) error {
	msg := e.Message()
	if msg == nil {
		return nil
	}
	return o.send(msg)
}
