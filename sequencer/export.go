package sequencer

import (
	"fmt"
	"math"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const ticksPerBeat = 960

type timedMessage struct {
	tick uint32
	off  bool
	msg  gomidi.Message
}

// ExportSMF writes the clip as a single-track Standard MIDI File. Rows are
// translated through the kit relative to drumOffset.
func ExportSMF(path string, c *MemoryClip, tempo int, kit DrumKit, drumOffset int) error {
	snap := c.Snapshot()

	var events []timedMessage
	for _, n := range snap.Notes {
		start := uint32(math.Round(n.Start * ticksPerBeat))
		length := uint32(math.Round(n.Duration * ticksPerBeat))
		if length == 0 {
			length = 1
		}
		ch := uint8(n.Channel)
		key := kit.OutputNote(n.Row, drumOffset)
		events = append(events,
			timedMessage{tick: start, msg: gomidi.NoteOn(ch, key, uint8(n.Velocity))},
			timedMessage{tick: start + length, off: true, msg: gomidi.NoteOff(ch, key)},
		)
	}
	// note-offs first so a retrigger on the same tick is not cut short
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerBeat)

	var track smf.Track
	track.Add(0, smf.MetaMeter(4, 4))
	track.Add(0, smf.MetaTempo(float64(tempo)))

	var last uint32
	for _, ev := range events {
		track.Add(ev.tick-last, ev.msg)
		last = ev.tick
	}

	end := uint32(math.Round(float64(snap.Steps) * snap.StepLength * ticksPerBeat))
	var rest uint32
	if end > last {
		rest = end - last
	}
	track.Close(rest)

	if err := sm.Add(track); err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	if err := sm.WriteFile(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
