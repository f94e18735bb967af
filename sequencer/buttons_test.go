package sequencer

import (
	"testing"
	"time"
)

func TestButtonTrackerPoll(t *testing.T) {
	bt := NewButtonTracker(400 * time.Millisecond)
	t0 := time.Unix(1000, 0)

	bt.Press(PadButton(3), t0)
	bt.Press(PadButton(1), t0.Add(100*time.Millisecond))

	if fired := bt.Poll(t0.Add(399 * time.Millisecond)); len(fired) != 0 {
		t.Fatalf("fired early: %v", fired)
	}
	fired := bt.Poll(t0.Add(500 * time.Millisecond))
	if len(fired) != 2 || fired[0] != PadButton(1) || fired[1] != PadButton(3) {
		t.Fatalf("fired %v, want [1 3]", fired)
	}
	if again := bt.Poll(t0.Add(time.Second)); len(again) != 0 {
		t.Fatalf("fired twice: %v", again)
	}
	if !bt.IsLongPressed(PadButton(3)) {
		t.Fatal("pad 3 not long-pressed")
	}
}

func TestButtonTrackerConsume(t *testing.T) {
	bt := NewButtonTracker(0)
	if bt.threshold != DefaultLongPress {
		t.Fatalf("threshold %v", bt.threshold)
	}

	id := PadButton(7)
	bt.Press(id, time.Now())
	bt.MarkLongPressed(id)

	if !tryConsumeLongPress(bt, id) {
		t.Fatal("first consume failed")
	}
	if tryConsumeLongPress(bt, id) {
		t.Fatal("long press consumed twice")
	}
	if !bt.IsPressed(id) {
		t.Fatal("consumed button no longer pressed")
	}
	if !bt.Release(id) {
		t.Fatal("release did not report consumption")
	}
	if bt.IsPressed(id) || bt.Release(id) {
		t.Fatal("button still tracked after release")
	}
}

func TestButtonTrackerReleaseAll(t *testing.T) {
	bt := NewButtonTracker(time.Millisecond)
	bt.Press(ButtonDuplicate, time.Now())
	bt.Press(PadButton(0), time.Now())
	bt.ReleaseAll()

	if bt.IsPressed(ButtonDuplicate) || bt.IsPressed(PadButton(0)) {
		t.Fatal("buttons still pressed")
	}
	// marking an unknown button is ignored
	bt.MarkLongPressed(PadButton(0))
	bt.SetConsumed(PadButton(0))
	if bt.IsLongPressed(PadButton(0)) {
		t.Fatal("released button long-pressed")
	}
}
