package sequencer

import (
	"sort"
	"sync"
	"time"
)

// DefaultLongPress is the hold time after which a button counts as long-pressed
const DefaultLongPress = 400 * time.Millisecond

type buttonState struct {
	pressedAt time.Time
	long      bool
	consumed  bool
}

// ButtonTracker implements Buttons from raw press/release callbacks.
// Long presses are detected by Poll, which the runtime calls periodically.
type ButtonTracker struct {
	mu        sync.Mutex
	threshold time.Duration
	held      map[ButtonID]*buttonState
}

// NewButtonTracker creates a tracker; threshold <= 0 uses DefaultLongPress
func NewButtonTracker(threshold time.Duration) *ButtonTracker {
	if threshold <= 0 {
		threshold = DefaultLongPress
	}
	return &ButtonTracker{
		threshold: threshold,
		held:      make(map[ButtonID]*buttonState),
	}
}

// Press records a button going down
func (t *ButtonTracker) Press(id ButtonID, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.held[id] = &buttonState{pressedAt: now}
}

// Release records a button going up and reports whether it was consumed
// while held
func (t *ButtonTracker) Release(id ButtonID) (consumed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.held[id]
	if !ok {
		return false
	}
	delete(t.held, id)
	return b.consumed
}

// ReleaseAll lets go of every held button
func (t *ButtonTracker) ReleaseAll() {
	t.mu.Lock()
	t.held = make(map[ButtonID]*buttonState)
	t.mu.Unlock()
}

// MarkLongPressed flags a held button as long-pressed without waiting for
// the threshold
func (t *ButtonTracker) MarkLongPressed(id ButtonID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.held[id]; ok {
		b.long = true
	}
}

// Poll flags buttons held past the threshold and returns the ones that
// became long-pressed since the last call, in ascending order
func (t *ButtonTracker) Poll(now time.Time) []ButtonID {
	t.mu.Lock()
	defer t.mu.Unlock()

	var fired []ButtonID
	for id, b := range t.held {
		if !b.long && !b.consumed && now.Sub(b.pressedAt) >= t.threshold {
			b.long = true
			fired = append(fired, id)
		}
	}
	sort.Slice(fired, func(i, j int) bool { return fired[i] < fired[j] })
	return fired
}

func (t *ButtonTracker) IsPressed(id ButtonID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.held[id]
	return ok
}

func (t *ButtonTracker) IsLongPressed(id ButtonID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.held[id]
	return ok && b.long && !b.consumed
}

func (t *ButtonTracker) SetConsumed(id ButtonID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.held[id]; ok {
		b.consumed = true
	}
}
