package sequencer

import "sync"

// DefaultAccentValue is the velocity used while accent is active
const DefaultAccentValue = 127

// AccentSettings is an Accent backed by the user's settings
type AccentSettings struct {
	mu     sync.RWMutex
	active bool
	value  int
}

// NewAccentSettings creates accent settings with a clamped fixed value
func NewAccentSettings(active bool, value int) *AccentSettings {
	a := &AccentSettings{active: active}
	a.SetValue(value)
	return a
}

func (a *AccentSettings) AccentActive() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

func (a *AccentSettings) FixedAccentValue() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value
}

// Toggle flips accent mode and returns the new state
func (a *AccentSettings) Toggle() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = !a.active
	return a.active
}

func (a *AccentSettings) SetActive(active bool) {
	a.mu.Lock()
	a.active = active
	a.mu.Unlock()
}

// SetValue sets the fixed velocity, clamped to 1..127
func (a *AccentSettings) SetValue(v int) {
	a.mu.Lock()
	a.value = clampVelocity(v)
	a.mu.Unlock()
}

// ChangeValue nudges the fixed velocity by delta
func (a *AccentSettings) ChangeValue(delta int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.value = clampVelocity(a.value + delta)
	return a.value
}
