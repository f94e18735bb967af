package sequencer

// DrumKit maps 16 drum pad slots to output MIDI notes and pad colors
type DrumKit struct {
	Name  string
	Notes [16]uint8
}

// Slot names, shared by all kits
var SlotNames = [16]string{
	"Kick", "Snare", "Closed HH", "Open HH",
	"Low Tom", "Mid Tom", "High Tom", "Crash",
	"Ride", "Clap", "Rimshot", "Cowbell",
	"Clave", "Maracas", "Low Conga", "High Conga",
}

// slotColors groups slots by family: kicks red, snares orange, hats yellow,
// toms green, cymbals cyan, hand percussion purple
var slotColors = [16]Color{
	{255, 40, 40}, {255, 120, 0}, {255, 220, 0}, {200, 200, 40},
	{40, 200, 60}, {60, 230, 90}, {90, 255, 120}, {0, 200, 200},
	{0, 160, 255}, {255, 120, 0}, {255, 80, 160}, {150, 0, 200},
	{180, 60, 220}, {200, 100, 255}, {120, 40, 180}, {160, 80, 220},
}

// Kits contains all available drum kit mappings
var Kits = map[string]DrumKit{
	"gm": {
		Name:  "General MIDI",
		Notes: [16]uint8{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 64, 63},
	},
	"rd8": {
		Name:  "Behringer RD-8",
		Notes: [16]uint8{36, 40, 42, 46, 45, 48, 50, 49, 51, 39, 37, 56, 75, 70, 64, 63},
	},
	"tr8s": {
		Name:  "Roland TR-8S",
		Notes: [16]uint8{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 62, 63},
	},
	"er1": {
		Name:  "Korg ER-1",
		Notes: [16]uint8{36, 38, 42, 46, 40, 41, 43, 49, 45, 39, 37, 56, 75, 70, 64, 63},
	},
}

// KitNames returns the list of available kit names
func KitNames() []string {
	return []string{"gm", "rd8", "tr8s", "er1"}
}

// GetKit returns a kit by name, defaulting to GM if not found
func GetKit(name string) DrumKit {
	if kit, ok := Kits[name]; ok {
		return kit
	}
	return Kits[DefaultKit]
}

// DefaultKit is the default kit name
const DefaultKit = "gm"

// OutputNote translates a clip row to the note the kit plays. Rows outside
// the 16 slots above drumOffset pass through unchanged.
func (k DrumKit) OutputNote(row, drumOffset int) uint8 {
	slot := row - drumOffset
	if slot >= 0 && slot < len(k.Notes) {
		return k.Notes[slot]
	}
	return uint8(row & 0x7F)
}

// LaneColor implements LaneColors
func (k DrumKit) LaneColor(padIndex int) (Color, bool) {
	if padIndex < 0 || padIndex >= len(slotColors) {
		return Color{}, false
	}
	return slotColors[padIndex], true
}

// SlotName names a drum pad slot
func SlotName(padIndex int) string {
	if padIndex < 0 || padIndex >= len(SlotNames) {
		return "-"
	}
	return SlotNames[padIndex]
}
