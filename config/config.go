package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-stepgrid/sequencer"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX    ControllerType = "launchpad-x"
	ControllerLaunchpadMini ControllerType = "launchpad-mini"
	ControllerLaunchpadPro  ControllerType = "launchpad-pro"
	ControllerKeyboard      ControllerType = "keyboard"
)

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName    string         `json:"portName"`
	Type        ControllerType `json:"type"`
	AutoConnect bool           `json:"autoConnect"`
}

// SynthOutputConfig defines the MIDI output used for note previews
type SynthOutputConfig struct {
	PortName string `json:"portName,omitempty"`
}

// DisplayConfig defines an optional SysEx text display
type DisplayConfig struct {
	PortName string `json:"portName,omitempty"`
	DeviceID int    `json:"deviceId,omitempty"`
	TextItem int    `json:"textItem,omitempty"`
}

// LayoutConfig selects the grid geometry. Width, Height, Lanes and Inverted
// are only read for the "custom" preset.
type LayoutConfig struct {
	Preset   string `json:"preset"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Lanes    int    `json:"lanes,omitempty"`
	Inverted bool   `json:"inverted,omitempty"`
}

// EngineConfig stores step sequencer settings
type EngineConfig struct {
	MIDIChannel     int    `json:"midiChannel"` // 1-16
	AccentActive    bool   `json:"accentActive"`
	AccentValue     int    `json:"accentValue"`
	ResolutionIndex int    `json:"resolutionIndex"`
	NoteEditor      *bool  `json:"noteEditor,omitempty"` // nil follows the preset
	Kit             string `json:"kit"`
	DrumOctave      int    `json:"drumOctave"`
}

// InputConfig stores input timing
type InputConfig struct {
	LongPressMillis int `json:"longPressMillis"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	LastTempo int    `json:"lastTempo,omitempty"`
	ClipSteps int    `json:"clipSteps,omitempty"`
	Palette   string `json:"palette,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Controllers []ControllerConfig `json:"controllers,omitempty"`
	SynthOutput SynthOutputConfig  `json:"synthOutput,omitempty"`
	Display     DisplayConfig      `json:"display,omitempty"`
	Layout      LayoutConfig       `json:"layout"`
	Engine      EngineConfig       `json:"engine"`
	Input       InputConfig        `json:"input"`
	UI          UIConfig           `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Controllers: []ControllerConfig{
			{
				PortName:    "Launchpad X LPX MIDI",
				Type:        ControllerLaunchpadX,
				AutoConnect: true,
			},
		},
		Layout: LayoutConfig{Preset: "launchpad"},
		Engine: EngineConfig{
			MIDIChannel:     10,
			AccentValue:     sequencer.DefaultAccentValue,
			ResolutionIndex: sequencer.DefaultResolutionIndex,
			Kit:             sequencer.DefaultKit,
		},
		Input: InputConfig{LongPressMillis: 400},
		UI: UIConfig{
			LastTempo: 120,
			ClipSteps: 64,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-stepgrid"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the default config file, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file over the defaults. A missing file yields the
// defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == ctrl.PortName {
			c.Controllers[i] = ctrl
			return
		}
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// KeyboardPorts returns the port names of auto-connecting keyboards
func (c *Config) KeyboardPorts() []string {
	var result []string
	for _, ctrl := range c.Controllers {
		if ctrl.AutoConnect && ctrl.Type == ControllerKeyboard {
			result = append(result, ctrl.PortName)
		}
	}
	return result
}

// ResolveLayout turns the layout section into a grid layout
func (c *Config) ResolveLayout() (sequencer.Layout, error) {
	if c.Layout.Preset == "custom" {
		l := sequencer.Layout{
			Width:    c.Layout.Width,
			Height:   c.Layout.Height,
			Lanes:    c.Layout.Lanes,
			Inverted: c.Layout.Inverted,
		}
		if !l.Valid() {
			return sequencer.Layout{}, fmt.Errorf("invalid custom layout %dx%d with %d lanes", l.Width, l.Height, l.Lanes)
		}
		return l, nil
	}
	preset := c.Layout.Preset
	if preset == "" {
		preset = "launchpad"
	}
	l, ok := sequencer.LayoutPreset(preset)
	if !ok {
		return sequencer.Layout{}, fmt.Errorf("unknown layout preset %q", preset)
	}
	return l, nil
}

// ManagerConfig builds the sequencer settings
func (c *Config) ManagerConfig() (sequencer.ManagerConfig, error) {
	layout, err := c.ResolveLayout()
	if err != nil {
		return sequencer.ManagerConfig{}, err
	}

	mc := sequencer.DefaultManagerConfig()
	mc.Engine.Layout = layout
	mc.Engine.Channel = clampChannel(c.Engine.MIDIChannel) - 1
	mc.Engine.ResolutionIndex = c.Engine.ResolutionIndex
	// the note editor follows the Push preset unless set explicitly
	mc.Engine.NoteEditor = c.Layout.Preset == "push"
	if c.Engine.NoteEditor != nil {
		mc.Engine.NoteEditor = *c.Engine.NoteEditor
	}
	mc.Kit = c.Engine.Kit
	mc.AccentOn = c.Engine.AccentActive
	mc.AccentValue = c.Engine.AccentValue
	mc.DrumOctave = c.Engine.DrumOctave
	if c.Input.LongPressMillis > 0 {
		mc.LongPress = time.Duration(c.Input.LongPressMillis) * time.Millisecond
	}
	if c.UI.LastTempo > 0 {
		mc.Tempo = c.UI.LastTempo
	}
	if c.UI.ClipSteps > 0 {
		mc.ClipSteps = c.UI.ClipSteps
	}
	return mc, nil
}

func clampChannel(ch int) int {
	if ch < 1 {
		return 1
	}
	if ch > 16 {
		return 16
	}
	return ch
}
