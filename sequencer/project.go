package sequencer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const snapshotTimeFormat = "2006-01-02_15-04-05"

// SaveInfo represents a saved clip file (for listing)
type SaveInfo struct {
	Filename  string
	Timestamp time.Time
}

// ClipSnapshot is the on-disk form of a MemoryClip
type ClipSnapshot struct {
	Steps      int        `json:"steps"`
	PageWidth  int        `json:"pageWidth"`
	StepLength float64    `json:"stepLength"`
	Notes      []ClipNote `json:"notes"`
}

// ClipsDir returns the snapshot directory path
func ClipsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-stepgrid", "clips"), nil
}

// Snapshot copies the clip's notes and geometry
func (c *MemoryClip) Snapshot() ClipSnapshot {
	notes := c.Notes()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ClipSnapshot{
		Steps:      c.numSteps,
		PageWidth:  c.pageWidth,
		StepLength: c.stepLength,
		Notes:      notes,
	}
}

// Restore replaces the clip's content with a snapshot. Notes outside the
// clip are dropped.
func (c *MemoryClip) Restore(s ClipSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.Steps > 0 {
		c.numSteps = s.Steps
	}
	if s.PageWidth > 0 {
		c.pageWidth = s.PageWidth
	}
	if s.StepLength > 0 {
		c.stepLength = s.StepLength
	}
	c.page = 0
	c.current = -1
	c.notes = make(map[laneKey][]ClipNote)
	for _, n := range s.Notes {
		if n.Start < 0 || n.Start >= c.beat(c.numSteps)-beatEpsilon || !validCell(n.Channel, n.Row) || n.Duration <= 0 {
			continue
		}
		n.Velocity = clampVelocity(n.Velocity)
		c.insert(n)
	}
}

// SaveClip writes a timestamped snapshot into dir and returns its path
func SaveClip(dir string, c *MemoryClip) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(c.Snapshot(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode clip: %w", err)
	}

	path := filepath.Join(dir, time.Now().Format(snapshotTimeFormat)+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write clip: %w", err)
	}
	return path, nil
}

// LoadClip restores a snapshot file into c
func LoadClip(path string, c *MemoryClip) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var s ClipSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode clip %s: %w", filepath.Base(path), err)
	}
	c.Restore(s)
	return nil
}

// ListClips returns the timestamped snapshots in dir, newest first
func ListClips(dir string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ts, err := time.Parse(snapshotTimeFormat, strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		saves = append(saves, SaveInfo{Filename: name, Timestamp: ts})
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})
	return saves, nil
}
