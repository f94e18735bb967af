package sequencer

import (
	"os"
	"path/filepath"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestSaveLoadClip(t *testing.T) {
	dir := t.TempDir()

	src := NewMemoryClip(48, 16, 0.5)
	src.SetStep(9, 0, 36, 127, 0.5)
	src.SetStep(9, 4, 38, 90, 1.5)
	src.SetStep(2, 15, 60, 64, 0.5)

	path, err := SaveClip(dir, src)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("saved to %s", path)
	}

	saves, err := ListClips(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(saves) != 1 || saves[0].Filename != filepath.Base(path) {
		t.Fatalf("list: %+v", saves)
	}

	dst := NewMemoryClip(16, 16, 0.25)
	dst.SetStep(0, 0, 40, 100, 0.25)
	if err := LoadClip(path, dst); err != nil {
		t.Fatalf("load: %v", err)
	}

	if dst.NumSteps() != 48 || dst.StepLength() != 0.5 {
		t.Fatalf("geometry: %d steps, step length %v", dst.NumSteps(), dst.StepLength())
	}
	want, got := src.Notes(), dst.Notes()
	if len(got) != len(want) {
		t.Fatalf("loaded %d notes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("note %d: %+v, want %+v", i, got[i], want[i])
		}
	}
	if dst.CurrentStep() != -1 {
		t.Error("playhead not reset")
	}
}

func TestListClipsSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{"2024-01-02_03-04-05.json", "2025-06-07_08-09-10.json", "notes.json", "2024-01-01_00-00-00.txt"}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	saves, err := ListClips(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(saves) != 2 || saves[0].Filename != "2025-06-07_08-09-10.json" {
		t.Fatalf("list: %+v", saves)
	}

	missing, err := ListClips(filepath.Join(dir, "nope"))
	if err != nil || len(missing) != 0 {
		t.Fatalf("missing dir: %v %v", missing, err)
	}
}

func TestLoadClipRejectsBadData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadClip(path, NewMemoryClip(16, 16, 0.25)); err == nil {
		t.Fatal("expected decode error")
	}

	c := NewMemoryClip(16, 16, 0.25)
	c.Restore(ClipSnapshot{
		Steps: 16,
		Notes: []ClipNote{
			{Channel: 0, Start: 0.75, Row: 36, Velocity: 500, Duration: 0.25},
			{Channel: 0, Start: 10, Row: 36, Velocity: 100, Duration: 0.25},
			{Channel: 17, Start: 0.25, Row: 36, Velocity: 100, Duration: 0.25},
			{Channel: 0, Start: 0.5, Row: 36, Velocity: 100, Duration: 0},
		},
	})
	notes := c.Notes()
	if len(notes) != 1 || notes[0].Velocity != MaxVelocity {
		t.Fatalf("restore kept %+v", notes)
	}
}

func TestExportSMF(t *testing.T) {
	clip := NewMemoryClip(16, 16, 0.25)
	clip.SetStep(9, 0, 36, 120, 0.25)
	clip.SetStep(9, 4, 37, 90, 0.5)
	clip.SetStep(9, 8, 36, 100, 0.25)

	path := filepath.Join(t.TempDir(), "clip.mid")
	if err := ExportSMF(path, clip, 100, GetKit("rd8"), 36); err != nil {
		t.Fatalf("export: %v", err)
	}

	s, err := smf.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(s.Tracks) != 1 {
		t.Fatalf("%d tracks", len(s.Tracks))
	}

	type hit struct {
		tick uint32
		key  uint8
		vel  uint8
	}
	var hits []hit
	var offs int
	var bpm float64
	var abs uint32
	for _, ev := range s.Tracks[0] {
		abs += ev.Delta
		var ch, key, vel uint8
		msg := gomidi.Message(ev.Message)
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			if ch != 9 {
				t.Errorf("note on channel %d", ch)
			}
			hits = append(hits, hit{abs, key, vel})
		case msg.GetNoteEnd(&ch, &key):
			offs++
		case ev.Message.GetMetaTempo(&bpm):
		}
	}

	want := []hit{
		{0, 36, 120},
		{4 * ticksPerBeat / 4, 40, 90}, // row 37 is the RD-8 snare
		{8 * ticksPerBeat / 4, 36, 100},
	}
	if len(hits) != len(want) || offs != len(want) {
		t.Fatalf("got %d note-ons and %d note-offs: %+v", len(hits), offs, hits)
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Errorf("hit %d: %+v, want %+v", i, hits[i], want[i])
		}
	}
	if bpm < 99.9 || bpm > 100.1 {
		t.Errorf("tempo %v", bpm)
	}
}
