package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")

	Log("before", "dropped")
	if err := Enable(path); err != nil {
		t.Fatal(err)
	}
	if !Enabled() {
		t.Fatal("not enabled")
	}
	Log("gesture", "toggle col=%d", 3)
	for i := 0; i < 4; i++ {
		LogEvery(2, "transport", "step")
	}
	Disable()
	Log("after", "dropped")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "toggle col=3") {
		t.Errorf("missing entry:\n%s", out)
	}
	if n := strings.Count(out, "step (every 2"); n != 2 {
		t.Errorf("LogEvery wrote %d entries", n)
	}
	if strings.Contains(out, "dropped") {
		t.Error("logged while disabled")
	}
}
