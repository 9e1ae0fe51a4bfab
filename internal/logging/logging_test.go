package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelAppliesToExistingLoggers(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	l := New("test")

	if err := SetLevel("warn"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	l.Debug("shown", "node", 3)
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected debug output, got %q", buf.String())
	}

	if New("test") != l {
		t.Error("expected the same logger for the same component")
	}
}

func TestSetLevelRejectsUnknown(t *testing.T) {
	if err := SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
