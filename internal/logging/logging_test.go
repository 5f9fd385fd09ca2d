package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init("chatty", false); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	if err := Init("WARN", false); err != nil {
		t.Fatalf("init: %v", err)
	}
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("hidden")
	Warn("source missing", "entity", "Wiz")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "source missing") || !strings.Contains(out, "Wiz") {
		t.Errorf("expected warning with key/value in output, got %q", out)
	}
}

func TestVerboseForcesDebug(t *testing.T) {
	if err := Init("ERROR", true); err != nil {
		t.Fatalf("init: %v", err)
	}
	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("embedding batch", "size", 3)
	if !strings.Contains(buf.String(), "embedding batch") {
		t.Errorf("expected debug output in verbose mode, got %q", buf.String())
	}
}
