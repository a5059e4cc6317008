package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPlainHandlerFormatsIntention(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithConsoleWriter(LogLevelDebug, &buf).WithComponent("window")

	l.DebugWithIntention(IntentionTrim, "Trimmed history", "kept", 3, "dropped", 5)

	line := buf.String()
	if !strings.HasPrefix(line, iconFor(IntentionTrim)+" Trimmed history") {
		t.Errorf("Expected icon prefix, got %q", line)
	}
	if !strings.Contains(line, "kept=3") || !strings.Contains(line, "dropped=5") {
		t.Errorf("Expected key=value pairs, got %q", line)
	}
	if strings.Contains(line, "component=") || strings.Contains(line, "intention=") {
		t.Errorf("Meta attributes should be hidden on the console, got %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithConsoleWriter(LogLevelWarn, &buf)

	l.Info("hidden")
	l.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("Info should be filtered at warn level, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Warn should pass at warn level, got %q", buf.String())
	}
}

func TestFileHandler(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "kwin.log")
	l := New(Options{Level: LogLevelInfo, Console: &buf, File: path})

	l.InfoWithIntention(IntentionStatus, "Loaded history", "messages", 8)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected log file to be written: %v", err)
	}
	if !strings.Contains(string(data), "intention=status") || !strings.Contains(string(data), "messages=8") {
		t.Errorf("File log should keep structured attributes, got %q", data)
	}
	if !strings.Contains(buf.String(), "Loaded history") {
		t.Errorf("Console should receive the record too, got %q", buf.String())
	}
}

func TestComponentLoggerFollowsGlobal(t *testing.T) {
	component := NewComponentLogger("test")

	var buf bytes.Buffer
	SetGlobalLogger(Options{Level: LogLevelDebug, Console: &buf})
	t.Cleanup(func() { SetGlobalLogger(Options{Level: LogLevelInfo}) })

	component.DebugWithIntention(IntentionDebug, "after swap")

	if !strings.Contains(buf.String(), "after swap") {
		t.Errorf("Component logger created earlier should use the new global handler, got %q", buf.String())
	}
}

func TestLogLevelDefault(t *testing.T) {
	if LogLevel("bogus").Level() != LogLevelInfo.Level() {
		t.Error("Unknown levels should default to info")
	}
}
