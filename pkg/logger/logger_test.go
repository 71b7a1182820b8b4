package logger

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "scout.log")
	if err := InitWithOptions(Options{File: path, MaxSizeMB: 1}); err != nil {
		t.Fatalf("failed to initialize file logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
		rotating = nil
		_ = Init()
	}()

	Get().Info(context.Background(), "written to file", String("k", "v"))
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	SetLevel(0)

	l.Info(context.Background(), "cycle done", Int("pending", 3), Bool("connected", true))

	out := buf.String()
	for _, want := range []string{"cycle done", "pending=3", "connected=true", "source="} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	l.Info(context.Background(), "hidden")
	l.Warn(context.Background(), "shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn record should be written at warn level")
	}
}

func TestSetLevelStringRejectsUnknown(t *testing.T) {
	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}

	namedLogger.Info(context.Background(), "test message")
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.Error(context.Background(), "dropped")
	l.Named("x").Debug(nil, "dropped") //nolint:staticcheck // nil context is tolerated
}

func TestLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, FormatJSON)
	SetLevel(0)

	l.Info(context.Background(), "drained", Int("remaining", 0))

	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"remaining":0`) {
		t.Errorf("expected a JSON record, got %q", buf.String())
	}

	if err := InitWithOptions(Options{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := InitWithOptions(Options{Format: FormatAuto}); err != nil {
		t.Errorf("auto format should always resolve: %v", err)
	}
}
