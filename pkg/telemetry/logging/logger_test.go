package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(Config{Level: tt.level, Writer: &bytes.Buffer{}})
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error for invalid level")
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if logger.level != tt.want {
				t.Errorf("Expected level %v, got %v", tt.want, logger.level)
			}
		})
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("Expected error for invalid format")
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("hidden")
	logger.WithComponent("bank").Info("request evaluated", "outcome", "granted")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Invalid JSON log line: %v", err)
	}
	if entry["msg"] != "request evaluated" {
		t.Errorf("Expected msg 'request evaluated', got %v", entry["msg"])
	}
	if entry["component"] != "bank" {
		t.Errorf("Expected component bank, got %v", entry["component"])
	}
	if entry["outcome"] != "granted" {
		t.Errorf("Expected outcome granted, got %v", entry["outcome"])
	}
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Config{Format: "text", Writer: &buf})

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithProcess(ctx, 4)
	ctx = WithScenario(ctx, "classic.txt")
	logger.InfoContext(ctx, "evaluating")

	out := buf.String()
	for _, want := range []string{"request_id=req-123", "process=4", "scenario=classic.txt"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()

	if GetRequestID(ctx) != "" {
		t.Error("Expected empty request ID")
	}
	if _, ok := GetProcess(ctx); ok {
		t.Error("Expected no process")
	}

	ctx = WithProcess(ctx, 0)
	if p, ok := GetProcess(ctx); !ok || p != 0 {
		t.Errorf("Expected process 0, got %d (%v)", p, ok)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("dropped")
	if logger.Slog() == nil {
		t.Error("Expected underlying slog logger")
	}
}
