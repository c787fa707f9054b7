package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		level    string
		expected slog.Level
	}{
		{name: "debug", level: "debug", expected: slog.LevelDebug},
		{name: "upper_warn", level: "WARN", expected: slog.LevelWarn},
		{name: "padded_error", level: " error ", expected: slog.LevelError},
		{name: "unknown", level: "loud", expected: slog.LevelInfo},
		{name: "empty", level: "", expected: slog.LevelInfo},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tc.expected, ParseLevel(tc.level)); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, "json", "warn")
	logger.Info("dropped")
	logger.Warn("kept", "date", "2021-06-18")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if diff := cmp.Diff(1, len(lines)); diff != "" {
		t.Fatalf("mismatch (-want, +got):\n%s", diff)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}

	if diff := cmp.Diff("kept", rec["msg"]); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	if diff := cmp.Diff("fxcache", rec["app"]); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) != DefaultLogger() {
		t.Errorf("empty context must return the default logger")
	}

	logger := Discard()
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Errorf("logger from context differs")
	}
}
