package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func decodeEntry(t *testing.T, line []byte) Entry {
	t.Helper()
	var e Entry
	if err := json.Unmarshal(line, &e); err != nil {
		t.Fatalf("invalid log line %q: %v", line, err)
	}
	return e
}

func TestJSONLogger_WritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("session opened", SessionID("abc"), Count(3))

	e := decodeEntry(t, buf.Bytes())
	if e.Level != "INFO" {
		t.Errorf("level = %q, want INFO", e.Level)
	}
	if e.Message != "session opened" {
		t.Errorf("msg = %q, want session opened", e.Message)
	}
	if e.Fields["session_id"] != "abc" {
		t.Errorf("session_id = %v, want abc", e.Fields["session_id"])
	}
	if e.Fields["count"] != float64(3) {
		t.Errorf("count = %v, want 3", e.Fields["count"])
	}
	if e.Time == "" {
		t.Error("missing timestamp")
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}

	logger.SetLevel(DebugLevel)
	buf.Reset()
	logger.Debug("now kept")
	if buf.Len() == 0 {
		t.Fatal("debug line dropped after SetLevel(DebugLevel)")
	}
}

func TestJSONLogger_WithPresetsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(Component("engine"), QueryName("GetUsers"))
	child.Info("evaluating", Variable("users"))

	e := decodeEntry(t, buf.Bytes())
	if e.Fields["component"] != "engine" {
		t.Errorf("component = %v, want engine", e.Fields["component"])
	}
	if e.Fields["query"] != "GetUsers" {
		t.Errorf("query = %v, want GetUsers", e.Fields["query"])
	}
	if e.Fields["variable"] != "users" {
		t.Errorf("variable = %v, want users", e.Fields["variable"])
	}

	// The parent must not inherit the child's fields.
	buf.Reset()
	logger.Info("plain")
	e = decodeEntry(t, buf.Bytes())
	if _, ok := e.Fields["component"]; ok {
		t.Error("parent logger leaked child fields")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"ERROR":   ErrorLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestErrorField(t *testing.T) {
	if f := Error(nil); f.Value != nil {
		t.Errorf("Error(nil).Value = %v, want nil", f.Value)
	}
}

func TestTimer_EndRecordsLatency(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	StartTimer(logger, "query evaluated", QueryName("GetUsers")).End(Count(2))

	e := decodeEntry(t, buf.Bytes())
	if e.Message != "query evaluated" {
		t.Errorf("msg = %q, want query evaluated", e.Message)
	}
	if _, ok := e.Fields["latency"]; !ok {
		t.Error("missing latency field")
	}
	if e.Fields["count"] != float64(2) {
		t.Errorf("count = %v, want 2", e.Fields["count"])
	}
}

func TestNopLogger_Discards(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("nothing happens")
	if child := logger.With(Component("x")); child == nil {
		t.Fatal("With returned nil")
	}
}
