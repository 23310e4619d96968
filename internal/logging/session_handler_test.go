package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSessionIDHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := WithSessionID(slog.New(slog.NewJSONHandler(&buf, nil)), "test-session-123")
	logger.With("extra", "value").Info("test message")

	output := buf.String()
	if !strings.Contains(output, `"session_id":"test-session-123"`) {
		t.Errorf("expected session_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"extra":"value"`) {
		t.Errorf("expected extra attr in output, got: %s", output)
	}
}

func TestSessionIDHandlerNilBase(t *testing.T) {
	handler := newSessionIDHandler(nil, "session-123")
	if _, ok := handler.(NoopHandler); !ok {
		t.Errorf("expected NoopHandler when base is nil, got: %T", handler)
	}
}

func TestNewSessionIDIsUnique(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if a == "" || a == b {
		t.Fatalf("expected distinct session ids, got %q and %q", a, b)
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	var logged []int
	for done := 0; done <= 100; done += 5 {
		if s.ShouldLog(done, 100) {
			logged = append(logged, done)
		}
	}
	want := []int{0, 25, 50, 75, 100}
	if len(logged) != len(want) {
		t.Fatalf("logged %v, want %v", logged, want)
	}
	for i := range want {
		if logged[i] != want[i] {
			t.Fatalf("logged %v, want %v", logged, want)
		}
	}
	s.Reset()
	if !s.ShouldLog(0, 100) {
		t.Fatal("expected log after reset")
	}
	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog(1, 2) {
		t.Fatal("nil sampler should always log")
	}
}
