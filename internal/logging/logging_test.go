package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func newTestLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: level, Output: &buf, Prefix: "folio"})
	l.core.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l, &buf
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newTestLogger(LevelWarn)
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn %d", 1)
	l.Error("error")

	out := buf.String()
	if strings.Contains(out, "debug") || strings.Contains(out, "] folio: info") {
		t.Errorf("messages below level leaked: %q", out)
	}
	if !strings.Contains(out, "[WARN] folio: warn 1") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] folio: error") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestLogger_FieldsAreSorted(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)
	l.WithComponent("treemodel").WithField("batch", "b1").Info("committed")

	want := "2024-01-02T03:04:05.000 [INFO] folio: committed {batch=b1, component=treemodel}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestLogger_DerivedSharesLevel(t *testing.T) {
	l, buf := newTestLogger(LevelInfo)
	child := l.WithComponent("schema")
	l.SetLevel(LevelError)
	child.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("derived logger ignored level change: %q", buf.String())
	}
	if child.Enabled(LevelInfo) {
		t.Error("Enabled(LevelInfo) should be false")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	if l.Enabled(LevelError) {
		t.Error("nop logger should never be enabled")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"Error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
