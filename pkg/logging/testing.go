package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger captures log output in memory.
type TestLogger struct {
	*zerolog.Logger
	Buffer *bytes.Buffer
}

// NewTestLogger creates a trace-level JSON logger writing to a buffer.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()

	buf := &bytes.Buffer{}
	oldLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(oldLevel)
	})

	logger := zerolog.New(buf).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	return &TestLogger{Logger: &logger, Buffer: buf}
}

// Output returns the captured log output.
func (tl *TestLogger) Output() string {
	return tl.Buffer.String()
}

// Lines returns one entry per captured line.
func (tl *TestLogger) Lines() []string {
	out := strings.TrimSpace(tl.Output())
	if out == "" {
		return []string{}
	}
	return strings.Split(out, "\n")
}

// Contains reports whether the output contains substr.
func (tl *TestLogger) Contains(substr string) bool {
	return strings.Contains(tl.Output(), substr)
}

// Count returns the number of log entries.
func (tl *TestLogger) Count() int {
	return len(tl.Lines())
}

// Clear drops everything captured so far.
func (tl *TestLogger) Clear() {
	tl.Buffer.Reset()
}

// AssertContains fails the test if substr was not logged.
func (tl *TestLogger) AssertContains(t testing.TB, substr string) {
	t.Helper()
	if !tl.Contains(substr) {
		t.Errorf("log output does not contain %q\nOutput:\n%s", substr, tl.Output())
	}
}

// AssertNotContains fails the test if substr was logged.
func (tl *TestLogger) AssertNotContains(t testing.TB, substr string) {
	t.Helper()
	if tl.Contains(substr) {
		t.Errorf("log output should not contain %q\nOutput:\n%s", substr, tl.Output())
	}
}

// CaptureLoggingForTest installs a TestLogger as the default for the test.
func CaptureLoggingForTest(t testing.TB) *TestLogger {
	t.Helper()

	original := *Default()
	tl := NewTestLogger(t)
	SetDefault(*tl.Logger)
	t.Cleanup(func() {
		SetDefault(original)
	})
	return tl
}

// DisableLoggingForTest silences the default logger for the test.
func DisableLoggingForTest(t testing.TB) {
	t.Helper()

	original := *Default()
	SetDefault(zerolog.Nop())
	t.Cleanup(func() {
		SetDefault(original)
	})
}
