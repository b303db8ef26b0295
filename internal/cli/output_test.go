package cli

import (
	"bytes"
	"testing"
	"time"
)

func TestOutput_PlainWriter(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput(&buf, false)

	out.Success("Serial port opened: %s", "COM4")
	out.Error("Failed to connect to TCP: %s", "refused")
	out.Header("Bridge Running")
	out.KeyValue("Session", "abc")

	got := buf.String()
	for _, want := range []string{
		"✓ Serial port opened: COM4\n",
		"✗ Failed to connect to TCP: refused\n",
		"=== Bridge Running ===\n",
		"Session:",
	} {
		if !bytes.Contains([]byte(got), []byte(want)) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	// 非终端输出不带 ANSI 转义
	if bytes.Contains(buf.Bytes(), []byte("\x1b[")) {
		t.Errorf("non-terminal output contains color codes: %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.input); got != tt.expected {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
		{49 * time.Hour, "2d 1h"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.input); got != tt.expected {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
