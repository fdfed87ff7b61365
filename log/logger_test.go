package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	type spec struct {
		in  string
		exp Level
	}
	specs := []spec{
		{"debug", Debug},
		{"INFO", Info},
		{" notice ", Notice},
		{"warning", Warning},
		{"error", Error},
	}

	for index, s := range specs {
		level, err := ParseLevel(s.in)
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if level != s.exp {
			t.Fatalf("[spec %d] expected level %d; got %d", index, s.exp, level)
		}
	}

	expError := `log: unknown level "loud"`
	if _, err := ParseLevel("loud"); err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)
	defer SetLevel(Notice)

	logger := New("test")

	SetLevel(Notice)
	logger.Debug("hidden message")
	logger.Notice("visible message")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Fatalf("expected debug message to be filtered; got %q", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "[test]") {
		t.Fatalf("expected notice message with module name; got %q", out)
	}

	buf.Reset()
	SetLevel(Debug)
	logger.Debugf("value %d", 42)
	if !strings.Contains(buf.String(), "value 42") {
		t.Fatalf("expected debug message after raising verbosity; got %q", buf.String())
	}
}
