package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfigureOnce(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "test"})
	// A second Configure must not replace the writer.
	Configure(Config{Output: nil, Service: "other"})

	l := Base()
	l.Info().Str(FieldEvent, "test.once").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"service":"test"`) {
		t.Errorf("expected service field from first Configure, got %q", out)
	}
	if !strings.Contains(out, `"event":"test.once"`) {
		t.Errorf("expected event field, got %q", out)
	}
}

func TestWithComponent(t *testing.T) {
	l := WithComponent("sqlite")
	// The component field must survive into derived events.
	var buf bytes.Buffer
	l = l.Output(&buf)
	l.Info().Msg("ping")

	if !strings.Contains(buf.String(), `"component":"sqlite"`) {
		t.Errorf("expected component field, got %q", buf.String())
	}
}
