package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func newPlainWriter(t *testing.T, buf *bytes.Buffer, index int, agent string) *StepWriter {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
	return NewStepWriter(buf, index, agent)
}

func TestStepWriterPrefixesEachLine(t *testing.T) {
	var buf bytes.Buffer
	w := newPlainWriter(t, &buf, 0, "build")

	if _, err := w.Write([]byte("one\ntwo\n")); err != nil {
		t.Fatal(err)
	}

	want := "build | one\nbuild | two\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestStepWriterBuffersPartialLines(t *testing.T) {
	var buf bytes.Buffer
	w := newPlainWriter(t, &buf, 0, "test")

	w.Write([]byte("hel"))
	if buf.Len() != 0 {
		t.Errorf("partial line emitted early: %q", buf.String())
	}
	w.Write([]byte("lo\nwor"))

	if got := buf.String(); got != "test | hello\n" {
		t.Errorf("output = %q, want one complete line", got)
	}

	w.Flush()
	if got := buf.String(); got != "test | hello\ntest | wor\n" {
		t.Errorf("after flush = %q, want terminated partial line", got)
	}
}

func TestStepWriterFlushEmptyIsNoop(t *testing.T) {
	var buf bytes.Buffer
	w := newPlainWriter(t, &buf, 0, "idle")

	w.Flush()
	if buf.Len() != 0 {
		t.Errorf("flush with no buffered data wrote %q", buf.String())
	}
}

func TestStepWriterPaletteWraps(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < len(stepPalette)*2; i++ {
		w := newPlainWriter(t, &buf, i, "a")
		if w.color == nil {
			t.Fatalf("index %d produced no color", i)
		}
	}
}

func TestStepWriterSplitAcrossWrites(t *testing.T) {
	var buf bytes.Buffer
	w := newPlainWriter(t, &buf, 1, "lint")

	for _, chunk := range []string{"a", "b", "c\nd", "e\n"} {
		w.Write([]byte(chunk))
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 || lines[0] != "lint | abc" || lines[1] != "lint | de" {
		t.Errorf("lines = %q", lines)
	}
}
