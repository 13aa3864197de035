// Package output provides line-buffered writers that prefix chain step
// output with a colored agent label.
package output

import (
	"bytes"
	"io"
	"sync"

	"github.com/fatih/color"
)

// stepPalette assigns distinct colors to step prefixes in order.
var stepPalette = []*color.Color{
	color.New(color.FgCyan),
	color.New(color.FgYellow),
	color.New(color.FgGreen),
	color.New(color.FgMagenta),
	color.New(color.FgBlue),
	color.New(color.FgHiCyan),
	color.New(color.FgHiYellow),
	color.New(color.FgHiGreen),
}

// StepWriter wraps an io.Writer and prefixes each line with a colored step
// label. Partial lines are buffered so interleaved writes from stdout and
// stderr readers stay line-atomic.
type StepWriter struct {
	out    io.Writer
	prefix string
	color  *color.Color
	mu     sync.Mutex
	buf    bytes.Buffer
}

// NewStepWriter creates a writer labeling each line with the given step
// index and agent name.
func NewStepWriter(out io.Writer, index int, agent string) *StepWriter {
	return &StepWriter{
		out:    out,
		prefix: agent,
		color:  stepPalette[index%len(stepPalette)],
	}
}

// Write buffers input and emits complete lines with the prefix.
func (w *StepWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// No complete line yet; put back what we read.
			w.buf.Write(line)
			break
		}
		w.writeLine(line)
	}
	return len(p), nil
}

// Flush writes any remaining partial line, terminating it.
func (w *StepWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() == 0 {
		return
	}
	w.writeLine(append(w.buf.Bytes(), '\n'))
	w.buf.Reset()
}

func (w *StepWriter) writeLine(line []byte) {
	w.color.Fprintf(w.out, "%s | ", w.prefix)
	w.out.Write(line)
}
