// Package stream reads a spawned process's stdout and stderr concurrently,
// forwards incremental chunks to caller callbacks, and detects the
// completion marker across chunk boundaries.
package stream

import (
	"io"
	"os/exec"
	"strings"
	"sync"
	"unicode/utf8"
)

// CompletionMarker is the literal string an agent must emit in its stdout
// to signal it has finished its current unit of work. The orchestrator only
// detects it, never emits it.
const CompletionMarker = "ORCHESTRA_COMPLETE"

// Rolling-buffer bounds for marker detection. Once the buffer exceeds
// maxTail it is trimmed to keepTail, which is far longer than any marker
// so a marker split across chunks is still found.
const (
	maxTail  = 2000
	keepTail = 1000
)

const chunkSize = 4096

// Callbacks receive incremental output from a running process. Any field
// may be nil. OnStdout is called in the order bytes were produced by the
// child; OnMarker fires exactly once, on first detection.
type Callbacks struct {
	OnStdout func(chunk string)
	OnStderr func(chunk string)
	OnMarker func()
}

// Result is produced after the process has exited and both streams have
// reached end-of-stream.
type Result struct {
	ExitCode    int
	Stdout      string
	Stderr      string
	MarkerFound bool
}

// Run starts cmd with piped stdout/stderr and drains both concurrently.
// Reading the two pipes in parallel avoids the classic deadlock where the
// child blocks writing one pipe while we drain the other to completion.
// It returns only after the process has exited and both pipes hit EOF.
func Run(cmd *exec.Cmd, marker string, cb Callbacks) (*Result, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	det := &detector{marker: marker}
	var outBuf, errBuf strings.Builder

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		readChunks(stdout, func(chunk string) {
			outBuf.WriteString(chunk)
			if cb.OnStdout != nil {
				cb.OnStdout(chunk)
			}
			if det.feed(chunk) && cb.OnMarker != nil {
				cb.OnMarker()
			}
		})
	}()
	go func() {
		defer wg.Done()
		readChunks(stderr, func(chunk string) {
			errBuf.WriteString(chunk)
			if cb.OnStderr != nil {
				cb.OnStderr(chunk)
			}
		})
	}()
	wg.Wait()

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, err
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{
		ExitCode:    exitCode,
		Stdout:      outBuf.String(),
		Stderr:      errBuf.String(),
		MarkerFound: det.found,
	}, nil
}

// readChunks reads r to EOF, emitting decoded chunks. A multi-byte UTF-8
// sequence split across reads is carried into the next chunk so emitted
// strings never cut a rune in half.
func readChunks(r io.Reader, emit func(string)) {
	buf := make([]byte, chunkSize)
	var carry []byte
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := append(carry, buf[:n]...)
			cut := completeBoundary(data)
			if cut > 0 {
				emit(string(data[:cut]))
			}
			carry = append([]byte(nil), data[cut:]...)
		}
		if err != nil {
			if len(carry) > 0 {
				emit(string(carry))
			}
			return
		}
	}
}

// completeBoundary returns the length of the longest prefix of p that does
// not end mid-rune.
func completeBoundary(p []byte) int {
	for i := len(p) - 1; i >= 0 && i > len(p)-utf8.UTFMax; i-- {
		if utf8.RuneStart(p[i]) {
			if utf8.FullRune(p[i:]) {
				return len(p)
			}
			return i
		}
	}
	return len(p)
}

// detector scans a rolling tail of stdout for the marker literal. Once
// found it stays found for the rest of the run.
type detector struct {
	marker string
	tail   string
	found  bool
}

// feed appends a chunk and reports whether this chunk completed the first
// marker detection.
func (d *detector) feed(chunk string) bool {
	if d.found || d.marker == "" {
		return false
	}
	d.tail += chunk
	if strings.Contains(d.tail, d.marker) {
		d.found = true
		d.tail = ""
		return true
	}
	if len(d.tail) > maxTail {
		d.tail = d.tail[len(d.tail)-keepTail:]
	}
	return false
}
