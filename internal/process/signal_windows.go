//go:build windows

package process

import (
	"os"
)

// Terminate terminates a process on Windows. There is no graceful
// termination signal, so this is the same as Kill.
func Terminate(pid int) error {
	return Kill(pid)
}

// Kill immediately terminates a process.
func Kill(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
