//go:build !windows

package process

import (
	"syscall"
)

// Terminate asks a process to shut down gracefully.
func Terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

// Kill immediately terminates a process without allowing cleanup.
func Kill(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}
