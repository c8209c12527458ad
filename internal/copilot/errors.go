package copilot

import (
	"errors"
	"fmt"
)

var (
	// ErrCLINotFound indicates the copilot binary is not installed or
	// not on PATH.
	ErrCLINotFound = errors.New("copilot CLI not found")

	// ErrCLITimeout indicates an invocation exceeded the configured
	// timeout and was killed.
	ErrCLITimeout = errors.New("copilot CLI timed out")
)

// ExitError reports an invocation that completed with a non-zero exit
// code. Callers can use errors.As to reach the exit code and stderr.
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("copilot CLI exited with code %d: %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("copilot CLI exited with code %d", e.ExitCode)
}
