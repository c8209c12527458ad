package copilot

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// CommandRunner abstracts CLI process execution (allows mocking).
type CommandRunner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, dir, name string, args ...string) (*CommandResult, error)
}

// CommandResult captures one finished CLI invocation. A non-zero exit
// code is reported here, not as an error: Run errors only when the
// process could not be started or the context ended.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// execRunner implements CommandRunner using real exec calls.
type execRunner struct {
	extraEnv []string
}

// NewExecRunner returns a CommandRunner backed by os/exec. Entries in
// extraEnv ("KEY=value") are appended to the inherited environment.
func NewExecRunner(extraEnv ...string) CommandRunner {
	return &execRunner{extraEnv: extraEnv}
}

func (r *execRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (r *execRunner) Run(ctx context.Context, dir, name string, args ...string) (*CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.extraEnv) > 0 {
		cmd.Env = append(os.Environ(), r.extraEnv...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := &CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, err
	}
	return result, nil
}
