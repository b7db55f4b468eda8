package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"strings"
	"time"
)

// ErrTimeout indicates a child process was terminated by its timeout.
var ErrTimeout = errors.New("process timed out")

// ProcessError represents a failed external process in a form formatters
// can consume uniformly.
type ProcessError struct {
	// Argv is the command line that failed.
	Argv []string
	// ExitCode is the process exit code, or -1 if it never ran.
	ExitCode int
	// Output is the captured combined output, possibly truncated.
	Output string
	// TimedOut is true when the failure was a timeout.
	TimedOut bool
}

// Error implements the error interface.
func (e *ProcessError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s: timed out", strings.Join(e.Argv, " "))
	}
	return fmt.Sprintf("%s: exit %d: %s", strings.Join(e.Argv, " "), e.ExitCode, strings.TrimSpace(e.Output))
}

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct{}

// NewRunner creates a new ExecRunner.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Capture executes a command and returns its exit code with combined output.
func (r *ExecRunner) Capture(ctx context.Context, cmd Command) (*Result, error) {
	ctx, cancel, deadline := withTimeout(ctx, cmd.Timeout)
	defer cancel()

	c := r.build(ctx, cmd)
	out, err := c.CombinedOutput()
	if err != nil {
		if deadline != nil && ctx.Err() == context.DeadlineExceeded {
			return &Result{ExitCode: -1, Output: out, TimedOut: true},
				fmt.Errorf("%s: %w", cmd.Argv[0], ErrTimeout)
		}
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			return &Result{ExitCode: exitErr.ExitCode(), Output: out}, nil
		}
		return nil, fmt.Errorf("run %s: %w", cmd.Argv[0], err)
	}
	return &Result{ExitCode: 0, Output: out}, nil
}

// Stream executes a command with stdout/stderr mirrored to w.
func (r *ExecRunner) Stream(ctx context.Context, cmd Command, w io.Writer) (int, error) {
	ctx, cancel, deadline := withTimeout(ctx, cmd.Timeout)
	defer cancel()

	c := r.build(ctx, cmd)
	c.Stdout = w
	c.Stderr = w
	if err := c.Run(); err != nil {
		if deadline != nil && ctx.Err() == context.DeadlineExceeded {
			return -1, fmt.Errorf("%s: %w", cmd.Argv[0], ErrTimeout)
		}
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("run %s: %w", cmd.Argv[0], err)
	}
	return 0, nil
}

// CaptureShell executes a shell command through "sh -c".
func (r *ExecRunner) CaptureShell(ctx context.Context, dir, command string) (*Result, error) {
	return r.Capture(ctx, Command{Argv: []string{"sh", "-c", command}, Dir: dir})
}

func (r *ExecRunner) build(ctx context.Context, cmd Command) *osexec.Cmd {
	c := osexec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	return c
}

// withTimeout wraps ctx with a deadline when timeout is non-zero.
// The third return is non-nil only when a deadline was installed, which lets
// callers distinguish a timeout kill from an outer cancellation.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, *time.Time) {
	if timeout <= 0 {
		return ctx, func() {}, nil
	}
	d := time.Now().Add(timeout)
	ctx, cancel := context.WithDeadline(ctx, d)
	return ctx, cancel, &d
}

// Verify ExecRunner implements CommandRunner at compile time.
var _ CommandRunner = (*ExecRunner)(nil)
