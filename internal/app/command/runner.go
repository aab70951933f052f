package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result captures one child process invocation.
type Result struct {
	Command  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Diagnostic returns the most useful text the process printed, stderr first.
func (r Result) Diagnostic() string {
	if msg := strings.TrimSpace(r.Stderr); msg != "" {
		return msg
	}
	return strings.TrimSpace(r.Stdout)
}

// Runner abstracts process execution so collaborators can be tested without binaries.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ErrProcessTimeout is returned when a child process outlives the runner's timeout.
var ErrProcessTimeout = errors.New("process timed out")

// ExecRunner runs commands via os/exec. Every spawn is bounded by Timeout when set,
// independently of whoever is waiting on the result.
type ExecRunner struct {
	Timeout time.Duration
	logger  *zap.Logger
}

// NewExecRunner creates a runner. A zero timeout leaves processes bounded only by ctx.
func NewExecRunner(timeout time.Duration, logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{Timeout: timeout, logger: logger}
}

// Run executes one command and captures stdout, stderr and the exit code.
// A non-zero exit is reported as an error alongside the populated Result.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = 5 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running command",
		zap.String("command", name),
		zap.Strings("args", args),
	)

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Command:  name,
		Args:     args,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && r.Timeout > 0 {
			err = fmt.Errorf("%w after %s: %s", ErrProcessTimeout, r.Timeout, name)
		}
		r.logger.Debug("command failed",
			zap.String("command", name),
			zap.Int("exit_code", result.ExitCode),
			zap.Duration("duration", result.Duration),
			zap.Error(err),
		)
		return result, err
	}

	r.logger.Debug("command finished",
		zap.String("command", name),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}
