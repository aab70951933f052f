package testutil

import (
	"context"
	"sync"

	"whisper-api/internal/app/command"
)

// RunnerCall records one FakeRunner invocation.
type RunnerCall struct {
	Name string
	Args []string
}

// FakeRunner is a scripted command.Runner.
type FakeRunner struct {
	mu    sync.Mutex
	calls []RunnerCall

	// Script decides the outcome of each invocation. When nil every call succeeds.
	Script func(ctx context.Context, name string, args []string) (command.Result, error)
}

// Run implements command.Runner.
func (r *FakeRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, RunnerCall{Name: name, Args: append([]string(nil), args...)})
	script := r.Script
	r.mu.Unlock()

	if script == nil {
		return command.Result{Command: name, Args: args}, nil
	}
	result, err := script(ctx, name, args)
	result.Command = name
	result.Args = args
	return result, err
}

// Calls returns the recorded invocations.
func (r *FakeRunner) Calls() []RunnerCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunnerCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// ArgAfter returns the argument following flag, or "".
func ArgAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
