package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"whisper-api/internal/app/api"
)

// MockTranscriber is a testify mock implementation of the api.Transcriber interface.
type MockTranscriber struct {
	mock.Mock
}

// Transcript implements the api.Transcriber interface
func (m *MockTranscriber) Transcript(ctx context.Context, inputFilePath string, opts api.Options) (string, error) {
	args := m.Called(ctx, inputFilePath, opts)
	return args.String(0), args.Error(1)
}

// TranscriptionCall represents a single transcription call for tracking
type TranscriptionCall struct {
	InputFilePath string
	Options       api.Options
	Started       time.Time
	Finished      time.Time
	InputExisted  bool
	Response      string
	Error         error
}

// FakeTranscriber is a configurable transcriber that records how it was driven.
type FakeTranscriber struct {
	mu sync.Mutex

	DefaultLatency  time.Duration
	DefaultResponse string
	DefaultError    error

	ResponseMap map[string]string
	ErrorMap    map[string]error
	LatencyMap  map[string]time.Duration
	PanicMap    map[string]any

	// InputCheck reports whether the input still exists when a call starts.
	InputCheck func(path string) bool

	calls         []TranscriptionCall
	running       int
	maxConcurrent int
}

// NewFakeTranscriber creates a FakeTranscriber with sensible defaults
func NewFakeTranscriber() *FakeTranscriber {
	return &FakeTranscriber{
		DefaultResponse: "This is a mock transcription result.",
		ResponseMap:     make(map[string]string),
		ErrorMap:        make(map[string]error),
		LatencyMap:      make(map[string]time.Duration),
		PanicMap:        make(map[string]any),
	}
}

// SetResponseForFile sets a specific response for a given file path
func (f *FakeTranscriber) SetResponseForFile(filePath, response string) *FakeTranscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ResponseMap[filePath] = response
	return f
}

// SetErrorForFile sets a specific error for a given file path
func (f *FakeTranscriber) SetErrorForFile(filePath string, err error) *FakeTranscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ErrorMap[filePath] = err
	return f
}

// SetLatencyForFile sets a specific latency for a given file path
func (f *FakeTranscriber) SetLatencyForFile(filePath string, latency time.Duration) *FakeTranscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LatencyMap[filePath] = latency
	return f
}

// SetPanicForFile makes the call for filePath panic with value.
func (f *FakeTranscriber) SetPanicForFile(filePath string, value any) *FakeTranscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PanicMap[filePath] = value
	return f
}

// Transcript implements the api.Transcriber interface
func (f *FakeTranscriber) Transcript(ctx context.Context, inputFilePath string, opts api.Options) (string, error) {
	f.mu.Lock()
	call := TranscriptionCall{
		InputFilePath: inputFilePath,
		Options:       opts,
		Started:       time.Now(),
	}
	if f.InputCheck != nil {
		call.InputExisted = f.InputCheck(inputFilePath)
	}
	latency := f.DefaultLatency
	if l, ok := f.LatencyMap[inputFilePath]; ok {
		latency = l
	}
	response := f.DefaultResponse
	if r, ok := f.ResponseMap[inputFilePath]; ok {
		response = r
	}
	err := f.DefaultError
	if e, ok := f.ErrorMap[inputFilePath]; ok {
		err = e
	}
	panicValue, shouldPanic := f.PanicMap[inputFilePath]
	f.running++
	if f.running > f.maxConcurrent {
		f.maxConcurrent = f.running
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.running--
		call.Finished = time.Now()
		f.calls = append(f.calls, call)
	}()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			call.Error = ctx.Err()
			return "", ctx.Err()
		}
	}
	if shouldPanic {
		panic(panicValue)
	}
	if err != nil {
		call.Error = err
		return "", err
	}
	call.Response = response
	return response, nil
}

// Calls returns the finished calls in completion order.
func (f *FakeTranscriber) Calls() []TranscriptionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]TranscriptionCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// MaxConcurrent returns the highest number of overlapping calls observed.
func (f *FakeTranscriber) MaxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxConcurrent
}

// WaitForCalls blocks until n calls finished or timeout elapses.
func (f *FakeTranscriber) WaitForCalls(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		done := len(f.calls) >= n
		f.mu.Unlock()
		if done {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return false
}
