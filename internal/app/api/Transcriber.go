package api

import "context"

// Options carries optional hints passed through to the transcription engine untouched.
type Options struct {
	Language string
	Prompt   string
}

// Transcriber defines a transcription interface for converting audio files to text.
type Transcriber interface {
	Transcript(ctx context.Context, inputFilePath string, opts Options) (string, error)
}

type jobIDKey struct{}

// WithJobID tags ctx with the job being executed so collaborators can correlate their artifacts.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey{}, jobID)
}

// JobIDFromContext returns the job id stored by WithJobID, or "".
func JobIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(jobIDKey{}).(string)
	return id
}
