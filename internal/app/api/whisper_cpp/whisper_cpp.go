package whisper_cpp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"whisper-api/internal/app/api"
	"whisper-api/internal/app/command"
	apperrors "whisper-api/internal/app/errors"
	"whisper-api/internal/app/util/files"
)

// LocalTranscriber implements local transcription, using the whisper.cpp command line binary.
type LocalTranscriber struct {
	binaryPath string
	modelPath  string
	tempDir    string
	runner     command.Runner
	logger     *zap.Logger
}

// Option customises a LocalTranscriber.
type Option func(*LocalTranscriber)

// WithRunner replaces the process runner (tests use fakes).
func WithRunner(runner command.Runner) Option {
	return func(lt *LocalTranscriber) {
		lt.runner = runner
	}
}

// WithTempDir sets the parent directory for per-job output directories.
func WithTempDir(dir string) Option {
	return func(lt *LocalTranscriber) {
		lt.tempDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(lt *LocalTranscriber) {
		lt.logger = logger
	}
}

// NewLocalTranscriber creates a new instance of LocalTranscriber.
func NewLocalTranscriber(binaryPath, modelPath string, opts ...Option) *LocalTranscriber {
	lt := &LocalTranscriber{
		binaryPath: binaryPath,
		modelPath:  modelPath,
		runner:     command.NewExecRunner(0, nil),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(lt)
	}
	return lt
}

// whisperOutput is the subset of the whisper.cpp -oj artifact we read.
type whisperOutput struct {
	Text          *string `json:"text"`
	Transcription []struct {
		Text string `json:"text"`
	} `json:"transcription"`
}

// Transcript runs whisper.cpp on a normalized WAV file and returns the trimmed text.
// The JSON artifact is written into a private temporary directory that is removed
// before returning.
func (lt *LocalTranscriber) Transcript(ctx context.Context, inputFilePath string, opts api.Options) (string, error) {
	workDir, err := os.MkdirTemp(lt.tempDir, "whisper-"+jobIDFromContext(ctx)+"-")
	if err != nil {
		return "", apperrors.Wrap(err, "failed to create whisper work directory")
	}
	defer os.RemoveAll(workDir)

	outputPrefix := filepath.Join(workDir, "result")
	args := buildArgs(lt.modelPath, inputFilePath, outputPrefix, opts)

	lt.logger.Info("running whisper.cpp",
		zap.String("input", inputFilePath),
		zap.String("language", opts.Language),
	)

	result, err := lt.runner.Run(ctx, lt.binaryPath, args...)
	if errors.Is(err, command.ErrProcessTimeout) {
		return "", apperrors.Wrapf(err, "whisper.cpp failed with code %d", result.ExitCode)
	}
	if err != nil {
		diagnostic := result.Diagnostic()
		if diagnostic == "" {
			diagnostic = err.Error()
		}
		return "", apperrors.Newf("whisper.cpp failed with code %d: %s", result.ExitCode, diagnostic)
	}

	outputFile := outputPrefix + ".json"
	if !files.Exists(outputFile) {
		return "", apperrors.New("whisper.cpp did not create JSON output")
	}

	text, err := readTranscript(outputFile)
	if err != nil {
		return "", err
	}

	lt.logger.Info("whisper.cpp finished",
		zap.String("input", inputFilePath),
		zap.Duration("duration", result.Duration),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

func readTranscript(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to read whisper.cpp JSON output")
	}

	var payload whisperOutput
	if err := json.Unmarshal(content, &payload); err != nil {
		return "", apperrors.Wrap(err, "whisper.cpp produced malformed JSON output")
	}

	if payload.Text != nil {
		return strings.TrimSpace(*payload.Text), nil
	}

	// Stock whisper.cpp builds only emit per-segment text.
	if len(payload.Transcription) > 0 {
		var sb strings.Builder
		for _, segment := range payload.Transcription {
			sb.WriteString(segment.Text)
		}
		return strings.TrimSpace(sb.String()), nil
	}

	return "", apperrors.New("JSON output missing transcription text")
}

func buildArgs(modelPath, audioPath, outputPrefix string, opts api.Options) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-oj",
		"-of", outputPrefix,
	}
	if opts.Language != "" {
		args = append(args, "-l", opts.Language)
	}
	if opts.Prompt != "" {
		args = append(args, "--prompt", opts.Prompt)
	}
	return args
}

func jobIDFromContext(ctx context.Context) string {
	if id := api.JobIDFromContext(ctx); id != "" {
		return id
	}
	return fmt.Sprintf("%d", os.Getpid())
}
