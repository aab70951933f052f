package audio

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"whisper-api/internal/app/command"
	apperrors "whisper-api/internal/app/errors"
	"whisper-api/internal/app/util/files"
)

// NormalizedSuffix replaces the source extension on the normalizer's output artifact.
const NormalizedSuffix = ".normalized.wav"

// Normalizer converts arbitrary audio into the 16kHz mono PCM WAV whisper.cpp expects.
type Normalizer struct {
	ffmpegBin string
	runner    command.Runner
	logger    *zap.Logger
}

// NewNormalizer creates a normalizer around the ffmpeg binary.
func NewNormalizer(ffmpegBin string, runner command.Runner, logger *zap.Logger) *Normalizer {
	if runner == nil {
		runner = command.NewExecRunner(0, logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		ffmpegBin: ffmpegBin,
		runner:    runner,
		logger:    logger,
	}
}

// NormalizedPath derives the artifact path for sourcePath.
func NormalizedPath(sourcePath string) string {
	return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + NormalizedSuffix
}

// Normalize converts sourcePath and returns the path of the normalized artifact.
// The source file is left in place; callers own its removal.
func (n *Normalizer) Normalize(ctx context.Context, sourcePath string) (string, error) {
	normalizedPath := NormalizedPath(sourcePath)
	args := buildFFmpegArgs(sourcePath, normalizedPath)

	n.logger.Debug("normalizing audio",
		zap.String("source", sourcePath),
		zap.String("target", normalizedPath),
	)

	result, err := n.runner.Run(ctx, n.ffmpegBin, args...)
	if err != nil || !files.Exists(normalizedPath) {
		_ = files.RemoveIfExists(normalizedPath)

		diagnostic := result.Diagnostic()
		if diagnostic == "" {
			diagnostic = "unknown ffmpeg error"
		}
		n.logger.Warn("audio conversion failed",
			zap.String("source", sourcePath),
			zap.Int("exit_code", result.ExitCode),
			zap.Error(err),
		)
		return "", apperrors.Wrap(apperrors.New(diagnostic), apperrors.ErrConversionFailed.Message())
	}

	return normalizedPath, nil
}

// buildFFmpegArgs builds preprocessing CLI args for mono 16k PCM WAV output.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}
