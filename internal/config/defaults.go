package config

import "time"

// Default configuration constants
const (
	DefaultWhisperCppBin    = "whisper-cli"
	DefaultWhisperModelPath = "models/ggml-base.en.bin"
	DefaultFFmpegBin        = "ffmpeg"

	DefaultTranscribeTimeout = 600 * time.Second
	DefaultQueueCapacity     = 0

	DefaultHost        = "0.0.0.0"
	DefaultHTTPPort    = "8000"
	DefaultEnvironment = "development"
	DefaultMaxUploadMB = 200

	DefaultReadTimeout  = 60 * time.Second
	DefaultIdleTimeout  = 120 * time.Second
	DefaultShutdownWait = 15 * time.Second
)
