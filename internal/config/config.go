package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	apperrors "whisper-api/internal/app/errors"
)

// Config is the complete runtime configuration of the transcription service.
type Config struct {
	APIToken string

	WhisperBin       string
	WhisperModelPath string
	FFmpegBin        string

	// TranscribeTimeout bounds every wait on a submitted job.
	TranscribeTimeout time.Duration
	// ProcessTimeout bounds each child process regardless of who is waiting.
	ProcessTimeout time.Duration
	QueueCapacity  int

	Host        string
	Port        string
	Environment string
	MaxUploadMB int

	HistoryDriver string
	HistoryDSN    string
}

// fileConfig mirrors Config for the optional YAML file.
type fileConfig struct {
	APIToken                 string `yaml:"api_token"`
	WhisperBin               string `yaml:"whisper_cpp_bin"`
	WhisperModelPath         string `yaml:"whisper_model_path"`
	FFmpegBin                string `yaml:"ffmpeg_bin"`
	TranscribeTimeoutSeconds int    `yaml:"transcribe_timeout_seconds"`
	ProcessTimeoutSeconds    int    `yaml:"process_timeout_seconds"`
	QueueCapacity            int    `yaml:"queue_capacity"`
	Host                     string `yaml:"host"`
	Port                     string `yaml:"port"`
	Environment              string `yaml:"environment"`
	MaxUploadMB              int    `yaml:"max_upload_mb"`
	History                  struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"history"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		WhisperBin:        DefaultWhisperCppBin,
		WhisperModelPath:  DefaultWhisperModelPath,
		FFmpegBin:         DefaultFFmpegBin,
		TranscribeTimeout: DefaultTranscribeTimeout,
		QueueCapacity:     DefaultQueueCapacity,
		Host:              DefaultHost,
		Port:              DefaultHTTPPort,
		Environment:       DefaultEnvironment,
		MaxUploadMB:       DefaultMaxUploadMB,
	}
}

// Load builds the configuration from defaults, then the YAML file at path (if any),
// then environment variables. It fails fast when required values are missing.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.ProcessTimeout == 0 {
		cfg.ProcessTimeout = 2 * cfg.TranscribeTimeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	c.APIToken = lo.CoalesceOrEmpty(os.ExpandEnv(fc.APIToken), c.APIToken)
	c.WhisperBin = lo.CoalesceOrEmpty(fc.WhisperBin, c.WhisperBin)
	c.WhisperModelPath = lo.CoalesceOrEmpty(fc.WhisperModelPath, c.WhisperModelPath)
	c.FFmpegBin = lo.CoalesceOrEmpty(fc.FFmpegBin, c.FFmpegBin)
	c.Host = lo.CoalesceOrEmpty(fc.Host, c.Host)
	c.Port = lo.CoalesceOrEmpty(fc.Port, c.Port)
	c.Environment = lo.CoalesceOrEmpty(fc.Environment, c.Environment)
	c.HistoryDriver = lo.CoalesceOrEmpty(fc.History.Driver, c.HistoryDriver)
	c.HistoryDSN = lo.CoalesceOrEmpty(os.ExpandEnv(fc.History.DSN), c.HistoryDSN)

	if fc.TranscribeTimeoutSeconds != 0 {
		c.TranscribeTimeout = time.Duration(fc.TranscribeTimeoutSeconds) * time.Second
	}
	if fc.ProcessTimeoutSeconds != 0 {
		c.ProcessTimeout = time.Duration(fc.ProcessTimeoutSeconds) * time.Second
	}
	if fc.QueueCapacity != 0 {
		c.QueueCapacity = fc.QueueCapacity
	}
	if fc.MaxUploadMB != 0 {
		c.MaxUploadMB = fc.MaxUploadMB
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error

	c.APIToken = getEnvOrDefault("API_TOKEN", c.APIToken)
	c.WhisperBin = getEnvOrDefault("WHISPER_CPP_BIN", c.WhisperBin)
	c.WhisperModelPath = getEnvOrDefault("WHISPER_MODEL_PATH", c.WhisperModelPath)
	c.FFmpegBin = getEnvOrDefault("FFMPEG_BIN", c.FFmpegBin)
	c.Host = getEnvOrDefault("HOST", c.Host)
	c.Port = getEnvOrDefault("PORT", c.Port)
	c.Environment = strings.ToLower(getEnvOrDefault("ENVIRONMENT", c.Environment))
	c.HistoryDriver = getEnvOrDefault("HISTORY_DRIVER", c.HistoryDriver)
	c.HistoryDSN = getEnvOrDefault("HISTORY_DSN", c.HistoryDSN)

	if c.TranscribeTimeout, err = getEnvSeconds("TRANSCRIBE_TIMEOUT_SECONDS", c.TranscribeTimeout); err != nil {
		return err
	}
	if c.ProcessTimeout, err = getEnvSeconds("PROCESS_TIMEOUT_SECONDS", c.ProcessTimeout); err != nil {
		return err
	}
	if c.QueueCapacity, err = getEnvInt("QUEUE_CAPACITY", c.QueueCapacity); err != nil {
		return err
	}
	if c.MaxUploadMB, err = getEnvInt("MAX_UPLOAD_MB", c.MaxUploadMB); err != nil {
		return err
	}
	return nil
}

// Validate checks required values and ranges.
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return apperrors.RequiredField("API_TOKEN")
	}
	if err := ValidateTimeout(c.TranscribeTimeout, "transcribe"); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
	}
	if err := ValidateTimeout(c.ProcessTimeout, "process"); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
	}
	if err := ValidateCapacity(c.QueueCapacity, "queue"); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
	}
	if err := ValidatePort(c.Port, "HTTP"); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
	}
	if c.MaxUploadMB <= 0 {
		return apperrors.InvalidField("MAX_UPLOAD_MB", "must be positive")
	}
	if err := ValidateHistoryDriver(c.HistoryDriver, c.HistoryDSN); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
	}
	return nil
}

// Development reports whether debug-friendly logging and gin debug mode apply.
func (c *Config) Development() bool {
	return c.Environment != "production"
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
