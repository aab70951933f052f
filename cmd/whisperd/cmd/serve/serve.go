package serve

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"whisper-api/internal/api/server"
	"whisper-api/internal/app/api/whisper_cpp"
	"whisper-api/internal/app/audio"
	"whisper-api/internal/app/command"
	"whisper-api/internal/app/repository"
	"whisper-api/internal/app/scheduler"
	"whisper-api/internal/config"
	"whisper-api/internal/logging"
)

var configPath string

func init() {
	Cmd.Flags().StringVarP(&configPath, "config", "c", "", "optional YAML config file, overridden by environment variables")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the transcription HTTP service",
	Long: `Start the transcription HTTP service

- POST /transcribe accepts a multipart "file" plus optional language and prompt query parameters
- Jobs run one at a time in submission order
- Requires API_TOKEN; see .env.example for the remaining settings`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return Run(ctx, configPath, verbose)
	},
}

// Run wires the service together and blocks until ctx is cancelled or the HTTP
// server fails. The scheduler is started before the listener and stopped before
// the listener drains.
func Run(ctx context.Context, configPath string, verbose bool) error {
	envFile, err := config.LoadEnv()
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Development() || verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	httpLogger := logging.NewSlogLogger(cfg.Development(), os.Stderr)

	if envFile != "" {
		logger.Info("loaded environment file", zap.String("path", envFile))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	runner := command.NewExecRunner(cfg.ProcessTimeout, logger.Named("command"))
	normalizer := audio.NewNormalizer(cfg.FFmpegBin, runner, logger.Named("audio"))
	transcriber := whisper_cpp.NewLocalTranscriber(cfg.WhisperBin, cfg.WhisperModelPath,
		whisper_cpp.WithRunner(runner),
		whisper_cpp.WithLogger(logger.Named("whisper_cpp")),
	)

	opts := []scheduler.Option{scheduler.WithMetrics(scheduler.NewMetrics(reg))}
	deps := server.Dependencies{Normalizer: normalizer, Gatherer: reg}

	if cfg.HistoryDriver != "" {
		history, err := repository.Open(cfg.HistoryDriver, cfg.HistoryDSN)
		if err != nil {
			return err
		}
		defer history.Close()
		opts = append(opts, scheduler.WithRecorder(history))
		deps.History = history
		logger.Info("job history enabled", zap.String("driver", cfg.HistoryDriver))
	}

	sched := scheduler.New(transcriber, scheduler.Config{
		Deadline:      cfg.TranscribeTimeout,
		QueueCapacity: cfg.QueueCapacity,
	}, logger, opts...)
	if err := sched.Start(); err != nil {
		return err
	}
	deps.Gateway = sched

	srv := server.NewServer(server.Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		ReadTimeout:    config.DefaultReadTimeout,
		WriteTimeout:   cfg.ProcessTimeout + cfg.TranscribeTimeout + time.Minute,
		IdleTimeout:    config.DefaultIdleTimeout,
		Environment:    cfg.Environment,
		APIToken:       cfg.APIToken,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}, deps, httpLogger)

	logger.Info("whisperd ready",
		zap.String("addr", cfg.Addr()),
		zap.String("whisper_bin", cfg.WhisperBin),
		zap.String("model", cfg.WhisperModelPath),
		zap.Duration("deadline", cfg.TranscribeTimeout),
		zap.Duration("process_timeout", cfg.ProcessTimeout),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()

		// Scheduler first: handlers blocked in Transcribe must return before Shutdown drains.
		stopCtx, cancelStop := context.WithTimeout(context.Background(), config.DefaultShutdownWait)
		defer cancelStop()
		stopErr := sched.Stop(stopCtx)

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), config.DefaultShutdownWait)
		defer cancelShutdown()
		return errors.Join(stopErr, srv.Shutdown(shutdownCtx))
	})
	return g.Wait()
}
