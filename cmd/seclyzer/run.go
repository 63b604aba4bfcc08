package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/config"
	"github.com/Bhuvan-2005/SecLyzer/internal/engine"
	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/events"
	"github.com/Bhuvan-2005/SecLyzer/internal/ingest"
	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
	"github.com/Bhuvan-2005/SecLyzer/internal/pid"
	"github.com/Bhuvan-2005/SecLyzer/internal/publish"
	"github.com/Bhuvan-2005/SecLyzer/internal/status"
	"github.com/Bhuvan-2005/SecLyzer/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const dialTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the extraction daemon",
		Args:  cobra.NoArgs,
		RunE:  runDaemon,
	}
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Msg("Config loaded")

	pidPath := cfg.PIDPath()
	if err := pid.Write(pidPath); err != nil {
		logger.Error().Err(err).Str("path", pidPath).Msg("Failed to write PID file")
		return err
	}
	defer func() {
		if err := pid.Remove(pidPath); err != nil {
			logger.Error().Err(err).Msg("Failed to remove PID file")
		}
	}()

	st, err := store.New(cfg.StoreConfig(), logger.With("store"))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open feature store")
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close feature store")
		}
	}()

	dialCtx, cancelDial := context.WithTimeout(context.Background(), dialTimeout)
	pub, err := publish.DialRedis(dialCtx, &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cancelDial()
	if err != nil {
		logger.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		return err
	}
	defer pub.Close()

	opts := engineOptions(cfg)
	if st.Enabled() {
		opts.Recorder = st
	}

	eng, err := engine.New(opts, pub)
	if err != nil {
		return errors.New().Wrap(errors.ErrInitApp, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if cfg.Status.Listen != "" {
		handler := status.NewHandler(eng.Tracker, eng.Dispatcher, eng.StatsProviders()...)
		go func() {
			if err := status.Serve(ctx, cfg.Status.Listen, handler.Router(), logger.With("status")); err != nil {
				logger.Error().Err(err).Msg("Status server stopped")
			}
		}()
	}

	logger.Info().
		Str("source", string(cfg.Ingest.Source)).
		Dur("window", cfg.WindowDuration()).
		Dur("interval", cfg.IntervalDuration()).
		Bool("store", st.Enabled()).
		Msg("SecLyzer started")

	if err := eng.Run(ctx, newSource(cfg, pub)); err != nil {
		logger.Error().Err(err).Msg("Error in main loop")
		return err
	}

	logger.Info().Msg("Exiting...")

	return nil
}

func engineOptions(cfg *config.Config) engine.Options {
	return engine.Options{
		Window:          cfg.WindowDuration(),
		Interval:        cfg.IntervalDuration(),
		CleanupInterval: cfg.CleanupDuration(),
		AppInterval:     cfg.AppDuration(),
		PublishTimeout:  cfg.PublishTimeout,
		ChannelPrefix:   cfg.ChannelPrefix,
		Decoder: events.DecoderOptions{
			Validate:     cfg.Ingest.Validate,
			MaxClockSkew: cfg.ClockSkew(),
		},
	}
}

func newSource(cfg *config.Config, pub *publish.RedisPublisher) ingest.Source {
	if cfg.Ingest.Source == config.SourceFile {
		return ingest.NewFileSource(cfg.Ingest.File, true)
	}

	return ingest.NewRedisSource(pub.Client(), cfg.Redis.EventsChannel)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
