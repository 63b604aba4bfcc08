package main

import (
	"context"
	"os"

	"github.com/Bhuvan-2005/SecLyzer/internal/engine"
	"github.com/Bhuvan-2005/SecLyzer/internal/ingest"
	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
	"github.com/Bhuvan-2005/SecLyzer/internal/publish"
	"github.com/Bhuvan-2005/SecLyzer/internal/store"
	"github.com/spf13/cobra"
)

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay FILE",
		Short: "Extract features from a recorded JSONL capture",
		Long: "Feed a JSONL capture of raw events through the pipeline using event time as\n" +
			"the clock and write every emitted payload to stdout as a JSON line.",
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// stdout carries the vectors.
	logger.InitWithWriter(os.Stderr, cfg.LogLevel, logger.IsService())

	st, err := store.New(cfg.StoreConfig(), logger.With("store"))
	if err != nil {
		return err
	}
	defer st.Close()

	opts := engineOptions(cfg)
	if st.Enabled() {
		opts.Recorder = st
	}

	eng, err := engine.NewReplay(opts, publish.NewWriter(cmd.OutOrStdout()))
	if err != nil {
		return err
	}

	return eng.Replay(context.Background(), ingest.NewFileSource(args[0], false))
}
