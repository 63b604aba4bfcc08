package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/events"
	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
	"github.com/Bhuvan-2005/SecLyzer/internal/store"
	"github.com/Bhuvan-2005/SecLyzer/internal/usage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	queryStream string
	querySince  time.Duration
)

type queryVector struct {
	Timestamp time.Time          `yaml:"timestamp"`
	Stream    string             `yaml:"stream"`
	Features  map[string]float64 `yaml:"features"`
}

type queryTransition struct {
	Timestamp time.Time `yaml:"timestamp"`
	From      string    `yaml:"from"`
	To        string    `yaml:"to"`
	Duration  float64   `yaml:"duration_seconds"`
}

type queryResult struct {
	Since       time.Time         `yaml:"since"`
	Until       time.Time         `yaml:"until"`
	Vectors     []queryVector     `yaml:"vectors,omitempty"`
	Transitions []queryTransition `yaml:"transitions,omitempty"`
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print stored feature vectors or app transitions as YAML",
		Args:  cobra.NoArgs,
		RunE:  runQuery,
	}

	cmd.Flags().StringVar(&queryStream, "stream", string(feature.StreamKeystroke), "stream to query (keystroke, mouse, app)")
	cmd.Flags().DurationVar(&querySince, "since", 10*time.Minute, "how far back to look")

	return cmd
}

func runQuery(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger.InitWithWriter(os.Stderr, cfg.LogLevel, logger.IsService())

	stream, ok := feature.ParseStream(queryStream)
	if !ok {
		return fmt.Errorf("unknown stream %q", queryStream)
	}
	if querySince <= 0 {
		return fmt.Errorf("--since must be positive, got %s", querySince)
	}

	storeCfg := cfg.StoreConfig()
	if _, err := os.Stat(storeCfg.Path); err != nil {
		return fmt.Errorf("no feature database at %s: %w", storeCfg.Path, err)
	}
	// Reading does not depend on whether the daemon records.
	storeCfg.Enabled = true

	st, err := store.New(storeCfg, logger.With("store"))
	if err != nil {
		return err
	}
	defer st.Close()

	until := time.Now()
	res, err := query(cmd.Context(), st, stream, until.Add(-querySince), until)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()

	return enc.Encode(res)
}

func query(ctx context.Context, st store.Store, stream feature.StreamType, since, until time.Time) (queryResult, error) {
	res := queryResult{Since: since.UTC(), Until: until.UTC()}

	if stream == feature.StreamApp {
		ts, err := st.QueryTransitions(ctx, since, until)
		if err != nil {
			return res, err
		}
		res.Transitions = toQueryTransitions(ts)
		return res, nil
	}

	vs, err := st.QueryRange(ctx, stream, since, until)
	if err != nil {
		return res, err
	}
	for _, v := range vs {
		res.Vectors = append(res.Vectors, queryVector{
			Timestamp: v.Timestamp.UTC(),
			Stream:    string(v.Stream),
			Features:  v.Features,
		})
	}

	return res, nil
}

func toQueryTransitions(ts []usage.Transition) []queryTransition {
	out := make([]queryTransition, 0, len(ts))
	for _, t := range ts {
		out = append(out, queryTransition{
			Timestamp: events.Time(t.Timestamp).UTC(),
			From:      t.From,
			To:        t.To,
			Duration:  t.Duration,
		})
	}

	return out
}
