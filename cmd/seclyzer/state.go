package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/usage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const stateTimeout = 5 * time.Second

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the running daemon's app usage state as YAML",
		Args:  cobra.NoArgs,
		RunE:  runState,
	}
}

func runState(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Status.Listen == "" {
		return fmt.Errorf("status server is disabled (status.listen is empty)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), stateTimeout)
	defer cancel()

	state, err := fetchState(ctx, "http://"+cfg.Status.Listen+"/v1/app/state")
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()

	return enc.Encode(stateYAML(state))
}

func fetchState(ctx context.Context, url string) (usage.State, error) {
	var state usage.State

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return state, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return state, fmt.Errorf("failed to reach status server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return state, fmt.Errorf("status server returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return state, fmt.Errorf("failed to decode state: %w", err)
	}

	return state, nil
}

type appUsageYAML struct {
	TotalTime    float64 `yaml:"total_time_seconds"`
	AvgSession   float64 `yaml:"avg_session_seconds"`
	SessionCount int     `yaml:"session_count"`
}

type stateOut struct {
	CurrentApp       *string                    `yaml:"current_app"`
	TransitionCount  int                        `yaml:"transition_count"`
	TransitionMatrix map[string]float64         `yaml:"transition_matrix"`
	TimePreferences  map[string]map[int]float64 `yaml:"time_preferences"`
	UsageStats       map[string]appUsageYAML    `yaml:"usage_stats"`
}

func stateYAML(s usage.State) stateOut {
	out := stateOut{
		CurrentApp:       s.CurrentApp,
		TransitionCount:  s.TransitionCount,
		TransitionMatrix: s.TransitionMatrix,
		TimePreferences:  s.TimePreferences,
		UsageStats:       make(map[string]appUsageYAML, len(s.UsageStats)),
	}
	for app, u := range s.UsageStats {
		out.UsageStats[app] = appUsageYAML{TotalTime: u.TotalTime, AvgSession: u.AvgSession, SessionCount: u.SessionCount}
	}

	return out
}
