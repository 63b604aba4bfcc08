package main

import (
	"fmt"
	"os"

	"github.com/Bhuvan-2005/SecLyzer/internal/config"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

var configPath string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "seclyzer",
		Short:         "Behavioral feature extraction engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: search $XDG_CONFIG_HOME/seclyzer, /etc/seclyzer)")
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newStateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "seclyzer %s\n", version)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var opts []config.Option
	if configPath != "" {
		opts = append(opts, config.WithConfigFile(configPath))
	}

	cfg, err := config.Load(cmd.Flags(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}
