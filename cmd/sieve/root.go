// Package sieve implements the sieve command line tool, which selects the
// fields of JSON documents that satisfy a set of expressions.
package sieve

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	Version        = "develop"
	CommitHash     = "n/a"
	BuildTimestamp = "n/a"
)

// app carries the state resolved by the root command for its subcommands.
type app struct {
	v      *viper.Viper
	config *Config
	logger *zap.Logger
}

// NewRootCommand builds the command tree. Each call returns independent
// commands and configuration.
func NewRootCommand() *cobra.Command {
	a := &app{v: newViper(), logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:           "sieve",
		Short:         "Sieve selects the fields of a document that satisfy a query",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(a.v, configFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("could not initialize logger: %w", err)
			}
			a.config = cfg
			a.logger = logger
			a.logger.Debug("Loaded configuration",
				zap.String("file", a.v.ConfigFileUsed()),
				zap.Any("config", cfg))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		Version: Version,
	}

	// Configure the root binary options
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the sieve config file (default ./sieve.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("development", false, "Print human readable development logs")
	rootCmd.PersistentFlags().String("unknown-types", "reject", "Comparisons against unknown leaf types: reject or match")

	// Bind viper config to the root flags
	a.v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	a.v.BindPFlag("log.development", rootCmd.PersistentFlags().Lookup("development"))
	a.v.BindPFlag("evaluation.unknown_types", rootCmd.PersistentFlags().Lookup("unknown-types"))

	rootCmd.SetVersionTemplate(fmt.Sprintf("sieve version: %s git_commit: %s build_time: %s\n", Version, CommitHash, BuildTimestamp))

	rootCmd.AddCommand(newSelectCommand(a))
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of sieve",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sieve version: %s git_commit: %s build_time: %s\n",
				Version, CommitHash, BuildTimestamp)
		},
	}
}
