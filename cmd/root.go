package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/wordwise/internal/app"
	"github.com/abhisek/wordwise/internal/config"
	"github.com/abhisek/wordwise/internal/logging"
	"github.com/abhisek/wordwise/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "wordwise",
	Short:        "Adaptive vocabulary selection and scheduling",
	Long:         "Wordwise picks which vocabulary words to practice next using spaced repetition, session cooldowns and adaptive novelty.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides WORDWISE_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.config/wordwise/config.yaml)")
	rootCmd.PersistentFlags().String("user", "default", "Learner ID")
	rootCmd.PersistentFlags().String("lang", "", "Language code, e.g. de")

	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(strugglingCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then WORDWISE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openEngine loads configuration and wires the engine. Callers must Close it.
func openEngine(cmd *cobra.Command) (*app.Engine, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.FromConfig(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	opts := app.Options{Config: cfg, Logger: logger}
	if flagDB, _ := cmd.Flags().GetString("db"); flagDB != "" || cfg.Database.DSN == "" {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.Database.Driver = store.DriverSQLite
		cfg.Database.DSN = ""
		opts.DBPath = dbPath
	}

	e, err := app.New(cmd.Context(), opts)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// learner returns the --user and --lang flags; --lang is required.
func learner(cmd *cobra.Command) (user, lang string, err error) {
	user, _ = cmd.Flags().GetString("user")
	lang, _ = cmd.Flags().GetString("lang")
	if lang == "" {
		return "", "", fmt.Errorf("--lang is required")
	}
	return user, lang, nil
}

// sessionFlag returns --session, or a new session ID when it is unset so
// events never share an anonymous session.
func sessionFlag(cmd *cobra.Command) string {
	if s, _ := cmd.Flags().GetString("session"); s != "" {
		return s
	}
	return uuid.NewString()
}
