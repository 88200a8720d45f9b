package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/courseforge/internal/api"
	"github.com/jackzampolin/courseforge/internal/config"
	"github.com/jackzampolin/courseforge/internal/home"
	"github.com/jackzampolin/courseforge/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "courseforge",
	Short: "Generate short quantum computing courses with an LLM",
	Long: `Courseforge turns a free-text request into a short, structured course
on a quantum computing topic.

Each request goes through:
  - A fail-closed topic classifier
  - Fresh generation of a JSON course document
  - Up to two repair rounds until the course meets its length floors`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.courseforge/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "courseforge home directory (default: ~/.courseforge)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the home directory, loads .env files and builds the
// config manager. An explicit --config wins over the home config file.
func loadConfig() (*config.Manager, *home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}

	if err := config.LoadDotEnv(home.EnvFileName, h.EnvPath()); err != nil {
		return nil, nil, err
	}

	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}

	mgr, err := config.NewManager(path)
	if err != nil {
		return nil, nil, err
	}
	return mgr, h, nil
}

// newLogger builds the text logger. The --log-level flag wins over the
// configured level.
func newLogger(configured string) (*slog.Logger, error) {
	level := logLevel
	if level == "" {
		level = configured
	}
	if level == "" {
		level = "info"
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})), nil
}
