package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/courseforge/internal/api"
	"github.com/jackzampolin/courseforge/internal/server/endpoints"
)

var serverURL string

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Prompt inspection commands",
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Model call usage commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	registry := api.NewRegistry()
	for _, ep := range endpoints.TopLevelCommands() {
		registry.Register(ep)
	}
	apiCmd := registry.BuildCommands(getServerURL)
	apiCmd.Example = `  courseforge api health
  courseforge api generate "Explain Shor's algorithm"
  courseforge api prompts get course.expand.system`

	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:5000", "Server URL",
	)

	// Prompts as subcommand group
	for _, ep := range endpoints.PromptsCommands() {
		promptsCmd.AddCommand(ep.Command(getServerURL))
	}

	// Metrics as subcommand group
	for _, ep := range endpoints.MetricsCommands() {
		metricsCmd.AddCommand(ep.Command(getServerURL))
	}

	apiCmd.AddCommand(promptsCmd)
	apiCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(apiCmd)
}
