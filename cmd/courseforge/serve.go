package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/courseforge/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the courseforge server",
	Long: `Start the courseforge HTTP server.

The server provides:
  - POST /generate-course - Generate a course ({"text": "..."})
  - /health               - Basic server health check
  - /ready                - Readiness check (default LLM provider registered)
  - /status               - Providers and generation settings
  - /prompts              - Embedded prompts with config overrides
  - /swagger              - API documentation

The config file is watched; provider and generation changes apply to new
requests without a restart.

Examples:
  courseforge serve                    # Start on the configured port (default 5000)
  courseforge serve --port 3000        # Start on custom port
  courseforge serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}

		// Set up logger
		logger, err := newLogger(mgr.Get().LogLevel)
		if err != nil {
			return err
		}
		mgr.SetLogger(logger)
		if used := mgr.ConfigFileUsed(); used != "" {
			logger.Info("using config file", "path", used)
			mgr.WatchConfig()
		}

		// Create server
		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: mgr,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config, 127.0.0.1)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config, 5000)")

	rootCmd.AddCommand(serveCmd)
}
