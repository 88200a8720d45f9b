package server

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/courseforge/internal/config"
	"github.com/jackzampolin/courseforge/internal/providers"
	"github.com/jackzampolin/courseforge/internal/testutil"
)

func TestServer_FullLifecycle(t *testing.T) {
	cfg := testutil.NewServerConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	registry := providers.NewRegistry()
	registry.RegisterLLM(providers.MockClientName, providers.NewMockClient())

	srv, err := New(Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		AppConfig: mockConfig(),
		Registry:  registry,
		Logger:    cfg.Logger,
	})
	require.NoError(t, err)

	// Start server in background
	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)

	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	// Wait for server to be ready
	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		serverCancel()
		require.NoError(t, err, "server did not start")
	}

	t.Run("ready_endpoint", func(t *testing.T) {
		resp, err := http.Get(cfg.URL() + "/ready")
		require.NoError(t, err, "ready check failed")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("status_endpoint", func(t *testing.T) {
		status, err := testutil.GetStatus(cfg.URL())
		require.NoError(t, err, "status check failed")
		assert.Equal(t, "running", status.Server)
		assert.Equal(t, providers.MockClientName, status.Providers.Default)
		assert.Equal(t, 900, status.Generation.MinWords)
	})

	t.Run("is_running", func(t *testing.T) {
		assert.True(t, srv.IsRunning())
	})

	t.Run("start_twice", func(t *testing.T) {
		assert.Error(t, srv.Start(ctx), "second Start() succeeded")
	})

	// Shutdown server
	serverCancel()

	require.NoError(t, testutil.WaitForShutdown(serverErr, 30*time.Second), "shutdown")

	t.Run("not_running_after_shutdown", func(t *testing.T) {
		assert.False(t, srv.IsRunning())
	})
}

func TestServer_PortInUse(t *testing.T) {
	cfg := testutil.NewServerConfig(t)

	first, err := New(Config{Host: cfg.Host, Port: cfg.Port, AppConfig: mockConfig(), Logger: cfg.Logger})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- first.Start(ctx) }()
	starter := testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	require.NoError(t, testutil.WaitForServer(cfg.URL(), 10*time.Second), "first server did not start")

	second, err := New(Config{Host: cfg.Host, Port: cfg.Port, AppConfig: mockConfig(), Logger: cfg.Logger})
	require.NoError(t, err)

	err = second.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP server error")
	assert.False(t, second.IsRunning(), "failed server reports running")
}

func TestServer_ConfigHotReload(t *testing.T) {
	cfg := testutil.NewServerConfig(t)

	require.NoError(t, config.WriteDefault(cfg.ConfigFile))
	mgr, err := config.NewManager(cfg.ConfigFile)
	require.NoError(t, err)
	mgr.SetLogger(cfg.Logger)
	mgr.WatchConfig()

	srv, err := New(Config{ConfigManager: mgr, Logger: cfg.Logger})
	require.NoError(t, err)
	require.Equal(t, 2, srv.Services().Settings.MaxRetries)

	data, err := os.ReadFile(cfg.ConfigFile)
	require.NoError(t, err)
	updated := strings.Replace(string(data), "max_retries: 2", "max_retries: 1", 1)
	require.NotEqual(t, string(data), updated, "default config does not contain max_retries: 2")
	require.NoError(t, os.WriteFile(cfg.ConfigFile, []byte(updated), 0o644))

	assert.Eventually(t, func() bool {
		return srv.Services().Settings.MaxRetries == 1
	}, 5*time.Second, 50*time.Millisecond, "MaxRetries not reloaded after config change")
}
