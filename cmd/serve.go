package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mj1618/shopshield/internal/overridelog"
	"github.com/mj1618/shopshield/internal/platform"
	"github.com/mj1618/shopshield/internal/server"
	"github.com/mj1618/shopshield/internal/settings"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing shopshield tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes classification,
page scanning, settings and the override log as tools.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  shopshield serve
  shopshield serve --transport streamable-http --port 8080
  shopshield serve --cache-ttl 0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	serveCmd.Flags().Int("cache-ttl", 500, "Scan report cache TTL in milliseconds (0 to disable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	cacheTTLMs, _ := cmd.Flags().GetInt("cache-ttl")

	cfg := server.Config{
		Transport: transport,
		Port:      port,
		CacheTTL:  time.Duration(cacheTTLMs) * time.Millisecond,
	}

	conf, err := loadConfig()
	if err != nil {
		return err
	}
	provider, err := platform.NewProvider()
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	logStore, err := overridelog.Open(conf.LogPath)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer logStore.Close()

	srv := server.New(server.Deps{
		Settings: settings.NewFileStore(conf.SettingsPath),
		Log:      logStore,
		Loader:   provider.Loader,
		Logger:   slog.Default(),
	}, cfg)
	return srv.Serve(cfg)
}
