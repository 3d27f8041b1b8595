// Package server exposes shopshield over the Model Context Protocol so
// agents can classify elements, scan pages and manage settings and logs.
package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/shopshield/internal/overridelog"
	"github.com/mj1618/shopshield/internal/platform"
	"github.com/mj1618/shopshield/internal/settings"
	"github.com/mj1618/shopshield/internal/version"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
}

// Deps are the stores and page loader the tools operate on.
type Deps struct {
	Settings *settings.FileStore
	Log      *overridelog.Store
	Loader   platform.Loader
	Logger   *slog.Logger
}

// Server wraps the MCP server with its stores and scan cache.
type Server struct {
	deps  Deps
	cache *ReportCache
	mcp   *mcpserver.MCPServer
}

// New creates and configures an MCP server with all shopshield tools.
func New(deps Deps, cfg Config) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{
		deps:  deps,
		cache: NewReportCache(cfg.CacheTTL),
	}
	s.mcp = mcpserver.NewMCPServer(
		"shopshield",
		version.Version,
		mcpserver.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer { return s.mcp }

// Serve starts the MCP server with the configured transport.
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		s.deps.Logger.Info("serving MCP over HTTP", "port", cfg.Port)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	// classify
	s.mcp.AddTool(
		mcp.NewTool("classify",
			mcp.WithDescription("Decide whether a UI element looks like a checkout or payment trigger. Returns the verdict and the rule that fired."),
			mcp.WithString("tag", mcp.Description("Element kind: button, input, anchor, form, other")),
			mcp.WithString("text", mcp.Description("Visible text content")),
			mcp.WithString("value", mcp.Description("Value attribute (button-like elements only)")),
			mcp.WithString("aria-label", mcp.Description("aria-label attribute")),
			mcp.WithString("name", mcp.Description("name attribute")),
			mcp.WithString("id", mcp.Description("id attribute")),
			mcp.WithString("placeholder", mcp.Description("placeholder attribute")),
			mcp.WithString("role", mcp.Description("ARIA role")),
			mcp.WithString("input-type", mcp.Description("Input type, e.g. text, tel, submit")),
		),
		s.handleClassify,
	)

	// scan
	s.mcp.AddTool(
		mcp.NewTool("scan",
			mcp.WithDescription("Scan an HTML page for checkout and payment elements. Returns every match with the rule that fired and whether it was neutralized."),
			mcp.WithString("html", mcp.Required(), mcp.Description("Page markup")),
			mcp.WithString("url", mcp.Description("Page URL (default https://localhost/)")),
			mcp.WithBoolean("render", mcp.Description("Include the neutralized markup in the response")),
		),
		s.handleScan,
	)

	// status
	s.mcp.AddTool(
		mcp.NewTool("status",
			mcp.WithDescription("Report whether protection would run on a URL under the current settings"),
			mcp.WithString("url", mcp.Required(), mcp.Description("Page URL")),
		),
		s.handleStatus,
	)

	// logs
	s.mcp.AddTool(
		mcp.NewTool("logs",
			mcp.WithDescription("List override records, newest first, or clear them"),
			mcp.WithNumber("limit", mcp.Description("Max entries (default 50)")),
			mcp.WithBoolean("clear", mcp.Description("Delete all records instead of listing")),
		),
		s.handleLogs,
	)

	// settings
	s.mcp.AddTool(
		mcp.NewTool("settings",
			mcp.WithDescription("Show or change settings. With no arguments, returns the current settings."),
			mcp.WithBoolean("enabled", mcp.Description("Turn protection on or off")),
			mcp.WithNumber("delay", mcp.Description("Pause length in seconds (clamped to 5..3600)")),
			mcp.WithString("whitelist-add", mcp.Description("Exempt a domain")),
			mcp.WithString("whitelist-remove", mcp.Description("Stop exempting a domain")),
		),
		s.handleSettings,
	)
}
