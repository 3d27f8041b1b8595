package server

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/shopshield/internal/classify"
	"github.com/mj1618/shopshield/internal/guard"
	"github.com/mj1618/shopshield/internal/model"
	"github.com/mj1618/shopshield/internal/output"
	"github.com/mj1618/shopshield/internal/params"
	"github.com/mj1618/shopshield/internal/scan"
	"github.com/mj1618/shopshield/internal/settings"
	"gopkg.in/yaml.v3"
)

// DefaultPageURL is used when a scan request carries no URL.
const DefaultPageURL = "https://localhost/"

// ScanResult is the scan tool response.
type ScanResult struct {
	model.ScanReport `yaml:",inline"`
	HTML             string `yaml:"html,omitempty"`
}

// StatusResult is the status tool response.
type StatusResult struct {
	URL       string `yaml:"url"`
	Host      string `yaml:"host"`
	Protected bool   `yaml:"protected"`
	Reason    string `yaml:"reason"`
	Delay     int    `yaml:"delay"`
}

// toText serializes v to YAML for an MCP response.
func toText(v interface{}) (*mcp.CallToolResult, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("yaml encode: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// descriptorFromParams builds a descriptor from classify arguments.
func descriptorFromParams(p map[string]interface{}) model.ElementDescriptor {
	tag := model.Tag(strings.ToLower(params.String(p, "tag", string(model.TagOther))))
	switch tag {
	case model.TagButton, model.TagInput, model.TagAnchor, model.TagForm, model.TagOther:
	case "a":
		tag = model.TagAnchor
	default:
		tag = model.TagOther
	}
	return model.ElementDescriptor{
		Tag:         tag,
		TextContent: params.String(p, "text", ""),
		Value:       params.String(p, "value", ""),
		AriaLabel:   params.String(p, "aria-label", ""),
		Name:        params.String(p, "name", ""),
		ID:          params.String(p, "id", ""),
		Placeholder: params.String(p, "placeholder", ""),
		Role:        params.String(p, "role", ""),
		InputType:   params.String(p, "input-type", ""),
	}
}

func (s *Server) handleClassify(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := descriptorFromParams(request.GetArguments())
	v := classify.Explain(d)
	return toText(output.ClassifyResult{
		Match:   v.Match,
		Rule:    v.Rule,
		Field:   v.Field,
		Keyword: v.Keyword,
		Element: d,
	})
}

func (s *Server) handleScan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := request.GetArguments()
	markup := params.String(p, "html", "")
	pageURL := params.String(p, "url", DefaultPageURL)
	render := params.Bool(p, "render", false)

	if strings.TrimSpace(markup) == "" {
		return mcp.NewToolResultError("html is required"), nil
	}
	if s.deps.Loader == nil {
		return mcp.NewToolResultError("page loader not available"), nil
	}

	text, err := s.cache.Get(pageURL, markup, render, func() (string, error) {
		page, err := s.deps.Loader.Load(ctx, strings.NewReader(markup), pageURL)
		if err != nil {
			return "", err
		}
		res := scan.New(page, guard.New(guard.WithLogger(s.deps.Logger)), s.deps.Logger).Scan(page.Document())
		out := ScanResult{ScanReport: res.Report(page.URL())}
		if render {
			var b strings.Builder
			if err := page.Render(&b); err != nil {
				return "", fmt.Errorf("render: %w", err)
			}
			out.HTML = b.String()
		}
		data, err := yaml.Marshal(out)
		if err != nil {
			return "", fmt.Errorf("yaml encode: %w", err)
		}
		return string(data), nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageURL := params.String(request.GetArguments(), "url", "")
	if pageURL == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	if s.deps.Settings == nil {
		return mcp.NewToolResultError("settings not available"), nil
	}

	res := StatusResult{URL: pageURL, Host: settings.NormalizeDomain(pageURL)}
	snap, err := s.deps.Settings.Snapshot(ctx)
	switch {
	case err != nil:
		res.Reason = "settings-unavailable"
	case !snap.Enabled:
		res.Reason = "disabled"
	case snap.IsWhitelisted(res.Host):
		res.Reason = "whitelisted"
	default:
		res.Protected = true
		res.Reason = "protected"
		res.Delay = snap.DelaySeconds
	}
	return toText(res)
}

func (s *Server) handleLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := request.GetArguments()
	if s.deps.Log == nil {
		return mcp.NewToolResultError("override log not available"), nil
	}

	if params.Bool(p, "clear", false) {
		n, err := s.deps.Log.Clear(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toText(output.ClearResult{OK: true, Cleared: n})
	}

	entries, err := s.deps.Log.List(ctx, params.Int(p, "limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toText(output.LogsResult{Count: len(entries), Entries: entries})
}

func (s *Server) handleSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := request.GetArguments()
	if s.deps.Settings == nil {
		return mcp.NewToolResultError("settings not available"), nil
	}

	changing := params.Has(p, "enabled") || params.Has(p, "delay") ||
		params.Has(p, "whitelist-add") || params.Has(p, "whitelist-remove")
	if !changing {
		snap, err := s.deps.Settings.Snapshot(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toText(snap)
	}

	snap, err := s.deps.Settings.Update(func(cur *settings.Snapshot) {
		if params.Has(p, "enabled") {
			cur.Enabled = params.Bool(p, "enabled", cur.Enabled)
		}
		if params.Has(p, "delay") {
			cur.DelaySeconds = params.Int(p, "delay", cur.DelaySeconds)
		}
		if d := params.String(p, "whitelist-add", ""); d != "" {
			cur.WhitelistDomains = append(cur.WhitelistDomains, d)
		}
		if d := settings.NormalizeDomain(params.String(p, "whitelist-remove", "")); d != "" {
			cur.WhitelistDomains = slices.DeleteFunc(cur.WhitelistDomains, func(w string) bool {
				return settings.NormalizeDomain(w) == d
			})
		}
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toText(snap)
}
