package mermaid

import (
	"context"
	_ "embed"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	// WidgetURI identifies the widget resource; the render tool points the
	// host at it through openai/outputTemplate.
	WidgetURI      = "ui://widget/mermaid.html"
	WidgetMIMEType = "text/html+skybridge"

	// CDNOrigin is the only origin the widget may load from.
	CDNOrigin = "https://cdn.jsdelivr.net"
)

//go:embed static/widget.html
var widgetHTML string

// WidgetContents returns the widget document together with the CSP the host
// must apply to its sandbox.
func WidgetContents() mcp.TextResourceContents {
	return mcp.TextResourceContents{
		URI:      WidgetURI,
		MIMEType: WidgetMIMEType,
		Text:     strings.TrimSpace(widgetHTML),
		Meta: map[string]any{
			"openai/widgetCSP": map[string]any{
				"connect_domains":  []string{},
				"resource_domains": []string{CDNOrigin},
			},
		},
	}
}

func registerWidgetResource(srv *server.MCPServer, logger *slog.Logger) {
	resource := mcp.NewResource(WidgetURI, "html", mcp.WithMIMEType(WidgetMIMEType))
	srv.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		logger.DebugContext(ctx, "read resource", "uri", req.Params.URI)
		return []mcp.ResourceContents{WidgetContents()}, nil
	})
}
