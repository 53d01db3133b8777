package mermaid

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRender struct {
	result      string
	diagramType string
}

type fakeRecorder struct {
	mu      sync.Mutex
	renders []recordedRender
}

func (r *fakeRecorder) RecordRender(result, diagramType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders = append(r.renders, recordedRender{result: result, diagramType: diagramType})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func callToolRequest(args any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = ToolName
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	assert.Equal(t, "text", text.Type)
	return text.Text
}

// send pushes one JSON-RPC request through srv and returns the decoded reply.
func send(t *testing.T, srv *server.MCPServer, id int, method string, params any) map[string]any {
	t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		msg["params"] = params
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	reply := srv.HandleMessage(context.Background(), raw)
	require.NotNil(t, reply)

	b, err := json.Marshal(reply)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestRenderHandler(t *testing.T) {
	t.Run("echoes a valid diagram verbatim", func(t *testing.T) {
		rec := &fakeRecorder{}
		h := &renderHandler{logger: discardLogger(), recorder: rec}

		diagram := "flowchart LR\n\tA-->B"
		result, err := h.handle(context.Background(), callToolRequest(map[string]any{"diagram": diagram}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Equal(t, diagram, textOf(t, result))
		assert.Equal(t, []recordedRender{{ResultAccepted, "flowchart"}}, rec.renders)
	})

	t.Run("flags text that is not a diagram", func(t *testing.T) {
		rec := &fakeRecorder{}
		h := &renderHandler{logger: discardLogger(), recorder: rec}

		result, err := h.handle(context.Background(), callToolRequest(map[string]any{"diagram": "not a diagram"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, InvalidDiagramMessage, textOf(t, result))
		assert.Equal(t, []recordedRender{{ResultRejected, ""}}, rec.renders)
	})

	t.Run("flags an empty diagram", func(t *testing.T) {
		h := &renderHandler{logger: discardLogger()}

		result, err := h.handle(context.Background(), callToolRequest(map[string]any{"diagram": ""}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, InvalidDiagramMessage, textOf(t, result))
	})

	t.Run("missing argument is a tool error", func(t *testing.T) {
		rec := &fakeRecorder{}
		h := &renderHandler{logger: discardLogger(), recorder: rec}

		result, err := h.handle(context.Background(), callToolRequest(map[string]any{}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, textOf(t, result), `"diagram"`)
		assert.Equal(t, []recordedRender{{ResultInvalidArguments, ""}}, rec.renders)
	})

	t.Run("non-string argument is a tool error", func(t *testing.T) {
		h := &renderHandler{logger: discardLogger()}

		result, err := h.handle(context.Background(), callToolRequest(map[string]any{"diagram": 42}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, textOf(t, result), "not a string")
	})

	t.Run("repeated calls give identical results", func(t *testing.T) {
		h := &renderHandler{logger: discardLogger()}
		req := callToolRequest(map[string]any{"diagram": "pie title Pets\n \"Dogs\" : 386"})

		first, err := h.handle(context.Background(), req)
		require.NoError(t, err)
		second, err := h.handle(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestNewServer(t *testing.T) {
	srv := NewServer(ServerConfig{OwnerName: "Ada", Logger: discardLogger()})

	t.Run("initialize reports the owner name", func(t *testing.T) {
		resp := send(t, srv, 1, "initialize", map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"capabilities":    map[string]any{},
			"clientInfo":      map[string]any{"name": "test-client", "version": "1.0.0"},
		})
		require.Nil(t, resp["error"])

		result := resp["result"].(map[string]any)
		info := result["serverInfo"].(map[string]any)
		assert.Equal(t, "Ada Mermaid App", info["name"])
		assert.Equal(t, ServerVersion, info["version"])

		caps := result["capabilities"].(map[string]any)
		assert.Contains(t, caps, "tools")
		assert.Contains(t, caps, "resources")
		assert.Contains(t, caps, "logging")
	})

	t.Run("lists the render tool with its widget binding", func(t *testing.T) {
		resp := send(t, srv, 2, "tools/list", nil)
		require.Nil(t, resp["error"])

		tools := resp["result"].(map[string]any)["tools"].([]any)
		require.Len(t, tools, 1)

		tool := tools[0].(map[string]any)
		assert.Equal(t, ToolName, tool["name"])

		meta := tool["_meta"].(map[string]any)
		assert.Equal(t, WidgetURI, meta["openai/outputTemplate"])
		assert.Equal(t, "Displaying diagram", meta["openai/toolInvocation/invoking"])
		assert.Equal(t, "Displayed diagram", meta["openai/toolInvocation/invoked"])

		schema := tool["inputSchema"].(map[string]any)
		assert.Equal(t, []any{"diagram"}, schema["required"])
	})

	t.Run("calls the render tool", func(t *testing.T) {
		resp := send(t, srv, 3, "tools/call", map[string]any{
			"name":      ToolName,
			"arguments": map[string]any{"diagram": "gantt\n  title Plan"},
		})
		require.Nil(t, resp["error"])

		result := resp["result"].(map[string]any)
		assert.NotEqual(t, true, result["isError"])
		content := result["content"].([]any)
		require.Len(t, content, 1)
		assert.Equal(t, "gantt\n  title Plan", content[0].(map[string]any)["text"])
	})

	t.Run("rejected diagram stays a successful rpc", func(t *testing.T) {
		resp := send(t, srv, 4, "tools/call", map[string]any{
			"name":      ToolName,
			"arguments": map[string]any{"diagram": "hello"},
		})
		require.Nil(t, resp["error"])

		result := resp["result"].(map[string]any)
		assert.Equal(t, true, result["isError"])
	})

	t.Run("reads the widget resource", func(t *testing.T) {
		resp := send(t, srv, 5, "resources/read", map[string]any{"uri": WidgetURI})
		require.Nil(t, resp["error"])

		contents := resp["result"].(map[string]any)["contents"].([]any)
		require.Len(t, contents, 1)

		widget := contents[0].(map[string]any)
		assert.Equal(t, WidgetURI, widget["uri"])
		assert.Equal(t, WidgetMIMEType, widget["mimeType"])
		assert.Contains(t, widget["text"], "mermaid.initialize({ startOnLoad: false })")

		csp := widget["_meta"].(map[string]any)["openai/widgetCSP"].(map[string]any)
		assert.Equal(t, []any{}, csp["connect_domains"])
		assert.Equal(t, []any{CDNOrigin}, csp["resource_domains"])
	})

	t.Run("lists the widget resource", func(t *testing.T) {
		resp := send(t, srv, 6, "resources/list", nil)
		require.Nil(t, resp["error"])

		resources := resp["result"].(map[string]any)["resources"].([]any)
		require.Len(t, resources, 1)
		assert.Equal(t, WidgetURI, resources[0].(map[string]any)["uri"])
		assert.Equal(t, "html", resources[0].(map[string]any)["name"])
	})
}
