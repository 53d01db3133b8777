package mermaid

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolName is the name the render tool is registered under.
const ToolName = "render-mermaid"

const (
	ResultAccepted         = "accepted"
	ResultRejected         = "rejected"
	ResultInvalidArguments = "invalid_arguments"
)

// InvalidDiagramMessage is returned to the model when a submission fails the
// diagram check.
const InvalidDiagramMessage = "`diagram` does not appear to be a valid Mermaid formatted diagram.  Please provide a valid mermaid diagram."

const renderToolDescription = "Renders mermaid diagrams.  Provide a string in Mermaid format.  IMPORTANT: Whitespace is significant for mermaid format.  Include all line returns and spaces or tabs in your inputs.  Do not omit line returns."

const diagramArgDescription = "A mermaid formatted string to render.  Just the text for the diagram.  <example>\nflowchart LR\n\tA[Input] --> B[Processing]\n\tB --> C[Output]\n</example>."

// Recorder is notified of every render outcome. result is one of the Result*
// constants; diagramType is empty unless the diagram was accepted.
type Recorder interface {
	RecordRender(result, diagramType string)
}

type renderHandler struct {
	logger   *slog.Logger
	recorder Recorder
}

func renderTool() mcp.Tool {
	tool := mcp.NewTool(
		ToolName,
		mcp.WithDescription(renderToolDescription),
		mcp.WithTitleAnnotation("Mermaid Rendering App"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
		mcp.WithString("diagram", mcp.Required(), mcp.Description(diagramArgDescription)),
	)
	// the host binds the tool output to the widget through these keys
	tool.Meta = mcp.NewMetaFromMap(map[string]any{
		"openai/outputTemplate":          WidgetURI,
		"openai/toolInvocation/invoking": "Displaying diagram",
		"openai/toolInvocation/invoked":  "Displayed diagram",
	})
	return tool
}

func registerRenderTool(srv *server.MCPServer, logger *slog.Logger, recorder Recorder) {
	h := &renderHandler{logger: logger, recorder: recorder}
	srv.AddTool(renderTool(), h.handle)
}

func (h *renderHandler) handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagram, err := req.RequireString("diagram")
	if err != nil {
		h.record(ResultInvalidArguments, "")
		return mcp.NewToolResultError(err.Error()), nil
	}

	h.logger.InfoContext(ctx, "render diagram", "diagram", diagram)

	kind, ok := DiagramType(diagram)
	if !ok {
		h.record(ResultRejected, "")
		return mcp.NewToolResultError(InvalidDiagramMessage), nil
	}

	h.record(ResultAccepted, kind)
	return mcp.NewToolResultText(diagram), nil
}

func (h *renderHandler) record(result, diagramType string) {
	if h.recorder != nil {
		h.recorder.RecordRender(result, diagramType)
	}
}
