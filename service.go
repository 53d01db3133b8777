package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mikills/tinkerings/mermaidapp/mermaid"
)

const mcpPath = "/mcp"

// errCodeMethodNotAllowed is the server-defined JSON-RPC code returned for
// verbs the stateless endpoint does not support.
const errCodeMethodNotAllowed = -32000

// Service exposes the MCP endpoint, the index page and operational routes.
type Service struct {
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
	echo    *echo.Echo

	// newMCPServer builds the MCP server that handles a single POST.
	newMCPServer func() *server.MCPServer
}

// NewService creates a Service with its routes registered.
func NewService(cfg Config, logger *slog.Logger, metrics *Metrics) *Service {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = newPageRenderer()

	// no write timeout: the transport may upgrade a POST to an SSE stream
	e.Server.ReadTimeout = 60 * time.Second
	e.Server.IdleTimeout = 60 * time.Second
	e.Server.MaxHeaderBytes = 1 << 20

	s := &Service{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		echo:    e,
	}
	s.newMCPServer = s.buildMCPServer

	e.Use(requestLogger(logger, metrics))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.ErrorContext(c.Request().Context(), "panic recovered", "error", err, "stack", string(stack))
			return err
		},
	}))

	s.registerRoutes()
	return s
}

func (s *Service) registerRoutes() {
	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	s.echo.POST(mcpPath, s.handleMCP)
	s.echo.GET(mcpPath, s.handleMethodNotAllowed)
	s.echo.DELETE(mcpPath, s.handleMethodNotAllowed)
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Service) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()
	s.logger.Info("server listening", "addr", addr, "owner", s.cfg.OwnerName)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Service) buildMCPServer() *server.MCPServer {
	return mermaid.NewServer(mermaid.ServerConfig{
		OwnerName: s.cfg.OwnerName,
		Logger:    s.logger,
		Recorder:  s.metrics,
	})
}

// --- Handlers ---

// HealthResponse is the response body for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Service) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Service) handleIndex(c echo.Context) error {
	return c.Render(http.StatusOK, "index", indexPage{OwnerName: s.cfg.OwnerName})
}

// handleMCP runs one stateless MCP exchange: a fresh server and transport are
// built for the request and dropped when it completes.
func (s *Service) handleMCP(c echo.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if r == http.ErrAbortHandler {
				panic(r)
			}
			err = s.internalError(c, fmt.Errorf("panic: %v", r))
		}
	}()

	req := c.Request()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return s.internalError(c, fmt.Errorf("read body: %w", err))
	}
	if !json.Valid(body) {
		return s.internalError(c, errors.New("request body is not valid json"))
	}
	req.Body = io.NopCloser(bytes.NewReader(body))

	transport := server.NewStreamableHTTPServer(
		s.newMCPServer(),
		server.WithStateLess(true),
		server.WithLogger(mcpLogger{logger: s.logger}),
	)

	context.AfterFunc(req.Context(), func() {
		s.logger.Debug("mcp request closed")
	})

	transport.ServeHTTP(c.Response(), req)
	return nil
}

func (s *Service) handleMethodNotAllowed(c echo.Context) error {
	return c.JSON(http.StatusMethodNotAllowed, rpcError(errCodeMethodNotAllowed, "Method not allowed."))
}

// internalError logs cause and answers with a generic JSON-RPC internal
// error. cause never reaches the client.
func (s *Service) internalError(c echo.Context, cause error) error {
	s.logger.ErrorContext(c.Request().Context(), "mcp request failed", "error", cause)
	if c.Response().Committed {
		return nil
	}
	return c.JSON(http.StatusInternalServerError, rpcError(mcp.INTERNAL_ERROR, "Internal server error"))
}

func rpcError(code int, message string) mcp.JSONRPCError {
	return mcp.NewJSONRPCError(mcp.NewRequestId(nil), code, message, nil)
}
