// Package server exposes the request adapter as MCP tools.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/brizzai/auto-xhr/internal/auth"
	"github.com/brizzai/auto-xhr/internal/catalog"
	"github.com/brizzai/auto-xhr/internal/config"
	"github.com/brizzai/auto-xhr/internal/logger"
	"github.com/brizzai/auto-xhr/internal/server/handler"
	"github.com/brizzai/auto-xhr/internal/server/tool"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Params holds the dependencies of a Server.
type Params struct {
	fx.In

	Config   *config.Config
	Catalog  *catalog.Catalog `optional:"true"`
	Client   tool.Doer
	Gatherer prometheus.Gatherer `optional:"true"`
	Auth     *auth.Service       `optional:"true"`
}

// Server represents the MCP server instance. It supports SSE, streamable
// HTTP and STDIO.
type Server struct {
	config  *config.Config
	catalog *catalog.Catalog
	mcp     *mcpserver.MCPServer
	handler *handler.Handler
	tool    *tool.Handler
	tools   []mcp.Tool
}

// NewServer creates a new MCP server with the generic request tool and one
// tool per catalog operation.
func NewServer(p Params) (*Server, error) {
	if p.Config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if p.Client == nil {
		return nil, errors.New("client cannot be nil")
	}

	srv := &Server{
		config:  p.Config,
		catalog: p.Catalog,
		mcp:     mcpserver.NewMCPServer(p.Config.Server.Name, p.Config.Server.Version),
		handler: handler.NewHandler(&p.Config.Metrics, p.Gatherer, p.Auth),
		tool:    tool.NewHandler(p.Client),
	}
	srv.setupTools()
	return srv, nil
}

func (s *Server) setupTools() {
	baseURL := s.config.Endpoint.BaseURL

	s.addTool(requestTool(), requestExecutor(baseURL))

	if s.catalog == nil {
		return
	}
	for _, op := range s.catalog.Operations() {
		if op.ID == RequestToolName {
			logger.Warn("Skipping operation shadowing the request tool", zap.String("operation", op.ID))
			continue
		}
		s.addTool(operationTool(op), operationExecutor(op, baseURL))
	}
}

func (s *Server) addTool(t mcp.Tool, executor tool.Executor) {
	logger.Debug("Adding tool", zap.String("name", t.Name))
	s.tools = append(s.tools, t)
	s.mcp.AddTool(t, s.tool.CreateHandler(&t, executor))
}

// Tools returns the registered tools in registration order.
func (s *Server) Tools() []mcp.Tool {
	return s.tools
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

func (s *Server) addr() string {
	return fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
}

func (s *Server) ServeSSE(ctx context.Context) error {
	sseServer := mcpserver.NewSSEServer(
		s.mcp,
		mcpserver.WithBaseURL(fmt.Sprintf("http://%s", s.addr())),
	)
	return s.serveHTTP(ctx, sseServer, "SSE")
}

func (s *Server) ServeHTTP(ctx context.Context) error {
	return s.serveHTTP(ctx, mcpserver.NewStreamableHTTPServer(s.mcp), "HTTP")
}

func (s *Server) serveHTTP(ctx context.Context, mcpHandler http.Handler, mode string) error {
	addr := s.addr()
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler.CreateHTTPHandler(mcpHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("mode", mode),
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server",
			zap.String("mode", mode),
			zap.Duration("timeout", shutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

func (s *Server) ServeSTDIO(ctx context.Context) error {
	logger.Info("Starting STDIO server")
	return mcpserver.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// Start runs the server in the configured mode until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting server",
		zap.String("mode", string(s.config.Server.Mode)),
		zap.String("version", s.config.Server.Version),
		zap.Int("tools", len(s.tools)),
	)

	switch s.config.Server.Mode {
	case config.ServerModeSSE:
		return s.ServeSSE(ctx)
	case config.ServerModeHTTP:
		return s.ServeHTTP(ctx)
	case config.ServerModeSTDIO:
		return s.ServeSTDIO(ctx)
	default:
		return fmt.Errorf("unsupported server mode: %s", s.config.Server.Mode)
	}
}
