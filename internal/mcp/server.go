// Package mcp exposes forksync over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/aki/forksync/internal/app"
)

// Transport names accepted by NewServer
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// HTTPConfig configures the SSE transport
type HTTPConfig struct {
	Port int
	// BearerToken, when set, must be sent as "Authorization: Bearer <token>"
	BearerToken string
}

// Server serves the forksync tools
type Server struct {
	mcpServer  *server.MCPServer
	container  *app.Container
	transport  string
	httpConfig *HTTPConfig
	version    string
}

// NewServer creates an MCP server backed by container
func NewServer(container *app.Container, version, transport string, httpConfig *HTTPConfig) (*Server, error) {
	if transport == "" {
		transport = TransportStdio
	}
	if transport != TransportStdio && transport != TransportHTTP {
		return nil, fmt.Errorf("unsupported transport: %s", transport)
	}
	if transport == TransportHTTP && httpConfig == nil {
		return nil, fmt.Errorf("HTTP configuration required")
	}

	s := &Server{
		mcpServer: server.NewMCPServer(
			"forksync",
			version,
			server.WithToolCapabilities(false),
			server.WithLogging(),
		),
		container:  container,
		transport:  transport,
		httpConfig: httpConfig,
		version:    version,
	}

	s.registerTools()
	return s, nil
}

// Start serves until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	switch s.transport {
	case TransportStdio:
		stdio := server.NewStdioServer(s.mcpServer)
		return stdio.Listen(ctx, os.Stdin, os.Stdout)
	default:
		return s.startHTTPServer(ctx)
	}
}

func (s *Server) startHTTPServer(ctx context.Context) error {
	sseServer := server.NewSSEServer(s.mcpServer)

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.httpConfig.Port),
		Handler:           s.authMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.container.Logger.Error("failed to shut down MCP server", "error", err)
		}
	}()

	s.container.Logger.Info("MCP server listening", "sse", fmt.Sprintf("http://localhost:%d/sse", s.httpConfig.Port))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.httpConfig.BearerToken != "" && r.Header.Get("Authorization") != "Bearer "+s.httpConfig.BearerToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
