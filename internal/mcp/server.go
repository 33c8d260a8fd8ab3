package mcp

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/career-compass/internal/app"
	"github.com/honeycarbs/career-compass/pkg/logging"
)

// Version is reported to MCP clients
const Version = "0.1.0"

// Server wraps an MCP SDK server with an HTTP listener
type Server struct {
	logger *logging.Logger
	mcp    *sdkmcp.Server
	tools  []string

	srv     *http.Server
	started atomic.Bool
}

// NewServer constructs the MCP HTTP server for res
func NewServer(log *logging.Logger, res *app.Resources) *Server {
	log = log.Named("mcp")

	mcpServer := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "career-compass",
		Version: Version,
	}, nil)

	names := NewToolRegistry(log).RegisterAll(mcpServer, res)

	handler := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return mcpServer
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp/stream", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		logger: log,
		mcp:    mcpServer,
		tools:  names,
		srv: &http.Server{
			Addr:              res.Config.Addr(),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// MCP exposes the SDK server, e.g. for in-memory transports
func (s *Server) MCP() *sdkmcp.Server {
	return s.mcp
}

// Handler is the HTTP handler serving /mcp/stream and /healthz
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Tools lists the registered tool names
func (s *Server) Tools() []string {
	return s.tools
}

// Run starts the HTTP server and blocks until shutdown
func (s *Server) Run() error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Info("MCP HTTP server listening", "addr", s.srv.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutdown requested for MCP HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("MCP HTTP server shutdown with error", "err", err)
		return err
	}

	s.logger.Info("MCP HTTP server shutdown complete")
	return nil
}
