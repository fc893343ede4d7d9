package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
)

// Version is reported to clients during initialisation.
const Version = "0.1.0"

const instructions = `Answers questions from ingested trading video transcripts.
Use "ask" for a composed answer and "retrieve" for the raw excerpts.
The trading://videos resource lists every ingested video.`

// shutdownTimeout bounds how long in-flight HTTP requests may finish.
const shutdownTimeout = 5 * time.Second

// Server exposes the query service and the ingested corpus over MCP.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer registers the tools and resources backed by ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mcp ports: %w", err)
	}

	s := &Server{
		ports: ports,
		server: mcp.NewServer(
			&mcp.Implementation{Name: "trading-nlp", Version: Version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves one client over stdin and stdout until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("mcp: serving over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves the streamable HTTP transport. Every session shares
// the same server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	logger.Debug("mcp: serving over http on %s", addr)
	return ListenAndServe(ctx, addr, s.Handler())
}

// ListenAndServe runs an HTTP server on addr and shuts it down when ctx
// is done. A clean shutdown returns nil.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
