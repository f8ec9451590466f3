// Package httpapi exposes the tool registry, the MCP endpoint and the
// agent loop over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/DAAIDev/AgentBoxDev/internal/agent"
	"github.com/DAAIDev/AgentBoxDev/internal/server"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// DefaultKeepaliveInterval spaces the pings on the MCP event stream.
const DefaultKeepaliveInterval = 30 * time.Second

// Tools is the registry served at /tools.
type Tools interface {
	Has(name string) bool
	Descriptors() []server.Descriptor
	Call(ctx context.Context, name string, args map[string]any) (any, error)
}

// MCPHandler answers JSON-RPC messages.
type MCPHandler interface {
	HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage
}

// Agent runs one chat turn.
type Agent interface {
	Run(ctx context.Context, history []agent.Message, message string) (*agent.Result, error)
}

// Uploader stores uploaded files.
type Uploader interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Documents registers uploaded files.
type Documents interface {
	GetCompany(ctx context.Context, slug string) (*types.Company, error)
	CreateDocument(ctx context.Context, slug string, d types.Document) (*types.Document, error)
}

// Config holds listener settings.
type Config struct {
	Addr              string
	KeepaliveInterval time.Duration
	CORS              CORSConfig
}

// Deps are the collaborators behind the routes. Agent and Uploader may be
// nil; their routes then answer 503.
type Deps struct {
	Tools     Tools
	MCP       MCPHandler
	Agent     Agent
	Uploader  Uploader
	Documents Documents
	Logger    *zap.Logger
	Now       func() time.Time
}

// Server is the gateway's HTTP front end.
type Server struct {
	tools     Tools
	mcp       MCPHandler
	agent     Agent
	uploader  Uploader
	documents Documents
	keepalive time.Duration
	cors      CORSConfig
	logger    *zap.Logger
	now       func() time.Time

	httpServer *http.Server

	// done is closed on Stop so open event streams end and Shutdown can
	// drain their connections.
	done      chan struct{}
	closeOnce sync.Once
}

// New creates the HTTP server.
func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.KeepaliveInterval <= 0 {
		cfg.KeepaliveInterval = DefaultKeepaliveInterval
	}

	s := &Server{
		tools:     deps.Tools,
		mcp:       deps.MCP,
		agent:     deps.Agent,
		uploader:  deps.Uploader,
		documents: deps.Documents,
		keepalive: cfg.KeepaliveInterval,
		cors:      cfg.CORS,
		logger:    deps.Logger,
		now:       deps.Now,
		done:      make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      0, // event stream stays open
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /tools", s.handleListTools)
	mux.HandleFunc("POST /tools/{name}", s.handleCallTool)
	mux.HandleFunc("GET /mcp", s.handleMCPStream)
	mux.HandleFunc("POST /mcp", s.handleMCPMessage)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /upload", s.handleUpload)

	return s.recoverer(s.logRequests(s.corsMiddleware(mux)))
}

// Start listens on the configured address and serves until Stop is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop ends open event streams, then gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	s.closeOnce.Do(func() { close(s.done) })
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}
	if kind := kindOf(err); kind != "" {
		body.Kind = kind
	}
	writeJSON(w, status, body)
}
