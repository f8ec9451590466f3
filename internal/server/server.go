// Package server holds the tool registry: one descriptor, one argument
// schema and one handler per tool name. The same registry backs direct
// invocation, the agent loop and the MCP JSON-RPC endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
)

const (
	// Name is advertised to MCP clients on initialize.
	Name = "portfolio-gateway"
	// Version is advertised to MCP clients on initialize.
	Version = "1.0.0"
)

// HandlerFunc runs one tool. The returned value is serialized as JSON.
type HandlerFunc func(ctx context.Context, req mcp.CallToolRequest) (any, error)

// Descriptor is the wire form of a registered tool.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type entry struct {
	tool    mcp.Tool
	handler HandlerFunc
	schema  *gojsonschema.Schema
}

// Server is the tool registry and its MCP front end.
type Server struct {
	mcpServer *server.MCPServer
	logger    *zap.Logger

	mu    sync.RWMutex
	order []string
	tools map[string]*entry
}

// New creates an empty registry.
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mcpServer := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithLogging(),
	)

	return &Server{
		mcpServer: mcpServer,
		logger:    logger,
		tools:     make(map[string]*entry),
	}
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// AddTool registers a tool. It fails on an empty or duplicate name, a nil
// handler, a required argument that is not a declared property, or a
// schema that does not compile.
func (s *Server) AddTool(tool mcp.Tool, handler HandlerFunc) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool %s: handler is nil", tool.Name)
	}
	for _, req := range tool.InputSchema.Required {
		if _, ok := tool.InputSchema.Properties[req]; !ok {
			return fmt.Errorf("tool %s: required argument %q is not a declared property", tool.Name, req)
		}
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaOf(tool)))
	if err != nil {
		return fmt.Errorf("tool %s: invalid input schema: %w", tool.Name, err)
	}

	s.mu.Lock()
	if _, exists := s.tools[tool.Name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("tool %s is already registered", tool.Name)
	}
	s.tools[tool.Name] = &entry{tool: tool, handler: handler, schema: schema}
	s.order = append(s.order, tool.Name)
	s.mu.Unlock()

	s.mcpServer.AddTool(tool, s.mcpHandler(tool.Name))
	return nil
}

// Has reports whether name is registered.
func (s *Server) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tools[name]
	return ok
}

// Names returns tool names in registration order.
func (s *Server) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Tools returns the MCP descriptors in registration order.
func (s *Server) Tools() []mcp.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]mcp.Tool, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tools[name].tool)
	}
	return out
}

// Descriptors returns every tool as {name, description, input_schema}.
func (s *Server) Descriptors() []Descriptor {
	tools := s.Tools()
	out := make([]Descriptor, len(tools))
	for i, t := range tools {
		out[i] = Descriptor{Name: t.Name, Description: t.Description, InputSchema: schemaOf(t)}
	}
	return out
}

// Call validates args against the tool's schema and runs its handler.
// Unknown names fail with NotFound and schema violations with
// ValidationError before the handler runs.
func (s *Server) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	s.mu.RLock()
	e, ok := s.tools[name]
	s.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("call tool", "tool", name)
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := e.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return nil, apperr.Validation(name, "arguments are not valid JSON: %v", err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, re := range result.Errors() {
			msgs[i] = re.String()
		}
		return nil, apperr.Validation(name, "invalid arguments: %s", strings.Join(msgs, "; "))
	}

	req := mcp.CallToolRequest{}
	req.Method = string(mcp.MethodToolsCall)
	req.Params.Name = name
	req.Params.Arguments = args

	out, err := e.handler(ctx, req)
	if err != nil {
		s.logger.Warn("tool call failed",
			zap.String("tool", name),
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// mcpHandler adapts Call to the MCP tool result shape. Handler failures
// become error results so MCP clients see the message.
func (s *Server) mcpHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.Call(ctx, name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(output)), nil
	}
}

func schemaOf(t mcp.Tool) map[string]any {
	if t.RawInputSchema != nil {
		var m map[string]any
		if err := json.Unmarshal(t.RawInputSchema, &m); err == nil {
			return m
		}
	}
	props := t.InputSchema.Properties
	if props == nil {
		props = map[string]any{}
	}
	m := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(t.InputSchema.Required) > 0 {
		m["required"] = t.InputSchema.Required
	}
	return m
}
