package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
)

func echoTool() mcp.Tool {
	return mcp.NewTool("echo",
		mcp.WithDescription("Echo a message"),
		mcp.WithString("message", mcp.Required(), mcp.Description("Text to echo")),
		mcp.WithNumber("times", mcp.Min(1)),
	)
}

func echo(_ context.Context, req mcp.CallToolRequest) (any, error) {
	return map[string]any{"message": req.GetString("message", ""), "times": req.GetInt("times", 1)}, nil
}

func TestAddToolRejectsInconsistentEntries(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	require.NoError(t, s.AddTool(echoTool(), echo))

	assert.ErrorContains(t, s.AddTool(echoTool(), echo), "already registered")
	assert.Error(t, s.AddTool(mcp.NewTool(""), echo))
	assert.Error(t, s.AddTool(mcp.NewTool("nil_handler"), nil))

	bad := mcp.NewTool("bad_required")
	bad.InputSchema.Required = []string{"ghost"}
	assert.ErrorContains(t, s.AddTool(bad, echo), "ghost")

	assert.Equal(t, []string{"echo"}, s.Names())
}

func TestDescriptorsKeepRegistrationOrder(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.AddTool(mcp.NewTool("zeta", mcp.WithDescription("last letter")), echo))
	require.NoError(t, s.AddTool(echoTool(), echo))

	got := s.Descriptors()
	require.Len(t, got, 2)
	assert.Equal(t, "zeta", got[0].Name)

	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string", "description": "Text to echo"},
			"times":   map[string]any{"type": "number", "minimum": float64(1)},
		},
		"required": []string{"message"},
	}
	if diff := cmp.Diff(want, got[1].InputSchema); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestCallValidatesBeforeHandler(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	called := false
	require.NoError(t, s.AddTool(echoTool(), func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
		called = true
		return echo(ctx, req)
	}))

	_, err := s.Call(context.Background(), "echo", nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.False(t, called)

	_, err = s.Call(context.Background(), "echo", map[string]any{"message": 42})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	out, err := s.Call(context.Background(), "echo", map[string]any{"message": "hi", "times": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"message": "hi", "times": 2}, out)
	assert.True(t, called)

	_, err = s.Call(context.Background(), "missing", nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCallWrapsHandlerErrors(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	require.NoError(t, s.AddTool(mcp.NewTool("fail"), func(context.Context, mcp.CallToolRequest) (any, error) {
		return nil, apperr.NotFound("fail", "company", "acme")
	}))

	_, err := s.Call(context.Background(), "fail", map[string]any{})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Contains(t, err.Error(), "fail:")
}

func rpc(t *testing.T, s *Server, method string, params any) mcp.JSONRPCMessage {
	t.Helper()
	body, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)
	return s.MCPServer().HandleMessage(context.Background(), body)
}

func TestMCPDispatch(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	require.NoError(t, s.AddTool(echoTool(), echo))
	require.NoError(t, s.AddTool(mcp.NewTool("boom"), func(context.Context, mcp.CallToolRequest) (any, error) {
		return nil, errors.New("exploded")
	}))

	resp, ok := rpc(t, s, "tools/list", map[string]any{}).(mcp.JSONRPCResponse)
	require.True(t, ok)
	list, ok := resp.Result.(mcp.ListToolsResult)
	require.True(t, ok)
	assert.Len(t, list.Tools, 2)

	resp, ok = rpc(t, s, "tools/call", map[string]any{"name": "echo", "arguments": map[string]any{"message": "hello"}}).(mcp.JSONRPCResponse)
	require.True(t, ok)
	result, ok := resp.Result.(mcp.CallToolResult)
	require.True(t, ok)
	assert.False(t, result.IsError)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, text.Text, `"message": "hello"`)

	resp, ok = rpc(t, s, "tools/call", map[string]any{"name": "boom", "arguments": map[string]any{}}).(mcp.JSONRPCResponse)
	require.True(t, ok)
	result = resp.Result.(mcp.CallToolResult)
	assert.True(t, result.IsError)

	_, isErr := rpc(t, s, "tools/call", map[string]any{"name": "ghost"}).(mcp.JSONRPCError)
	assert.True(t, isErr)
}
