package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
)

// mcpMethods are the JSON-RPC methods accepted on POST /mcp.
var mcpMethods = map[string]bool{
	string(mcp.MethodInitialize): true,
	string(mcp.MethodToolsList):  true,
	string(mcp.MethodToolsCall):  true,
}

// handleMCPStream holds an event stream open: one connected event, then a
// ping every keepalive interval until the client goes away or the server
// stops.
func (s *Server) handleMCPStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming is not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "connected", map[string]any{"status": "connected", "timestamp": s.now().UTC().Format(time.RFC3339)}); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("event stream closed", zap.String("remote", r.RemoteAddr))
			return
		case <-s.done:
			s.logger.Debug("event stream ended by shutdown", zap.String("remote", r.RemoteAddr))
			return
		case t := <-ticker.C:
			if err := writeEvent(w, "ping", map[string]any{"timestamp": t.UTC().Format(time.RFC3339)}); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}

type mcpRequest struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// handleMCPMessage dispatches {method, params} through the MCP server's
// JSON-RPC handler and answers with the bare result object.
func (s *Server) handleMCPMessage(w http.ResponseWriter, r *http.Request) {
	const op = "mcp"
	var req mcpRequest
	if err := decodeBody(w, r, maxJSONBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !mcpMethods[req.Method] {
		writeError(w, http.StatusBadRequest, apperr.Validation(op, "unsupported method %q", req.Method))
		return
	}

	id := req.ID
	if len(id) == 0 || string(id) == "null" {
		id = json.RawMessage(`1`)
	}
	params := req.Params
	if len(params) == 0 || string(params) == "null" {
		params = json.RawMessage(`{}`)
	}
	message, err := json.Marshal(map[string]any{
		"jsonrpc": mcp.JSONRPC_VERSION,
		"id":      id,
		"method":  req.Method,
		"params":  params,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := s.mcp.HandleMessage(r.Context(), message)
	raw, err := json.Marshal(resp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to encode response: %w", err))
		return
	}
	var env rpcEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to decode response: %w", err))
		return
	}
	if env.Error != nil {
		status := http.StatusBadRequest
		if env.Error.Code == mcp.INTERNAL_ERROR {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, map[string]any{"error": env.Error.Message, "code": env.Error.Code})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(env.Result)
}
