package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/DAAIDev/AgentBoxDev/internal/agent"
	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/internal/blob"
	"github.com/DAAIDev/AgentBoxDev/internal/store"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

const (
	maxJSONBody   = 4 << 20
	maxUploadBody = 48 << 20
)

func kindOf(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return string(ae.Kind)
	}
	return ""
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return apperr.Validation("decode body", "failed to read request body: %v", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.Validation("decode body", "invalid JSON body: %v", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.tools.Descriptors()})
}

// handleCallTool invokes one tool directly. Argument validation failures
// answer 400; any other handler failure answers 500.
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !s.tools.Has(name) {
		writeError(w, http.StatusNotFound, apperr.NotFound("call tool", "tool", name))
		return
	}

	args := map[string]any{}
	if err := decodeBody(w, r, maxJSONBody, &args); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := s.tools.Call(r.Context(), name, args)
	if err != nil {
		status := http.StatusInternalServerError
		if apperr.Is(err, apperr.KindValidation) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type chatRequest struct {
	Message string          `json:"message"`
	History []agent.Message `json:"conversation_history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, maxJSONBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, apperr.Validation("chat", "message is required"))
		return
	}
	if s.agent == nil {
		writeError(w, http.StatusServiceUnavailable, apperr.Configuration("chat", "chat is not configured: set ANTHROPIC_API_KEY"))
		return
	}

	result, err := s.agent.Run(r.Context(), req.History, req.Message)
	if err != nil {
		s.logger.Error("chat failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type uploadRequest struct {
	Slug          string `json:"slug"`
	Filename      string `json:"filename"`
	ContentBase64 string `json:"content_base64"`
	ContentType   string `json:"content_type"`
	Category      string `json:"category"`
	Description   string `json:"description"`
}

// handleUpload stores a base64 file and registers it as a document of the
// company, or as a platform document when slug is empty or "platform".
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "upload"
	if s.uploader == nil || s.documents == nil {
		writeError(w, http.StatusServiceUnavailable, apperr.Configuration(op, "object storage is not configured"))
		return
	}

	var req uploadRequest
	if err := decodeBody(w, r, maxUploadBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Filename == "" || req.ContentBase64 == "" {
		writeError(w, http.StatusBadRequest, apperr.Validation(op, "filename and content_base64 are required"))
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, apperr.Validation(op, "content_base64 is not valid base64: %v", err))
		return
	}

	ctx := r.Context()
	if req.Slug != "" && req.Slug != store.PlatformSlug {
		if _, err := s.documents.GetCompany(ctx, req.Slug); err != nil {
			writeError(w, apperr.HTTPStatus(err), err)
			return
		}
	}

	filename := req.Filename
	contentType := req.ContentType
	if contentType == "" || path.Ext(filename) == "" {
		detected := mimetype.Detect(data)
		if contentType == "" {
			contentType = detected.String()
		}
		if path.Ext(filename) == "" {
			filename += detected.Extension()
		}
	}

	key := blob.ObjectKey(req.Slug, filename, s.now())
	url, err := s.uploader.Put(ctx, key, data, contentType)
	if err != nil {
		s.logger.Error("upload failed", zap.String("key", key), zap.Error(err))
		writeError(w, apperr.HTTPStatus(err), fmt.Errorf("failed to store file: %w", err))
		return
	}

	doc, err := s.documents.CreateDocument(ctx, req.Slug, types.Document{
		Name:        filename,
		Category:    req.Category,
		Description: req.Description,
		StoragePath: key,
		URL:         url,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	})
	if err != nil {
		writeError(w, apperr.HTTPStatus(err), fmt.Errorf("failed to register document: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"document": doc, "url": url})
}
