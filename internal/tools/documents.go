package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/internal/store"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

const (
	// MaxContentChars is the largest document text returned in full.
	MaxContentChars = 50000
)

// maxFetchBytes caps how much of a document is downloaded.
var maxFetchBytes int64 = 8 << 20

// textFileTypes are the extensions whose content is fetched and returned.
var textFileTypes = map[string]bool{
	"txt":      true,
	"md":       true,
	"markdown": true,
	"csv":      true,
	"json":     true,
	"html":     true,
	"htm":      true,
	"xml":      true,
	"yaml":     true,
	"yml":      true,
	"log":      true,
}

// DocumentContent is the get_document_content result. Content is nil for
// formats that are not decoded.
type DocumentContent struct {
	Document  *types.Document `json:"document"`
	URL       string          `json:"url,omitempty"`
	Content   *string         `json:"content"`
	Truncated bool            `json:"truncated"`
	Length    int             `json:"length,omitempty"`
	Note      string          `json:"note,omitempty"`
}

// registerListDocuments registers the list_documents tool.
func (ts *ToolServer) registerListDocuments() error {
	tool := mcp.NewTool("list_documents",
		mcp.WithDescription("List document metadata. Pass a company slug for that company's documents, 'platform' for shared platform documents, or nothing for all documents."),
		mcp.WithString("slug",
			mcp.Description("Company slug, or 'platform'"),
		),
		mcp.WithString("category",
			mcp.Description("Only return documents in this category"),
		),
	)

	return ts.server.AddTool(tool, ts.handleListDocuments)
}

func (ts *ToolServer) handleListDocuments(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	docs, err := ts.store.ListDocuments(ctx, req.GetString("slug", ""), req.GetString("category", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return listResult("documents", docs, len(docs)), nil
}

// registerGetDocumentContent registers the get_document_content tool.
func (ts *ToolServer) registerGetDocumentContent() error {
	tool := mcp.NewTool("get_document_content",
		mcp.WithDescription(fmt.Sprintf("Read a document. Text formats (txt, md, csv, json, html, xml, yaml, log) return their content, truncated after %d characters; other formats return metadata and a download URL only.", MaxContentChars)),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("Document id"),
		),
	)

	return ts.server.AddTool(tool, ts.handleGetDocumentContent)
}

func (ts *ToolServer) handleGetDocumentContent(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := req.RequireString("document_id")
	if err != nil {
		return nil, err
	}
	doc, err := ts.store.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	out := &DocumentContent{Document: doc, URL: ts.documentURL(doc)}
	fileType := doc.FileType
	if fileType == "" {
		fileType = store.FileType(doc.Name)
	}
	if !textFileTypes[fileType] {
		out.Note = fmt.Sprintf("Content of .%s files is not decoded; use the URL to download it.", fileType)
		return out, nil
	}

	raw, capped, err := ts.fetchDocument(ctx, doc, out.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document content: %w", err)
	}
	text, truncated, length := TruncateText(string(raw), MaxContentChars, capped)
	out.Content = &text
	out.Truncated = truncated
	if !capped {
		out.Length = length
	}
	return out, nil
}

func (ts *ToolServer) documentURL(doc *types.Document) string {
	if doc.URL != "" {
		return doc.URL
	}
	if doc.StoragePath != "" && ts.blobs != nil {
		return ts.blobs.URL(doc.StoragePath)
	}
	return ""
}

// fetchDocument reads from object storage when the document has a storage
// path, otherwise downloads its URL. At most maxFetchBytes are returned;
// capped reports that the document is longer than that.
func (ts *ToolServer) fetchDocument(ctx context.Context, doc *types.Document, url string) (data []byte, capped bool, err error) {
	const op = "fetch document"
	if doc.StoragePath != "" && ts.blobs != nil {
		data, err = ts.blobs.Get(ctx, doc.StoragePath, maxFetchBytes+1)
		if err != nil {
			return nil, false, err
		}
		data, capped = capBytes(data, maxFetchBytes)
		return data, capped, nil
	}
	if url == "" {
		if doc.StoragePath != "" {
			return nil, false, apperr.Configuration(op, "object storage is not configured")
		}
		return nil, false, apperr.Validation(op, "document %s has no storage location", doc.ID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, apperr.Validation(op, "invalid document url %q: %v", url, err)
	}
	resp, err := ts.httpClient.Do(httpReq)
	if err != nil {
		return nil, false, apperr.Upstream(op, err, "GET %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, apperr.New(apperr.KindUpstream, op, "GET %s returned HTTP %d", url, resp.StatusCode)
	}
	data, err = io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, false, apperr.Upstream(op, err, "read %s", url)
	}
	data, capped = capBytes(data, maxFetchBytes)
	return data, capped, nil
}

// capBytes cuts data to limit bytes, dropping a trailing partial UTF-8
// sequence left by the cut.
func capBytes(data []byte, limit int64) ([]byte, bool) {
	if int64(len(data)) <= limit {
		return data, false
	}
	data = data[:limit]
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				data = data[:i]
			}
			break
		}
	}
	return data, true
}

// TruncateText cuts s to limit characters and appends a marker naming the
// original length. partial means s is only the start of a longer text, so
// the marker gives its length as a lower bound. It reports whether the
// result was cut and the length of s in characters.
func TruncateText(s string, limit int, partial bool) (string, bool, int) {
	n := utf8.RuneCountInString(s)
	if n <= limit && !partial {
		return s, false, n
	}
	total := fmt.Sprintf("%d", n)
	if partial {
		total = "more than " + total
	}
	shown, head := n, s
	if n > limit {
		shown = limit
		cut := 0
		for i := range s {
			if cut == limit {
				head = s[:i]
				break
			}
			cut++
		}
	}
	return head + fmt.Sprintf("\n\n[... truncated: showing first %d of %s characters ...]", shown, total), true, n
}
