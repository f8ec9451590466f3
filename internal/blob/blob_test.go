package blob

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Endpoint: "localhost:9000"}, nil)
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))

	_, err = New(Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, nil)
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))
}

func TestURLs(t *testing.T) {
	s, err := New(Config{Endpoint: "http://localhost:9000/", AccessKey: "a", SecretKey: "b", Bucket: "documents"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/documents/acme/1-plan%20v2.md", s.URL("acme/1-plan v2.md"))

	s, err = New(Config{Endpoint: "s3.example.com", AccessKey: "a", SecretKey: "b", Bucket: "documents", UseSSL: true, PublicURL: "https://cdn.example.com/docs/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/docs/platform/x.pdf", s.URL("platform/x.pdf"))
}

func TestObjectKey(t *testing.T) {
	at := time.UnixMilli(1740819600000)
	assert.Equal(t, "acme/1740819600000-plan.md", ObjectKey("acme", "plan.md", at))
	assert.Equal(t, "platform/1740819600000-evil.sh", ObjectKey("", "../../evil.sh", at))
	assert.Equal(t, "platform/1740819600000-b.txt", ObjectKey("platform", `a\b.txt`, at))
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", DetectContentType([]byte("%PDF-1.7\n...")))
	assert.Contains(t, DetectContentType([]byte("hello world")), "text/plain")
}
