// Package blob stores uploaded documents in S3-compatible object storage.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
)

// Config holds object storage settings. Endpoint may include an http://
// or https:// scheme, which then decides TLS.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	// PublicURL is the base for object links; defaults to the endpoint.
	PublicURL string
}

// Store reads and writes objects in one bucket.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    *zap.Logger
}

// New builds a Store. It does not contact the server.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, apperr.Configuration("blob", "storage endpoint and credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, apperr.Configuration("blob", "storage bucket is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, apperr.Configuration("blob", "invalid storage endpoint %q: %v", cfg.Endpoint, err)
	}

	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		public = strings.TrimRight(client.EndpointURL().String(), "/") + "/" + cfg.Bucket
	}
	return &Store{client: client, bucket: cfg.Bucket, publicURL: public, logger: logger}, nil
}

func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	}
	return strings.TrimSuffix(endpoint, "/"), useSSL
}

// EnsureBucket creates the bucket when it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	const op = "ensure bucket"
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return apperr.Upstream(op, err, "failed to check bucket %s", s.bucket)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return apperr.Upstream(op, err, "failed to create bucket %s", s.bucket)
	}
	s.logger.Info("created storage bucket", zap.String("bucket", s.bucket))
	return nil
}

// Put uploads data under key and returns its public URL. An empty
// contentType is sniffed from the data.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	const op = "put object"
	if contentType == "" {
		contentType = DetectContentType(data)
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", apperr.Upstream(op, err, "failed to upload %s", key)
	}
	s.logger.Debug("stored object", zap.String("key", key), zap.Int("bytes", len(data)))
	return s.URL(key), nil
}

// Get downloads at most limit bytes of the object at key.
func (s *Store) Get(ctx context.Context, key string, limit int64) ([]byte, error) {
	const op = "get object"
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateError(op, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, limit))
	if err != nil {
		return nil, translateError(op, key, err)
	}
	return data, nil
}

// URL returns the public link for key.
func (s *Store) URL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.publicURL + "/" + strings.Join(parts, "/")
}

// ObjectKey names an upload: <scope>/<unix-millis>-<filename>. The scope
// is the company slug, or "platform" for shared documents.
func ObjectKey(scope, filename string, at time.Time) string {
	if scope == "" {
		scope = "platform"
	}
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	return fmt.Sprintf("%s/%d-%s", scope, at.UnixMilli(), name)
}

// DetectContentType sniffs the MIME type of data.
func DetectContentType(data []byte) string {
	if mt := mimetype.Detect(data); mt != nil {
		return mt.String()
	}
	return "application/octet-stream"
}

func translateError(op, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return apperr.NotFound(op, "object", key)
	}
	return apperr.Upstream(op, err, "object %s", key)
}
