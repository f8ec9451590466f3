package store

import (
	"context"
	"database/sql"
	"path"
	"strings"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// PlatformSlug addresses shared documents that belong to no company.
const PlatformSlug = "platform"

const documentCols = "id, company_id, name, category, description, storage_path, url, content_type, file_type, size_bytes, created_at"

func scanDocument(scanner interface{ Scan(dest ...any) error }) (*types.Document, error) {
	var (
		d                                 types.Document
		companyID, category, desc         sql.NullString
		storagePath, url, ctype, fileType sql.NullString
		createdAt                         string
	)
	err := scanner.Scan(&d.ID, &companyID, &d.Name, &category, &desc, &storagePath, &url, &ctype, &fileType, &d.SizeBytes, &createdAt)
	if err != nil {
		return nil, err
	}
	d.CompanyID = companyID.String
	d.Category = category.String
	d.Description = desc.String
	d.StoragePath = storagePath.String
	d.URL = url.String
	d.ContentType = ctype.String
	d.FileType = fileType.String
	d.CreatedAt = parseTime(createdAt)
	return &d, nil
}

func (s *Store) documentsWhere(ctx context.Context, where string, args ...any) ([]types.Document, error) {
	const op = "list documents"
	query := "SELECT " + documentCols + " FROM documents"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY created_at DESC, name"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, apperr.Upstream(op, err, "query failed")
	}
	defer rows.Close()

	out := []types.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, apperr.Upstream(op, err, "scan failed")
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstream(op, err, "iteration failed")
	}
	return out, nil
}

// FileType derives the lower-case extension of name without the dot.
func FileType(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

// ListDocuments lists documents. An empty slug lists every document;
// PlatformSlug lists shared documents only.
func (s *Store) ListDocuments(ctx context.Context, slug, category string) ([]types.Document, error) {
	var (
		conds []string
		args  []any
	)
	switch slug {
	case "":
	case PlatformSlug:
		conds = append(conds, "company_id IS NULL")
	default:
		id, err := s.companyID(ctx, s.db, "list documents", slug)
		if err != nil {
			return nil, err
		}
		conds = append(conds, "company_id = ?")
		args = append(args, id)
	}
	if category != "" {
		conds = append(conds, "category = ?")
		args = append(args, category)
	}
	return s.documentsWhere(ctx, strings.Join(conds, " AND "), args...)
}

// GetDocument retrieves a document by id.
func (s *Store) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	const op = "get document"
	d, err := scanDocument(s.db.QueryRowContext(ctx, s.q("SELECT "+documentCols+" FROM documents WHERE id = ?"), id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(op, "document", id)
	}
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to get document %s", id)
	}
	return d, nil
}

// CreateDocument registers a stored file. An empty slug or PlatformSlug
// makes it a shared document. FileType is derived from the name when unset.
func (s *Store) CreateDocument(ctx context.Context, slug string, d types.Document) (*types.Document, error) {
	const op = "create document"
	if d.Name == "" {
		return nil, apperr.Validation(op, "name is required")
	}
	var companyID sql.NullString
	if slug != "" && slug != PlatformSlug {
		id, err := s.companyID(ctx, s.db, op, slug)
		if err != nil {
			return nil, err
		}
		companyID = nullString(id)
	}
	if d.FileType == "" {
		d.FileType = FileType(d.Name)
	}
	d.ID = newID()
	d.CompanyID = companyID.String
	d.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO documents ("+documentCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		d.ID, companyID, d.Name, nullString(d.Category), nullString(d.Description), nullString(d.StoragePath),
		nullString(d.URL), nullString(d.ContentType), nullString(d.FileType), d.SizeBytes, formatTime(d.CreatedAt),
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to insert document")
	}
	return &d, nil
}
