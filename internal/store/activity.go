package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

func (s *Store) activityWhere(ctx context.Context, where string, limit int, args ...any) ([]types.Activity, error) {
	const op = "list activity"
	query := "SELECT id, company_id, type, description, created_at FROM activity"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, apperr.Upstream(op, err, "query failed")
	}
	defer rows.Close()

	out := []types.Activity{}
	for rows.Next() {
		var (
			a         types.Activity
			companyID sql.NullString
			createdAt string
		)
		if err := rows.Scan(&a.ID, &companyID, &a.Type, &a.Description, &createdAt); err != nil {
			return nil, apperr.Upstream(op, err, "scan failed")
		}
		a.CompanyID = companyID.String
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstream(op, err, "iteration failed")
	}
	return out, nil
}

// LogActivity appends an activity entry. An empty slug records a global
// entry with no company.
func (s *Store) LogActivity(ctx context.Context, slug, activityType, description string) (*types.Activity, error) {
	const op = "log activity"
	if err := oneOf(op, "type", activityType, types.ActivityTypes); err != nil {
		return nil, err
	}
	if strings.TrimSpace(description) == "" {
		return nil, apperr.Validation(op, "description is required")
	}

	var companyID sql.NullString
	if slug != "" {
		id, err := s.companyID(ctx, s.db, op, slug)
		if err != nil {
			return nil, err
		}
		companyID = nullString(id)
	}

	a := types.Activity{
		ID:          newID(),
		CompanyID:   companyID.String,
		Type:        activityType,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO activity (id, company_id, type, description, created_at) VALUES (?, ?, ?, ?, ?)"),
		a.ID, companyID, a.Type, a.Description, formatTime(a.CreatedAt),
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to insert activity")
	}
	return &a, nil
}

// RecentActivity returns the newest entries first. With a slug only that
// company's entries are returned; without one, everything including
// global entries. limit <= 0 means the default of 20; it is capped at 100.
func (s *Store) RecentActivity(ctx context.Context, slug string, limit int) ([]types.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	switch slug {
	case "":
		return s.activityWhere(ctx, "", limit)
	case PlatformSlug:
		return s.GlobalActivity(ctx, limit)
	}
	id, err := s.companyID(ctx, s.db, "recent activity", slug)
	if err != nil {
		return nil, err
	}
	return s.activityWhere(ctx, "company_id = ?", limit, id)
}

// GlobalActivity returns company-less entries, newest first.
func (s *Store) GlobalActivity(ctx context.Context, limit int) ([]types.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	return s.activityWhere(ctx, "company_id IS NULL", limit)
}
