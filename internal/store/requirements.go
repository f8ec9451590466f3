package store

import (
	"context"
	"strings"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

const requirementCols = "id, company_id, item, status, created_at, updated_at"

func (s *Store) requirementsWhere(ctx context.Context, where string, args ...any) ([]types.Requirement, error) {
	const op = "list requirements"
	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT "+requirementCols+" FROM requirements WHERE "+where+" ORDER BY created_at, item"), args...)
	if err != nil {
		return nil, apperr.Upstream(op, err, "query failed")
	}
	defer rows.Close()

	out := []types.Requirement{}
	for rows.Next() {
		var (
			r                    types.Requirement
			createdAt, updatedAt string
		)
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.Item, &r.Status, &createdAt, &updatedAt); err != nil {
			return nil, apperr.Upstream(op, err, "scan failed")
		}
		r.CreatedAt = parseTime(createdAt)
		r.UpdatedAt = parseTime(updatedAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstream(op, err, "iteration failed")
	}
	return out, nil
}

// ListRequirements returns a company's requirements, optionally by status.
func (s *Store) ListRequirements(ctx context.Context, slug, status string) ([]types.Requirement, error) {
	id, err := s.companyID(ctx, s.db, "list requirements", slug)
	if err != nil {
		return nil, err
	}
	if status != "" {
		return s.requirementsWhere(ctx, "company_id = ? AND status = ?", id, status)
	}
	return s.requirementsWhere(ctx, "company_id = ?", id)
}

// AddRequirement records a new requirement, status defaulting to needed.
func (s *Store) AddRequirement(ctx context.Context, slug, item, status string) (*types.Requirement, error) {
	const op = "add requirement"
	if strings.TrimSpace(item) == "" {
		return nil, apperr.Validation(op, "item is required")
	}
	if status == "" {
		status = types.RequirementNeeded
	}
	if err := oneOf(op, "status", status, types.RequirementStatuses); err != nil {
		return nil, err
	}
	companyID, err := s.companyID(ctx, s.db, op, slug)
	if err != nil {
		return nil, err
	}

	now := s.stamp()
	id := newID()
	_, err = s.db.ExecContext(ctx,
		s.q("INSERT INTO requirements (id, company_id, item, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"),
		id, companyID, item, status, now, now,
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to insert requirement")
	}
	reqs, err := s.requirementsWhere(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	return &reqs[0], nil
}

// MatchRequirement picks the requirement whose item contains query,
// case-insensitively. When several match, an exact case-insensitive match
// wins; otherwise the match is ambiguous.
func MatchRequirement(reqs []types.Requirement, query string) (*types.Requirement, error) {
	const op = "match requirement"
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, apperr.Validation(op, "item is required")
	}

	var matches []types.Requirement
	for _, r := range reqs {
		if strings.Contains(strings.ToLower(r.Item), needle) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, apperr.NotFound(op, "requirement matching", query)
	case 1:
		return &matches[0], nil
	}

	for i := range matches {
		if strings.ToLower(matches[i].Item) == needle {
			return &matches[i], nil
		}
	}
	items := make([]string, len(matches))
	for i, m := range matches {
		items[i] = m.Item
	}
	return nil, apperr.Validation(op, "%q matches %d requirements (%s); be more specific", query, len(matches), strings.Join(items, "; "))
}

// UpdateRequirement sets the status of the requirement matching item.
func (s *Store) UpdateRequirement(ctx context.Context, slug, item, status string) (*types.Requirement, error) {
	const op = "update requirement"
	if err := oneOf(op, "status", status, types.RequirementStatuses); err != nil {
		return nil, err
	}
	companyID, err := s.companyID(ctx, s.db, op, slug)
	if err != nil {
		return nil, err
	}
	reqs, err := s.requirementsWhere(ctx, "company_id = ?", companyID)
	if err != nil {
		return nil, err
	}
	match, err := MatchRequirement(reqs, item)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		s.q("UPDATE requirements SET status = ?, updated_at = ? WHERE id = ?"),
		status, s.stamp(), match.ID,
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to update requirement %s", match.ID)
	}
	updated, err := s.requirementsWhere(ctx, "id = ?", match.ID)
	if err != nil {
		return nil, err
	}
	return &updated[0], nil
}
