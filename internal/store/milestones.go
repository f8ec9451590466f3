package store

import (
	"context"
	"database/sql"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// MilestoneInput is the payload for AddMilestone.
type MilestoneInput struct {
	Title   string
	Status  string
	DueDate string
	Notes   string
}

// MilestonePatch holds optional milestone fields; nil means unchanged.
type MilestonePatch struct {
	Title   *string
	Status  *string
	DueDate *string
	Notes   *string
}

const milestoneCols = "id, company_id, title, status, order_index, due_date, completed_at, notes, created_at, updated_at"

func scanMilestone(scanner interface{ Scan(dest ...any) error }) (*types.Milestone, error) {
	var (
		m                    types.Milestone
		due, notes, done     sql.NullString
		createdAt, updatedAt string
	)
	if err := scanner.Scan(&m.ID, &m.CompanyID, &m.Title, &m.Status, &m.OrderIndex, &due, &done, &notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	m.DueDate = due.String
	m.Notes = notes.String
	m.CompletedAt = parseNullTime(done)
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	return &m, nil
}

func (s *Store) milestonesWhere(ctx context.Context, where string, args ...any) ([]types.Milestone, error) {
	const op = "list milestones"
	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT "+milestoneCols+" FROM milestones WHERE "+where+" ORDER BY order_index, created_at"), args...)
	if err != nil {
		return nil, apperr.Upstream(op, err, "query failed")
	}
	defer rows.Close()

	out := []types.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, apperr.Upstream(op, err, "scan failed")
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstream(op, err, "iteration failed")
	}
	return out, nil
}

// ListMilestones returns a company's milestones in display order.
func (s *Store) ListMilestones(ctx context.Context, slug string) ([]types.Milestone, error) {
	id, err := s.companyID(ctx, s.db, "list milestones", slug)
	if err != nil {
		return nil, err
	}
	return s.milestonesWhere(ctx, "company_id = ?", id)
}

// GetMilestone retrieves a milestone by id.
func (s *Store) GetMilestone(ctx context.Context, id string) (*types.Milestone, error) {
	const op = "get milestone"
	m, err := scanMilestone(s.db.QueryRowContext(ctx, s.q("SELECT "+milestoneCols+" FROM milestones WHERE id = ?"), id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(op, "milestone", id)
	}
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to get milestone %s", id)
	}
	return m, nil
}

// AddMilestone appends a milestone at order_index max+1 over the company's
// current milestones (0 for the first). Siblings are never renumbered, so
// deleting one leaves a gap unless it held the highest index.
func (s *Store) AddMilestone(ctx context.Context, slug string, in MilestoneInput) (*types.Milestone, error) {
	const op = "add milestone"
	if in.Title == "" {
		return nil, apperr.Validation(op, "title is required")
	}
	if in.Status == "" {
		in.Status = types.MilestonePending
	}
	if err := oneOf(op, "status", in.Status, types.MilestoneStatuses); err != nil {
		return nil, err
	}

	companyID, err := s.companyID(ctx, s.db, op, slug)
	if err != nil {
		return nil, err
	}

	var next int
	err = s.db.QueryRowContext(ctx,
		s.q("SELECT COALESCE(MAX(order_index), -1) + 1 FROM milestones WHERE company_id = ?"), companyID,
	).Scan(&next)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to compute order index")
	}

	now := s.stamp()
	var completed sql.NullString
	if in.Status == types.MilestoneDone {
		completed = nullString(now)
	}
	id := newID()
	_, err = s.db.ExecContext(ctx,
		s.q("INSERT INTO milestones (id, company_id, title, status, order_index, due_date, completed_at, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		id, companyID, in.Title, in.Status, next, nullString(in.DueDate), completed, nullString(in.Notes), now, now,
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to insert milestone")
	}
	return s.GetMilestone(ctx, id)
}

// UpdateMilestone applies a partial update. updated_at is always stamped;
// moving to done stamps completed_at, which is never cleared afterwards.
func (s *Store) UpdateMilestone(ctx context.Context, id string, p MilestonePatch) (*types.Milestone, error) {
	const op = "update milestone"
	m, err := s.GetMilestone(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if p.Title != nil {
		if *p.Title == "" {
			return nil, apperr.Validation(op, "title cannot be empty")
		}
		m.Title = *p.Title
	}
	if p.Status != nil {
		if err := oneOf(op, "status", *p.Status, types.MilestoneStatuses); err != nil {
			return nil, err
		}
		if *p.Status == types.MilestoneDone && (m.Status != types.MilestoneDone || m.CompletedAt == nil) {
			m.CompletedAt = &now
		}
		m.Status = *p.Status
	}
	if p.DueDate != nil {
		m.DueDate = *p.DueDate
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}

	var completed sql.NullString
	if m.CompletedAt != nil {
		completed = nullString(formatTime(*m.CompletedAt))
	}
	_, err = s.db.ExecContext(ctx,
		s.q("UPDATE milestones SET title = ?, status = ?, due_date = ?, notes = ?, completed_at = ?, updated_at = ? WHERE id = ?"),
		m.Title, m.Status, nullString(m.DueDate), nullString(m.Notes), completed, formatTime(now), id,
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to update milestone %s", id)
	}
	return s.GetMilestone(ctx, id)
}

// DeleteMilestone removes a milestone. Sibling order indexes are untouched.
func (s *Store) DeleteMilestone(ctx context.Context, id string) error {
	const op = "delete milestone"
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM milestones WHERE id = ?"), id)
	if err != nil {
		return apperr.Upstream(op, err, "failed to delete milestone %s", id)
	}
	return rowsAffected(res, op, "milestone", id)
}
