package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// TaskFilter narrows ListTasks. Empty fields are ignored.
type TaskFilter struct {
	Status     string
	Priority   string
	AssignedTo string
	Slug       string
}

// TaskInput is the payload for CreateTask.
type TaskInput struct {
	Title       string
	Description string
	AssignedTo  string
	Priority    string
	Status      string
	Steps       []string
	DueDate     string
	Slug        string
}

// TaskPatch holds optional task fields; nil means unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	AssignedTo  *string
	Priority    *string
	Status      *string
	Steps       []string
	DueDate     *string
}

const taskCols = "id, company_id, title, description, assigned_to, priority, status, steps, due_date, completed_at, created_at, updated_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*types.DevTask, error) {
	var (
		t                              types.DevTask
		companyID, desc, assigned, due sql.NullString
		completed                      sql.NullString
		steps, createdAt, updatedAt    string
	)
	err := scanner.Scan(&t.ID, &companyID, &t.Title, &desc, &assigned, &t.Priority, &t.Status, &steps, &due, &completed, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.CompanyID = companyID.String
	t.Description = desc.String
	t.AssignedTo = assigned.String
	t.DueDate = due.String
	t.Steps = decodeStrings(steps)
	t.CompletedAt = parseNullTime(completed)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

// ListTasks returns tasks ordered by priority (high first) then age.
func (s *Store) ListTasks(ctx context.Context, f TaskFilter) ([]types.DevTask, error) {
	const op = "list tasks"
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		conds = append(conds, "priority = ?")
		args = append(args, f.Priority)
	}
	if f.AssignedTo != "" {
		conds = append(conds, "LOWER(assigned_to) = LOWER(?)")
		args = append(args, f.AssignedTo)
	}
	if f.Slug != "" {
		id, err := s.companyID(ctx, s.db, op, f.Slug)
		if err != nil {
			return nil, err
		}
		conds = append(conds, "company_id = ?")
		args = append(args, id)
	}

	query := "SELECT " + taskCols + " FROM dev_tasks"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, apperr.Upstream(op, err, "query failed")
	}
	defer rows.Close()

	out := []types.DevTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, apperr.Upstream(op, err, "scan failed")
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstream(op, err, "iteration failed")
	}
	return out, nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (*types.DevTask, error) {
	const op = "get task"
	t, err := scanTask(s.db.QueryRowContext(ctx, s.q("SELECT "+taskCols+" FROM dev_tasks WHERE id = ?"), id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(op, "task", id)
	}
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to get task %s", id)
	}
	return t, nil
}

// CreateTask inserts a dev task, optionally linked to a company by slug.
func (s *Store) CreateTask(ctx context.Context, in TaskInput) (*types.DevTask, error) {
	const op = "create task"
	if in.Title == "" {
		return nil, apperr.Validation(op, "title is required")
	}
	if in.Priority == "" {
		in.Priority = types.PriorityMedium
	}
	if in.Status == "" {
		in.Status = types.TaskTodo
	}
	if err := oneOf(op, "priority", in.Priority, types.Priorities); err != nil {
		return nil, err
	}
	if err := oneOf(op, "status", in.Status, types.TaskStatuses); err != nil {
		return nil, err
	}
	if in.Steps == nil {
		in.Steps = []string{}
	}

	var companyID sql.NullString
	if in.Slug != "" {
		id, err := s.companyID(ctx, s.db, op, in.Slug)
		if err != nil {
			return nil, err
		}
		companyID = nullString(id)
	}

	steps, err := encodeJSON(in.Steps)
	if err != nil {
		return nil, apperr.Validation(op, "invalid steps: %v", err)
	}
	now := s.stamp()
	var completed sql.NullString
	if in.Status == types.TaskDone {
		completed = nullString(now)
	}
	id := newID()
	_, err = s.db.ExecContext(ctx,
		s.q("INSERT INTO dev_tasks ("+taskCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		id, companyID, in.Title, nullString(in.Description), nullString(in.AssignedTo), in.Priority, in.Status,
		steps, nullString(in.DueDate), completed, now, now,
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to insert task")
	}
	return s.GetTask(ctx, id)
}

// UpdateTask applies a partial update with the same completion stamping
// rules as milestones.
func (s *Store) UpdateTask(ctx context.Context, id string, p TaskPatch) (*types.DevTask, error) {
	const op = "update task"
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if p.Title != nil {
		if *p.Title == "" {
			return nil, apperr.Validation(op, "title cannot be empty")
		}
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.Priority != nil {
		if err := oneOf(op, "priority", *p.Priority, types.Priorities); err != nil {
			return nil, err
		}
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		if err := oneOf(op, "status", *p.Status, types.TaskStatuses); err != nil {
			return nil, err
		}
		if *p.Status == types.TaskDone && (t.Status != types.TaskDone || t.CompletedAt == nil) {
			t.CompletedAt = &now
		}
		t.Status = *p.Status
	}
	if p.Steps != nil {
		t.Steps = p.Steps
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}

	steps, err := encodeJSON(t.Steps)
	if err != nil {
		return nil, apperr.Validation(op, "invalid steps: %v", err)
	}
	var completed sql.NullString
	if t.CompletedAt != nil {
		completed = nullString(formatTime(*t.CompletedAt))
	}
	_, err = s.db.ExecContext(ctx,
		s.q("UPDATE dev_tasks SET title = ?, description = ?, assigned_to = ?, priority = ?, status = ?, steps = ?, due_date = ?, completed_at = ?, updated_at = ? WHERE id = ?"),
		t.Title, nullString(t.Description), nullString(t.AssignedTo), t.Priority, t.Status, steps,
		nullString(t.DueDate), completed, formatTime(now), id,
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to update task %s", id)
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	const op = "delete task"
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM dev_tasks WHERE id = ?"), id)
	if err != nil {
		return apperr.Upstream(op, err, "failed to delete task %s", id)
	}
	return rowsAffected(res, op, "task", id)
}
