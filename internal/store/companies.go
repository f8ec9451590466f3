package store

import (
	"context"
	"database/sql"
	"math"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// CompanyInput is the payload for CreateCompany.
type CompanyInput struct {
	Slug        string
	Name        string
	Description string
	Status      string
	Tools       []string
}

// CompanyPatch holds optional company fields; nil means unchanged.
type CompanyPatch struct {
	Name        *string
	Description *string
	Status      *string
	Tools       []string
}

const companyCols = "id, slug, name, description, status, tools, created_at, updated_at"

func scanCompany(scanner interface{ Scan(dest ...any) error }) (*types.Company, error) {
	var (
		c                    types.Company
		desc                 sql.NullString
		tools                string
		createdAt, updatedAt string
	)
	if err := scanner.Scan(&c.ID, &c.Slug, &c.Name, &desc, &c.Status, &tools, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.Description = desc.String
	c.Tools = decodeStrings(tools)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

// ListCompanies returns companies ordered by name, optionally filtered by status.
func (s *Store) ListCompanies(ctx context.Context, status string) ([]types.Company, error) {
	const op = "list companies"
	query := "SELECT " + companyCols + " FROM companies"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, apperr.Upstream(op, err, "query failed")
	}
	defer rows.Close()

	companies := []types.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, apperr.Upstream(op, err, "scan failed")
		}
		companies = append(companies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstream(op, err, "iteration failed")
	}
	return companies, nil
}

// GetCompany retrieves a company by slug.
func (s *Store) GetCompany(ctx context.Context, slug string) (*types.Company, error) {
	const op = "get company"
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+companyCols+" FROM companies WHERE slug = ?"), slug)
	c, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(op, "company", slug)
	}
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to get company %s", slug)
	}
	return c, nil
}

// GetCompanyDetail returns a company with its contacts, milestones,
// requirements, documents and the ten most recent activity entries.
func (s *Store) GetCompanyDetail(ctx context.Context, slug string) (*types.CompanyDetail, error) {
	c, err := s.GetCompany(ctx, slug)
	if err != nil {
		return nil, err
	}
	detail := &types.CompanyDetail{Company: *c}

	if detail.Contacts, err = s.contactsFor(ctx, c.ID); err != nil {
		return nil, err
	}
	if detail.Milestones, err = s.milestonesWhere(ctx, "company_id = ?", c.ID); err != nil {
		return nil, err
	}
	if detail.Requirements, err = s.requirementsWhere(ctx, "company_id = ?", c.ID); err != nil {
		return nil, err
	}
	if detail.Documents, err = s.documentsWhere(ctx, "company_id = ?", c.ID); err != nil {
		return nil, err
	}
	if detail.Activity, err = s.activityWhere(ctx, "company_id = ?", 10, c.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

// CreateCompany inserts a company. The slug must be unused.
func (s *Store) CreateCompany(ctx context.Context, in CompanyInput) (*types.Company, error) {
	const op = "create company"
	if in.Slug == "" || Slugify(in.Slug) != in.Slug {
		return nil, apperr.Validation(op, "invalid slug %q: use lowercase letters, digits and hyphens", in.Slug)
	}
	if in.Slug == PlatformSlug {
		return nil, apperr.Validation(op, "slug %q is reserved for shared documents and system activity", in.Slug)
	}
	if in.Name == "" {
		return nil, apperr.Validation(op, "name is required")
	}
	if in.Status == "" {
		in.Status = types.CompanyDiscovery
	}
	if err := oneOf(op, "status", in.Status, types.CompanyStatuses); err != nil {
		return nil, err
	}
	if in.Tools == nil {
		in.Tools = []string{}
	}

	var exists int
	err := s.db.QueryRowContext(ctx, s.q("SELECT COUNT(*) FROM companies WHERE slug = ?"), in.Slug).Scan(&exists)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to check slug")
	}
	if exists > 0 {
		return nil, apperr.New(apperr.KindConflict, op, "company slug %q already exists", in.Slug)
	}

	tools, err := encodeJSON(in.Tools)
	if err != nil {
		return nil, apperr.Validation(op, "invalid tools: %v", err)
	}
	now := s.stamp()
	id := newID()
	_, err = s.db.ExecContext(ctx,
		s.q("INSERT INTO companies (id, slug, name, description, status, tools, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"),
		id, in.Slug, in.Name, nullString(in.Description), in.Status, tools, now, now,
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to insert company")
	}
	return s.GetCompany(ctx, in.Slug)
}

// UpdateCompany applies a partial update and stamps updated_at.
func (s *Store) UpdateCompany(ctx context.Context, slug string, p CompanyPatch) (*types.Company, error) {
	const op = "update company"
	c, err := s.GetCompany(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		if *p.Name == "" {
			return nil, apperr.Validation(op, "name cannot be empty")
		}
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Status != nil {
		if err := oneOf(op, "status", *p.Status, types.CompanyStatuses); err != nil {
			return nil, err
		}
		c.Status = *p.Status
	}
	if p.Tools != nil {
		c.Tools = p.Tools
	}
	tools, err := encodeJSON(c.Tools)
	if err != nil {
		return nil, apperr.Validation(op, "invalid tools: %v", err)
	}

	_, err = s.db.ExecContext(ctx,
		s.q("UPDATE companies SET name = ?, description = ?, status = ?, tools = ?, updated_at = ? WHERE id = ?"),
		c.Name, nullString(c.Description), c.Status, tools, s.stamp(), c.ID,
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to update company %s", slug)
	}
	return s.GetCompany(ctx, slug)
}

// DeleteCompany removes a company and everything it owns. Linked dev
// tasks are kept and unlinked.
func (s *Store) DeleteCompany(ctx context.Context, slug string) error {
	const op = "delete company"
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM companies WHERE slug = ?"), slug)
	if err != nil {
		return apperr.Upstream(op, err, "failed to delete company %s", slug)
	}
	return rowsAffected(res, op, "company", slug)
}

// Progress is round(100 * done / total), or 0 when total is 0.
func Progress(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

// PortfolioSummary computes per-company milestone progress.
func (s *Store) PortfolioSummary(ctx context.Context) (*types.PortfolioSummary, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	summary := &types.PortfolioSummary{
		Companies: []types.CompanyProgress{},
		ByStatus:  map[string]int{},
	}
	for _, c := range snapshot {
		row := types.CompanyProgress{
			Slug:            c.Slug,
			Name:            c.Name,
			Status:          c.Status,
			TotalMilestones: len(c.Milestones),
		}
		for _, m := range c.Milestones {
			if m.Status == types.MilestoneDone {
				row.DoneMilestones++
			}
		}
		for _, r := range c.Requirements {
			if r.Status != types.RequirementReceived {
				row.OutstandingRequirements++
			}
		}
		row.Progress = Progress(row.DoneMilestones, row.TotalMilestones)

		summary.Companies = append(summary.Companies, row)
		summary.ByStatus[c.Status]++
		summary.TotalMilestones += row.TotalMilestones
		summary.DoneMilestones += row.DoneMilestones
	}
	summary.TotalCompanies = len(summary.Companies)
	summary.Progress = Progress(summary.DoneMilestones, summary.TotalMilestones)
	return summary, nil
}

// Snapshot loads every company with its milestones and requirements in
// three queries.
func (s *Store) Snapshot(ctx context.Context) ([]types.CompanyDetail, error) {
	companies, err := s.ListCompanies(ctx, "")
	if err != nil {
		return nil, err
	}
	milestones, err := s.milestonesWhere(ctx, "1 = 1")
	if err != nil {
		return nil, err
	}
	requirements, err := s.requirementsWhere(ctx, "1 = 1")
	if err != nil {
		return nil, err
	}

	byCompany := make(map[string]int, len(companies))
	out := make([]types.CompanyDetail, len(companies))
	for i, c := range companies {
		out[i] = types.CompanyDetail{Company: c, Milestones: []types.Milestone{}, Requirements: []types.Requirement{}}
		byCompany[c.ID] = i
	}
	for _, m := range milestones {
		if i, ok := byCompany[m.CompanyID]; ok {
			out[i].Milestones = append(out[i].Milestones, m)
		}
	}
	for _, r := range requirements {
		if i, ok := byCompany[r.CompanyID]; ok {
			out[i].Requirements = append(out[i].Requirements, r)
		}
	}
	return out, nil
}
