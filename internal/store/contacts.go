package store

import (
	"context"
	"database/sql"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// ContactInput is the payload for AddContact.
type ContactInput struct {
	Name  string
	Role  string
	Email string
	Phone string
}

func (s *Store) contactsFor(ctx context.Context, companyID string) ([]types.Contact, error) {
	const op = "list contacts"
	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT id, company_id, name, role, email, phone, created_at FROM contacts WHERE company_id = ? ORDER BY name"), companyID)
	if err != nil {
		return nil, apperr.Upstream(op, err, "query failed")
	}
	defer rows.Close()

	out := []types.Contact{}
	for rows.Next() {
		var (
			c                  types.Contact
			role, email, phone sql.NullString
			createdAt          string
		)
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &role, &email, &phone, &createdAt); err != nil {
			return nil, apperr.Upstream(op, err, "scan failed")
		}
		c.Role, c.Email, c.Phone = role.String, email.String, phone.String
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstream(op, err, "iteration failed")
	}
	return out, nil
}

// ListContacts returns a company's contacts ordered by name.
func (s *Store) ListContacts(ctx context.Context, slug string) ([]types.Contact, error) {
	id, err := s.companyID(ctx, s.db, "list contacts", slug)
	if err != nil {
		return nil, err
	}
	return s.contactsFor(ctx, id)
}

// AddContact adds a person to a company.
func (s *Store) AddContact(ctx context.Context, slug string, in ContactInput) (*types.Contact, error) {
	const op = "add contact"
	if in.Name == "" {
		return nil, apperr.Validation(op, "name is required")
	}
	companyID, err := s.companyID(ctx, s.db, op, slug)
	if err != nil {
		return nil, err
	}

	c := types.Contact{
		ID:        newID(),
		CompanyID: companyID,
		Name:      in.Name,
		Role:      in.Role,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		s.q("INSERT INTO contacts (id, company_id, name, role, email, phone, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		c.ID, c.CompanyID, c.Name, nullString(c.Role), nullString(c.Email), nullString(c.Phone), formatTime(c.CreatedAt),
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to insert contact")
	}
	return &c, nil
}
