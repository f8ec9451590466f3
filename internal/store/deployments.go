package store

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// DeploymentInput is the payload for CreateDeployment. URLs maps a
// component type to its address; missing entries start not_configured.
type DeploymentInput struct {
	Name        string
	Description string
	URLs        map[string]string
}

// DeploymentPatch holds optional deployment fields; nil means unchanged.
type DeploymentPatch struct {
	Status      *string
	Description *string
}

// ComponentPatch updates one component. Config keys are merged into the
// existing mapping; a nil value removes the key.
type ComponentPatch struct {
	URL    *string
	Status *string
	Config map[string]any
}

// HealthRecord is the persisted outcome of one probe.
type HealthRecord struct {
	Status       string
	ErrorMessage string
	CheckedAt    time.Time
}

const (
	deploymentCols = "id, slug, name, description, status, created_at, updated_at"
	componentCols  = "id, deployment_id, component_type, status, url, last_checked, error_message, config, updated_at"
)

func scanDeployment(scanner interface{ Scan(dest ...any) error }) (*types.Deployment, error) {
	var (
		d                    types.Deployment
		desc                 sql.NullString
		createdAt, updatedAt string
	)
	if err := scanner.Scan(&d.ID, &d.Slug, &d.Name, &desc, &d.Status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.Description = desc.String
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	d.Components = []types.DeploymentComponent{}
	return &d, nil
}

func (s *Store) componentsWhere(ctx context.Context, where string, args ...any) ([]types.DeploymentComponent, error) {
	const op = "list components"
	rows, err := s.db.QueryContext(ctx, s.q("SELECT "+componentCols+" FROM deployment_components WHERE "+where), args...)
	if err != nil {
		return nil, apperr.Upstream(op, err, "query failed")
	}
	defer rows.Close()

	out := []types.DeploymentComponent{}
	for rows.Next() {
		var (
			c                    types.DeploymentComponent
			url, checked, errMsg sql.NullString
			config, updatedAt    string
		)
		if err := rows.Scan(&c.ID, &c.DeploymentID, &c.ComponentType, &c.Status, &url, &checked, &errMsg, &config, &updatedAt); err != nil {
			return nil, apperr.Upstream(op, err, "scan failed")
		}
		c.URL = url.String
		c.LastChecked = parseNullTime(checked)
		c.ErrorMessage = errMsg.String
		c.Config = decodeMap(config)
		c.UpdatedAt = parseTime(updatedAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstream(op, err, "iteration failed")
	}
	slices.SortFunc(out, func(a, b types.DeploymentComponent) int {
		return slices.Index(types.ComponentTypes, a.ComponentType) - slices.Index(types.ComponentTypes, b.ComponentType)
	})
	return out, nil
}

// ListDeployments returns every deployment with its components.
func (s *Store) ListDeployments(ctx context.Context) ([]types.Deployment, error) {
	const op = "list deployments"
	rows, err := s.db.QueryContext(ctx, "SELECT "+deploymentCols+" FROM deployments ORDER BY name")
	if err != nil {
		return nil, apperr.Upstream(op, err, "query failed")
	}
	var deployments []types.Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			rows.Close()
			return nil, apperr.Upstream(op, err, "scan failed")
		}
		deployments = append(deployments, *d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstream(op, err, "iteration failed")
	}

	components, err := s.componentsWhere(ctx, "1 = 1")
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(deployments))
	for i, d := range deployments {
		index[d.ID] = i
	}
	for _, c := range components {
		if i, ok := index[c.DeploymentID]; ok {
			deployments[i].Components = append(deployments[i].Components, c)
		}
	}
	if deployments == nil {
		deployments = []types.Deployment{}
	}
	return deployments, nil
}

// GetDeployment retrieves a deployment and its components by slug.
func (s *Store) GetDeployment(ctx context.Context, slug string) (*types.Deployment, error) {
	const op = "get deployment"
	d, err := scanDeployment(s.db.QueryRowContext(ctx, s.q("SELECT "+deploymentCols+" FROM deployments WHERE slug = ?"), slug))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(op, "deployment", slug)
	}
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to get deployment %s", slug)
	}
	if d.Components, err = s.componentsWhere(ctx, "deployment_id = ?", d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// CreateDeployment derives a slug from the name and inserts the deployment
// with its four components in one transaction.
func (s *Store) CreateDeployment(ctx context.Context, in DeploymentInput) (d *types.Deployment, err error) {
	const op = "create deployment"
	slug := Slugify(in.Name)
	if slug == "" {
		return nil, apperr.Validation(op, "name %q does not produce a usable slug", in.Name)
	}
	for kind := range in.URLs {
		if !slices.Contains(types.ComponentTypes, kind) {
			return nil, apperr.Validation(op, "unknown component type %q", kind)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, s.q("SELECT COUNT(*) FROM deployments WHERE slug = ?"), slug).Scan(&exists); err != nil {
		return nil, apperr.Upstream(op, err, "failed to check slug")
	}
	if exists > 0 {
		err = apperr.New(apperr.KindConflict, op, "deployment slug %q already exists", slug)
		return nil, err
	}

	now := s.stamp()
	id := newID()
	_, err = tx.ExecContext(ctx,
		s.q("INSERT INTO deployments (id, slug, name, description, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		id, slug, in.Name, nullString(in.Description), types.DeploymentActive, now, now,
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to insert deployment")
	}

	for _, kind := range types.ComponentTypes {
		url := in.URLs[kind]
		status := types.HealthNotConfigured
		if url != "" {
			status = types.HealthUnknown
		}
		_, err = tx.ExecContext(ctx,
			s.q("INSERT INTO deployment_components (id, deployment_id, component_type, status, url, config, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"),
			newID(), id, kind, status, nullString(url), "{}", now,
		)
		if err != nil {
			return nil, apperr.Upstream(op, err, "failed to insert %s component", kind)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, apperr.Upstream(op, err, "failed to commit deployment")
	}
	return s.GetDeployment(ctx, slug)
}

// UpdateDeployment changes a deployment's status or description.
func (s *Store) UpdateDeployment(ctx context.Context, slug string, p DeploymentPatch) (*types.Deployment, error) {
	const op = "update deployment"
	d, err := s.GetDeployment(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p.Status != nil {
		if err := oneOf(op, "status", *p.Status, types.DeploymentStatuses); err != nil {
			return nil, err
		}
		d.Status = *p.Status
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	_, err = s.db.ExecContext(ctx,
		s.q("UPDATE deployments SET status = ?, description = ?, updated_at = ? WHERE id = ?"),
		d.Status, nullString(d.Description), s.stamp(), d.ID,
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to update deployment %s", slug)
	}
	return s.GetDeployment(ctx, slug)
}

// UpdateComponent patches one component of a deployment. Giving a URL to
// a not_configured component moves it to unknown; clearing the URL moves
// it back to not_configured.
func (s *Store) UpdateComponent(ctx context.Context, slug, componentType string, p ComponentPatch) (*types.DeploymentComponent, error) {
	const op = "update deployment component"
	if err := oneOf(op, "component_type", componentType, types.ComponentTypes); err != nil {
		return nil, err
	}
	d, err := s.GetDeployment(ctx, slug)
	if err != nil {
		return nil, err
	}
	var c *types.DeploymentComponent
	for i := range d.Components {
		if d.Components[i].ComponentType == componentType {
			c = &d.Components[i]
		}
	}
	if c == nil {
		return nil, apperr.NotFound(op, "component", slug+"/"+componentType)
	}

	if p.URL != nil {
		c.URL = *p.URL
		switch {
		case c.URL == "":
			c.Status = types.HealthNotConfigured
		case c.Status == types.HealthNotConfigured:
			c.Status = types.HealthUnknown
		}
	}
	if p.Status != nil {
		if err := oneOf(op, "status", *p.Status, types.HealthStatuses); err != nil {
			return nil, err
		}
		c.Status = *p.Status
	}
	for k, v := range p.Config {
		if v == nil {
			delete(c.Config, k)
			continue
		}
		c.Config[k] = v
	}

	config, err := encodeJSON(c.Config)
	if err != nil {
		return nil, apperr.Validation(op, "invalid config: %v", err)
	}
	_, err = s.db.ExecContext(ctx,
		s.q("UPDATE deployment_components SET url = ?, status = ?, config = ?, updated_at = ? WHERE id = ?"),
		nullString(c.URL), c.Status, config, s.stamp(), c.ID,
	)
	if err != nil {
		return nil, apperr.Upstream(op, err, "failed to update component %s", c.ID)
	}
	updated, err := s.componentsWhere(ctx, "id = ?", c.ID)
	if err != nil {
		return nil, err
	}
	return &updated[0], nil
}

// RecordHealth persists a probe outcome for a component.
func (s *Store) RecordHealth(ctx context.Context, componentID string, rec HealthRecord) error {
	const op = "record health"
	checked := formatTime(rec.CheckedAt)
	res, err := s.db.ExecContext(ctx,
		s.q("UPDATE deployment_components SET status = ?, error_message = ?, last_checked = ?, updated_at = ? WHERE id = ?"),
		rec.Status, nullString(rec.ErrorMessage), checked, checked, componentID,
	)
	if err != nil {
		return apperr.Upstream(op, err, "failed to persist health for %s", componentID)
	}
	return rowsAffected(res, op, "component", componentID)
}

// DeleteDeployment removes a deployment and its components.
func (s *Store) DeleteDeployment(ctx context.Context, slug string) error {
	const op = "delete deployment"
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM deployments WHERE slug = ?"), slug)
	if err != nil {
		return apperr.Upstream(op, err, "failed to delete deployment %s", slug)
	}
	return rowsAffected(res, op, "deployment", slug)
}
