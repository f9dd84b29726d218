package db

import (
	"context"

	"github.com/google/uuid"
)

// GetTenantBySlug looks up a tenant by its URL slug from the global schema.
func (q *Queries) GetTenantBySlug(ctx context.Context, slug string) (Tenant, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, slug, name, config, created_at
		FROM public.tenants
		WHERE slug = $1
	`, slug)

	var t Tenant
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Config, &t.CreatedAt)
	return t, err
}

// CreateTenantParams carries the fields written when provisioning a tenant.
type CreateTenantParams struct {
	Name   string
	Slug   string
	Config []byte
}

// CreateTenant inserts a new tenant row into the global schema. Provisioning
// the tenant's dedicated Postgres schema and running tenant migrations
// against it is the caller's responsibility (pkg/tenant.Provisioner).
func (q *Queries) CreateTenant(ctx context.Context, arg CreateTenantParams) (Tenant, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO public.tenants (id, slug, name, config, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, now())
		RETURNING id, slug, name, config, created_at
	`, arg.Slug, arg.Name, arg.Config)

	var t Tenant
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Config, &t.CreatedAt)
	return t, err
}

// DeleteTenant removes a tenant's global record. Callers must drop the
// tenant's schema separately.
func (q *Queries) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM public.tenants WHERE id = $1`, id)
	return err
}

// ListTenants returns every tenant, used by worker-mode scheduled jobs that
// iterate tenants to dispatch per-tenant work.
func (q *Queries) ListTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, slug, name, config, created_at FROM public.tenants ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.Config, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
