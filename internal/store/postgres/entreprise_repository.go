// Copyright 2026 The Invexia Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/invexia/invexia/internal/tenant"
)

// EntrepriseRepository implements tenant.Repository
type EntrepriseRepository struct {
	db *DB
}

// NewEntrepriseRepository creates a new entreprise repository
func NewEntrepriseRepository(db *DB) *EntrepriseRepository {
	return &EntrepriseRepository{db: db}
}

const entrepriseColumns = `id, nom, slug, logo_url, plan, statut, onboarding_complete, created_at, updated_at`

func scanEntreprise(row pgx.Row) (*tenant.Entreprise, error) {
	var e tenant.Entreprise
	err := row.Scan(
		&e.ID, &e.Nom, &e.Slug, &e.LogoURL, &e.Plan, &e.Statut,
		&e.OnboardingComplete, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create creates a new entreprise
func (r *EntrepriseRepository) Create(ctx context.Context, e *tenant.Entreprise) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO entreprises (id, nom, slug, logo_url, plan, statut, onboarding_complete, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.Nom, e.Slug, e.LogoURL, e.Plan, e.Statut, e.OnboardingComplete, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert entreprise: %w", err)
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetByID retrieves an entreprise by ID
func (r *EntrepriseRepository) GetByID(ctx context.Context, id string) (*tenant.Entreprise, error) {
	e, err := scanEntreprise(r.db.pool.QueryRow(ctx, `
		SELECT `+entrepriseColumns+` FROM entreprises WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrEntrepriseNotFound
		}
		return nil, fmt.Errorf("failed to query entreprise: %w", err)
	}
	return e, nil
}

// GetBySlug retrieves an entreprise by slug
func (r *EntrepriseRepository) GetBySlug(ctx context.Context, slug string) (*tenant.Entreprise, error) {
	e, err := scanEntreprise(r.db.pool.QueryRow(ctx, `
		SELECT `+entrepriseColumns+` FROM entreprises WHERE slug = $1
	`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrEntrepriseNotFound
		}
		return nil, fmt.Errorf("failed to query entreprise: %w", err)
	}
	return e, nil
}

// Update updates an entreprise
func (r *EntrepriseRepository) Update(ctx context.Context, e *tenant.Entreprise) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		UPDATE entreprises
		SET nom = $2, logo_url = $3, plan = $4, statut = $5, onboarding_complete = $6, updated_at = $7
		WHERE id = $1
	`, e.ID, e.Nom, e.LogoURL, e.Plan, e.Statut, e.OnboardingComplete, now)
	if err != nil {
		return fmt.Errorf("failed to update entreprise: %w", err)
	}
	e.UpdatedAt = now
	return nil
}

// List returns entreprises visible through the tenant filter
func (r *EntrepriseRepository) List(ctx context.Context, filter tenant.Filter, limit, offset int) ([]*tenant.Entreprise, error) {
	clause, args := scopeClause(filter, "id", 1)
	args = append(args, limit, offset)
	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM entreprises
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, entrepriseColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entreprises: %w", err)
	}
	defer rows.Close()

	var entreprises []*tenant.Entreprise
	for rows.Next() {
		e, err := scanEntreprise(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entreprise: %w", err)
		}
		entreprises = append(entreprises, e)
	}
	return entreprises, rows.Err()
}
