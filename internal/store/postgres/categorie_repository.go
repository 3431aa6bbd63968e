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

	"github.com/jackc/pgx/v5"

	"github.com/invexia/invexia/internal/inventory"
	"github.com/invexia/invexia/internal/tenant"
)

// CategorieRepository implements inventory.CategorieRepository
type CategorieRepository struct {
	db *DB
}

// NewCategorieRepository creates a new categorie repository
func NewCategorieRepository(db *DB) *CategorieRepository {
	return &CategorieRepository{db: db}
}

const categorieColumns = `id, entreprise_id, nom, description, couleur, icone, created_at`

func scanCategorie(row pgx.Row) (*inventory.Categorie, error) {
	var c inventory.Categorie
	err := row.Scan(&c.ID, &c.EntrepriseID, &c.Nom, &c.Description, &c.Couleur, &c.Icone, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create creates a new categorie
func (r *CategorieRepository) Create(ctx context.Context, c *inventory.Categorie) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO categories (id, entreprise_id, nom, description, couleur, icone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.EntrepriseID, c.Nom, c.Description, c.Couleur, c.Icone, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert categorie: %w", err)
	}
	return nil
}

// GetByID retrieves a categorie visible through the tenant filter
func (r *CategorieRepository) GetByID(ctx context.Context, filter tenant.Filter, id string) (*inventory.Categorie, error) {
	clause, args := scopeClause(filter, "entreprise_id", 2)
	args = append([]any{id}, args...)
	c, err := scanCategorie(r.db.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM categories WHERE id = $1 AND %s
	`, categorieColumns, clause), args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrCategorieNotFound
		}
		return nil, fmt.Errorf("failed to query categorie: %w", err)
	}
	return c, nil
}

// List returns categories visible through the tenant filter
func (r *CategorieRepository) List(ctx context.Context, filter tenant.Filter) ([]*inventory.Categorie, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM categories WHERE %s ORDER BY nom
	`, categorieColumns, clause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*inventory.Categorie
	for rows.Next() {
		c, err := scanCategorie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan categorie: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Update updates a categorie
func (r *CategorieRepository) Update(ctx context.Context, c *inventory.Categorie) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE categories
		SET nom = $2, description = $3, couleur = $4, icone = $5
		WHERE id = $1
	`, c.ID, c.Nom, c.Description, c.Couleur, c.Icone)
	if err != nil {
		return fmt.Errorf("failed to update categorie: %w", err)
	}
	return nil
}

// Delete deletes a categorie
func (r *CategorieRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete categorie: %w", err)
	}
	return nil
}
