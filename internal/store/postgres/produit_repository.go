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

	"github.com/invexia/invexia/internal/inventory"
	"github.com/invexia/invexia/internal/tenant"
)

// ProduitRepository implements inventory.ProduitRepository
type ProduitRepository struct {
	db *DB
}

// NewProduitRepository creates a new produit repository
func NewProduitRepository(db *DB) *ProduitRepository {
	return &ProduitRepository{db: db}
}

const produitColumns = `id, entreprise_id, categorie_id, nom, description, sku, code_barre,
	prix_achat, prix_vente, quantite, quantite_min, unite, emplacement, image_url, statut,
	created_at, updated_at`

func scanProduit(row pgx.Row) (*inventory.Produit, error) {
	var p inventory.Produit
	err := row.Scan(
		&p.ID, &p.EntrepriseID, &p.CategorieID, &p.Nom, &p.Description,
		&p.SKU, &p.CodeBarre, &p.PrixAchat, &p.PrixVente,
		&p.Quantite, &p.QuantiteMin, &p.Unite, &p.Emplacement,
		&p.ImageURL, &p.Statut, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create creates a new produit
func (r *ProduitRepository) Create(ctx context.Context, p *inventory.Produit) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO produits (id, entreprise_id, categorie_id, nom, description, sku, code_barre,
			prix_achat, prix_vente, quantite, quantite_min, unite, emplacement, image_url, statut,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		p.ID, p.EntrepriseID, p.CategorieID, p.Nom, p.Description, p.SKU, p.CodeBarre,
		p.PrixAchat, p.PrixVente, p.Quantite, p.QuantiteMin, p.Unite, p.Emplacement,
		p.ImageURL, p.Statut, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert produit: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetByID retrieves a produit visible through the tenant filter
func (r *ProduitRepository) GetByID(ctx context.Context, filter tenant.Filter, id string) (*inventory.Produit, error) {
	clause, args := scopeClause(filter, "entreprise_id", 2)
	args = append([]any{id}, args...)
	p, err := scanProduit(r.db.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM produits WHERE id = $1 AND %s
	`, produitColumns, clause), args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrProduitNotFound
		}
		return nil, fmt.Errorf("failed to query produit: %w", err)
	}
	return p, nil
}

// GetBySKU retrieves a produit by SKU within the tenant filter
func (r *ProduitRepository) GetBySKU(ctx context.Context, filter tenant.Filter, sku string) (*inventory.Produit, error) {
	clause, args := scopeClause(filter, "entreprise_id", 2)
	args = append([]any{sku}, args...)
	p, err := scanProduit(r.db.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM produits WHERE sku = $1 AND %s
	`, produitColumns, clause), args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrProduitNotFound
		}
		return nil, fmt.Errorf("failed to query produit: %w", err)
	}
	return p, nil
}

// List returns produits visible through the tenant filter
func (r *ProduitRepository) List(ctx context.Context, filter tenant.Filter, limit, offset int) ([]*inventory.Produit, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	args = append(args, limit, offset)
	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM produits
		WHERE %s
		ORDER BY nom
		LIMIT $%d OFFSET $%d
	`, produitColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list produits: %w", err)
	}
	defer rows.Close()
	return collectProduits(rows)
}

// ListLowStock returns produits at or below their minimum quantity
func (r *ProduitRepository) ListLowStock(ctx context.Context, filter tenant.Filter) ([]*inventory.Produit, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM produits
		WHERE %s AND quantite <= quantite_min
		ORDER BY quantite
	`, produitColumns, clause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock produits: %w", err)
	}
	defer rows.Close()
	return collectProduits(rows)
}

func collectProduits(rows pgx.Rows) ([]*inventory.Produit, error) {
	var produits []*inventory.Produit
	for rows.Next() {
		p, err := scanProduit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan produit: %w", err)
		}
		produits = append(produits, p)
	}
	return produits, rows.Err()
}

// Update updates a produit
func (r *ProduitRepository) Update(ctx context.Context, p *inventory.Produit) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		UPDATE produits
		SET categorie_id = $2, nom = $3, description = $4, sku = $5, code_barre = $6,
			prix_achat = $7, prix_vente = $8, quantite = $9, quantite_min = $10,
			unite = $11, emplacement = $12, image_url = $13, statut = $14, updated_at = $15
		WHERE id = $1
	`,
		p.ID, p.CategorieID, p.Nom, p.Description, p.SKU, p.CodeBarre,
		p.PrixAchat, p.PrixVente, p.Quantite, p.QuantiteMin,
		p.Unite, p.Emplacement, p.ImageURL, p.Statut, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update produit: %w", err)
	}
	p.UpdatedAt = now
	return nil
}

// Delete deletes a produit
func (r *ProduitRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM produits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete produit: %w", err)
	}
	return nil
}

// DeleteMany deletes a batch of produits
func (r *ProduitRepository) DeleteMany(ctx context.Context, ids []string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM produits WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to delete produits: %w", err)
	}
	return nil
}

// InsertMouvement records a stock adjustment
func (r *ProduitRepository) InsertMouvement(ctx context.Context, m *inventory.Mouvement) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO mouvements (id, produit_id, entreprise_id, actor_id,
			quantite_avant, quantite_apres, raison, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		m.ID, m.ProduitID, m.EntrepriseID, m.ActorID,
		m.QuantiteAvant, m.QuantiteApres, m.Raison, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert mouvement: %w", err)
	}
	return nil
}
