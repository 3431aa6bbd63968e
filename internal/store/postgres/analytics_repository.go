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
	"fmt"

	"github.com/invexia/invexia/internal/analytics"
	"github.com/invexia/invexia/internal/tenant"
)

// AnalyticsRepository implements analytics.Repository with aggregate
// queries. Every aggregate carries the tenant predicate.
type AnalyticsRepository struct {
	db *DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) countScoped(ctx context.Context, filter tenant.Filter, table, extra string) (int, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, table, clause)
	if extra != "" {
		query += " AND " + extra
	}
	var n int
	if err := r.db.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// ProduitCount counts produits in scope
func (r *AnalyticsRepository) ProduitCount(ctx context.Context, filter tenant.Filter) (int, error) {
	return r.countScoped(ctx, filter, "produits", "")
}

// LowStockCount counts produits at or below their minimum
func (r *AnalyticsRepository) LowStockCount(ctx context.Context, filter tenant.Filter) (int, error) {
	return r.countScoped(ctx, filter, "produits", "quantite <= quantite_min")
}

// StockValue sums quantite * prix_vente in cents
func (r *AnalyticsRepository) StockValue(ctx context.Context, filter tenant.Filter) (int64, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	var value int64
	err := r.db.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT COALESCE(SUM(quantite::bigint * prix_vente), 0) FROM produits WHERE %s
	`, clause), args...).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to sum stock value: %w", err)
	}
	return value, nil
}

// MemberCount counts profils in scope
func (r *AnalyticsRepository) MemberCount(ctx context.Context, filter tenant.Filter) (int, error) {
	return r.countScoped(ctx, filter, "profils", "")
}

// OpenTicketCount counts tickets not yet resolved or closed
func (r *AnalyticsRepository) OpenTicketCount(ctx context.Context, filter tenant.Filter) (int, error) {
	return r.countScoped(ctx, filter, "tickets", "statut IN ('ouvert', 'en_cours', 'en_attente')")
}

// RecentProduits returns the latest catalogue additions in scope
func (r *AnalyticsRepository) RecentProduits(ctx context.Context, filter tenant.Filter, limit int) ([]analytics.RecentProduit, error) {
	clause, args := scopeClause(filter, "p.entreprise_id", 1)
	args = append(args, limit)
	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(`
		SELECT p.id, p.nom, p.sku, p.quantite, COALESCE(c.nom, ''), p.prix_vente
		FROM produits p
		LEFT JOIN categories c ON c.id = p.categorie_id
		WHERE %s
		ORDER BY p.created_at DESC
		LIMIT $%d
	`, clause, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent produits: %w", err)
	}
	defer rows.Close()

	var produits []analytics.RecentProduit
	for rows.Next() {
		var p analytics.RecentProduit
		if err := rows.Scan(&p.ID, &p.Nom, &p.SKU, &p.Quantite, &p.Categorie, &p.PrixVente); err != nil {
			return nil, fmt.Errorf("failed to scan recent produit: %w", err)
		}
		produits = append(produits, p)
	}
	return produits, rows.Err()
}

// RecentActivity returns the latest audit journal lines in scope
func (r *AnalyticsRepository) RecentActivity(ctx context.Context, filter tenant.Filter, limit int) ([]analytics.ActivityItem, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	args = append(args, limit)
	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, type, COALESCE(actor_id::text, ''), resource, created_at
		FROM audit_entries
		WHERE %s
		ORDER BY id DESC
		LIMIT $%d
	`, clause, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activity: %w", err)
	}
	defer rows.Close()

	var items []analytics.ActivityItem
	for rows.Next() {
		var item analytics.ActivityItem
		if err := rows.Scan(&item.ID, &item.Type, &item.ActorID, &item.Resource, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CategorieBreakdown returns stock distribution per categorie
func (r *AnalyticsRepository) CategorieBreakdown(ctx context.Context, filter tenant.Filter) ([]analytics.CategorieMix, error) {
	clause, args := scopeClause(filter, "p.entreprise_id", 1)
	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(`
		SELECT COALESCE(c.nom, 'Non catégorisé'), COALESCE(c.couleur, ''),
			COUNT(p.id), COALESCE(SUM(p.quantite::bigint * p.prix_vente), 0)
		FROM produits p
		LEFT JOIN categories c ON c.id = p.categorie_id
		WHERE %s
		GROUP BY c.nom, c.couleur
		ORDER BY COUNT(p.id) DESC
	`, clause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute categorie breakdown: %w", err)
	}
	defer rows.Close()

	var mix []analytics.CategorieMix
	for rows.Next() {
		var m analytics.CategorieMix
		if err := rows.Scan(&m.Nom, &m.Couleur, &m.Produits, &m.ValeurStock); err != nil {
			return nil, fmt.Errorf("failed to scan categorie mix: %w", err)
		}
		mix = append(mix, m)
	}
	return mix, rows.Err()
}

// TopProduits ranks products by carried stock value
func (r *AnalyticsRepository) TopProduits(ctx context.Context, filter tenant.Filter, limit int) ([]analytics.TopProduit, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	args = append(args, limit)
	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(`
		SELECT nom, sku, quantite, quantite::bigint * prix_vente AS valeur
		FROM produits
		WHERE %s
		ORDER BY valeur DESC
		LIMIT $%d
	`, clause, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to rank produits: %w", err)
	}
	defer rows.Close()

	var top []analytics.TopProduit
	for rows.Next() {
		var t analytics.TopProduit
		if err := rows.Scan(&t.Nom, &t.SKU, &t.Quantite, &t.ValeurStock); err != nil {
			return nil, fmt.Errorf("failed to scan top produit: %w", err)
		}
		top = append(top, t)
	}
	return top, rows.Err()
}
