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

// Package analytics computes per-tenant dashboard figures. All numbers are
// derived live from the store through the actor's tenant filter; nothing is
// precomputed or cached.
package analytics

import (
	"context"
	"time"

	"github.com/invexia/invexia/internal/tenant"
)

// DashboardStats is the dashboard headline block. ValeurStock is in cents.
type DashboardStats struct {
	TotalProduits  int   `json:"total_produits"`
	StockFaible    int   `json:"stock_faible"`
	ValeurStock    int64 `json:"valeur_stock"`
	Membres        int   `json:"membres"`
	TicketsOuverts int   `json:"tickets_ouverts"`
}

// RecentProduit is a dashboard row for the latest catalogue additions.
type RecentProduit struct {
	ID        string `json:"id"`
	Nom       string `json:"nom"`
	SKU       string `json:"sku"`
	Quantite  int    `json:"quantite"`
	Categorie string `json:"categorie"`
	PrixVente int64  `json:"prix_vente"`
}

// ActivityItem is one line of the recent-activity feed, drawn from the
// audit journal.
type ActivityItem struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ActorID   string    `json:"actor_id"`
	Resource  string    `json:"resource"`
	CreatedAt time.Time `json:"created_at"`
}

// CategorieMix is one slice of the category breakdown.
type CategorieMix struct {
	Nom         string `json:"nom"`
	Couleur     string `json:"couleur"`
	Produits    int    `json:"produits"`
	ValeurStock int64  `json:"valeur_stock"`
}

// TopProduit ranks products by the stock value they carry.
type TopProduit struct {
	Nom         string `json:"nom"`
	SKU         string `json:"sku"`
	Quantite    int    `json:"quantite"`
	ValeurStock int64  `json:"valeur_stock"`
}

// Repository aggregates store-side figures under a tenant filter.
type Repository interface {
	ProduitCount(ctx context.Context, filter tenant.Filter) (int, error)
	LowStockCount(ctx context.Context, filter tenant.Filter) (int, error)
	StockValue(ctx context.Context, filter tenant.Filter) (int64, error)
	MemberCount(ctx context.Context, filter tenant.Filter) (int, error)
	OpenTicketCount(ctx context.Context, filter tenant.Filter) (int, error)

	RecentProduits(ctx context.Context, filter tenant.Filter, limit int) ([]RecentProduit, error)
	RecentActivity(ctx context.Context, filter tenant.Filter, limit int) ([]ActivityItem, error)

	CategorieBreakdown(ctx context.Context, filter tenant.Filter) ([]CategorieMix, error)
	TopProduits(ctx context.Context, filter tenant.Filter, limit int) ([]TopProduit, error)
}
