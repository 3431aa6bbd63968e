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

// Package inventory manages the tenant-scoped product catalogue.
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/invexia/invexia/internal/tenant"
)

// Domain errors
var (
	ErrProduitNotFound   = errors.New("produit not found")
	ErrCategorieNotFound = errors.New("categorie not found")
	ErrSKUTaken          = errors.New("sku already in use")
	ErrInvalidQuantite   = errors.New("quantite cannot be negative")
)

// ProduitStatut is the stock lifecycle state of a produit.
type ProduitStatut string

const (
	ProduitActif    ProduitStatut = "actif"
	ProduitInactif  ProduitStatut = "inactif"
	ProduitRupture  ProduitStatut = "rupture"
	ProduitCommande ProduitStatut = "commande"
)

// Produit is one catalogue item. Prices are in cents to keep arithmetic
// exact.
type Produit struct {
	ID           string        `json:"id"`
	EntrepriseID string        `json:"entreprise_id"`
	CategorieID  *string       `json:"categorie_id,omitempty"`
	Nom          string        `json:"nom"`
	Description  string        `json:"description,omitempty"`
	SKU          string        `json:"sku"`
	CodeBarre    string        `json:"code_barre,omitempty"`
	PrixAchat    int64         `json:"prix_achat"`
	PrixVente    int64         `json:"prix_vente"`
	Quantite     int           `json:"quantite"`
	QuantiteMin  int           `json:"quantite_min"`
	Unite        string        `json:"unite"`
	Emplacement  string        `json:"emplacement,omitempty"`
	ImageURL     string        `json:"image_url,omitempty"`
	Statut       ProduitStatut `json:"statut"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// EnRupture reports whether the stock fell to or below the minimum.
func (p *Produit) EnRupture() bool {
	return p.Quantite <= p.QuantiteMin
}

// Categorie groups produits inside one entreprise.
type Categorie struct {
	ID           string    `json:"id"`
	EntrepriseID string    `json:"entreprise_id"`
	Nom          string    `json:"nom"`
	Description  string    `json:"description,omitempty"`
	Couleur      string    `json:"couleur"`
	Icone        string    `json:"icone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Mouvement records one stock adjustment.
type Mouvement struct {
	ID            string    `json:"id"`
	ProduitID     string    `json:"produit_id"`
	EntrepriseID  string    `json:"entreprise_id"`
	ActorID       string    `json:"actor_id"`
	QuantiteAvant int       `json:"quantite_avant"`
	QuantiteApres int       `json:"quantite_apres"`
	Raison        string    `json:"raison,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProduitRepository defines persistence for produits. Every read takes the
// mandatory tenant filter.
type ProduitRepository interface {
	Create(ctx context.Context, produit *Produit) error
	GetByID(ctx context.Context, filter tenant.Filter, id string) (*Produit, error)
	GetBySKU(ctx context.Context, filter tenant.Filter, sku string) (*Produit, error)
	List(ctx context.Context, filter tenant.Filter, limit, offset int) ([]*Produit, error)
	ListLowStock(ctx context.Context, filter tenant.Filter) ([]*Produit, error)
	Update(ctx context.Context, produit *Produit) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
	InsertMouvement(ctx context.Context, mouvement *Mouvement) error
}

// CategorieRepository defines persistence for categories.
type CategorieRepository interface {
	Create(ctx context.Context, categorie *Categorie) error
	GetByID(ctx context.Context, filter tenant.Filter, id string) (*Categorie, error)
	List(ctx context.Context, filter tenant.Filter) ([]*Categorie, error)
	Update(ctx context.Context, categorie *Categorie) error
	Delete(ctx context.Context, id string) error
}
