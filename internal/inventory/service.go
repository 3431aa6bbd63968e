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

package inventory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/authz"
	"github.com/invexia/invexia/internal/id"
	"github.com/invexia/invexia/internal/rbac"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service is the authoritative inventory API. Every operation re-checks the
// actor's permission and tenant scope before touching the store, whatever a
// client may have rendered.
type Service struct {
	produits    ProduitRepository
	categories  CategorieRepository
	authorizer  *authz.Authorizer
	auditLogger audit.Logger
}

// NewService creates an inventory service.
func NewService(
	produits ProduitRepository,
	categories CategorieRepository,
	authorizer *authz.Authorizer,
	auditLogger audit.Logger,
) *Service {
	return &Service{
		produits:    produits,
		categories:  categories,
		authorizer:  authorizer,
		auditLogger: auditLogger,
	}
}

// ProduitInput carries the writable produit fields.
type ProduitInput struct {
	Nom         string
	Description string
	SKU         string
	CodeBarre   string
	CategorieID *string
	PrixAchat   int64
	PrixVente   int64
	Quantite    int
	QuantiteMin int
	Unite       string
	Emplacement string
	ImageURL    string
}

// CreateProduit adds a produit to the actor's entreprise. Non-admin actors
// can only ever create inside their own tenant because the entreprise comes
// from the actor's scope, not from the request.
func (s *Service) CreateProduit(ctx context.Context, actor *authz.Actor, in ProduitInput) (*Produit, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermInventoryCreate); err != nil {
		return nil, err
	}
	entrepriseID, ok := actor.Scope().EntrepriseID()
	if !ok {
		// Admin has no home tenant to create into.
		return nil, authz.ErrTenantMismatch
	}
	if in.Quantite < 0 || in.QuantiteMin < 0 {
		return nil, ErrInvalidQuantite
	}

	if existing, err := s.produits.GetBySKU(ctx, actor.Scope(), in.SKU); err == nil && existing != nil {
		return nil, ErrSKUTaken
	}

	if in.CategorieID != nil {
		if _, err := s.categories.GetByID(ctx, actor.Scope(), *in.CategorieID); err != nil {
			return nil, ErrCategorieNotFound
		}
	}

	now := time.Now()
	produit := &Produit{
		ID:           id.NewUUIDv7(),
		EntrepriseID: entrepriseID,
		CategorieID:  in.CategorieID,
		Nom:          in.Nom,
		Description:  in.Description,
		SKU:          in.SKU,
		CodeBarre:    in.CodeBarre,
		PrixAchat:    in.PrixAchat,
		PrixVente:    in.PrixVente,
		Quantite:     in.Quantite,
		QuantiteMin:  in.QuantiteMin,
		Unite:        in.Unite,
		Emplacement:  in.Emplacement,
		ImageURL:     in.ImageURL,
		Statut:       statutFor(in.Quantite, in.QuantiteMin),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.produits.Create(ctx, produit); err != nil {
		return nil, fmt.Errorf("failed to create produit: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeProduitCreated,
		EntrepriseID: entrepriseID,
		ActorID:      actor.UserID,
		Resource:     "produit:" + produit.ID,
		Metadata:     map[string]any{"sku": produit.SKU},
	})
	return produit, nil
}

// GetProduit fetches one produit within the actor's scope.
func (s *Service) GetProduit(ctx context.Context, actor *authz.Actor, produitID string) (*Produit, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermInventoryView); err != nil {
		return nil, err
	}
	produit, err := s.produits.GetByID(ctx, actor.Scope(), produitID)
	if err != nil {
		return nil, ErrProduitNotFound
	}
	return produit, nil
}

// ListProduits lists the actor's visible produits.
func (s *Service) ListProduits(ctx context.Context, actor *authz.Actor, limit, offset int) ([]*Produit, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermInventoryView); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	produits, err := s.produits.List(ctx, actor.Scope(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list produits: %w", err)
	}
	return produits, nil
}

// ListLowStock lists produits at or below their minimum quantity.
func (s *Service) ListLowStock(ctx context.Context, actor *authz.Actor) ([]*Produit, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermInventoryView); err != nil {
		return nil, err
	}
	produits, err := s.produits.ListLowStock(ctx, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock: %w", err)
	}
	return produits, nil
}

// UpdateProduit modifies a produit's writable fields.
func (s *Service) UpdateProduit(ctx context.Context, actor *authz.Actor, produitID string, in ProduitInput) (*Produit, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermInventoryEdit); err != nil {
		return nil, err
	}
	produit, err := s.produits.GetByID(ctx, actor.Scope(), produitID)
	if err != nil {
		return nil, ErrProduitNotFound
	}
	if in.Quantite < 0 || in.QuantiteMin < 0 {
		return nil, ErrInvalidQuantite
	}
	if in.SKU != produit.SKU {
		if existing, err := s.produits.GetBySKU(ctx, actor.Scope(), in.SKU); err == nil && existing != nil {
			return nil, ErrSKUTaken
		}
	}
	if in.CategorieID != nil {
		if _, err := s.categories.GetByID(ctx, actor.Scope(), *in.CategorieID); err != nil {
			return nil, ErrCategorieNotFound
		}
	}

	produit.Nom = in.Nom
	produit.Description = in.Description
	produit.SKU = in.SKU
	produit.CodeBarre = in.CodeBarre
	produit.CategorieID = in.CategorieID
	produit.PrixAchat = in.PrixAchat
	produit.PrixVente = in.PrixVente
	produit.Quantite = in.Quantite
	produit.QuantiteMin = in.QuantiteMin
	produit.Unite = in.Unite
	produit.Emplacement = in.Emplacement
	produit.ImageURL = in.ImageURL
	produit.Statut = statutFor(in.Quantite, in.QuantiteMin)
	produit.UpdatedAt = time.Now()

	if err := s.produits.Update(ctx, produit); err != nil {
		return nil, fmt.Errorf("failed to update produit: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeProduitUpdated,
		EntrepriseID: produit.EntrepriseID,
		ActorID:      actor.UserID,
		Resource:     "produit:" + produit.ID,
	})
	return produit, nil
}

// AdjustStock records a stock movement and updates the quantity.
func (s *Service) AdjustStock(ctx context.Context, actor *authz.Actor, produitID string, nouvelleQuantite int, raison string) (*Produit, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermInventoryEdit); err != nil {
		return nil, err
	}
	if nouvelleQuantite < 0 {
		return nil, ErrInvalidQuantite
	}
	produit, err := s.produits.GetByID(ctx, actor.Scope(), produitID)
	if err != nil {
		return nil, ErrProduitNotFound
	}

	mouvement := &Mouvement{
		ID:            id.NewULID(),
		ProduitID:     produit.ID,
		EntrepriseID:  produit.EntrepriseID,
		ActorID:       actor.UserID,
		QuantiteAvant: produit.Quantite,
		QuantiteApres: nouvelleQuantite,
		Raison:        raison,
		CreatedAt:     time.Now(),
	}

	produit.Quantite = nouvelleQuantite
	produit.Statut = statutFor(produit.Quantite, produit.QuantiteMin)
	produit.UpdatedAt = time.Now()

	if err := s.produits.Update(ctx, produit); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}
	if err := s.produits.InsertMouvement(ctx, mouvement); err != nil {
		return nil, fmt.Errorf("failed to record mouvement: %w", err)
	}
	return produit, nil
}

// DeleteProduit removes a produit.
func (s *Service) DeleteProduit(ctx context.Context, actor *authz.Actor, produitID string) error {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermInventoryDelete); err != nil {
		return err
	}
	produit, err := s.produits.GetByID(ctx, actor.Scope(), produitID)
	if err != nil {
		return ErrProduitNotFound
	}
	if err := s.produits.Delete(ctx, produit.ID); err != nil {
		return fmt.Errorf("failed to delete produit: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeProduitDeleted,
		EntrepriseID: produit.EntrepriseID,
		ActorID:      actor.UserID,
		Resource:     "produit:" + produit.ID,
		Metadata:     map[string]any{"sku": produit.SKU},
	})
	return nil
}

// DeleteProduits removes several produits at once. Each target is fetched
// through the actor's scope first, so a foreign ID in the batch fails the
// whole call instead of silently deleting what it can.
func (s *Service) DeleteProduits(ctx context.Context, actor *authz.Actor, produitIDs []string) error {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermInventoryDelete); err != nil {
		return err
	}
	for _, pid := range produitIDs {
		if _, err := s.produits.GetByID(ctx, actor.Scope(), pid); err != nil {
			return ErrProduitNotFound
		}
	}
	if err := s.produits.DeleteMany(ctx, produitIDs); err != nil {
		return fmt.Errorf("failed to delete produits: %w", err)
	}
	return nil
}

// ExportCSV writes the actor's visible produits as CSV.
func (s *Service) ExportCSV(ctx context.Context, actor *authz.Actor, w io.Writer) error {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermInventoryExport); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"SKU", "Nom", "Description", "Prix Achat", "Prix Vente", "Quantité", "Unité", "Statut", "Emplacement"}); err != nil {
		return err
	}

	// Page through the full inventory; the export must never truncate.
	total := 0
	for offset := 0; ; offset += maxListLimit {
		produits, err := s.produits.List(ctx, actor.Scope(), maxListLimit, offset)
		if err != nil {
			return fmt.Errorf("failed to list produits: %w", err)
		}
		for _, p := range produits {
			if err := cw.Write([]string{
				p.SKU,
				p.Nom,
				p.Description,
				formatCents(p.PrixAchat),
				formatCents(p.PrixVente),
				strconv.Itoa(p.Quantite),
				p.Unite,
				string(p.Statut),
				p.Emplacement,
			}); err != nil {
				return err
			}
		}
		total += len(produits)
		if len(produits) < maxListLimit {
			break
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeExportGenerated,
		ActorID:  actor.UserID,
		Resource: "produits",
		Metadata: map[string]any{audit.AttrCount: total},
	})
	return nil
}

// CategorieInput carries the writable categorie fields.
type CategorieInput struct {
	Nom         string
	Description string
	Couleur     string
	Icone       string
}

// CreateCategorie adds a categorie to the actor's entreprise.
func (s *Service) CreateCategorie(ctx context.Context, actor *authz.Actor, in CategorieInput) (*Categorie, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermCategoriesCreate); err != nil {
		return nil, err
	}
	entrepriseID, ok := actor.Scope().EntrepriseID()
	if !ok {
		return nil, authz.ErrTenantMismatch
	}

	categorie := &Categorie{
		ID:           id.NewUUIDv7(),
		EntrepriseID: entrepriseID,
		Nom:          in.Nom,
		Description:  in.Description,
		Couleur:      in.Couleur,
		Icone:        in.Icone,
		CreatedAt:    time.Now(),
	}
	if err := s.categories.Create(ctx, categorie); err != nil {
		return nil, fmt.Errorf("failed to create categorie: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeCategorieCreated,
		EntrepriseID: entrepriseID,
		ActorID:      actor.UserID,
		Resource:     "categorie:" + categorie.ID,
	})
	return categorie, nil
}

// ListCategories lists the actor's visible categories.
func (s *Service) ListCategories(ctx context.Context, actor *authz.Actor) ([]*Categorie, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermCategoriesView); err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// UpdateCategorie modifies a categorie.
func (s *Service) UpdateCategorie(ctx context.Context, actor *authz.Actor, categorieID string, in CategorieInput) (*Categorie, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermCategoriesEdit); err != nil {
		return nil, err
	}
	categorie, err := s.categories.GetByID(ctx, actor.Scope(), categorieID)
	if err != nil {
		return nil, ErrCategorieNotFound
	}

	categorie.Nom = in.Nom
	categorie.Description = in.Description
	categorie.Couleur = in.Couleur
	categorie.Icone = in.Icone

	if err := s.categories.Update(ctx, categorie); err != nil {
		return nil, fmt.Errorf("failed to update categorie: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeCategorieUpdated,
		EntrepriseID: categorie.EntrepriseID,
		ActorID:      actor.UserID,
		Resource:     "categorie:" + categorie.ID,
	})
	return categorie, nil
}

// DeleteCategorie removes a categorie. Produits keep a dangling reference
// cleared by the store's foreign key ON DELETE SET NULL.
func (s *Service) DeleteCategorie(ctx context.Context, actor *authz.Actor, categorieID string) error {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermCategoriesDelete); err != nil {
		return err
	}
	categorie, err := s.categories.GetByID(ctx, actor.Scope(), categorieID)
	if err != nil {
		return ErrCategorieNotFound
	}
	if err := s.categories.Delete(ctx, categorie.ID); err != nil {
		return fmt.Errorf("failed to delete categorie: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeCategorieDeleted,
		EntrepriseID: categorie.EntrepriseID,
		ActorID:      actor.UserID,
		Resource:     "categorie:" + categorie.ID,
	})
	return nil
}

func statutFor(quantite, quantiteMin int) ProduitStatut {
	if quantite == 0 {
		return ProduitRupture
	}
	if quantite <= quantiteMin {
		return ProduitCommande
	}
	return ProduitActif
}

func formatCents(cents int64) string {
	return strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
}
