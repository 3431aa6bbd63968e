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
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/authz"
	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/rbac"
	"github.com/invexia/invexia/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryProduits struct {
	produits   map[string]*Produit
	mouvements []*Mouvement
}

func newMemoryProduits() *memoryProduits {
	return &memoryProduits{produits: make(map[string]*Produit)}
}

func (m *memoryProduits) Create(ctx context.Context, p *Produit) error {
	m.produits[p.ID] = p
	return nil
}

func (m *memoryProduits) GetByID(ctx context.Context, filter tenant.Filter, id string) (*Produit, error) {
	p, ok := m.produits[id]
	if !ok || !visible(filter, p.EntrepriseID) {
		return nil, ErrProduitNotFound
	}
	return p, nil
}

func (m *memoryProduits) GetBySKU(ctx context.Context, filter tenant.Filter, sku string) (*Produit, error) {
	for _, p := range m.produits {
		if p.SKU == sku && visible(filter, p.EntrepriseID) {
			return p, nil
		}
	}
	return nil, ErrProduitNotFound
}

func (m *memoryProduits) List(ctx context.Context, filter tenant.Filter, limit, offset int) ([]*Produit, error) {
	var out []*Produit
	for _, p := range m.produits {
		if visible(filter, p.EntrepriseID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nom < out[j].Nom })
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryProduits) ListLowStock(ctx context.Context, filter tenant.Filter) ([]*Produit, error) {
	var out []*Produit
	for _, p := range m.produits {
		if visible(filter, p.EntrepriseID) && p.EnRupture() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryProduits) Update(ctx context.Context, p *Produit) error {
	m.produits[p.ID] = p
	return nil
}

func (m *memoryProduits) Delete(ctx context.Context, id string) error {
	delete(m.produits, id)
	return nil
}

func (m *memoryProduits) DeleteMany(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.produits, id)
	}
	return nil
}

func (m *memoryProduits) InsertMouvement(ctx context.Context, mv *Mouvement) error {
	m.mouvements = append(m.mouvements, mv)
	return nil
}

type memoryCategories struct {
	categories map[string]*Categorie
}

func newMemoryCategories() *memoryCategories {
	return &memoryCategories{categories: make(map[string]*Categorie)}
}

func (m *memoryCategories) Create(ctx context.Context, c *Categorie) error {
	m.categories[c.ID] = c
	return nil
}

func (m *memoryCategories) GetByID(ctx context.Context, filter tenant.Filter, id string) (*Categorie, error) {
	c, ok := m.categories[id]
	if !ok || !visible(filter, c.EntrepriseID) {
		return nil, ErrCategorieNotFound
	}
	return c, nil
}

func (m *memoryCategories) List(ctx context.Context, filter tenant.Filter) ([]*Categorie, error) {
	var out []*Categorie
	for _, c := range m.categories {
		if visible(filter, c.EntrepriseID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryCategories) Update(ctx context.Context, c *Categorie) error {
	m.categories[c.ID] = c
	return nil
}

func (m *memoryCategories) Delete(ctx context.Context, id string) error {
	delete(m.categories, id)
	return nil
}

func visible(filter tenant.Filter, entrepriseID string) bool {
	return filter.IsUnrestricted() || filter.Allows(entrepriseID)
}

func inventoryActor(role rbac.Role, entrepriseID string) *authz.Actor {
	p := &identity.Profil{ID: "u-" + string(role), Role: role, Statut: identity.StatutActif}
	if entrepriseID != "" {
		p.EntrepriseID = &entrepriseID
	}
	return &authz.Actor{UserID: p.ID, Profil: p}
}

func newInventoryService() (*Service, *memoryProduits, *memoryCategories) {
	produits := newMemoryProduits()
	categories := newMemoryCategories()
	s := NewService(produits, categories, authz.NewAuthorizer(audit.NewSlogLogger()), audit.NewSlogLogger())
	return s, produits, categories
}

// TestPurpose: Validates produit creation: permission gate, tenant derived
// from the actor rather than the request, SKU uniqueness, and the derived
// stock statut.
// Scope: Unit Test
// Security: Server-side re-validation and tenant confinement on writes
// Expected: employe creates into own tenant; duplicate SKU refused.
// Test Case ID: INV-01
func TestInventory_Service_CreateProduit(t *testing.T) {
	s, _, _ := newInventoryService()
	ctx := context.Background()
	employe := inventoryActor(rbac.RoleEmploye, "ent-1")

	produit, err := s.CreateProduit(ctx, employe, ProduitInput{
		Nom: "Perceuse", SKU: "PRC-001", PrixAchat: 4500, PrixVente: 7900,
		Quantite: 12, QuantiteMin: 3, Unite: "pièce",
	})
	require.NoError(t, err)
	assert.Equal(t, "ent-1", produit.EntrepriseID)
	assert.Equal(t, ProduitActif, produit.Statut)

	_, err = s.CreateProduit(ctx, employe, ProduitInput{Nom: "Autre", SKU: "PRC-001", Unite: "pièce"})
	assert.ErrorIs(t, err, ErrSKUTaken)

	_, err = s.CreateProduit(ctx, employe, ProduitInput{Nom: "Négatif", SKU: "NEG-1", Quantite: -1})
	assert.ErrorIs(t, err, ErrInvalidQuantite)
}

func TestInventory_Service_CreateProduit_DerivedStatut(t *testing.T) {
	s, _, _ := newInventoryService()
	ctx := context.Background()
	employe := inventoryActor(rbac.RoleEmploye, "ent-1")

	rupture, err := s.CreateProduit(ctx, employe, ProduitInput{Nom: "Vis", SKU: "VIS-1", Quantite: 0, QuantiteMin: 5})
	require.NoError(t, err)
	assert.Equal(t, ProduitRupture, rupture.Statut)

	commande, err := s.CreateProduit(ctx, employe, ProduitInput{Nom: "Clou", SKU: "CLU-1", Quantite: 3, QuantiteMin: 5})
	require.NoError(t, err)
	assert.Equal(t, ProduitCommande, commande.Statut)
}

// TestPurpose: Validates that a non-admin cannot reach produits of another
// entreprise through any read or write path.
// Scope: Unit Test
// Security: Multi-tenant isolation (critical defect if omitted)
// Expected: foreign produits invisible and unmodifiable; admin sees all.
// Test Case ID: INV-02
func TestInventory_Service_TenantIsolation(t *testing.T) {
	s, _, _ := newInventoryService()
	ctx := context.Background()

	mine := inventoryActor(rbac.RoleManager, "ent-1")
	other := inventoryActor(rbac.RoleManager, "ent-2")

	produit, err := s.CreateProduit(ctx, mine, ProduitInput{Nom: "Scie", SKU: "SCI-1", Quantite: 4, Unite: "pièce"})
	require.NoError(t, err)

	_, err = s.GetProduit(ctx, other, produit.ID)
	assert.ErrorIs(t, err, ErrProduitNotFound, "foreign produit must be indistinguishable from absent")

	_, err = s.UpdateProduit(ctx, other, produit.ID, ProduitInput{Nom: "Volée", SKU: "SCI-1"})
	assert.ErrorIs(t, err, ErrProduitNotFound)

	err = s.DeleteProduit(ctx, other, produit.ID)
	assert.ErrorIs(t, err, ErrProduitNotFound)

	list, err := s.ListProduits(ctx, other, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	admin := inventoryActor(rbac.RoleAdmin, "")
	list, err = s.ListProduits(ctx, admin, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// TestPurpose: Validates the permission split on inventory operations:
// employe may create and edit but not delete or export.
// Scope: Unit Test
// Security: Role-based operation gating
// Expected: ErrPermissionDenied on delete and export for employe.
// Test Case ID: INV-03
func TestInventory_Service_EmployePermissions(t *testing.T) {
	s, _, _ := newInventoryService()
	ctx := context.Background()
	employe := inventoryActor(rbac.RoleEmploye, "ent-1")

	produit, err := s.CreateProduit(ctx, employe, ProduitInput{Nom: "Marteau", SKU: "MRT-1", Quantite: 8, Unite: "pièce"})
	require.NoError(t, err)

	_, err = s.UpdateProduit(ctx, employe, produit.ID, ProduitInput{Nom: "Marteau acier", SKU: "MRT-1", Quantite: 8, Unite: "pièce"})
	assert.NoError(t, err)

	err = s.DeleteProduit(ctx, employe, produit.ID)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	err = s.ExportCSV(ctx, employe, &strings.Builder{})
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestInventory_Service_AdjustStock(t *testing.T) {
	s, produits, _ := newInventoryService()
	ctx := context.Background()
	employe := inventoryActor(rbac.RoleEmploye, "ent-1")

	produit, err := s.CreateProduit(ctx, employe, ProduitInput{Nom: "Câble", SKU: "CBL-1", Quantite: 10, QuantiteMin: 2, Unite: "m"})
	require.NoError(t, err)

	updated, err := s.AdjustStock(ctx, employe, produit.ID, 1, "casse")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantite)
	assert.Equal(t, ProduitCommande, updated.Statut)

	require.Len(t, produits.mouvements, 1)
	mv := produits.mouvements[0]
	assert.Equal(t, 10, mv.QuantiteAvant)
	assert.Equal(t, 1, mv.QuantiteApres)
	assert.Equal(t, "casse", mv.Raison)

	_, err = s.AdjustStock(ctx, employe, produit.ID, -1, "")
	assert.ErrorIs(t, err, ErrInvalidQuantite)
}

func TestInventory_Service_DeleteProduits_ForeignIDFailsWholeBatch(t *testing.T) {
	s, produits, _ := newInventoryService()
	ctx := context.Background()

	mine := inventoryActor(rbac.RoleManager, "ent-1")
	other := inventoryActor(rbac.RoleManager, "ent-2")

	a, err := s.CreateProduit(ctx, mine, ProduitInput{Nom: "A", SKU: "A-1", Unite: "pièce"})
	require.NoError(t, err)
	b, err := s.CreateProduit(ctx, other, ProduitInput{Nom: "B", SKU: "B-1", Unite: "pièce"})
	require.NoError(t, err)

	err = s.DeleteProduits(ctx, mine, []string{a.ID, b.ID})
	assert.ErrorIs(t, err, ErrProduitNotFound)
	assert.Len(t, produits.produits, 2, "nothing deleted when the batch contains a foreign ID")
}

func TestInventory_Service_ExportCSV(t *testing.T) {
	s, _, _ := newInventoryService()
	ctx := context.Background()
	manager := inventoryActor(rbac.RoleManager, "ent-1")

	_, err := s.CreateProduit(ctx, manager, ProduitInput{
		Nom: "Tournevis", SKU: "TRN-1", PrixAchat: 250, PrixVente: 599,
		Quantite: 40, QuantiteMin: 5, Unite: "pièce", Emplacement: "A-03",
	})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, s.ExportCSV(ctx, manager, &sb))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "SKU,Nom")
	assert.Contains(t, lines[1], "TRN-1,Tournevis")
	assert.Contains(t, lines[1], "2.50")
	assert.Contains(t, lines[1], "5.99")
}

// TestPurpose: Validates that the CSV export covers the whole inventory,
// not just the first repository page.
// Scope: Unit Test
// Security: Export completeness (a silently truncated export misrepresents
// the stock position)
// Expected: every produit beyond the page size appears in the output.
// Test Case ID: INV-05
func TestInventory_Service_ExportCSV_SpansRepositoryPages(t *testing.T) {
	s, produits, _ := newInventoryService()
	ctx := context.Background()
	manager := inventoryActor(rbac.RoleManager, "ent-1")

	const count = maxListLimit + 50
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("p-%04d", i)
		produits.produits[id] = &Produit{
			ID:           id,
			EntrepriseID: "ent-1",
			Nom:          fmt.Sprintf("Produit %04d", i),
			SKU:          fmt.Sprintf("SKU-%04d", i),
			Unite:        "pièce",
			Statut:       ProduitActif,
		}
	}

	var sb strings.Builder
	require.NoError(t, s.ExportCSV(ctx, manager, &sb))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, count+1, "header plus one row per produit")
	assert.Contains(t, sb.String(), fmt.Sprintf("SKU-%04d", count-1), "last produit of the final page is present")
}

func TestInventory_Service_Categories(t *testing.T) {
	s, _, _ := newInventoryService()
	ctx := context.Background()
	manager := inventoryActor(rbac.RoleManager, "ent-1")
	other := inventoryActor(rbac.RoleManager, "ent-2")

	categorie, err := s.CreateCategorie(ctx, manager, CategorieInput{Nom: "Outillage", Couleur: "#ff6600"})
	require.NoError(t, err)
	assert.Equal(t, "ent-1", categorie.EntrepriseID)

	// Employe only holds categories:view.
	employe := inventoryActor(rbac.RoleEmploye, "ent-1")
	_, err = s.CreateCategorie(ctx, employe, CategorieInput{Nom: "Interdit"})
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	// Produits cannot reference a foreign categorie.
	_, err = s.CreateProduit(ctx, other, ProduitInput{Nom: "X", SKU: "X-1", CategorieID: &categorie.ID, Unite: "pièce"})
	assert.ErrorIs(t, err, ErrCategorieNotFound)

	list, err := s.ListCategories(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.UpdateCategorie(ctx, manager, categorie.ID, CategorieInput{Nom: "Outillage à main", Couleur: "#ff6600"})
	assert.NoError(t, err)

	assert.NoError(t, s.DeleteCategorie(ctx, manager, categorie.ID))
	assert.ErrorIs(t, s.DeleteCategorie(ctx, manager, categorie.ID), ErrCategorieNotFound)
}
