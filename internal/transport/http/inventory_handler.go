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

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/invexia/invexia/internal/inventory"
	"github.com/invexia/invexia/internal/rbac"
)

// ProduitRequest carries produit fields for create and update. Prices are
// integer cents.
type ProduitRequest struct {
	Nom         string  `json:"nom" binding:"required" example:"Perceuse 18V"`
	Description string  `json:"description"`
	SKU         string  `json:"sku" binding:"required" example:"PRC-18V-001"`
	CodeBarre   string  `json:"code_barre"`
	CategorieID *string `json:"categorie_id"`
	PrixAchat   int64   `json:"prix_achat"`
	PrixVente   int64   `json:"prix_vente"`
	Quantite    int     `json:"quantite"`
	QuantiteMin int     `json:"quantite_min"`
	Unite       string  `json:"unite" example:"piece"`
	Emplacement string  `json:"emplacement"`
	ImageURL    string  `json:"image_url"`
}

func (req *ProduitRequest) toInput() inventory.ProduitInput {
	return inventory.ProduitInput{
		Nom:         req.Nom,
		Description: req.Description,
		SKU:         req.SKU,
		CodeBarre:   req.CodeBarre,
		CategorieID: req.CategorieID,
		PrixAchat:   req.PrixAchat,
		PrixVente:   req.PrixVente,
		Quantite:    req.Quantite,
		QuantiteMin: req.QuantiteMin,
		Unite:       req.Unite,
		Emplacement: req.Emplacement,
		ImageURL:    req.ImageURL,
	}
}

// CreateProduit adds a produit to the actor's entreprise.
// @Summary Create Produit
// @Tags Inventory
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body ProduitRequest true "Produit Data"
// @Success 201 {object} inventory.Produit
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /produits [post]
func (h *Handler) CreateProduit(w http.ResponseWriter, r *http.Request) {
	var req ProduitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	produit, err := h.inventoryService.CreateProduit(r.Context(), GetActor(r.Context()), req.toInput())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, produit)
}

// GetProduit returns a single produit.
// @Summary Get Produit
// @Tags Inventory
// @Produce json
// @Security CookieAuth
// @Param produitID path string true "Produit ID"
// @Success 200 {object} inventory.Produit
// @Failure 404 {object} map[string]string
// @Router /produits/{produitID} [get]
func (h *Handler) GetProduit(w http.ResponseWriter, r *http.Request) {
	produit, err := h.inventoryService.GetProduit(r.Context(), GetActor(r.Context()), chi.URLParam(r, "produitID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, produit)
}

// ListProduits lists produits within the actor's scope.
// @Summary List Produits
// @Tags Inventory
// @Produce json
// @Security CookieAuth
// @Success 200 {array} inventory.Produit
// @Router /produits [get]
func (h *Handler) ListProduits(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	produits, err := h.inventoryService.ListProduits(r.Context(), GetActor(r.Context()), limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, produits)
}

// ListLowStock lists produits at or under their minimum quantity.
// @Summary List Low Stock
// @Tags Inventory
// @Produce json
// @Security CookieAuth
// @Success 200 {array} inventory.Produit
// @Router /produits/low-stock [get]
func (h *Handler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	produits, err := h.inventoryService.ListLowStock(r.Context(), GetActor(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, produits)
}

// UpdateProduit updates a produit.
// @Summary Update Produit
// @Tags Inventory
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param produitID path string true "Produit ID"
// @Param request body ProduitRequest true "Produit Data"
// @Success 200 {object} inventory.Produit
// @Failure 404 {object} map[string]string
// @Router /produits/{produitID} [put]
func (h *Handler) UpdateProduit(w http.ResponseWriter, r *http.Request) {
	var req ProduitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	produit, err := h.inventoryService.UpdateProduit(r.Context(), GetActor(r.Context()), chi.URLParam(r, "produitID"), req.toInput())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, produit)
}

// AdjustStockRequest sets a new absolute quantity with a reason.
type AdjustStockRequest struct {
	Quantite int    `json:"quantite"`
	Raison   string `json:"raison" example:"inventaire annuel"`
}

// AdjustStock records a stock movement.
// @Summary Adjust Stock
// @Tags Inventory
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param produitID path string true "Produit ID"
// @Param request body AdjustStockRequest true "Adjustment"
// @Success 200 {object} inventory.Produit
// @Failure 400 {object} map[string]string
// @Router /produits/{produitID}/stock [post]
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	produit, err := h.inventoryService.AdjustStock(r.Context(), GetActor(r.Context()), chi.URLParam(r, "produitID"), req.Quantite, req.Raison)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, produit)
}

// DeleteProduit removes a produit.
// @Summary Delete Produit
// @Tags Inventory
// @Produce json
// @Security CookieAuth
// @Param produitID path string true "Produit ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /produits/{produitID} [delete]
func (h *Handler) DeleteProduit(w http.ResponseWriter, r *http.Request) {
	if err := h.inventoryService.DeleteProduit(r.Context(), GetActor(r.Context()), chi.URLParam(r, "produitID")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "produit deleted"})
}

// DeleteProduitsRequest lists produit IDs for bulk deletion.
type DeleteProduitsRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// DeleteProduits removes several produits at once.
// @Summary Bulk Delete Produits
// @Tags Inventory
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body DeleteProduitsRequest true "Produit IDs"
// @Success 200 {object} map[string]string
// @Router /produits [delete]
func (h *Handler) DeleteProduits(w http.ResponseWriter, r *http.Request) {
	var req DeleteProduitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "ids must not be empty")
		return
	}

	if err := h.inventoryService.DeleteProduits(r.Context(), GetActor(r.Context()), req.IDs); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "produits deleted"})
}

// ExportProduitsCSV streams the inventory as CSV.
// @Summary Export Produits CSV
// @Tags Inventory
// @Produce text/csv
// @Security CookieAuth
// @Success 200 {string} string "CSV data"
// @Failure 403 {object} map[string]string
// @Router /produits/export [get]
func (h *Handler) ExportProduitsCSV(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	// Authorization must fail before any header goes out.
	if err := h.authorizer.Authorize(r.Context(), actor, rbac.PermInventoryExport); err != nil {
		respondDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"inventaire-"+time.Now().Format("2006-01-02")+".csv\"")

	if err := h.inventoryService.ExportCSV(r.Context(), actor, w); err != nil {
		// Headers are already out; nothing more to do than drop the conn.
		return
	}
}

// CategorieRequest carries categorie fields.
type CategorieRequest struct {
	Nom         string `json:"nom" binding:"required" example:"Outillage"`
	Description string `json:"description"`
	Couleur     string `json:"couleur" example:"#FF5733"`
	Icone       string `json:"icone" example:"wrench"`
}

func (req *CategorieRequest) toInput() inventory.CategorieInput {
	return inventory.CategorieInput{
		Nom:         req.Nom,
		Description: req.Description,
		Couleur:     req.Couleur,
		Icone:       req.Icone,
	}
}

// CreateCategorie adds a categorie.
// @Summary Create Categorie
// @Tags Inventory
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body CategorieRequest true "Categorie Data"
// @Success 201 {object} inventory.Categorie
// @Router /categories [post]
func (h *Handler) CreateCategorie(w http.ResponseWriter, r *http.Request) {
	var req CategorieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	categorie, err := h.inventoryService.CreateCategorie(r.Context(), GetActor(r.Context()), req.toInput())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, categorie)
}

// ListCategories lists the entreprise's categories.
// @Summary List Categories
// @Tags Inventory
// @Produce json
// @Security CookieAuth
// @Success 200 {array} inventory.Categorie
// @Router /categories [get]
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.inventoryService.ListCategories(r.Context(), GetActor(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// UpdateCategorie updates a categorie.
// @Summary Update Categorie
// @Tags Inventory
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param categorieID path string true "Categorie ID"
// @Param request body CategorieRequest true "Categorie Data"
// @Success 200 {object} inventory.Categorie
// @Router /categories/{categorieID} [put]
func (h *Handler) UpdateCategorie(w http.ResponseWriter, r *http.Request) {
	var req CategorieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	categorie, err := h.inventoryService.UpdateCategorie(r.Context(), GetActor(r.Context()), chi.URLParam(r, "categorieID"), req.toInput())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categorie)
}

// DeleteCategorie removes a categorie; produits keep running uncategorised.
// @Summary Delete Categorie
// @Tags Inventory
// @Produce json
// @Security CookieAuth
// @Param categorieID path string true "Categorie ID"
// @Success 200 {object} map[string]string
// @Router /categories/{categorieID} [delete]
func (h *Handler) DeleteCategorie(w http.ResponseWriter, r *http.Request) {
	if err := h.inventoryService.DeleteCategorie(r.Context(), GetActor(r.Context()), chi.URLParam(r, "categorieID")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "categorie deleted"})
}
