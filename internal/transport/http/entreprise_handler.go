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
	"strconv"

	"github.com/invexia/invexia/internal/rbac"
	"github.com/invexia/invexia/internal/tenant"
)

// OnboardingRequest carries the new entreprise name.
type OnboardingRequest struct {
	Nom string `json:"nom" binding:"required" example:"ACME Outillage"`
}

// CompleteOnboarding creates the actor's entreprise and promotes them to
// its manager. The actor must be registered but not yet attached anywhere.
// @Summary Complete Onboarding
// @Description Create the entreprise for a freshly registered account
// @Tags Entreprise
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body OnboardingRequest true "Entreprise Data"
// @Success 201 {object} tenant.Entreprise
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /onboarding [post]
func (h *Handler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	var req OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entreprise, err := h.tenantService.CompleteOnboarding(r.Context(), actor.UserID, req.Nom)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, entreprise)
}

// GetEntreprise returns the actor's entreprise.
// @Summary Get Entreprise
// @Tags Entreprise
// @Produce json
// @Security CookieAuth
// @Success 200 {object} tenant.Entreprise
// @Failure 404 {object} map[string]string
// @Router /entreprise [get]
func (h *Handler) GetEntreprise(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	if err := h.authorizer.Authorize(r.Context(), actor, rbac.PermEntrepriseView); err != nil {
		respondDomainError(w, err)
		return
	}

	entrepriseID, ok := actor.Scope().EntrepriseID()
	if !ok {
		// Platform admin without a home tenant selects explicitly.
		entrepriseID = r.URL.Query().Get("id")
	}
	if entrepriseID == "" {
		respondError(w, http.StatusNotFound, "entreprise not found")
		return
	}

	entreprise, err := h.tenantService.GetEntreprise(r.Context(), actor.Scope(), entrepriseID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entreprise)
}

// ListEntreprises lists entreprises visible to the actor. Only the platform
// admin sees more than one.
// @Summary List Entreprises
// @Tags Entreprise
// @Produce json
// @Security CookieAuth
// @Success 200 {array} tenant.Entreprise
// @Router /entreprises [get]
func (h *Handler) ListEntreprises(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	if err := h.authorizer.Authorize(r.Context(), actor, rbac.PermEntrepriseView); err != nil {
		respondDomainError(w, err)
		return
	}

	limit, offset := paginationParams(r)
	entreprises, err := h.tenantService.ListEntreprises(r.Context(), actor.Scope(), limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entreprises)
}

// UpdateEntrepriseRequest carries the profile-editable entreprise fields.
type UpdateEntrepriseRequest struct {
	Nom     string `json:"nom"`
	LogoURL string `json:"logo_url"`
}

// UpdateEntreprise updates the entreprise profile.
// @Summary Update Entreprise
// @Tags Entreprise
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body UpdateEntrepriseRequest true "Entreprise Data"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /entreprise [put]
func (h *Handler) UpdateEntreprise(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	if err := h.authorizer.Authorize(r.Context(), actor, rbac.PermEntrepriseEdit); err != nil {
		respondDomainError(w, err)
		return
	}

	entrepriseID, ok := actor.Scope().EntrepriseID()
	if !ok {
		respondError(w, http.StatusNotFound, "entreprise not found")
		return
	}

	var req UpdateEntrepriseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.tenantService.UpdateEntreprise(r.Context(), actor.Scope(), actor.UserID, &tenant.Entreprise{
		ID:      entrepriseID,
		Nom:     req.Nom,
		LogoURL: req.LogoURL,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "entreprise updated successfully",
	})
}

// ChangePlanRequest selects a billing plan.
type ChangePlanRequest struct {
	EntrepriseID string `json:"entreprise_id"`
	Plan         string `json:"plan" binding:"required" example:"pro"`
}

// ChangePlan switches an entreprise's billing plan. Platform-admin only.
// @Summary Change Plan
// @Tags Entreprise
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body ChangePlanRequest true "Plan Data"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /entreprise/plan [put]
func (h *Handler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	h.platformEntrepriseUpdate(w, r, func(actorID, entrepriseID, value string) error {
		return h.tenantService.ChangePlan(r.Context(), actorID, entrepriseID, value)
	}, func(req *platformUpdateRequest) string { return req.Plan })
}

// SetEntrepriseStatus suspends or reactivates an entreprise. Platform-admin only.
// @Summary Set Entreprise Status
// @Tags Entreprise
// @Accept json
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /entreprise/statut [put]
func (h *Handler) SetEntrepriseStatus(w http.ResponseWriter, r *http.Request) {
	h.platformEntrepriseUpdate(w, r, func(actorID, entrepriseID, value string) error {
		return h.tenantService.SetStatus(r.Context(), actorID, entrepriseID, value)
	}, func(req *platformUpdateRequest) string { return req.Statut })
}

type platformUpdateRequest struct {
	EntrepriseID string `json:"entreprise_id"`
	Plan         string `json:"plan"`
	Statut       string `json:"statut"`
}

// platformEntrepriseUpdate is the shared gate for plan and statut changes:
// entreprise:manage, explicit target tenant, value validated by the service.
func (h *Handler) platformEntrepriseUpdate(w http.ResponseWriter, r *http.Request, apply func(actorID, entrepriseID, value string) error, pick func(*platformUpdateRequest) string) {
	actor := GetActor(r.Context())

	if err := h.authorizer.Authorize(r.Context(), actor, rbac.PermEntrepriseManage); err != nil {
		respondDomainError(w, err)
		return
	}

	var req platformUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entrepriseID := req.EntrepriseID
	if entrepriseID == "" {
		entrepriseID, _ = actor.Scope().EntrepriseID()
	}
	if entrepriseID == "" {
		respondError(w, http.StatusBadRequest, "entreprise_id is required")
		return
	}
	if !actor.Scope().Allows(entrepriseID) {
		respondError(w, http.StatusNotFound, "entreprise not found")
		return
	}

	if err := apply(actor.UserID, entrepriseID, pick(&req)); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "entreprise updated successfully",
	})
}

// paginationParams reads limit/offset query parameters. Services clamp the
// limit again; this only parses.
func paginationParams(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
