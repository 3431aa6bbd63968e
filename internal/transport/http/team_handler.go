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

	"github.com/go-chi/chi/v5"
	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/rbac"
	"github.com/invexia/invexia/internal/team"
)

// ListMembers lists the entreprise's members.
// @Summary List Members
// @Tags Team
// @Produce json
// @Security CookieAuth
// @Success 200 {array} map[string]any
// @Router /team [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	members, err := h.teamService.ListMembers(r.Context(), GetActor(r.Context()), limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profilsJSON(members))
}

// GetMember returns a single member.
// @Summary Get Member
// @Tags Team
// @Produce json
// @Security CookieAuth
// @Param memberID path string true "Member ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /team/{memberID} [get]
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	member, err := h.teamService.GetMember(r.Context(), GetActor(r.Context()), chi.URLParam(r, "memberID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profilJSON(member))
}

// InviteMemberRequest carries the invitee's account data.
type InviteMemberRequest struct {
	Email    string `json:"email" binding:"required" example:"paul@acme.fr"`
	Password string `json:"password" binding:"required"`
	Prenom   string `json:"prenom" example:"Paul"`
	Nom      string `json:"nom" example:"Martin"`
	Role     string `json:"role" example:"employe"`
	Poste    string `json:"poste" example:"Magasinier"`
}

// InviteMember creates an account inside the actor's entreprise. The
// invitee's role must sit strictly below the actor's.
// @Summary Invite Member
// @Tags Team
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body InviteMemberRequest true "Invitation Data"
// @Success 201 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /team/invitations [post]
func (h *Handler) InviteMember(w http.ResponseWriter, r *http.Request) {
	var req InviteMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	member, err := h.teamService.InviteMember(r.Context(), GetActor(r.Context()), team.InviteInput{
		Email:    req.Email,
		Password: req.Password,
		Prenom:   req.Prenom,
		Nom:      req.Nom,
		Role:     rbac.Role(req.Role),
		Poste:    req.Poste,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, profilJSON(member))
}

// UpdateMemberRoleRequest names the new role.
type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required" example:"manager"`
}

// UpdateMemberRole changes a member's role.
// @Summary Update Member Role
// @Tags Team
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param memberID path string true "Member ID"
// @Param request body UpdateMemberRoleRequest true "Role Data"
// @Success 200 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /team/{memberID}/role [put]
func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateMemberRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	member, err := h.teamService.UpdateMemberRole(r.Context(), GetActor(r.Context()), chi.URLParam(r, "memberID"), rbac.Role(req.Role))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profilJSON(member))
}

// SuspendMember suspends a member's account.
// @Summary Suspend Member
// @Tags Team
// @Produce json
// @Security CookieAuth
// @Param memberID path string true "Member ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /team/{memberID}/suspend [post]
func (h *Handler) SuspendMember(w http.ResponseWriter, r *http.Request) {
	if err := h.teamService.SuspendMember(r.Context(), GetActor(r.Context()), chi.URLParam(r, "memberID")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "member suspended"})
}

// ReactivateMember reactivates a suspended member.
// @Summary Reactivate Member
// @Tags Team
// @Produce json
// @Security CookieAuth
// @Param memberID path string true "Member ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /team/{memberID}/reactivate [post]
func (h *Handler) ReactivateMember(w http.ResponseWriter, r *http.Request) {
	if err := h.teamService.ReactivateMember(r.Context(), GetActor(r.Context()), chi.URLParam(r, "memberID")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "member reactivated"})
}

// RoleBreakdown returns the member count per role.
// @Summary Role Breakdown
// @Tags Team
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]int
// @Router /team/roles [get]
func (h *Handler) RoleBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.teamService.RoleBreakdown(r.Context(), GetActor(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, breakdown)
}

func profilsJSON(profils []*identity.Profil) []map[string]any {
	out := make([]map[string]any, 0, len(profils))
	for _, p := range profils {
		out = append(out, profilJSON(p))
	}
	return out
}
