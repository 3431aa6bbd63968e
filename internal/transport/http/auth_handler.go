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
	"log/slog"
	"net/http"

	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/observability/logger"
)

// RegisterRequest represents registration data
type RegisterRequest struct {
	Email    string `json:"email" binding:"required" example:"marie@acme.fr"`
	Password string `json:"password" binding:"required" example:"secret123"`
	Prenom   string `json:"prenom" example:"Marie"`
	Nom      string `json:"nom" example:"Dubois"`
}

// Register handles user registration
// @Summary Register a new user
// @Description Create an account; the entreprise is attached later during onboarding
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration Data"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, profil, err := h.identityService.Register(r.Context(), identity.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Prenom:   req.Prenom,
		Nom:      req.Nom,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to register user",
			logger.Error(err),
			logger.Email(req.Email),
		)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"profil":  profilJSON(profil),
	})
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"marie@acme.fr"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// Login handles user login
// @Summary Login
// @Description Authenticate user and create a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// Lockout surfaces as 403; anything else collapses into a
		// generic 401 so account existence stays unprobeable.
		if statusForError(err) == http.StatusForbidden {
			respondError(w, http.StatusForbidden, "account temporarily locked")
			return
		}
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess, err := h.sessionService.Create(r.Context(), user.ID, getIPAddress(r), r.UserAgent())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.setSessionCookie(w, sess.ID)

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

// Logout handles user logout
// @Summary Logout
// @Description Destroy the current session
// @Tags Auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.getSessionFromCookie(r)
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if _, err := h.sessionService.Get(r.Context(), sessionID); err == nil {
		h.sessionService.Destroy(r.Context(), sessionID)
	}

	h.clearSessionCookie(w)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// IssueToken mints a short-lived bearer token bound to the current session.
// @Summary Issue API Token
// @Description Issue a JWT for API clients; it stays valid only while the session lives
// @Tags Auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/token [post]
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())
	sessionID := GetSessionID(r.Context())
	if actor == nil || sessionID == "" {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	tokenString, err := h.tokenManager.Issue(actor.UserID, sessionID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue token", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"token":      tokenString,
		"token_type": "Bearer",
	})
}

// GetCurrentUser returns the current authenticated user identity
// @Summary Get Current User
// @Description Retrieve details of the currently logged-in user
// @Tags User
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /auth/me [get]
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	user, err := h.identityService.GetUser(r.Context(), actor.UserID)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"profil":  profilJSON(actor.Profil),
	})
}

// GetProfile returns the user profile
// @Summary Get User Profile
// @Description Retrieve the profile of the current user
// @Tags User
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /user/profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	profil, err := h.identityService.GetProfil(r.Context(), actor.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profilJSON(profil))
}

// UpdateProfileRequest carries the self-editable profil fields.
type UpdateProfileRequest struct {
	Prenom    string `json:"prenom"`
	Nom       string `json:"nom"`
	AvatarURL string `json:"avatar_url"`
	Telephone string `json:"telephone"`
	Poste     string `json:"poste"`
}

// UpdateProfile updates the user profile
// @Summary Update Profile
// @Description Update the profile information
// @Tags User
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body UpdateProfileRequest true "New Profile"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /user/profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profil, err := h.identityService.UpdateProfil(r.Context(), actor.UserID, identity.ProfilUpdate{
		Prenom:    req.Prenom,
		Nom:       req.Nom,
		AvatarURL: req.AvatarURL,
		Telephone: req.Telephone,
		Poste:     req.Poste,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profilJSON(profil))
}

// ChangePasswordRequest represents password change data
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword changes the user password
// @Summary Change Password
// @Description Update the password for the current user
// @Tags User
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body ChangePasswordRequest true "Password Change Data"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /user/change-password [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.identityService.ChangePassword(r.Context(), actor.UserID, req.OldPassword, req.NewPassword); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "password changed successfully",
	})
}

// profilJSON shapes a profil for responses. Nil stands for an account that
// has not completed onboarding yet.
func profilJSON(p *identity.Profil) map[string]any {
	if p == nil {
		return nil
	}
	out := map[string]any{
		"id":          p.ID,
		"prenom":      p.Prenom,
		"nom":         p.Nom,
		"nom_complet": p.NomComplet(),
		"role":        string(p.Role),
		"statut":      string(p.Statut),
		"avatar_url":  p.AvatarURL,
		"telephone":   p.Telephone,
		"poste":       p.Poste,
		"created_at":  p.CreatedAt,
	}
	if p.EntrepriseID != nil {
		out["entreprise_id"] = *p.EntrepriseID
	}
	if p.DerniereConnexion != nil {
		out["derniere_connexion"] = *p.DerniereConnexion
	}
	return out
}
