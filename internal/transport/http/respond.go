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
	"errors"
	"net/http"

	"github.com/invexia/invexia/internal/authz"
	"github.com/invexia/invexia/internal/chat"
	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/inventory"
	"github.com/invexia/invexia/internal/session"
	"github.com/invexia/invexia/internal/support"
	"github.com/invexia/invexia/internal/team"
	"github.com/invexia/invexia/internal/tenant"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps a service error onto an HTTP response. Handlers
// call this after every service invocation so the mapping stays in one
// place and no handler can accidentally leak a 500 for a permission denial.
func respondDomainError(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err.Error())
}

// statusForError translates domain errors into status codes. Unknown errors
// become 500 so internal details never shape the response.
func statusForError(err error) int {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated),
		errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, session.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, authz.ErrPermissionDenied),
		errors.Is(err, authz.ErrProfileNotProvisioned),
		errors.Is(err, authz.ErrTenantMismatch),
		errors.Is(err, identity.ErrAccountLocked),
		errors.Is(err, identity.ErrAccountNotActive):
		return http.StatusForbidden
	case errors.Is(err, identity.ErrUserNotFound),
		errors.Is(err, identity.ErrProfilNotFound),
		errors.Is(err, identity.ErrProfilNotProvisioned),
		errors.Is(err, tenant.ErrEntrepriseNotFound),
		errors.Is(err, inventory.ErrProduitNotFound),
		errors.Is(err, inventory.ErrCategorieNotFound),
		errors.Is(err, team.ErrMemberNotFound),
		errors.Is(err, support.ErrTicketNotFound),
		errors.Is(err, chat.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrUserAlreadyExists),
		errors.Is(err, tenant.ErrSlugTaken),
		errors.Is(err, inventory.ErrSKUTaken),
		errors.Is(err, support.ErrTicketClosed),
		errors.Is(err, chat.ErrConversationClosed):
		return http.StatusConflict
	case errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, tenant.ErrInvalidPlan),
		errors.Is(err, tenant.ErrInvalidStatus),
		errors.Is(err, identity.ErrWeakPassword),
		errors.Is(err, inventory.ErrInvalidQuantite),
		errors.Is(err, team.ErrUnknownRole),
		errors.Is(err, team.ErrSelfTarget),
		errors.Is(err, support.ErrInvalidStatut),
		errors.Is(err, support.ErrInvalidPriorite),
		errors.Is(err, support.ErrInvalidCategorie),
		errors.Is(err, support.ErrEmptyMessage),
		errors.Is(err, chat.ErrInvalidStatut),
		errors.Is(err, chat.ErrEmptyContenu),
		errors.Is(err, chat.ErrEmptyTitre):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func getIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
