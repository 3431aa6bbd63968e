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

	"github.com/invexia/invexia/internal/audit/journal"
	"github.com/invexia/invexia/internal/rbac"
)

// ListJournal lists audit entries within the actor's scope.
// @Summary List Journal
// @Tags Journal
// @Produce json
// @Security CookieAuth
// @Param type query string false "Event type filter"
// @Param actor_id query string false "Actor filter"
// @Param since query string false "RFC3339 lower bound"
// @Param until query string false "RFC3339 upper bound"
// @Success 200 {array} journal.Entry
// @Failure 403 {object} map[string]string
// @Router /journal [get]
func (h *Handler) ListJournal(w http.ResponseWriter, r *http.Request) {
	q, err := journalQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.journalService.List(r.Context(), GetActor(r.Context()), q)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// ExportJournalCSV streams audit entries as CSV.
// @Summary Export Journal CSV
// @Tags Journal
// @Produce text/csv
// @Security CookieAuth
// @Success 200 {string} string "CSV data"
// @Failure 403 {object} map[string]string
// @Router /journal/export [get]
func (h *Handler) ExportJournalCSV(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	q, err := journalQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Authorization must fail before any header goes out.
	if err := h.authorizer.Authorize(r.Context(), actor, rbac.PermAuditExport); err != nil {
		respondDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"journal-"+time.Now().Format("2006-01-02")+".csv\"")

	if err := h.journalService.ExportCSV(r.Context(), actor, q, w); err != nil {
		return
	}
}

// PurgeJournalRequest names the retention cutoff.
type PurgeJournalRequest struct {
	Cutoff time.Time `json:"cutoff" binding:"required" example:"2026-01-01T00:00:00Z"`
}

// PurgeJournal deletes entries older than the cutoff. Admin only, and the
// purge itself lands in the journal.
// @Summary Purge Journal
// @Tags Journal
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body PurgeJournalRequest true "Cutoff"
// @Success 200 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /journal/purge [post]
func (h *Handler) PurgeJournal(w http.ResponseWriter, r *http.Request) {
	var req PurgeJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Cutoff.IsZero() {
		respondError(w, http.StatusBadRequest, "cutoff is required")
		return
	}

	deleted, err := h.journalService.Purge(r.Context(), GetActor(r.Context()), req.Cutoff)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"deleted": deleted,
	})
}

// journalQuery parses list filters from query parameters.
func journalQuery(r *http.Request) (journal.Query, error) {
	q := journal.Query{
		Type:    r.URL.Query().Get("type"),
		ActorID: r.URL.Query().Get("actor_id"),
	}
	q.Limit, q.Offset = paginationParams(r)

	if since := r.URL.Query().Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return q, err
		}
		q.Since = t
	}
	if until := r.URL.Query().Get("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return q, err
		}
		q.Until = t
	}
	return q, nil
}
