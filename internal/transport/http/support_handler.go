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
	"github.com/invexia/invexia/internal/support"
)

// CreateTicketRequest carries a new support ticket.
type CreateTicketRequest struct {
	Email     string `json:"email" example:"marie@acme.fr"`
	Nom       string `json:"nom" example:"Marie Dubois"`
	Sujet     string `json:"sujet" binding:"required" example:"Import CSV bloqué"`
	Message   string `json:"message" binding:"required"`
	Categorie string `json:"categorie" example:"technique"`
	Priorite  string `json:"priorite" example:"normale"`
}

// CreateTicket files a support ticket for the actor.
// @Summary Create Ticket
// @Tags Support
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body CreateTicketRequest true "Ticket Data"
// @Success 201 {object} support.Ticket
// @Failure 400 {object} map[string]string
// @Router /support/tickets [post]
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := h.supportService.CreateTicket(r.Context(), GetActor(r.Context()), support.TicketInput{
		Email:     req.Email,
		Nom:       req.Nom,
		Sujet:     req.Sujet,
		Message:   req.Message,
		Categorie: support.Categorie(req.Categorie),
		Priorite:  support.Priorite(req.Priorite),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, ticket)
}

// GetTicket returns a ticket visible to the actor.
// @Summary Get Ticket
// @Tags Support
// @Produce json
// @Security CookieAuth
// @Param ticketID path string true "Ticket ID"
// @Success 200 {object} support.Ticket
// @Failure 404 {object} map[string]string
// @Router /support/tickets/{ticketID} [get]
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.supportService.GetTicket(r.Context(), GetActor(r.Context()), chi.URLParam(r, "ticketID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

// ListTickets lists tickets, optionally filtered by statut and priorite.
// @Summary List Tickets
// @Tags Support
// @Produce json
// @Security CookieAuth
// @Param statut query string false "Statut filter"
// @Param priorite query string false "Priorite filter"
// @Success 200 {array} support.Ticket
// @Router /support/tickets [get]
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	tickets, err := h.supportService.ListTickets(r.Context(), GetActor(r.Context()), support.ListFilters{
		Statut:   support.Statut(r.URL.Query().Get("statut")),
		Priorite: support.Priorite(r.URL.Query().Get("priorite")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tickets)
}

// UpdateTicketStatutRequest carries the new statut and optional assignee.
type UpdateTicketStatutRequest struct {
	Statut   string `json:"statut" binding:"required" example:"en_cours"`
	AssigneA string `json:"assigne_a"`
}

// UpdateTicketStatut moves a ticket through its lifecycle. Support staff only.
// @Summary Update Ticket Statut
// @Tags Support
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param ticketID path string true "Ticket ID"
// @Param request body UpdateTicketStatutRequest true "Statut Data"
// @Success 200 {object} support.Ticket
// @Failure 403 {object} map[string]string
// @Router /support/tickets/{ticketID}/statut [put]
func (h *Handler) UpdateTicketStatut(w http.ResponseWriter, r *http.Request) {
	var req UpdateTicketStatutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := h.supportService.UpdateStatut(r.Context(), GetActor(r.Context()), chi.URLParam(r, "ticketID"), support.Statut(req.Statut), req.AssigneA)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

// UpdateTicketPrioriteRequest carries the new priorite.
type UpdateTicketPrioriteRequest struct {
	Priorite string `json:"priorite" binding:"required" example:"haute"`
}

// UpdateTicketPriorite reprioritises a ticket. Support staff only.
// @Summary Update Ticket Priorite
// @Tags Support
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param ticketID path string true "Ticket ID"
// @Param request body UpdateTicketPrioriteRequest true "Priorite Data"
// @Success 200 {object} support.Ticket
// @Failure 403 {object} map[string]string
// @Router /support/tickets/{ticketID}/priorite [put]
func (h *Handler) UpdateTicketPriorite(w http.ResponseWriter, r *http.Request) {
	var req UpdateTicketPrioriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := h.supportService.UpdatePriorite(r.Context(), GetActor(r.Context()), chi.URLParam(r, "ticketID"), support.Priorite(req.Priorite))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

// AddReponseRequest carries a ticket reply.
type AddReponseRequest struct {
	Message    string `json:"message" binding:"required"`
	EstInterne bool   `json:"est_interne"`
}

// AddReponse appends a reply to a ticket thread.
// @Summary Add Reponse
// @Tags Support
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param ticketID path string true "Ticket ID"
// @Param request body AddReponseRequest true "Reponse Data"
// @Success 201 {object} support.Reponse
// @Failure 409 {object} map[string]string
// @Router /support/tickets/{ticketID}/reponses [post]
func (h *Handler) AddReponse(w http.ResponseWriter, r *http.Request) {
	var req AddReponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reponse, err := h.supportService.AddReponse(r.Context(), GetActor(r.Context()), chi.URLParam(r, "ticketID"), req.Message, req.EstInterne)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, reponse)
}

// ListReponses lists a ticket's replies. Internal notes stay hidden from
// non-staff readers.
// @Summary List Reponses
// @Tags Support
// @Produce json
// @Security CookieAuth
// @Param ticketID path string true "Ticket ID"
// @Success 200 {array} support.Reponse
// @Router /support/tickets/{ticketID}/reponses [get]
func (h *Handler) ListReponses(w http.ResponseWriter, r *http.Request) {
	reponses, err := h.supportService.ListReponses(r.Context(), GetActor(r.Context()), chi.URLParam(r, "ticketID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reponses)
}

// TicketStats returns ticket counts per statut.
// @Summary Ticket Stats
// @Tags Support
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]int
// @Router /support/tickets/stats [get]
func (h *Handler) TicketStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.supportService.Stats(r.Context(), GetActor(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
