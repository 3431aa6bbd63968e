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

// Package support manages help tickets. Tenants see their own tickets; the
// platform admin works a cross-tenant inbox.
package support

import (
	"context"
	"errors"
	"time"

	"github.com/invexia/invexia/internal/tenant"
)

// Domain errors
var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrTicketClosed     = errors.New("ticket is closed")
	ErrEmptyMessage     = errors.New("message must not be empty")
	ErrInvalidStatut    = errors.New("invalid ticket statut")
	ErrInvalidPriorite  = errors.New("invalid ticket priorite")
	ErrInvalidCategorie = errors.New("invalid ticket categorie")
)

// Ticket lifecycle states.
type Statut string

const (
	StatutOuvert    Statut = "ouvert"
	StatutEnCours   Statut = "en_cours"
	StatutEnAttente Statut = "en_attente"
	StatutResolu    Statut = "resolu"
	StatutFerme     Statut = "ferme"
)

// Priorite levels.
type Priorite string

const (
	PrioriteBasse   Priorite = "basse"
	PrioriteNormale Priorite = "normale"
	PrioriteHaute   Priorite = "haute"
	PrioriteUrgente Priorite = "urgente"
)

// Categorie classifies the request.
type Categorie string

const (
	CategorieGeneral        Categorie = "general"
	CategorieTechnique      Categorie = "technique"
	CategorieFacturation    Categorie = "facturation"
	CategorieFonctionnalite Categorie = "fonctionnalite"
	CategorieBug            Categorie = "bug"
	CategorieAutre          Categorie = "autre"
)

// Ticket is one support request.
type Ticket struct {
	ID           string     `json:"id"`
	Numero       string     `json:"numero"`
	EntrepriseID string     `json:"entreprise_id,omitempty"`
	UserID       string     `json:"user_id,omitempty"`
	Email        string     `json:"email"`
	Nom          string     `json:"nom"`
	Sujet        string     `json:"sujet"`
	Message      string     `json:"message"`
	Categorie    Categorie  `json:"categorie"`
	Priorite     Priorite   `json:"priorite"`
	Statut       Statut     `json:"statut"`
	AssigneA     string     `json:"assigne_a,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	FermeAt      *time.Time `json:"ferme_at,omitempty"`
}

// Reponse is one message on a ticket. Internal notes are visible to the
// support side only.
type Reponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	UserID     string    `json:"user_id,omitempty"`
	Message    string    `json:"message"`
	EstInterne bool      `json:"est_interne"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListFilters narrows a ticket listing beyond the tenant filter.
type ListFilters struct {
	Statut   Statut
	Priorite Priorite
	Limit    int
	Offset   int
}

// Repository defines persistence for tickets and their reponses.
type Repository interface {
	CreateTicket(ctx context.Context, ticket *Ticket) error
	GetTicket(ctx context.Context, filter tenant.Filter, id string) (*Ticket, error)
	ListTickets(ctx context.Context, filter tenant.Filter, filters ListFilters) ([]*Ticket, error)
	UpdateTicket(ctx context.Context, ticket *Ticket) error
	NextNumero(ctx context.Context) (string, error)

	AddReponse(ctx context.Context, reponse *Reponse) error
	ListReponses(ctx context.Context, ticketID string, includeInternal bool) ([]*Reponse, error)

	CountByStatut(ctx context.Context, filter tenant.Filter) (map[Statut]int, error)
}

// ValidStatut reports whether s belongs to the closed statut set.
func ValidStatut(s Statut) bool {
	switch s {
	case StatutOuvert, StatutEnCours, StatutEnAttente, StatutResolu, StatutFerme:
		return true
	}
	return false
}

// ValidPriorite reports whether p belongs to the closed priorite set.
func ValidPriorite(p Priorite) bool {
	switch p {
	case PrioriteBasse, PrioriteNormale, PrioriteHaute, PrioriteUrgente:
		return true
	}
	return false
}

// ValidCategorie reports whether c belongs to the closed categorie set.
func ValidCategorie(c Categorie) bool {
	switch c {
	case CategorieGeneral, CategorieTechnique, CategorieFacturation,
		CategorieFonctionnalite, CategorieBug, CategorieAutre:
		return true
	}
	return false
}
