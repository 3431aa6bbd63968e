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

package support

import (
	"context"
	"fmt"
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

// Service is the authoritative support API. Filing and reading tickets is
// open to every active member of an entreprise; working the inbox (statut,
// assignment, internal notes) belongs to the platform operator, gated on
// entreprise:manage.
type Service struct {
	repo        Repository
	authorizer  *authz.Authorizer
	auditLogger audit.Logger
}

// NewService creates a support service.
func NewService(repo Repository, authorizer *authz.Authorizer, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		authorizer:  authorizer,
		auditLogger: auditLogger,
	}
}

// TicketInput carries the fields of a new ticket.
type TicketInput struct {
	Email     string
	Nom       string
	Sujet     string
	Message   string
	Categorie Categorie
	Priorite  Priorite
}

// CreateTicket opens a ticket on behalf of the actor. The ticket is pinned
// to the actor's entreprise; the platform operator's own tickets carry none.
func (s *Service) CreateTicket(ctx context.Context, actor *authz.Actor, in TicketInput) (*Ticket, error) {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return nil, err
	}
	if in.Categorie == "" {
		in.Categorie = CategorieGeneral
	}
	if in.Priorite == "" {
		in.Priorite = PrioriteNormale
	}
	if !ValidCategorie(in.Categorie) {
		return nil, ErrInvalidCategorie
	}
	if !ValidPriorite(in.Priorite) {
		return nil, ErrInvalidPriorite
	}

	numero, err := s.repo.NextNumero(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate ticket numero: %w", err)
	}

	entrepriseID, _ := actor.Scope().EntrepriseID()
	now := time.Now()
	ticket := &Ticket{
		ID:           id.NewUUIDv7(),
		Numero:       numero,
		EntrepriseID: entrepriseID,
		UserID:       actor.UserID,
		Email:        in.Email,
		Nom:          in.Nom,
		Sujet:        in.Sujet,
		Message:      in.Message,
		Categorie:    in.Categorie,
		Priorite:     in.Priorite,
		Statut:       StatutOuvert,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeTicketCreated,
		EntrepriseID: entrepriseID,
		ActorID:      actor.UserID,
		Resource:     "ticket:" + ticket.ID,
		Metadata:     map[string]any{"numero": ticket.Numero},
	})
	return ticket, nil
}

// GetTicket fetches a ticket within the actor's scope. Foreign tickets
// read as absent, not forbidden.
func (s *Service) GetTicket(ctx context.Context, actor *authz.Actor, ticketID string) (*Ticket, error) {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return nil, err
	}
	ticket, err := s.repo.GetTicket(ctx, actor.Scope(), ticketID)
	if err != nil {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

// ListTickets lists the actor's visible tickets, newest first. For the
// platform operator this is the cross-tenant inbox.
func (s *Service) ListTickets(ctx context.Context, actor *authz.Actor, filters ListFilters) ([]*Ticket, error) {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return nil, err
	}
	if filters.Statut != "" && !ValidStatut(filters.Statut) {
		return nil, ErrInvalidStatut
	}
	if filters.Priorite != "" && !ValidPriorite(filters.Priorite) {
		return nil, ErrInvalidPriorite
	}
	if filters.Limit <= 0 {
		filters.Limit = defaultListLimit
	}
	if filters.Limit > maxListLimit {
		filters.Limit = maxListLimit
	}
	tickets, err := s.repo.ListTickets(ctx, actor.Scope(), filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// UpdateStatut moves a ticket through its lifecycle and optionally assigns
// it. Platform-operator operation.
func (s *Service) UpdateStatut(ctx context.Context, actor *authz.Actor, ticketID string, statut Statut, assigneA string) (*Ticket, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermEntrepriseManage); err != nil {
		return nil, err
	}
	if !ValidStatut(statut) {
		return nil, ErrInvalidStatut
	}

	ticket, err := s.repo.GetTicket(ctx, actor.Scope(), ticketID)
	if err != nil {
		return nil, ErrTicketNotFound
	}

	ticket.Statut = statut
	if assigneA != "" {
		ticket.AssigneA = assigneA
	}
	ticket.UpdatedAt = time.Now()
	if statut == StatutFerme {
		now := time.Now()
		ticket.FermeAt = &now
	} else {
		ticket.FermeAt = nil
	}

	if err := s.repo.UpdateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeTicketUpdated,
		EntrepriseID: ticket.EntrepriseID,
		ActorID:      actor.UserID,
		Resource:     "ticket:" + ticket.ID,
		Metadata:     map[string]any{"statut": string(statut)},
	})
	return ticket, nil
}

// UpdatePriorite reclassifies a ticket. Platform-operator operation.
func (s *Service) UpdatePriorite(ctx context.Context, actor *authz.Actor, ticketID string, priorite Priorite) (*Ticket, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermEntrepriseManage); err != nil {
		return nil, err
	}
	if !ValidPriorite(priorite) {
		return nil, ErrInvalidPriorite
	}

	ticket, err := s.repo.GetTicket(ctx, actor.Scope(), ticketID)
	if err != nil {
		return nil, ErrTicketNotFound
	}
	ticket.Priorite = priorite
	ticket.UpdatedAt = time.Now()
	if err := s.repo.UpdateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeTicketUpdated,
		EntrepriseID: ticket.EntrepriseID,
		ActorID:      actor.UserID,
		Resource:     "ticket:" + ticket.ID,
		Metadata:     map[string]any{"priorite": string(priorite)},
	})
	return ticket, nil
}

// AddReponse appends a message to a ticket. An open ticket moves to
// en_cours on its first reply. Internal notes require entreprise:manage.
func (s *Service) AddReponse(ctx context.Context, actor *authz.Actor, ticketID, message string, estInterne bool) (*Reponse, error) {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return nil, err
	}
	if estInterne {
		if err := s.authorizer.Authorize(ctx, actor, rbac.PermEntrepriseManage); err != nil {
			return nil, err
		}
	}
	if message == "" {
		return nil, ErrEmptyMessage
	}

	ticket, err := s.repo.GetTicket(ctx, actor.Scope(), ticketID)
	if err != nil {
		return nil, ErrTicketNotFound
	}
	if ticket.Statut == StatutFerme {
		return nil, ErrTicketClosed
	}

	reponse := &Reponse{
		ID:         id.NewULID(),
		TicketID:   ticket.ID,
		UserID:     actor.UserID,
		Message:    message,
		EstInterne: estInterne,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.AddReponse(ctx, reponse); err != nil {
		return nil, fmt.Errorf("failed to add reponse: %w", err)
	}

	if ticket.Statut == StatutOuvert {
		ticket.Statut = StatutEnCours
		ticket.UpdatedAt = time.Now()
		if err := s.repo.UpdateTicket(ctx, ticket); err != nil {
			return nil, fmt.Errorf("failed to advance ticket statut: %w", err)
		}
	}
	return reponse, nil
}

// ListReponses returns a ticket's thread. Internal notes are stripped for
// actors without entreprise:manage.
func (s *Service) ListReponses(ctx context.Context, actor *authz.Actor, ticketID string) ([]*Reponse, error) {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetTicket(ctx, actor.Scope(), ticketID); err != nil {
		return nil, ErrTicketNotFound
	}

	includeInternal := false
	if role, ok := actor.Role(); ok {
		includeInternal = rbac.HasPermission(role, rbac.PermEntrepriseManage)
	}
	reponses, err := s.repo.ListReponses(ctx, ticketID, includeInternal)
	if err != nil {
		return nil, fmt.Errorf("failed to list reponses: %w", err)
	}
	return reponses, nil
}

// Stats counts the actor's visible tickets per statut.
func (s *Service) Stats(ctx context.Context, actor *authz.Actor) (map[Statut]int, error) {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatut(ctx, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}
	return counts, nil
}
