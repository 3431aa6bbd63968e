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
	"sort"
	"testing"

	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/authz"
	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/rbac"
	"github.com/invexia/invexia/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTickets struct {
	tickets  map[string]*Ticket
	reponses []*Reponse
	seq      int
}

func newMemoryTickets() *memoryTickets {
	return &memoryTickets{tickets: make(map[string]*Ticket)}
}

func (m *memoryTickets) CreateTicket(ctx context.Context, t *Ticket) error {
	m.tickets[t.ID] = t
	return nil
}

func (m *memoryTickets) GetTicket(ctx context.Context, filter tenant.Filter, id string) (*Ticket, error) {
	t, ok := m.tickets[id]
	if !ok || !ticketVisible(filter, t.EntrepriseID) {
		return nil, ErrTicketNotFound
	}
	return t, nil
}

func (m *memoryTickets) ListTickets(ctx context.Context, filter tenant.Filter, filters ListFilters) ([]*Ticket, error) {
	var out []*Ticket
	for _, t := range m.tickets {
		if !ticketVisible(filter, t.EntrepriseID) {
			continue
		}
		if filters.Statut != "" && t.Statut != filters.Statut {
			continue
		}
		if filters.Priorite != "" && t.Priorite != filters.Priorite {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (m *memoryTickets) UpdateTicket(ctx context.Context, t *Ticket) error {
	m.tickets[t.ID] = t
	return nil
}

func (m *memoryTickets) NextNumero(ctx context.Context) (string, error) {
	m.seq++
	return fmt.Sprintf("TKT-%05d", m.seq), nil
}

func (m *memoryTickets) AddReponse(ctx context.Context, r *Reponse) error {
	m.reponses = append(m.reponses, r)
	return nil
}

func (m *memoryTickets) ListReponses(ctx context.Context, ticketID string, includeInternal bool) ([]*Reponse, error) {
	var out []*Reponse
	for _, r := range m.reponses {
		if r.TicketID != ticketID {
			continue
		}
		if r.EstInterne && !includeInternal {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryTickets) CountByStatut(ctx context.Context, filter tenant.Filter) (map[Statut]int, error) {
	counts := make(map[Statut]int)
	for _, t := range m.tickets {
		if ticketVisible(filter, t.EntrepriseID) {
			counts[t.Statut]++
		}
	}
	return counts, nil
}

func ticketVisible(filter tenant.Filter, entrepriseID string) bool {
	return filter.IsUnrestricted() || filter.Allows(entrepriseID)
}

func supportActor(userID string, role rbac.Role, entrepriseID string) *authz.Actor {
	p := &identity.Profil{ID: userID, Role: role, Statut: identity.StatutActif}
	if entrepriseID != "" {
		p.EntrepriseID = &entrepriseID
	}
	return &authz.Actor{UserID: userID, Profil: p}
}

func newSupportService() (*Service, *memoryTickets) {
	repo := newMemoryTickets()
	s := NewService(repo, authz.NewAuthorizer(audit.NewSlogLogger()), audit.NewSlogLogger())
	return s, repo
}

// TestPurpose: Validates ticket creation: any active member may file, the
// ticket is pinned to the actor's entreprise, defaults applied, and an
// unauthenticated caller is refused.
// Scope: Unit Test
// Security: Tenant confinement on writes
// Expected: employe ticket lands in own tenant with general/normale defaults.
// Test Case ID: SUP-01
func TestSupport_Service_CreateTicket(t *testing.T) {
	s, _ := newSupportService()
	ctx := context.Background()
	employe := supportActor("u-emp", rbac.RoleEmploye, "ent-1")

	ticket, err := s.CreateTicket(ctx, employe, TicketInput{
		Email: "emp@acme.fr", Nom: "Paul Martin",
		Sujet: "Import bloqué", Message: "L'import CSV échoue.",
	})
	require.NoError(t, err)
	assert.Equal(t, "ent-1", ticket.EntrepriseID)
	assert.Equal(t, "u-emp", ticket.UserID)
	assert.Equal(t, CategorieGeneral, ticket.Categorie)
	assert.Equal(t, PrioriteNormale, ticket.Priorite)
	assert.Equal(t, StatutOuvert, ticket.Statut)
	assert.Equal(t, "TKT-00001", ticket.Numero)

	_, err = s.CreateTicket(ctx, employe, TicketInput{Categorie: "spam"})
	assert.ErrorIs(t, err, ErrInvalidCategorie)

	_, err = s.CreateTicket(ctx, nil, TicketInput{Sujet: "anon"})
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
}

// TestPurpose: Validates ticket visibility: tenant members only see their
// tenant's tickets, the platform admin sees the cross-tenant inbox, and a
// foreign ticket reads as absent rather than forbidden.
// Scope: Unit Test
// Security: Tenant isolation on reads
// Expected: ent-1 manager sees 1 ticket; admin sees all; foreign get fails
// with not-found.
// Test Case ID: SUP-02
func TestSupport_Service_TenantIsolation(t *testing.T) {
	s, _ := newSupportService()
	ctx := context.Background()

	emp1 := supportActor("u-1", rbac.RoleEmploye, "ent-1")
	emp2 := supportActor("u-2", rbac.RoleEmploye, "ent-2")
	manager1 := supportActor("u-3", rbac.RoleManager, "ent-1")
	admin := supportActor("u-root", rbac.RoleAdmin, "")

	t1, err := s.CreateTicket(ctx, emp1, TicketInput{Sujet: "A", Message: "a"})
	require.NoError(t, err)
	_, err = s.CreateTicket(ctx, emp2, TicketInput{Sujet: "B", Message: "b"})
	require.NoError(t, err)

	own, err := s.ListTickets(ctx, manager1, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, own, 1)
	assert.Equal(t, t1.ID, own[0].ID)

	all, err := s.ListTickets(ctx, admin, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.GetTicket(ctx, emp2, t1.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

// TestPurpose: Validates inbox management: statut and priorite changes and
// assignment require the platform operator; tenant managers are refused.
// Scope: Unit Test
// Security: Privileged support operations restricted to admin
// Expected: manager denied; admin closes the ticket and ferme_at is set.
// Test Case ID: SUP-03
func TestSupport_Service_UpdateStatut(t *testing.T) {
	s, _ := newSupportService()
	ctx := context.Background()

	emp := supportActor("u-1", rbac.RoleEmploye, "ent-1")
	manager := supportActor("u-2", rbac.RoleManager, "ent-1")
	admin := supportActor("u-root", rbac.RoleAdmin, "")

	ticket, err := s.CreateTicket(ctx, emp, TicketInput{Sujet: "A", Message: "a"})
	require.NoError(t, err)

	_, err = s.UpdateStatut(ctx, manager, ticket.ID, StatutResolu, "")
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	_, err = s.UpdatePriorite(ctx, manager, ticket.ID, PrioriteHaute)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	updated, err := s.UpdateStatut(ctx, admin, ticket.ID, StatutFerme, "u-root")
	require.NoError(t, err)
	assert.Equal(t, StatutFerme, updated.Statut)
	assert.Equal(t, "u-root", updated.AssigneA)
	require.NotNil(t, updated.FermeAt)

	reopened, err := s.UpdateStatut(ctx, admin, ticket.ID, StatutEnAttente, "")
	require.NoError(t, err)
	assert.Nil(t, reopened.FermeAt)

	hot, err := s.UpdatePriorite(ctx, admin, ticket.ID, PrioriteUrgente)
	require.NoError(t, err)
	assert.Equal(t, PrioriteUrgente, hot.Priorite)

	_, err = s.UpdateStatut(ctx, admin, ticket.ID, "archive", "")
	assert.ErrorIs(t, err, ErrInvalidStatut)
}

// TestPurpose: Validates the reply thread: first reply advances an open
// ticket to en_cours, closed tickets refuse replies, and internal notes are
// both restricted to the admin and hidden from tenant readers.
// Scope: Unit Test
// Security: Internal note confidentiality
// Expected: employe cannot write or read internal notes; admin reads both.
// Test Case ID: SUP-04
func TestSupport_Service_Reponses(t *testing.T) {
	s, _ := newSupportService()
	ctx := context.Background()

	emp := supportActor("u-1", rbac.RoleEmploye, "ent-1")
	admin := supportActor("u-root", rbac.RoleAdmin, "")

	ticket, err := s.CreateTicket(ctx, emp, TicketInput{Sujet: "A", Message: "a"})
	require.NoError(t, err)

	_, err = s.AddReponse(ctx, emp, ticket.ID, "note interne?", true)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	_, err = s.AddReponse(ctx, emp, ticket.ID, "", false)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = s.AddReponse(ctx, admin, ticket.ID, "Vu, on regarde.", false)
	require.NoError(t, err)

	advanced, err := s.GetTicket(ctx, admin, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, StatutEnCours, advanced.Statut)

	_, err = s.AddReponse(ctx, admin, ticket.ID, "reproduit en staging", true)
	require.NoError(t, err)

	visible, err := s.ListReponses(ctx, emp, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	full, err := s.ListReponses(ctx, admin, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, full, 2)

	_, err = s.UpdateStatut(ctx, admin, ticket.ID, StatutFerme, "")
	require.NoError(t, err)
	_, err = s.AddReponse(ctx, emp, ticket.ID, "encore un souci", false)
	assert.ErrorIs(t, err, ErrTicketClosed)
}

func TestSupport_Service_Stats(t *testing.T) {
	s, _ := newSupportService()
	ctx := context.Background()

	emp1 := supportActor("u-1", rbac.RoleEmploye, "ent-1")
	emp2 := supportActor("u-2", rbac.RoleEmploye, "ent-2")
	admin := supportActor("u-root", rbac.RoleAdmin, "")

	for i := 0; i < 2; i++ {
		_, err := s.CreateTicket(ctx, emp1, TicketInput{Sujet: "x", Message: "x"})
		require.NoError(t, err)
	}
	_, err := s.CreateTicket(ctx, emp2, TicketInput{Sujet: "y", Message: "y"})
	require.NoError(t, err)

	own, err := s.Stats(ctx, emp1)
	require.NoError(t, err)
	assert.Equal(t, 2, own[StatutOuvert])

	all, err := s.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, all[StatutOuvert])
}
