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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/invexia/invexia/internal/support"
	"github.com/invexia/invexia/internal/tenant"
)

// TicketRepository implements support.Repository
type TicketRepository struct {
	db *DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, numero, entreprise_id, user_id, email, nom, sujet, message,
	categorie, priorite, statut, assigne_a, created_at, updated_at, ferme_at`

func scanTicket(row pgx.Row) (*support.Ticket, error) {
	var t support.Ticket
	var entrepriseID, userID, assigneA *string
	err := row.Scan(
		&t.ID, &t.Numero, &entrepriseID, &userID, &t.Email, &t.Nom,
		&t.Sujet, &t.Message, &t.Categorie, &t.Priorite, &t.Statut,
		&assigneA, &t.CreatedAt, &t.UpdatedAt, &t.FermeAt,
	)
	if err != nil {
		return nil, err
	}
	if entrepriseID != nil {
		t.EntrepriseID = *entrepriseID
	}
	if userID != nil {
		t.UserID = *userID
	}
	if assigneA != nil {
		t.AssigneA = *assigneA
	}
	return &t, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateTicket creates a new ticket
func (r *TicketRepository) CreateTicket(ctx context.Context, t *support.Ticket) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tickets (id, numero, entreprise_id, user_id, email, nom, sujet, message,
			categorie, priorite, statut, assigne_a, created_at, updated_at, ferme_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		t.ID, t.Numero, nullable(t.EntrepriseID), nullable(t.UserID),
		t.Email, t.Nom, t.Sujet, t.Message, t.Categorie, t.Priorite, t.Statut,
		nullable(t.AssigneA), t.CreatedAt, t.UpdatedAt, t.FermeAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

// GetTicket retrieves a ticket visible through the tenant filter
func (r *TicketRepository) GetTicket(ctx context.Context, filter tenant.Filter, id string) (*support.Ticket, error) {
	clause, args := scopeClause(filter, "entreprise_id", 2)
	args = append([]any{id}, args...)
	t, err := scanTicket(r.db.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM tickets WHERE id = $1 AND %s
	`, ticketColumns, clause), args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, support.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to query ticket: %w", err)
	}
	return t, nil
}

// ListTickets returns tickets visible through the tenant filter
func (r *TicketRepository) ListTickets(ctx context.Context, filter tenant.Filter, filters support.ListFilters) ([]*support.Ticket, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s`, ticketColumns, clause)
	if filters.Statut != "" {
		args = append(args, filters.Statut)
		query += fmt.Sprintf(" AND statut = $%d", len(args))
	}
	if filters.Priorite != "" {
		args = append(args, filters.Priorite)
		query += fmt.Sprintf(" AND priorite = $%d", len(args))
	}
	args = append(args, filters.Limit, filters.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*support.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// UpdateTicket updates a ticket
func (r *TicketRepository) UpdateTicket(ctx context.Context, t *support.Ticket) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE tickets
		SET statut = $2, priorite = $3, assigne_a = $4, updated_at = $5, ferme_at = $6
		WHERE id = $1
	`, t.ID, t.Statut, t.Priorite, nullable(t.AssigneA), t.UpdatedAt, t.FermeAt)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	return nil
}

// NextNumero allocates the next ticket number
func (r *TicketRepository) NextNumero(ctx context.Context) (string, error) {
	var seq int64
	err := r.db.pool.QueryRow(ctx, `SELECT nextval('ticket_numero_seq')`).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("failed to allocate ticket numero: %w", err)
	}
	return fmt.Sprintf("TKT-%05d", seq), nil
}

// AddReponse appends a message to a ticket thread
func (r *TicketRepository) AddReponse(ctx context.Context, reponse *support.Reponse) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO reponses (id, ticket_id, user_id, message, est_interne, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, reponse.ID, reponse.TicketID, nullable(reponse.UserID), reponse.Message, reponse.EstInterne, reponse.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert reponse: %w", err)
	}
	return nil
}

// ListReponses returns a ticket's thread, optionally including internal notes
func (r *TicketRepository) ListReponses(ctx context.Context, ticketID string, includeInternal bool) ([]*support.Reponse, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, ticket_id, user_id, message, est_interne, created_at
		FROM reponses
		WHERE ticket_id = $1 AND (est_interne = FALSE OR $2)
		ORDER BY created_at
	`, ticketID, includeInternal)
	if err != nil {
		return nil, fmt.Errorf("failed to list reponses: %w", err)
	}
	defer rows.Close()

	var reponses []*support.Reponse
	for rows.Next() {
		var rep support.Reponse
		var userID *string
		if err := rows.Scan(&rep.ID, &rep.TicketID, &userID, &rep.Message, &rep.EstInterne, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reponse: %w", err)
		}
		if userID != nil {
			rep.UserID = *userID
		}
		reponses = append(reponses, &rep)
	}
	return reponses, rows.Err()
}

// CountByStatut counts tickets per statut within the tenant filter
func (r *TicketRepository) CountByStatut(ctx context.Context, filter tenant.Filter) (map[support.Statut]int, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	rows, err := r.db.pool.Query(ctx, `
		SELECT statut, COUNT(*) FROM tickets WHERE `+clause+` GROUP BY statut
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}
	defer rows.Close()

	counts := make(map[support.Statut]int)
	for rows.Next() {
		var statut support.Statut
		var n int
		if err := rows.Scan(&statut, &n); err != nil {
			return nil, fmt.Errorf("failed to scan ticket count: %w", err)
		}
		counts[statut] = n
	}
	return counts, rows.Err()
}
