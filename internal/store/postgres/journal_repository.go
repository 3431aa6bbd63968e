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
	"encoding/json"
	"fmt"
	"time"

	"github.com/invexia/invexia/internal/audit/journal"
	"github.com/invexia/invexia/internal/tenant"
)

// JournalRepository implements journal.Repository
type JournalRepository struct {
	db *DB
}

// NewJournalRepository creates a new journal repository
func NewJournalRepository(db *DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Insert appends an audit entry
func (r *JournalRepository) Insert(ctx context.Context, entry *journal.Entry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}
	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO audit_entries (id, type, entreprise_id, actor_id, resource, metadata, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.ID, entry.Type, nullable(entry.EntrepriseID), nullable(entry.ActorID),
		entry.Resource, metadata, entry.IPAddress, entry.UserAgent, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// List returns audit entries visible through the tenant filter, newest first
func (r *JournalRepository) List(ctx context.Context, filter tenant.Filter, q journal.Query) ([]*journal.Entry, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	query := `
		SELECT id, type, entreprise_id, actor_id, resource, metadata, ip_address, user_agent, created_at
		FROM audit_entries
		WHERE ` + clause
	if q.Type != "" {
		args = append(args, q.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if q.ActorID != "" {
		args = append(args, q.ActorID)
		query += fmt.Sprintf(" AND actor_id = $%d", len(args))
	}
	if !q.Since.IsZero() {
		args = append(args, q.Since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !q.Until.IsZero() {
		args = append(args, q.Until)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	args = append(args, q.Limit, q.Offset)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*journal.Entry
	for rows.Next() {
		var entry journal.Entry
		var entrepriseID, actorID *string
		var metadata []byte
		if err := rows.Scan(&entry.ID, &entry.Type, &entrepriseID, &actorID,
			&entry.Resource, &metadata, &entry.IPAddress, &entry.UserAgent, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if entrepriseID != nil {
			entry.EntrepriseID = *entrepriseID
		}
		if actorID != nil {
			entry.ActorID = *actorID
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// DeleteOlderThan purges audit entries older than the cutoff
func (r *JournalRepository) DeleteOlderThan(ctx context.Context, filter tenant.Filter, cutoff time.Time) (int64, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	args = append(args, cutoff)
	tag, err := r.db.pool.Exec(ctx, fmt.Sprintf(`
		DELETE FROM audit_entries WHERE %s AND created_at < $%d
	`, clause, len(args)), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
