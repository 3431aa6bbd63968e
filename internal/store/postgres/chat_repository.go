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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/invexia/invexia/internal/chat"
	"github.com/invexia/invexia/internal/tenant"
)

// ChatRepository implements chat.Repository
type ChatRepository struct {
	db *DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *DB) *ChatRepository {
	return &ChatRepository{db: db}
}

const conversationColumns = `id, entreprise_id, titre, statut, derniere_activite, created_by, created_at`

func scanConversation(row pgx.Row) (*chat.Conversation, error) {
	var c chat.Conversation
	var createdBy *string
	err := row.Scan(&c.ID, &c.EntrepriseID, &c.Titre, &c.Statut, &c.DerniereActivite, &createdBy, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if createdBy != nil {
		c.CreatedBy = *createdBy
	}
	return &c, nil
}

// CreateConversation creates a new conversation
func (r *ChatRepository) CreateConversation(ctx context.Context, c *chat.Conversation) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO conversations (id, entreprise_id, titre, statut, derniere_activite, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.EntrepriseID, c.Titre, c.Statut, c.DerniereActivite, nullable(c.CreatedBy), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation visible through the tenant filter
func (r *ChatRepository) GetConversation(ctx context.Context, filter tenant.Filter, id string) (*chat.Conversation, error) {
	clause, args := scopeClause(filter, "entreprise_id", 2)
	args = append([]any{id}, args...)
	c, err := scanConversation(r.db.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM conversations WHERE id = $1 AND %s
	`, conversationColumns, clause), args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, chat.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	return c, nil
}

// ListConversations returns conversations visible through the tenant filter
func (r *ChatRepository) ListConversations(ctx context.Context, filter tenant.Filter) ([]*chat.Conversation, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM conversations WHERE %s ORDER BY derniere_activite DESC
	`, conversationColumns, clause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*chat.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// UpdateConversation updates a conversation's statut and activity
func (r *ChatRepository) UpdateConversation(ctx context.Context, c *chat.Conversation) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE conversations SET titre = $2, statut = $3, derniere_activite = $4 WHERE id = $1
	`, c.ID, c.Titre, c.Statut, c.DerniereActivite)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	return nil
}

// CreateMessage appends a message
func (r *ChatRepository) CreateMessage(ctx context.Context, m *chat.Message) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, sender_nom, sender_role, contenu, lu, lu_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, m.ID, m.ConversationID, nullable(m.SenderID), m.SenderNom, m.SenderRole, m.Contenu, m.Lu, m.LuAt, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListMessages returns a conversation's full thread, oldest first
func (r *ChatRepository) ListMessages(ctx context.Context, conversationID string) ([]*chat.Message, error) {
	return r.ListMessagesAfter(ctx, conversationID, "")
}

// ListMessagesAfter returns messages with an ID strictly greater than
// afterID. Message IDs are ULIDs, so lexical order is creation order.
func (r *ChatRepository) ListMessagesAfter(ctx context.Context, conversationID, afterID string) ([]*chat.Message, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, conversation_id, sender_id, sender_nom, sender_role, contenu, lu, lu_at, created_at
		FROM messages
		WHERE conversation_id = $1 AND id > $2
		ORDER BY id
	`, conversationID, afterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*chat.Message
	for rows.Next() {
		var m chat.Message
		var senderID *string
		if err := rows.Scan(&m.ID, &m.ConversationID, &senderID, &m.SenderNom, &m.SenderRole,
			&m.Contenu, &m.Lu, &m.LuAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if senderID != nil {
			m.SenderID = *senderID
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// CountMessages counts a conversation's messages
func (r *ChatRepository) CountMessages(ctx context.Context, conversationID string) (int, error) {
	var n int
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages WHERE conversation_id = $1
	`, conversationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

// CountUnread counts messages the reader has not seen
func (r *ChatRepository) CountUnread(ctx context.Context, conversationID, readerID string) (int, error) {
	var n int
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1 AND lu = FALSE AND (sender_id IS NULL OR sender_id <> $2)
	`, conversationID, readerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}

// LastMessage returns the newest message of a conversation, nil when empty
func (r *ChatRepository) LastMessage(ctx context.Context, conversationID string) (*chat.Message, error) {
	var m chat.Message
	var senderID *string
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, conversation_id, sender_id, sender_nom, sender_role, contenu, lu, lu_at, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, conversationID).Scan(&m.ID, &m.ConversationID, &senderID, &m.SenderNom, &m.SenderRole,
		&m.Contenu, &m.Lu, &m.LuAt, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query last message: %w", err)
	}
	if senderID != nil {
		m.SenderID = *senderID
	}
	return &m, nil
}

// MarkRead marks every message not sent by readerID as read
func (r *ChatRepository) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE messages
		SET lu = TRUE, lu_at = $3
		WHERE conversation_id = $1 AND lu = FALSE AND (sender_id IS NULL OR sender_id <> $2)
	`, conversationID, readerID, at)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}
