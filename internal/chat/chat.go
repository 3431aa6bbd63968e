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

// Package chat provides tenant-internal conversations. Clients poll for new
// messages; there is no push transport.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/invexia/invexia/internal/tenant"
)

// Domain errors
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationClosed   = errors.New("conversation is closed")
	ErrEmptyContenu         = errors.New("message contenu must not be empty")
	ErrEmptyTitre           = errors.New("conversation titre must not be empty")
	ErrInvalidStatut        = errors.New("invalid conversation statut")
)

// Conversation lifecycle states.
type Statut string

const (
	StatutOuvert  Statut = "ouvert"
	StatutFerme   Statut = "ferme"
	StatutArchive Statut = "archive"
)

// ValidStatut reports whether s belongs to the closed statut set.
func ValidStatut(s Statut) bool {
	switch s {
	case StatutOuvert, StatutFerme, StatutArchive:
		return true
	}
	return false
}

// Conversation is one tenant-owned message thread.
type Conversation struct {
	ID               string    `json:"id"`
	EntrepriseID     string    `json:"entreprise_id"`
	Titre            string    `json:"titre"`
	Statut           Statut    `json:"statut"`
	DerniereActivite time.Time `json:"derniere_activite"`
	CreatedBy        string    `json:"created_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Message is one entry in a conversation. Sender nom and role are captured
// at send time so the thread stays readable after profil changes. IDs are
// monotonic ULIDs, which gives poll cursors a total order.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id,omitempty"`
	SenderNom      string     `json:"sender_nom"`
	SenderRole     string     `json:"sender_role"`
	Contenu        string     `json:"contenu"`
	Lu             bool       `json:"lu"`
	LuAt           *time.Time `json:"lu_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ConversationSummary is a conversation with its inbox counters.
type ConversationSummary struct {
	Conversation *Conversation `json:"conversation"`
	MessageCount int           `json:"message_count"`
	UnreadCount  int           `json:"unread_count"`
	LastMessage  *Message      `json:"last_message,omitempty"`
}

// Repository defines persistence for conversations and messages.
type Repository interface {
	CreateConversation(ctx context.Context, c *Conversation) error
	GetConversation(ctx context.Context, filter tenant.Filter, id string) (*Conversation, error)
	ListConversations(ctx context.Context, filter tenant.Filter) ([]*Conversation, error)
	UpdateConversation(ctx context.Context, c *Conversation) error

	CreateMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)
	// ListMessagesAfter returns messages with an ID strictly greater than
	// afterID, oldest first. An empty afterID returns the full thread.
	ListMessagesAfter(ctx context.Context, conversationID, afterID string) ([]*Message, error)
	CountMessages(ctx context.Context, conversationID string) (int, error)
	CountUnread(ctx context.Context, conversationID, readerID string) (int, error)
	LastMessage(ctx context.Context, conversationID string) (*Message, error)
	// MarkRead marks every message not sent by readerID as read.
	MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) error
}
