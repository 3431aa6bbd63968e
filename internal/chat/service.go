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

package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/invexia/invexia/internal/authz"
	"github.com/invexia/invexia/internal/id"
	"github.com/invexia/invexia/internal/rbac"
)

// Service is the authoritative chat API. Every active member of an
// entreprise may converse; the platform admin reads across tenants.
type Service struct {
	repo       Repository
	authorizer *authz.Authorizer
}

// NewService creates a chat service.
func NewService(repo Repository, authorizer *authz.Authorizer) *Service {
	return &Service{repo: repo, authorizer: authorizer}
}

// CreateConversation opens a thread in the actor's entreprise with its
// first message. An actor without a home entreprise cannot own a thread.
func (s *Service) CreateConversation(ctx context.Context, actor *authz.Actor, titre, premierMessage string) (*Conversation, error) {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return nil, err
	}
	if titre == "" {
		return nil, ErrEmptyTitre
	}
	if premierMessage == "" {
		return nil, ErrEmptyContenu
	}
	entrepriseID, ok := actor.Scope().EntrepriseID()
	if !ok {
		return nil, authz.ErrTenantMismatch
	}

	now := time.Now()
	conversation := &Conversation{
		ID:               id.NewUUIDv7(),
		EntrepriseID:     entrepriseID,
		Titre:            titre,
		Statut:           StatutOuvert,
		DerniereActivite: now,
		CreatedBy:        actor.UserID,
		CreatedAt:        now,
	}
	if err := s.repo.CreateConversation(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	if _, err := s.appendMessage(ctx, actor, conversation, premierMessage); err != nil {
		return nil, err
	}
	return conversation, nil
}

// ListConversations returns the actor's visible threads with inbox
// counters, most recently active first.
func (s *Service) ListConversations(ctx context.Context, actor *authz.Actor) ([]*ConversationSummary, error) {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return nil, err
	}
	conversations, err := s.repo.ListConversations(ctx, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	summaries := make([]*ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		total, err := s.repo.CountMessages(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count messages: %w", err)
		}
		unread, err := s.repo.CountUnread(ctx, c.ID, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to count unread messages: %w", err)
		}
		last, err := s.repo.LastMessage(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load last message: %w", err)
		}
		summaries = append(summaries, &ConversationSummary{
			Conversation: c,
			MessageCount: total,
			UnreadCount:  unread,
			LastMessage:  last,
		})
	}
	return summaries, nil
}

// GetConversation fetches one thread within the actor's scope.
func (s *Service) GetConversation(ctx context.Context, actor *authz.Actor, conversationID string) (*Conversation, error) {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return nil, err
	}
	conversation, err := s.repo.GetConversation(ctx, actor.Scope(), conversationID)
	if err != nil {
		return nil, ErrConversationNotFound
	}
	return conversation, nil
}

// SendMessage appends to an open conversation and bumps its activity.
func (s *Service) SendMessage(ctx context.Context, actor *authz.Actor, conversationID, contenu string) (*Message, error) {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return nil, err
	}
	if contenu == "" {
		return nil, ErrEmptyContenu
	}
	conversation, err := s.repo.GetConversation(ctx, actor.Scope(), conversationID)
	if err != nil {
		return nil, ErrConversationNotFound
	}
	if conversation.Statut != StatutOuvert {
		return nil, ErrConversationClosed
	}
	return s.appendMessage(ctx, actor, conversation, contenu)
}

func (s *Service) appendMessage(ctx context.Context, actor *authz.Actor, conversation *Conversation, contenu string) (*Message, error) {
	message := &Message{
		ID:             id.NewULID(),
		ConversationID: conversation.ID,
		SenderID:       actor.UserID,
		SenderNom:      actor.Profil.NomComplet(),
		SenderRole:     string(actor.Profil.Role),
		Contenu:        contenu,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	conversation.DerniereActivite = message.CreatedAt
	if err := s.repo.UpdateConversation(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to update conversation activity: %w", err)
	}
	return message, nil
}

// ListMessages returns a conversation's full thread, oldest first.
func (s *Service) ListMessages(ctx context.Context, actor *authz.Actor, conversationID string) ([]*Message, error) {
	return s.ListMessagesSince(ctx, actor, conversationID, "")
}

// ListMessagesSince returns messages after the given poll cursor, oldest
// first. The cursor is the ID of the last message the client has seen; an
// empty cursor returns the full thread.
func (s *Service) ListMessagesSince(ctx context.Context, actor *authz.Actor, conversationID, afterID string) ([]*Message, error) {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetConversation(ctx, actor.Scope(), conversationID); err != nil {
		return nil, ErrConversationNotFound
	}
	messages, err := s.repo.ListMessagesAfter(ctx, conversationID, afterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// MarkRead marks every message the actor did not send as read.
func (s *Service) MarkRead(ctx context.Context, actor *authz.Actor, conversationID string) error {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return err
	}
	if _, err := s.repo.GetConversation(ctx, actor.Scope(), conversationID); err != nil {
		return ErrConversationNotFound
	}
	if err := s.repo.MarkRead(ctx, conversationID, actor.UserID, time.Now()); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// SetStatut closes, archives, or reopens a conversation. Only its creator
// or an actor who may manage the tenant's members can change the statut.
func (s *Service) SetStatut(ctx context.Context, actor *authz.Actor, conversationID string, statut Statut) (*Conversation, error) {
	if err := s.authorizer.RequireActor(ctx, actor); err != nil {
		return nil, err
	}
	if !ValidStatut(statut) {
		return nil, ErrInvalidStatut
	}
	conversation, err := s.repo.GetConversation(ctx, actor.Scope(), conversationID)
	if err != nil {
		return nil, ErrConversationNotFound
	}
	if conversation.CreatedBy != actor.UserID {
		if err := s.authorizer.Authorize(ctx, actor, rbac.PermUsersEdit); err != nil {
			return nil, err
		}
	}
	conversation.Statut = statut
	if err := s.repo.UpdateConversation(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	return conversation, nil
}
