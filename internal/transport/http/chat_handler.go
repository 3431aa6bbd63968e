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
	"github.com/invexia/invexia/internal/chat"
)

// CreateConversationRequest opens a conversation with its first message.
type CreateConversationRequest struct {
	Titre   string `json:"titre" binding:"required" example:"Question sur les commandes"`
	Message string `json:"message" binding:"required"`
}

// CreateConversation opens a conversation inside the actor's entreprise.
// @Summary Create Conversation
// @Tags Chat
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body CreateConversationRequest true "Conversation Data"
// @Success 201 {object} chat.Conversation
// @Failure 400 {object} map[string]string
// @Router /chat/conversations [post]
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conversation, err := h.chatService.CreateConversation(r.Context(), GetActor(r.Context()), req.Titre, req.Message)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, conversation)
}

// ListConversations lists the entreprise's conversations with unread counts.
// @Summary List Conversations
// @Tags Chat
// @Produce json
// @Security CookieAuth
// @Success 200 {array} chat.ConversationSummary
// @Router /chat/conversations [get]
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.chatService.ListConversations(r.Context(), GetActor(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// GetConversation returns a single conversation.
// @Summary Get Conversation
// @Tags Chat
// @Produce json
// @Security CookieAuth
// @Param conversationID path string true "Conversation ID"
// @Success 200 {object} chat.Conversation
// @Failure 404 {object} map[string]string
// @Router /chat/conversations/{conversationID} [get]
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversation, err := h.chatService.GetConversation(r.Context(), GetActor(r.Context()), chi.URLParam(r, "conversationID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conversation)
}

// SendMessageRequest carries a chat message.
type SendMessageRequest struct {
	Contenu string `json:"contenu" binding:"required"`
}

// SendMessage posts a message to an open conversation.
// @Summary Send Message
// @Tags Chat
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param conversationID path string true "Conversation ID"
// @Param request body SendMessageRequest true "Message Data"
// @Success 201 {object} chat.Message
// @Failure 409 {object} map[string]string
// @Router /chat/conversations/{conversationID}/messages [post]
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.chatService.SendMessage(r.Context(), GetActor(r.Context()), chi.URLParam(r, "conversationID"), req.Contenu)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

// ListMessages returns a conversation's messages. With ?after=<message id>
// only messages past that cursor come back, which is what the client polls
// with.
// @Summary List Messages
// @Tags Chat
// @Produce json
// @Security CookieAuth
// @Param conversationID path string true "Conversation ID"
// @Param after query string false "Return messages after this ID"
// @Success 200 {array} chat.Message
// @Router /chat/conversations/{conversationID}/messages [get]
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())
	conversationID := chi.URLParam(r, "conversationID")

	var messages []*chat.Message
	var err error
	if after := r.URL.Query().Get("after"); after != "" {
		messages, err = h.chatService.ListMessagesSince(r.Context(), actor, conversationID, after)
	} else {
		messages, err = h.chatService.ListMessages(r.Context(), actor, conversationID)
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// MarkConversationRead marks every message from other senders as read.
// @Summary Mark Conversation Read
// @Tags Chat
// @Produce json
// @Security CookieAuth
// @Param conversationID path string true "Conversation ID"
// @Success 200 {object} map[string]string
// @Router /chat/conversations/{conversationID}/read [post]
func (h *Handler) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.MarkRead(r.Context(), GetActor(r.Context()), chi.URLParam(r, "conversationID")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "conversation marked read"})
}

// SetConversationStatutRequest carries the new statut.
type SetConversationStatutRequest struct {
	Statut string `json:"statut" binding:"required" example:"ferme"`
}

// SetConversationStatut closes, reopens or archives a conversation.
// @Summary Set Conversation Statut
// @Tags Chat
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param conversationID path string true "Conversation ID"
// @Param request body SetConversationStatutRequest true "Statut Data"
// @Success 200 {object} chat.Conversation
// @Failure 403 {object} map[string]string
// @Router /chat/conversations/{conversationID}/statut [put]
func (h *Handler) SetConversationStatut(w http.ResponseWriter, r *http.Request) {
	var req SetConversationStatutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conversation, err := h.chatService.SetStatut(r.Context(), GetActor(r.Context()), chi.URLParam(r, "conversationID"), chat.Statut(req.Statut))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conversation)
}
