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

package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// Service manages session lifecycle. Session IDs are opaque random values:
// they carry no identity claims and mean nothing without the store.
type Service struct {
	repo        Repository
	ttl         time.Duration
	idleTimeout time.Duration
}

// NewService creates a new session service.
func NewService(repo Repository, ttl, idleTimeout time.Duration) *Service {
	return &Service{
		repo:        repo,
		ttl:         ttl,
		idleTimeout: idleTimeout,
	}
}

// Create opens a new session for a user.
func (s *Service) Create(ctx context.Context, userID, ipAddress, userAgent string) (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now()
	sess := &Session{
		ID:         id,
		UserID:     userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		ExpiresAt:  now.Add(s.ttl),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// Get retrieves a live session and touches its last-seen time. Expired and
// idle sessions are deleted on sight.
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.IsExpired() || sess.IsIdle(s.idleTimeout) {
		_ = s.repo.Delete(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	sess.LastSeenAt = time.Now()
	_ = s.repo.Update(ctx, sess)

	return sess, nil
}

// Refresh extends a live session's expiry by the configured TTL.
func (s *Service) Refresh(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.ExpiresAt = time.Now().Add(s.ttl)
	if err := s.repo.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	return sess, nil
}

// Destroy deletes a session.
func (s *Service) Destroy(ctx context.Context, sessionID string) error {
	return s.repo.Delete(ctx, sessionID)
}

// DestroyAllForUser deletes every session belonging to a user. Used when an
// account is suspended or its password changes.
func (s *Service) DestroyAllForUser(ctx context.Context, userID string) error {
	return s.repo.DeleteByUserID(ctx, userID)
}

// DeleteExpired purges expired sessions from the store.
func (s *Service) DeleteExpired(ctx context.Context) error {
	return s.repo.DeleteExpired(ctx)
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
