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

package journal

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/authz"
	"github.com/invexia/invexia/internal/rbac"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Service exposes the audit journal under its own permissions.
type Service struct {
	repo        Repository
	authorizer  *authz.Authorizer
	auditLogger audit.Logger
}

// NewService creates a journal service.
func NewService(repo Repository, authorizer *authz.Authorizer, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		authorizer:  authorizer,
		auditLogger: auditLogger,
	}
}

// List returns audit entries visible to the actor, newest first, within the
// actor's tenant scope.
func (s *Service) List(ctx context.Context, actor *authz.Actor, q Query) ([]*Entry, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermAuditView); err != nil {
		return nil, err
	}

	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}

	entries, err := s.repo.List(ctx, actor.Scope(), q)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

// ExportCSV streams the actor's visible entries as CSV.
func (s *Service) ExportCSV(ctx context.Context, actor *authz.Actor, q Query, w io.Writer) error {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermAuditExport); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "type", "entreprise_id", "actor_id", "resource", "metadata", "ip_address", "created_at"}); err != nil {
		return err
	}

	// Page through every matching entry. A truncated audit trail that
	// looks complete is worse than no export at all.
	q.Limit = maxListLimit
	total := 0
	for q.Offset = 0; ; q.Offset += maxListLimit {
		entries, err := s.repo.List(ctx, actor.Scope(), q)
		if err != nil {
			return fmt.Errorf("failed to list audit entries: %w", err)
		}
		for _, e := range entries {
			metadata := ""
			if len(e.Metadata) > 0 {
				raw, merr := json.Marshal(e.Metadata)
				if merr == nil {
					metadata = string(raw)
				}
			}
			if err := cw.Write([]string{
				e.ID,
				e.Type,
				e.EntrepriseID,
				e.ActorID,
				e.Resource,
				metadata,
				e.IPAddress,
				e.CreatedAt.Format(time.RFC3339),
			}); err != nil {
				return err
			}
		}
		total += len(entries)
		if len(entries) < maxListLimit {
			break
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeExportGenerated,
		ActorID:  actor.UserID,
		Resource: "audit_journal",
		Metadata: map[string]any{audit.AttrCount: total},
	})
	return nil
}

// Purge deletes entries older than the cutoff within the actor's scope.
// Only admin holds audit:delete, and the purge itself leaves a trace.
func (s *Service) Purge(ctx context.Context, actor *authz.Actor, cutoff time.Time) (int64, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermAuditDelete); err != nil {
		return 0, err
	}

	deleted, err := s.repo.DeleteOlderThan(ctx, actor.Scope(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit entries: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeAuditPurged,
		ActorID:  actor.UserID,
		Resource: "audit_journal",
		Metadata: map[string]any{
			audit.AttrCount: deleted,
			"cutoff":        cutoff.Format(time.RFC3339),
		},
	})
	return deleted, nil
}
