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

// Package audit records security and compliance relevant events, both as
// structured log lines and as persisted, tenant-scoped journal entries.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event types
const (
	TypeLoginSuccess      = "login_success"
	TypeLoginFailed       = "login_failed"
	TypeLogout            = "logout"
	TypeUserLocked        = "user_locked"
	TypeUserCreated       = "user_created"
	TypePasswordChanged   = "password_changed"
	TypeMemberInvited     = "member_invited"
	TypeRoleChanged       = "role_changed"
	TypeUserSuspended     = "user_suspended"
	TypeUserReactivated   = "user_reactivated"
	TypeEntrepriseCreated = "entreprise_created"
	TypeEntrepriseUpdated = "entreprise_updated"
	TypeProduitCreated    = "produit_created"
	TypeProduitUpdated    = "produit_updated"
	TypeProduitDeleted    = "produit_deleted"
	TypeCategorieCreated  = "categorie_created"
	TypeCategorieUpdated  = "categorie_updated"
	TypeCategorieDeleted  = "categorie_deleted"
	TypeTicketCreated     = "ticket_created"
	TypeTicketUpdated     = "ticket_updated"
	TypeExportGenerated   = "export_generated"
	TypeAuditPurged       = "audit_purged"

	// TypePermissionDenied records an action refused by the decision
	// function. Expected traffic, kept for forensics.
	TypePermissionDenied = "permission_denied"

	// TypeTenantMismatch records attempted cross-tenant access by a
	// non-admin. Never expected traffic: either a bug or a probe, so it is
	// kept distinct from ordinary denials.
	TypeTenantMismatch = "tenant_mismatch"
)

// Well-known metadata keys.
const (
	AttrReason     = "reason"
	AttrAttempts   = "attempts"
	AttrRole       = "role"
	AttrOldRole    = "old_role"
	AttrNewRole    = "new_role"
	AttrPermission = "permission"
	AttrTarget     = "target"
	AttrCount      = "count"
)

// Event represents an auditable action.
type Event struct {
	Type         string
	EntrepriseID string
	ActorID      string
	Resource     string
	Metadata     map[string]any
	Timestamp    time.Time
	IPAddress    string
	UserAgent    string
}

// Logger defines the interface for audit logging.
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger on the process-wide slog logger.
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger.
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event.
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("entreprise_id", event.EntrepriseID),
		slog.String("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// isSecret checks if a key likely contains a secret.
func isSecret(key string) bool {
	secrets := []string{"password", "secret", "token", "key", "authorization"}
	for _, s := range secrets {
		if key == s {
			return true
		}
	}
	return false
}
