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

package authz

import (
	"context"

	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/observability/metrics"
	"github.com/invexia/invexia/internal/rbac"
	"github.com/invexia/invexia/internal/tenant"
)

// Actor is the resolved identity a service operation acts on behalf of. A
// nil Profil means the actor is authenticated but not provisioned yet.
type Actor struct {
	UserID string
	Profil *identity.Profil
}

// Role returns the actor's effective role. False for a missing, inactive or
// suspended profil, which makes every subsequent permission check fail.
func (a *Actor) Role() (rbac.Role, bool) {
	if a == nil || a.Profil == nil {
		return "", false
	}
	return a.Profil.EffectiveRole()
}

// Scope returns the actor's mandatory tenant filter.
func (a *Actor) Scope() tenant.Filter {
	if a == nil {
		return tenant.MatchNone()
	}
	return tenant.ScopeFilter(a.Profil)
}

// Authorizer performs authoritative permission checks and audits denials.
type Authorizer struct {
	auditLogger audit.Logger
	metrics     *metrics.AuthzMetrics
}

// NewAuthorizer creates a new authorizer.
func NewAuthorizer(auditLogger audit.Logger) *Authorizer {
	return &Authorizer{auditLogger: auditLogger}
}

// WithMetrics attaches denial counters. Nil metrics are fine; counting is
// skipped.
func (a *Authorizer) WithMetrics(m *metrics.AuthzMetrics) *Authorizer {
	a.metrics = m
	return a
}

// Authorize checks one permission. Error order is fixed: authentication
// before provisioning before permission, so a response never reveals more
// than the caller's standing warrants.
func (a *Authorizer) Authorize(ctx context.Context, actor *Actor, permission rbac.Permission) error {
	if actor == nil || actor.UserID == "" {
		return ErrUnauthenticated
	}
	if actor.Profil == nil {
		return ErrProfileNotProvisioned
	}
	role, ok := actor.Role()
	if !ok {
		// Non-actif profils hold no permissions at all.
		return a.deny(ctx, actor, permission)
	}
	if !rbac.HasPermission(role, permission) {
		return a.deny(ctx, actor, permission)
	}
	return nil
}

// RequireActor checks authentication and provisioning without demanding a
// specific permission. Non-actif profils are refused. Use it for operations
// open to every active member, such as filing a support ticket.
func (a *Authorizer) RequireActor(ctx context.Context, actor *Actor) error {
	if actor == nil || actor.UserID == "" {
		return ErrUnauthenticated
	}
	if actor.Profil == nil {
		return ErrProfileNotProvisioned
	}
	if _, ok := actor.Role(); !ok {
		return a.deny(ctx, actor, "")
	}
	return nil
}

// AuthorizeAll checks that the actor holds every listed permission. An
// empty list passes.
func (a *Authorizer) AuthorizeAll(ctx context.Context, actor *Actor, permissions ...rbac.Permission) error {
	for _, p := range permissions {
		if err := a.Authorize(ctx, actor, p); err != nil {
			return err
		}
	}
	return nil
}

// AuthorizeAny checks that the actor holds at least one listed permission.
// An empty list denies.
func (a *Authorizer) AuthorizeAny(ctx context.Context, actor *Actor, permissions ...rbac.Permission) error {
	if actor == nil || actor.UserID == "" {
		return ErrUnauthenticated
	}
	if actor.Profil == nil {
		return ErrProfileNotProvisioned
	}
	role, ok := actor.Role()
	if ok && rbac.HasAnyPermission(role, permissions) {
		return nil
	}
	if len(permissions) == 0 {
		return a.deny(ctx, actor, "")
	}
	return a.deny(ctx, actor, permissions[0])
}

// CheckTenant verifies that the actor's scope admits the target entreprise.
// Cross-tenant attempts get their own audit event type, distinct from
// ordinary permission denials.
func (a *Authorizer) CheckTenant(ctx context.Context, actor *Actor, entrepriseID string) error {
	if actor == nil || actor.UserID == "" {
		return ErrUnauthenticated
	}
	if actor.Scope().Allows(entrepriseID) {
		return nil
	}
	a.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeTenantMismatch,
		EntrepriseID: entrepriseID,
		ActorID:      actor.UserID,
		Metadata:     map[string]any{audit.AttrTarget: entrepriseID},
	})
	if a.metrics != nil {
		a.metrics.TenantMismatch.Add(ctx, 1)
	}
	return ErrTenantMismatch
}

// CanManageRole verifies the acting user may modify someone holding the
// target role. Strictly-greater hierarchy, so peers cannot manage peers.
func (a *Authorizer) CanManageRole(ctx context.Context, actor *Actor, target rbac.Role) error {
	role, ok := actor.Role()
	if !ok {
		return a.deny(ctx, actor, rbac.PermUsersManageRoles)
	}
	if !rbac.CanManageRole(role, target) {
		return a.deny(ctx, actor, rbac.PermUsersManageRoles)
	}
	return nil
}

func (a *Authorizer) deny(ctx context.Context, actor *Actor, permission rbac.Permission) error {
	entrepriseID := ""
	role := rbac.Role("")
	if actor.Profil != nil {
		role = actor.Profil.Role
		if actor.Profil.EntrepriseID != nil {
			entrepriseID = *actor.Profil.EntrepriseID
		}
	}
	a.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypePermissionDenied,
		EntrepriseID: entrepriseID,
		ActorID:      actor.UserID,
		Metadata: map[string]any{
			audit.AttrPermission: string(permission),
			audit.AttrRole:       string(role),
		},
	})
	if a.metrics != nil {
		a.metrics.Denials.Add(ctx, 1)
	}
	return ErrPermissionDenied
}
