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
	"testing"

	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/rbac"
	"github.com/invexia/invexia/internal/session"
	"github.com/stretchr/testify/assert"
)

func snapshotWith(state session.State, role rbac.Role) session.Snapshot {
	snap := session.Snapshot{State: state}
	if state == session.StateAuthenticatedWithProfile {
		entrepriseID := "ent-1"
		snap.UserID = "u-1"
		snap.Profil = &identity.Profil{
			ID:           "u-1",
			EntrepriseID: &entrepriseID,
			Role:         role,
			Statut:       identity.StatutActif,
		}
	}
	return snap
}

// TestPurpose: Validates the display guard's optimistic-allow policy: gated
// regions render while identity is loading, and resolve to the real
// decision afterwards.
// Scope: Unit Test
// Security: UI convenience only; the server re-checks every operation
// Expected: allow while resolving or refreshing, deny for unauthenticated
// and unprovisioned, role decision otherwise.
// Test Case ID: GRD-01
func TestGuard(t *testing.T) {
	assert.True(t, Guard(snapshotWith(session.StateResolving, ""), ModeAll, rbac.PermAuditDelete),
		"optimistic allow while resolving")
	assert.False(t, Guard(snapshotWith(session.StateUninitialized, ""), ModeAll, rbac.PermInventoryView))
	assert.False(t, Guard(snapshotWith(session.StateUnauthenticated, ""), ModeAll, rbac.PermInventoryView))
	assert.False(t, Guard(snapshotWith(session.StateAuthenticatedNoProfile, ""), ModeAll, rbac.PermInventoryView))

	manager := snapshotWith(session.StateAuthenticatedWithProfile, rbac.RoleManager)
	assert.True(t, Guard(manager, ModeAll, rbac.PermInventoryView, rbac.PermInventoryEdit))
	assert.False(t, Guard(manager, ModeAll, rbac.PermInventoryView, rbac.PermEntrepriseManage))
	assert.True(t, Guard(manager, ModeAny, rbac.PermEntrepriseManage, rbac.PermInventoryView))
	assert.False(t, Guard(manager, ModeAny, rbac.PermEntrepriseManage, rbac.PermAuditDelete))

	// Empty permission lists keep the decision-function semantics.
	assert.True(t, Guard(manager, ModeAll))
	assert.False(t, Guard(manager, ModeAny))

	// A refresh in flight keeps rendering with optimistic allow.
	refreshing := manager
	refreshing.ProfileRefreshing = true
	assert.True(t, Guard(refreshing, ModeAll, rbac.PermEntrepriseManage))
}

func TestGuard_SuspendedProfil(t *testing.T) {
	snap := snapshotWith(session.StateAuthenticatedWithProfile, rbac.RoleAdmin)
	snap.Profil.Statut = identity.StatutSuspendu
	assert.False(t, Guard(snap, ModeAll, rbac.PermInventoryView))
}

// TestPurpose: Validates page-level decisions: loading indicator during
// resolution, login redirect when unauthenticated, in-place denial when the
// role lacks the page's permission.
// Scope: Unit Test
// Security: Route protection semantics
// Expected: the decision matching each resolver state.
// Test Case ID: GRD-02
func TestPageGuard(t *testing.T) {
	assert.Equal(t, PageLoading, PageGuard(snapshotWith(session.StateUninitialized, "")))
	assert.Equal(t, PageLoading, PageGuard(snapshotWith(session.StateResolving, "")))
	assert.Equal(t, PageRedirectToLogin, PageGuard(snapshotWith(session.StateUnauthenticated, "")))

	// No profile yet: tolerated for unrestricted pages, loading for gated ones.
	noProfile := snapshotWith(session.StateAuthenticatedNoProfile, "")
	assert.Equal(t, PageProceed, PageGuard(noProfile))
	assert.Equal(t, PageLoading, PageGuard(noProfile, rbac.PermInventoryView))

	employe := snapshotWith(session.StateAuthenticatedWithProfile, rbac.RoleEmploye)
	assert.Equal(t, PageProceed, PageGuard(employe, rbac.PermInventoryView))
	assert.Equal(t, PageDenied, PageGuard(employe, rbac.PermUsersManageRoles))
}

// TestPurpose: Validates the public-route allowlist and the login redirect
// return-path preservation.
// Scope: Unit Test
// Security: Only the fixed auth and legal entry points bypass the
// authentication redirect (no open-redirect surface)
// Expected: allowlisted prefixes pass, everything else does not, and the
// redirect URL escapes the requested path.
// Test Case ID: GRD-03
func TestPublicPath(t *testing.T) {
	assert.True(t, PublicPath("/auth/login"))
	assert.True(t, PublicPath("/auth/inscription-succes"))
	assert.True(t, PublicPath("/auth/callback?code=abc"))
	assert.True(t, PublicPath("/confidentialite"))

	assert.False(t, PublicPath("/"))
	assert.False(t, PublicPath("/dashboard"))
	assert.False(t, PublicPath("/inventaire/produits"))
	assert.False(t, PublicPath("/authx"))
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/auth/login?redirect=%2F", LoginRedirect(""))
	assert.Equal(t, "/auth/login?redirect=%2Finventaire%2Fproduits", LoginRedirect("/inventaire/produits"))
}
