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
	"errors"
	"testing"

	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/rbac"
	"github.com/invexia/invexia/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	users       map[string]*identity.User // keyed by session ID
	profils     map[string]*identity.Profil
	entreprises map[string]*tenant.Entreprise

	userErr       error
	profilErr     error
	entrepriseErr error

	// block, when non-nil, is closed to release a pending ResolveUser call.
	block chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:       make(map[string]*identity.User),
		profils:     make(map[string]*identity.Profil),
		entreprises: make(map[string]*tenant.Entreprise),
	}
}

func (f *fakeBackend) ResolveUser(ctx context.Context, sessionID string) (*identity.User, error) {
	if f.block != nil {
		<-f.block
	}
	if f.userErr != nil {
		return nil, f.userErr
	}
	u, ok := f.users[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return u, nil
}

func (f *fakeBackend) LoadProfil(ctx context.Context, userID string) (*identity.Profil, error) {
	if f.profilErr != nil {
		return nil, f.profilErr
	}
	p, ok := f.profils[userID]
	if !ok {
		return nil, identity.ErrProfilNotProvisioned
	}
	return p, nil
}

func (f *fakeBackend) LoadEntreprise(ctx context.Context, entrepriseID string) (*tenant.Entreprise, error) {
	if f.entrepriseErr != nil {
		return nil, f.entrepriseErr
	}
	e, ok := f.entreprises[entrepriseID]
	if !ok {
		return nil, tenant.ErrEntrepriseNotFound
	}
	return e, nil
}

func seedAuthenticated(b *fakeBackend) {
	entrepriseID := "ent-1"
	b.users["sess-1"] = &identity.User{ID: "u-1", Email: "u@example.com"}
	b.profils["u-1"] = &identity.Profil{
		ID:           "u-1",
		EntrepriseID: &entrepriseID,
		Role:         rbac.RoleManager,
		Statut:       identity.StatutActif,
	}
	b.entreprises["ent-1"] = &tenant.Entreprise{ID: "ent-1", Nom: "Acme"}
}

// TestPurpose: Validates the main resolver transitions: full profile,
// missing session, and the provisioning race where the session is valid but
// the profil row does not exist yet.
// Scope: Unit Test
// Security: Session resolution correctness
// Expected: with-profile / unauthenticated / no-profile states as seeded.
// Test Case ID: SES-01
func TestResolver_Resolve_States(t *testing.T) {
	b := newFakeBackend()
	seedAuthenticated(b)
	r := NewResolver(b)

	assert.Equal(t, StateUninitialized, r.Snapshot().State)

	snap := r.Resolve(context.Background(), "sess-1")
	require.Equal(t, StateAuthenticatedWithProfile, snap.State)
	assert.Equal(t, "u-1", snap.UserID)
	require.NotNil(t, snap.Profil)
	assert.Equal(t, rbac.RoleManager, snap.Profil.Role)
	require.NotNil(t, snap.Entreprise)
	assert.Equal(t, "ent-1", snap.Entreprise.ID)

	snap = r.Resolve(context.Background(), "no-such-session")
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Nil(t, snap.Profil)

	// Valid session, profil not provisioned yet.
	b.users["sess-2"] = &identity.User{ID: "u-2", Email: "new@example.com"}
	snap = r.Resolve(context.Background(), "sess-2")
	assert.Equal(t, StateAuthenticatedNoProfile, snap.State)
	assert.Equal(t, "u-2", snap.UserID)
	assert.Nil(t, snap.Profil)
	assert.NoError(t, snap.Err)
}

func TestResolver_Resolve_EmptySessionID(t *testing.T) {
	r := NewResolver(newFakeBackend())
	snap := r.Resolve(context.Background(), "")
	assert.Equal(t, StateUnauthenticated, snap.State)
}

// TestPurpose: Validates that a transient backing-store failure never
// demotes an authenticated user to unauthenticated.
// Scope: Unit Test
// Security: Availability failures must not look like sign-outs
// Expected: previous state retained, failure surfaced via Snapshot.Err.
// Test Case ID: SES-02
func TestResolver_TransientFailureKeepsState(t *testing.T) {
	b := newFakeBackend()
	seedAuthenticated(b)
	r := NewResolver(b)

	snap := r.Resolve(context.Background(), "sess-1")
	require.Equal(t, StateAuthenticatedWithProfile, snap.State)

	b.userErr = errors.New("connection refused")
	snap = r.Resolve(context.Background(), "sess-1")
	assert.Equal(t, StateAuthenticatedWithProfile, snap.State, "transient failure must not sign the user out")
	assert.Error(t, snap.Err)
	require.NotNil(t, snap.Profil)

	// Next successful resolve clears the error.
	b.userErr = nil
	snap = r.Resolve(context.Background(), "sess-1")
	assert.Equal(t, StateAuthenticatedWithProfile, snap.State)
	assert.NoError(t, snap.Err)
}

func TestResolver_TransientFailureBeforeFirstResolve(t *testing.T) {
	b := newFakeBackend()
	b.userErr = errors.New("timeout")
	r := NewResolver(b)

	snap := r.Resolve(context.Background(), "sess-1")
	assert.Equal(t, StateUninitialized, snap.State, "must stay distinguishable from a definitive sign-out")
	assert.Error(t, snap.Err)
}

// TestPurpose: Validates that profile refresh is orthogonal to the main
// state and that a transient refresh failure keeps the previous profil.
// Scope: Unit Test
// Security: Single-writer session state discipline
// Expected: role change visible after refresh; failure keeps old profil.
// Test Case ID: SES-03
func TestResolver_RefreshProfile(t *testing.T) {
	b := newFakeBackend()
	seedAuthenticated(b)
	r := NewResolver(b)

	snap := r.Resolve(context.Background(), "sess-1")
	require.Equal(t, StateAuthenticatedWithProfile, snap.State)

	b.profils["u-1"].Role = rbac.RoleAdmin
	snap = r.RefreshProfile(context.Background())
	assert.Equal(t, StateAuthenticatedWithProfile, snap.State)
	assert.Equal(t, rbac.RoleAdmin, snap.Profil.Role)
	assert.False(t, snap.ProfileRefreshing)

	b.profilErr = errors.New("connection reset")
	snap = r.RefreshProfile(context.Background())
	assert.Equal(t, StateAuthenticatedWithProfile, snap.State)
	require.NotNil(t, snap.Profil, "transient refresh failure keeps the previous profil")
	assert.Error(t, snap.Err)
}

func TestResolver_RefreshProfile_ProfilDeleted(t *testing.T) {
	b := newFakeBackend()
	seedAuthenticated(b)
	r := NewResolver(b)

	r.Resolve(context.Background(), "sess-1")
	delete(b.profils, "u-1")

	snap := r.RefreshProfile(context.Background())
	assert.Equal(t, StateAuthenticatedNoProfile, snap.State)
	assert.Nil(t, snap.Profil)
}

func TestResolver_RefreshProfile_RequiresSession(t *testing.T) {
	r := NewResolver(newFakeBackend())
	snap := r.RefreshProfile(context.Background())
	assert.Equal(t, StateUninitialized, snap.State)
}

// TestPurpose: Validates the sign-out round trip and that a stale in-flight
// resolution cannot overwrite a newer sign-out.
// Scope: Unit Test
// Security: Session invalidation and resolution race protection
// Expected: unauthenticated after sign-out, even when an older resolve
// completes afterwards.
// Test Case ID: SES-04
func TestResolver_SignOut_InvalidatesInFlightResolve(t *testing.T) {
	b := newFakeBackend()
	seedAuthenticated(b)
	b.block = make(chan struct{})
	r := NewResolver(b)

	done := make(chan Snapshot, 1)
	go func() {
		done <- r.Resolve(context.Background(), "sess-1")
	}()

	// Sign out while the resolve is parked inside the backend.
	for r.Snapshot().State != StateResolving {
	}
	signedOut := r.SignOut()
	assert.Equal(t, StateUnauthenticated, signedOut.State)

	close(b.block)
	stale := <-done
	assert.Equal(t, StateUnauthenticated, stale.State, "stale resolution must not resurrect the session")
	assert.Equal(t, StateUnauthenticated, r.Snapshot().State)
	assert.Nil(t, r.Snapshot().Profil)
}

func TestResolver_SignOut_DiscardsCachedData(t *testing.T) {
	b := newFakeBackend()
	seedAuthenticated(b)
	r := NewResolver(b)

	snap := r.Resolve(context.Background(), "sess-1")
	require.NotNil(t, snap.Profil)

	snap = r.SignOut()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Nil(t, snap.Profil)
	assert.Nil(t, snap.Entreprise)
	assert.Empty(t, snap.UserID)
}
