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
	"sync"

	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/tenant"
)

// State is the main resolver state.
type State int

const (
	StateUninitialized State = iota
	StateResolving
	StateUnauthenticated
	// StateAuthenticatedNoProfile means the session is valid but the profil
	// row does not exist yet, typically a provisioning race right after
	// account creation. Callers retry or prompt re-login; it is never a
	// terminal denial.
	StateAuthenticatedNoProfile
	StateAuthenticatedWithProfile
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateResolving:
		return "resolving"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticatedNoProfile:
		return "authenticated_no_profile"
	case StateAuthenticatedWithProfile:
		return "authenticated_with_profile"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the resolver at one instant. Readers get
// copies; only the resolver mutates the underlying state.
type Snapshot struct {
	State      State
	Generation uint64
	UserID     string
	Profil     *identity.Profil
	Entreprise *tenant.Entreprise

	// ProfileRefreshing is orthogonal to State: a profil reload in flight
	// does not revert an authenticated state to resolving.
	ProfileRefreshing bool

	// Err holds the last transient resolution failure, if any. A transient
	// failure never demotes the state to unauthenticated on its own.
	Err error
}

// Authenticated reports whether the snapshot carries a valid session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticatedNoProfile || s.State == StateAuthenticatedWithProfile
}

// Backend loads the data the resolver needs. Implementations wrap the
// session service, the identity service and the tenant repository.
type Backend interface {
	// ResolveUser maps an opaque session ID to its user. Returns
	// ErrSessionNotFound, ErrSessionExpired or ErrSessionInvalid when the
	// session is definitively not valid.
	ResolveUser(ctx context.Context, sessionID string) (*identity.User, error)

	// LoadProfil loads the user's profil. Returns
	// identity.ErrProfilNotProvisioned when the row does not exist yet.
	LoadProfil(ctx context.Context, userID string) (*identity.Profil, error)

	// LoadEntreprise loads the profil's entreprise.
	LoadEntreprise(ctx context.Context, entrepriseID string) (*tenant.Entreprise, error)
}

// Resolver owns the process-wide identity state. It is the single writer;
// everything else reads snapshots. A generation counter guards against a
// stale in-flight resolution overwriting the result of a newer one, such as
// a sign-out racing a slow resolve.
type Resolver struct {
	backend Backend

	mu         sync.Mutex
	generation uint64
	snapshot   Snapshot
}

// NewResolver creates a resolver in the uninitialized state.
func NewResolver(backend Backend) *Resolver {
	return &Resolver{
		backend:  backend,
		snapshot: Snapshot{State: StateUninitialized},
	}
}

// Snapshot returns the current state.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// Resolve resolves a session ID to an authenticated identity. Definitive
// outcomes (no session, no profil, full profil) replace the state; a
// transient backend failure keeps the previous state and surfaces through
// Snapshot.Err so callers can offer a retry instead of logging a valid user
// out.
func (r *Resolver) Resolve(ctx context.Context, sessionID string) Snapshot {
	r.mu.Lock()
	r.generation++
	gen := r.generation
	prev := r.snapshot
	r.snapshot = Snapshot{
		State:      StateResolving,
		Generation: gen,
		UserID:     prev.UserID,
		Profil:     prev.Profil,
		Entreprise: prev.Entreprise,
	}
	r.mu.Unlock()

	next := r.resolve(ctx, sessionID, prev)
	next.Generation = gen

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != gen {
		// A newer resolution or sign-out superseded this one.
		return r.snapshot
	}
	r.snapshot = next
	return next
}

func (r *Resolver) resolve(ctx context.Context, sessionID string, prev Snapshot) Snapshot {
	if sessionID == "" {
		return Snapshot{State: StateUnauthenticated}
	}

	user, err := r.backend.ResolveUser(ctx, sessionID)
	if err != nil {
		if isDefinitiveSessionError(err) {
			return Snapshot{State: StateUnauthenticated}
		}
		return transient(prev, err)
	}

	profil, err := r.backend.LoadProfil(ctx, user.ID)
	if err != nil {
		if errors.Is(err, identity.ErrProfilNotProvisioned) {
			return Snapshot{State: StateAuthenticatedNoProfile, UserID: user.ID}
		}
		return transient(prev, err)
	}

	var entreprise *tenant.Entreprise
	if profil.EntrepriseID != nil && *profil.EntrepriseID != "" {
		entreprise, err = r.backend.LoadEntreprise(ctx, *profil.EntrepriseID)
		if err != nil {
			return transient(prev, err)
		}
	}

	return Snapshot{
		State:      StateAuthenticatedWithProfile,
		UserID:     user.ID,
		Profil:     profil,
		Entreprise: entreprise,
	}
}

// RefreshProfile reloads the profil without reverting the main state to
// resolving. Last write wins when callers race; the store is the source of
// truth. No-op unless a session is established.
func (r *Resolver) RefreshProfile(ctx context.Context) Snapshot {
	r.mu.Lock()
	if !r.snapshot.Authenticated() {
		snap := r.snapshot
		r.mu.Unlock()
		return snap
	}
	gen := r.generation
	userID := r.snapshot.UserID
	r.snapshot.ProfileRefreshing = true
	prev := r.snapshot
	r.mu.Unlock()

	next := prev
	next.ProfileRefreshing = false
	next.Err = nil

	profil, err := r.backend.LoadProfil(ctx, userID)
	switch {
	case err == nil:
		next.State = StateAuthenticatedWithProfile
		next.Profil = profil
		next.Entreprise = nil
		if profil.EntrepriseID != nil && *profil.EntrepriseID != "" {
			entreprise, eerr := r.backend.LoadEntreprise(ctx, *profil.EntrepriseID)
			if eerr != nil {
				next = prev
				next.ProfileRefreshing = false
				next.Err = eerr
			} else {
				next.Entreprise = entreprise
			}
		}
	case errors.Is(err, identity.ErrProfilNotProvisioned):
		next.State = StateAuthenticatedNoProfile
		next.Profil = nil
		next.Entreprise = nil
	default:
		// Transient failure keeps the previous profil.
		next = prev
		next.ProfileRefreshing = false
		next.Err = err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != gen {
		return r.snapshot
	}
	next.Generation = gen
	r.snapshot = next
	return next
}

// SignOut discards all cached identity state immediately. Bumping the
// generation invalidates any resolution still in flight.
func (r *Resolver) SignOut() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.snapshot = Snapshot{State: StateUnauthenticated, Generation: r.generation}
	return r.snapshot
}

func transient(prev Snapshot, err error) Snapshot {
	next := prev
	if next.State == StateUninitialized || next.State == StateResolving {
		// Nothing usable to fall back to, but still distinguishable from a
		// definitive sign-out.
		next = Snapshot{State: StateUninitialized}
	}
	next.ProfileRefreshing = false
	next.Err = err
	return next
}

func isDefinitiveSessionError(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrSessionInvalid)
}
