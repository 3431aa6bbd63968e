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

package identity

import (
	"context"
	"errors"
	"time"

	"github.com/invexia/invexia/internal/rbac"
)

// Domain errors
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrProfilNotFound       = errors.New("profil not found")
	ErrProfilNotProvisioned = errors.New("profil not provisioned yet")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrWeakPassword         = errors.New("password does not meet security requirements")
	ErrAccountLocked        = errors.New("account is locked")
	ErrAccountNotActive     = errors.New("account is not active")
)

// Statut is the lifecycle state of a profil. Suspension replaces deletion:
// profils are never hard-deleted.
type Statut string

const (
	StatutActif    Statut = "actif"
	StatutInactif  Statut = "inactif"
	StatutSuspendu Statut = "suspendu"
)

// User is the authentication identity. Tenant membership and role live on
// the Profil, which is provisioned separately (possibly later; callers must
// tolerate the gap).
type User struct {
	ID                  string
	Email               string
	EmailVerified       bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

// Credentials holds a user's password hash.
type Credentials struct {
	UserID       string
	PasswordHash string
	UpdatedAt    time.Time
}

// Profil is the tenant-facing account attached to a User. EntrepriseID is
// nil only transiently (before onboarding) or for the platform admin.
type Profil struct {
	ID                string // same value as the owning User.ID
	EntrepriseID      *string
	Prenom            string
	Nom               string
	AvatarURL         string
	Telephone         string
	Poste             string
	Role              rbac.Role
	Statut            Statut
	DerniereConnexion *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NomComplet returns the display name.
func (p *Profil) NomComplet() string {
	if p.Prenom == "" {
		return p.Nom
	}
	return p.Prenom + " " + p.Nom
}

// Actif reports whether the profil may act. A profil whose statut is not
// actif is treated as unauthenticated for every permission check, whatever
// its role. Suspending the platform operator suspends the platform operator.
func (p *Profil) Actif() bool {
	return p.Statut == StatutActif
}

// EffectiveRole returns the role usable for permission checks: the profil's
// role when actif, otherwise no role at all.
func (p *Profil) EffectiveRole() (rbac.Role, bool) {
	if !p.Actif() {
		return "", false
	}
	return p.Role, true
}

// UserRepository defines persistence for authentication identities.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	AddCredentials(ctx context.Context, credentials *Credentials) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdateLockout(ctx context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error
	GetCredentials(ctx context.Context, userID string) (*Credentials, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// ProfilRepository defines persistence for single profils. Tenant-wide
// listing belongs to the team package, where the scope filter applies.
type ProfilRepository interface {
	Create(ctx context.Context, profil *Profil) error
	GetByID(ctx context.Context, id string) (*Profil, error)
	Update(ctx context.Context, profil *Profil) error
	UpdateStatut(ctx context.Context, id string, statut Statut) error
	UpdateRole(ctx context.Context, id string, role rbac.Role) error
	AttachEntreprise(ctx context.Context, id, entrepriseID string) error
	TouchDerniereConnexion(ctx context.Context, id string, at time.Time) error
}
