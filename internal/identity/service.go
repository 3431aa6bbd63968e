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
	"fmt"
	"strings"
	"time"

	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/id"
	"github.com/invexia/invexia/internal/rbac"
)

// Service provides identity-related business logic.
type Service struct {
	users              UserRepository
	profils            ProfilRepository
	hasher             *PasswordHasher
	auditLogger        audit.Logger
	lockoutMaxAttempts int
	lockoutDuration    time.Duration
}

// NewService creates a new identity service.
func NewService(
	users UserRepository,
	profils ProfilRepository,
	hasher *PasswordHasher,
	auditLogger audit.Logger,
	lockoutMaxAttempts int,
	lockoutDuration time.Duration,
) *Service {
	return &Service{
		users:              users,
		profils:            profils,
		hasher:             hasher,
		auditLogger:        auditLogger,
		lockoutMaxAttempts: lockoutMaxAttempts,
		lockoutDuration:    lockoutDuration,
	}
}

// RegisterInput carries the fields collected at signup.
type RegisterInput struct {
	Email    string
	Password string
	Prenom   string
	Nom      string
}

// Register creates a user, its password credential and an initial profil.
// The profil starts as an actif employe with no entreprise; onboarding
// attaches the entreprise and promotes the owner afterwards.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, *Profil, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !isValidEmail(email) {
		return nil, nil, ErrInvalidEmail
	}
	if !isStrongPassword(in.Password) {
		return nil, nil, ErrWeakPassword
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, nil, ErrUserAlreadyExists
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:    id.NewUUIDv7(),
		Email: email,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.users.AddCredentials(ctx, &Credentials{
		UserID:       user.ID,
		PasswordHash: passwordHash,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to add credentials: %w", err)
	}

	profil := &Profil{
		ID:     user.ID,
		Prenom: strings.TrimSpace(in.Prenom),
		Nom:    strings.TrimSpace(in.Nom),
		Role:   rbac.RoleEmploye,
		Statut: StatutActif,
	}
	if err := s.profils.Create(ctx, profil); err != nil {
		return nil, nil, fmt.Errorf("failed to create profil: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserCreated,
		ActorID:  user.ID,
		Resource: "user:" + user.ID,
	})

	return user, profil, nil
}

// Authenticate verifies email and password, enforcing the lockout policy.
// Every failure path returns ErrInvalidCredentials or ErrAccountLocked and
// nothing more specific, so callers cannot probe for account existence.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			Resource: email,
			Metadata: map[string]any{audit.AttrReason: "user_not_found"},
		})
		return nil, ErrInvalidCredentials
	}

	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			ActorID:  user.ID,
			Resource: "login",
			Metadata: map[string]any{audit.AttrReason: "locked_out"},
		})
		return nil, ErrAccountLocked
	}

	credentials, err := s.users.GetCredentials(ctx, user.ID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(password, credentials.PasswordHash)
	if err != nil || !valid {
		newAttempts := user.FailedLoginAttempts + 1
		var newLockedUntil *time.Time

		if newAttempts >= s.lockoutMaxAttempts {
			until := time.Now().Add(s.lockoutDuration)
			newLockedUntil = &until
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeUserLocked,
				ActorID:  user.ID,
				Resource: "login",
				Metadata: map[string]any{audit.AttrAttempts: newAttempts},
			})
		}

		_ = s.users.UpdateLockout(ctx, user.ID, newAttempts, newLockedUntil)

		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			ActorID:  user.ID,
			Resource: "login",
			Metadata: map[string]any{
				audit.AttrReason:   "invalid_password",
				audit.AttrAttempts: newAttempts,
			},
		})

		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		_ = s.users.UpdateLockout(ctx, user.ID, 0, nil)
	}

	_ = s.profils.TouchDerniereConnexion(ctx, user.ID, time.Now())

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		ActorID:  user.ID,
		Resource: "login",
	})

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetProfil retrieves a profil by user ID. A missing profil surfaces as
// ErrProfilNotProvisioned: the identity exists but its tenant-facing
// account has not been created yet, which callers treat as a distinct,
// recoverable state rather than a lookup failure.
func (s *Service) GetProfil(ctx context.Context, userID string) (*Profil, error) {
	profil, err := s.profils.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrProfilNotProvisioned
	}
	return profil, nil
}

// ProfilUpdate carries the self-editable profil fields. Role, statut and
// entreprise are deliberately absent: those move only through the team and
// tenant services, which enforce the relevant permissions.
type ProfilUpdate struct {
	Prenom    string
	Nom       string
	AvatarURL string
	Telephone string
	Poste     string
}

// UpdateProfil updates the profil's self-editable fields.
func (s *Service) UpdateProfil(ctx context.Context, userID string, in ProfilUpdate) (*Profil, error) {
	profil, err := s.profils.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrProfilNotFound
	}

	profil.Prenom = strings.TrimSpace(in.Prenom)
	profil.Nom = strings.TrimSpace(in.Nom)
	profil.AvatarURL = in.AvatarURL
	profil.Telephone = in.Telephone
	profil.Poste = in.Poste

	if err := s.profils.Update(ctx, profil); err != nil {
		return nil, fmt.Errorf("failed to update profil: %w", err)
	}
	return profil, nil
}

// ChangePassword changes the user's password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	credentials, err := s.users.GetCredentials(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	valid, err := s.hasher.Verify(oldPassword, credentials.PasswordHash)
	if err != nil || !valid {
		return ErrInvalidCredentials
	}

	if !isStrongPassword(newPassword) {
		return ErrWeakPassword
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePasswordChanged,
		ActorID:  userID,
		Resource: "user:" + userID,
	})
	return nil
}

func isValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return len(email) > 3 && len(email) < 255 && strings.ContainsRune(email[at+1:], '.')
}

func isStrongPassword(password string) bool {
	// Length only. Composition rules push users toward predictable
	// substitutions and are not enforced.
	return len(password) >= 8
}
