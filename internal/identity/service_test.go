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
	"testing"
	"time"

	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/rbac"
)

// MockUserRepository is a simple in-memory implementation of UserRepository
type MockUserRepository struct {
	users       map[string]*User
	credentials map[string]*Credentials
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:       make(map[string]*User),
		credentials: make(map[string]*Credentials),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *User) error {
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) AddCredentials(ctx context.Context, credentials *Credentials) error {
	m.credentials[credentials.UserID] = credentials
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *User) error {
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) UpdateLockout(ctx context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.FailedLoginAttempts = failedAttempts
	u.LockedUntil = lockedUntil
	return nil
}

func (m *MockUserRepository) GetCredentials(ctx context.Context, userID string) (*Credentials, error) {
	c, ok := m.credentials[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return c, nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	c, ok := m.credentials[userID]
	if !ok {
		return ErrUserNotFound
	}
	c.PasswordHash = passwordHash
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

// MockProfilRepository is a simple in-memory implementation of ProfilRepository
type MockProfilRepository struct {
	profils map[string]*Profil
}

func NewMockProfilRepository() *MockProfilRepository {
	return &MockProfilRepository{profils: make(map[string]*Profil)}
}

func (m *MockProfilRepository) Create(ctx context.Context, profil *Profil) error {
	m.profils[profil.ID] = profil
	return nil
}

func (m *MockProfilRepository) GetByID(ctx context.Context, id string) (*Profil, error) {
	p, ok := m.profils[id]
	if !ok {
		return nil, ErrProfilNotFound
	}
	return p, nil
}

func (m *MockProfilRepository) Update(ctx context.Context, profil *Profil) error {
	m.profils[profil.ID] = profil
	return nil
}

func (m *MockProfilRepository) UpdateStatut(ctx context.Context, id string, statut Statut) error {
	p, ok := m.profils[id]
	if !ok {
		return ErrProfilNotFound
	}
	p.Statut = statut
	return nil
}

func (m *MockProfilRepository) UpdateRole(ctx context.Context, id string, role rbac.Role) error {
	p, ok := m.profils[id]
	if !ok {
		return ErrProfilNotFound
	}
	p.Role = role
	return nil
}

func (m *MockProfilRepository) AttachEntreprise(ctx context.Context, id, entrepriseID string) error {
	p, ok := m.profils[id]
	if !ok {
		return ErrProfilNotFound
	}
	p.EntrepriseID = &entrepriseID
	return nil
}

func (m *MockProfilRepository) TouchDerniereConnexion(ctx context.Context, id string, at time.Time) error {
	p, ok := m.profils[id]
	if !ok {
		return ErrProfilNotFound
	}
	p.DerniereConnexion = &at
	return nil
}

func newTestService() (*Service, *MockUserRepository, *MockProfilRepository) {
	users := NewMockUserRepository()
	profils := NewMockProfilRepository()
	hasher := NewPasswordHasher(65536, 3, 4, 16, 32)
	s := NewService(users, profils, hasher, audit.NewSlogLogger(), 3, 5*time.Minute)
	return s, users, profils
}

// TestPurpose: Validates the authentication flow, including success, failure,
// and account lockout after multiple failed attempts.
// Scope: Unit Test
// Security: Authentication mechanisms and Brute-force protection (lockout)
// Expected: Successful login for correct credentials, error for wrong
// credentials, and account lockout once the threshold is met.
// Test Case ID: IDN-01
func TestIdentity_Service_Authenticate(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()
	email := "test@example.com"
	password := "SecurePassword123"

	user, _, err := s.Register(ctx, RegisterInput{Email: email, Password: password, Prenom: "Jean", Nom: "Dupont"})
	if err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	authUser, err := s.Authenticate(ctx, email, password)
	if err != nil {
		t.Fatalf("expected success, got err: %v", err)
	}
	if authUser.ID != user.ID {
		t.Errorf("expected user ID %s, got %s", user.ID, authUser.ID)
	}

	_, err = s.Authenticate(ctx, email, "WrongPassword")
	if err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	s.Authenticate(ctx, email, "WrongPassword")          // Total failed: 2
	_, err = s.Authenticate(ctx, email, "WrongPassword") // Total failed: 3 (threshold met)
	if err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for 3rd failed attempt, got %v", err)
	}

	// 4th attempt refuses even the right password
	_, err = s.Authenticate(ctx, email, password)
	if err != ErrAccountLocked {
		t.Errorf("expected ErrAccountLocked, got %v", err)
	}
}

// TestPurpose: Validates that registration fails if a user with the same
// email already exists.
// Scope: Unit Test
// Security: Data Integrity and Unique Constraint Enforcement
// Expected: ErrUserAlreadyExists when the email is already registered.
// Test Case ID: IDN-02
func TestIdentity_Service_Register_Conflict(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	_, _, err := s.Register(ctx, RegisterInput{Email: "conflict@example.com", Password: "SecurePassword123"})
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, err = s.Register(ctx, RegisterInput{Email: "Conflict@Example.com", Password: "SecurePassword123"})
	if err != ErrUserAlreadyExists {
		t.Errorf("expected ErrUserAlreadyExists, got %v", err)
	}
}

// TestPurpose: Validates that registration provisions an employe profil with
// no entreprise, leaving tenant attachment to onboarding.
// Scope: Unit Test
// Security: Least-privilege defaults for new accounts
// Expected: Profil role is employe, statut actif, entreprise unset.
// Test Case ID: IDN-03
func TestIdentity_Service_Register_DefaultProfil(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	user, profil, err := s.Register(ctx, RegisterInput{
		Email:    "new@example.com",
		Password: "SecurePassword123",
		Prenom:   "Marie",
		Nom:      "Curie",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if profil.ID != user.ID {
		t.Errorf("profil ID %s does not match user ID %s", profil.ID, user.ID)
	}
	if profil.Role != rbac.RoleEmploye {
		t.Errorf("expected role employe, got %s", profil.Role)
	}
	if profil.Statut != StatutActif {
		t.Errorf("expected statut actif, got %s", profil.Statut)
	}
	if profil.EntrepriseID != nil {
		t.Errorf("expected no entreprise, got %v", *profil.EntrepriseID)
	}
	if got := profil.NomComplet(); got != "Marie Curie" {
		t.Errorf("expected full name 'Marie Curie', got %q", got)
	}
}

func TestIdentity_Service_Register_Validation(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	_, _, err := s.Register(ctx, RegisterInput{Email: "not-an-email", Password: "SecurePassword123"})
	if err != ErrInvalidEmail {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
	_, _, err = s.Register(ctx, RegisterInput{Email: "ok@example.com", Password: "short"})
	if err != ErrWeakPassword {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
}

// TestPurpose: Validates that a missing profil surfaces as a distinct
// not-provisioned state rather than a generic lookup failure.
// Scope: Unit Test
// Security: Session resolution correctness
// Expected: ErrProfilNotProvisioned for a user without a profil.
// Test Case ID: IDN-04
func TestIdentity_Service_GetProfil_NotProvisioned(t *testing.T) {
	s, users, _ := newTestService()
	ctx := context.Background()

	// A user created outside Register has no profil.
	_ = users.Create(ctx, &User{ID: "u-orphan", Email: "orphan@example.com"})

	_, err := s.GetProfil(ctx, "u-orphan")
	if err != ErrProfilNotProvisioned {
		t.Errorf("expected ErrProfilNotProvisioned, got %v", err)
	}
}

func TestIdentity_Service_ChangePassword(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()
	email := "pw@example.com"

	user, _, err := s.Register(ctx, RegisterInput{Email: email, Password: "OldPassword123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := s.ChangePassword(ctx, user.ID, "WrongOld", "NewPassword456"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := s.ChangePassword(ctx, user.ID, "OldPassword123", "tiny"); err != ErrWeakPassword {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
	if err := s.ChangePassword(ctx, user.ID, "OldPassword123", "NewPassword456"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := s.Authenticate(ctx, email, "OldPassword123"); err != ErrInvalidCredentials {
		t.Errorf("old password should be rejected, got %v", err)
	}
	if _, err := s.Authenticate(ctx, email, "NewPassword456"); err != nil {
		t.Errorf("new password should authenticate, got %v", err)
	}
}

func TestIdentity_Service_UpdateProfil(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	user, _, err := s.Register(ctx, RegisterInput{Email: "p@example.com", Password: "SecurePassword123", Prenom: "A", Nom: "B"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := s.UpdateProfil(ctx, user.ID, ProfilUpdate{
		Prenom:    "Alice",
		Nom:       "Bernard",
		Poste:     "Responsable stock",
		Telephone: "+33 6 00 00 00 00",
	})
	if err != nil {
		t.Fatalf("update profil: %v", err)
	}
	if updated.NomComplet() != "Alice Bernard" {
		t.Errorf("unexpected name %q", updated.NomComplet())
	}
	if updated.Role != rbac.RoleEmploye {
		t.Errorf("role must not change through profil update, got %s", updated.Role)
	}
}
