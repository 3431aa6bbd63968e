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

package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/id"
	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/rbac"
)

// Service provides entreprise management business logic.
type Service struct {
	repo        Repository
	profilRepo  identity.ProfilRepository
	auditLogger audit.Logger
}

// NewService creates a new entreprise service.
func NewService(repo Repository, profilRepo identity.ProfilRepository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		profilRepo:  profilRepo,
		auditLogger: auditLogger,
	}
}

// CompleteOnboarding is the new-tenant signup transaction: it creates the
// entreprise and makes the creator its manager. The owner role is assigned
// here, server-side, unconditionally. Any role the client asserted at
// signup is ignored.
func (s *Service) CompleteOnboarding(ctx context.Context, userID, nom string) (*Entreprise, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	nom = strings.TrimSpace(nom)
	if nom == "" {
		return nil, fmt.Errorf("entreprise nom is required")
	}

	profil, err := s.profilRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, identity.ErrProfilNotProvisioned
	}
	if profil.EntrepriseID != nil && *profil.EntrepriseID != "" {
		return nil, fmt.Errorf("profil already belongs to an entreprise")
	}

	slug := Slugify(nom)
	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return nil, ErrSlugTaken
	}

	now := time.Now()
	entreprise := &Entreprise{
		ID:                 id.NewUUIDv7(),
		Nom:                nom,
		Slug:               slug,
		Plan:               PlanFree,
		Statut:             StatusActive,
		OnboardingComplete: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, entreprise); err != nil {
		return nil, fmt.Errorf("failed to create entreprise: %w", err)
	}

	if err := s.profilRepo.AttachEntreprise(ctx, userID, entreprise.ID); err != nil {
		return nil, fmt.Errorf("failed to attach profil to entreprise: %w", err)
	}
	if err := s.profilRepo.UpdateRole(ctx, userID, rbac.RoleManager); err != nil {
		return nil, fmt.Errorf("failed to assign owner role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeEntrepriseCreated,
		EntrepriseID: entreprise.ID,
		ActorID:      userID,
		Resource:     "entreprise",
		Metadata:     map[string]any{"nom": nom, "slug": slug},
	})

	return entreprise, nil
}

// GetEntreprise retrieves an entreprise the filter allows.
func (s *Service) GetEntreprise(ctx context.Context, filter Filter, entrepriseID string) (*Entreprise, error) {
	if !filter.Allows(entrepriseID) {
		return nil, ErrEntrepriseNotFound
	}
	return s.repo.GetByID(ctx, entrepriseID)
}

// ListEntreprises lists entreprises visible through the filter. For the
// platform admin this is every tenant; for anyone else at most their own.
func (s *Service) ListEntreprises(ctx context.Context, filter Filter, limit, offset int) ([]*Entreprise, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// UpdateEntreprise applies profile-editable fields (nom, logo).
func (s *Service) UpdateEntreprise(ctx context.Context, filter Filter, actorID string, e *Entreprise) error {
	if !filter.Allows(e.ID) {
		return ErrEntrepriseNotFound
	}
	current, err := s.repo.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	current.Nom = e.Nom
	current.LogoURL = e.LogoURL
	current.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, current); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeEntrepriseUpdated,
		EntrepriseID: current.ID,
		ActorID:      actorID,
		Resource:     "entreprise",
	})
	return nil
}

// ChangePlan and SetStatus are platform-admin operations; the transport
// layer gates them on entreprise:manage before they are reached.
func (s *Service) ChangePlan(ctx context.Context, actorID, entrepriseID, plan string) error {
	if plan != PlanFree && plan != PlanPro && plan != PlanEnterprise {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, plan)
	}
	e, err := s.repo.GetByID(ctx, entrepriseID)
	if err != nil {
		return err
	}
	e.Plan = plan
	e.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, e); err != nil {
		return err
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeEntrepriseUpdated,
		EntrepriseID: entrepriseID,
		ActorID:      actorID,
		Resource:     "plan",
		Metadata:     map[string]any{"plan": plan},
	})
	return nil
}

func (s *Service) SetStatus(ctx context.Context, actorID, entrepriseID, status string) error {
	if status != StatusActive && status != StatusSuspended {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	e, err := s.repo.GetByID(ctx, entrepriseID)
	if err != nil {
		return err
	}
	e.Statut = status
	e.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, e); err != nil {
		return err
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeEntrepriseUpdated,
		EntrepriseID: entrepriseID,
		ActorID:      actorID,
		Resource:     "statut",
		Metadata:     map[string]any{"statut": status},
	})
	return nil
}

// Slugify derives a URL-safe slug from an entreprise name.
func Slugify(nom string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(nom) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
