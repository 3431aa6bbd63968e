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

package team

import (
	"context"
	"fmt"

	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/authz"
	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/rbac"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service manages entreprise membership. Every mutation runs the full
// refusal chain before touching the store: permission, then self-target,
// then hierarchy, then tenant.
type Service struct {
	members     MemberRepository
	profils     identity.ProfilRepository
	identities  *identity.Service
	sessions    SessionInvalidator
	authorizer  *authz.Authorizer
	auditLogger audit.Logger
}

// SessionInvalidator revokes every session of a user. Suspension must take
// effect immediately, not at next login.
type SessionInvalidator interface {
	DestroyAllForUser(ctx context.Context, userID string) error
}

// NewService creates a team service.
func NewService(
	members MemberRepository,
	profils identity.ProfilRepository,
	identities *identity.Service,
	sessions SessionInvalidator,
	authorizer *authz.Authorizer,
	auditLogger audit.Logger,
) *Service {
	return &Service{
		members:     members,
		profils:     profils,
		identities:  identities,
		sessions:    sessions,
		authorizer:  authorizer,
		auditLogger: auditLogger,
	}
}

// ListMembers lists the actor's visible team members.
func (s *Service) ListMembers(ctx context.Context, actor *authz.Actor, limit, offset int) ([]*identity.Profil, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermUsersView); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	members, err := s.members.List(ctx, actor.Scope(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// GetMember fetches one member within the actor's scope.
func (s *Service) GetMember(ctx context.Context, actor *authz.Actor, memberID string) (*identity.Profil, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermUsersView); err != nil {
		return nil, err
	}
	return s.loadMember(ctx, actor, memberID)
}

// InviteInput carries the fields of a member invitation.
type InviteInput struct {
	Email    string
	Password string
	Prenom   string
	Nom      string
	Role     rbac.Role
	Poste    string
}

// InviteMember creates an account inside the actor's entreprise. The
// invitee's role must be manageable by the actor, so a manager can invite
// an employe but never a peer manager or an admin.
func (s *Service) InviteMember(ctx context.Context, actor *authz.Actor, in InviteInput) (*identity.Profil, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermUsersInvite); err != nil {
		return nil, err
	}
	if !rbac.KnownRole(in.Role) {
		return nil, ErrUnknownRole
	}
	if err := s.authorizer.CanManageRole(ctx, actor, in.Role); err != nil {
		return nil, err
	}
	entrepriseID, ok := actor.Scope().EntrepriseID()
	if !ok {
		return nil, authz.ErrTenantMismatch
	}

	user, profil, err := s.identities.Register(ctx, identity.RegisterInput{
		Email:    in.Email,
		Password: in.Password,
		Prenom:   in.Prenom,
		Nom:      in.Nom,
	})
	if err != nil {
		return nil, err
	}

	profil.Role = in.Role
	profil.Poste = in.Poste
	profil.EntrepriseID = &entrepriseID
	if err := s.profils.Update(ctx, profil); err != nil {
		return nil, fmt.Errorf("failed to attach invited profil: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeMemberInvited,
		EntrepriseID: entrepriseID,
		ActorID:      actor.UserID,
		Resource:     "user:" + user.ID,
		Metadata:     map[string]any{audit.AttrRole: string(in.Role)},
	})
	return profil, nil
}

// UpdateMemberRole changes a member's role. The self-target check runs
// before the hierarchy gate is even consulted, so self-demotion is refused
// as "own account", not as a hierarchy failure.
func (s *Service) UpdateMemberRole(ctx context.Context, actor *authz.Actor, memberID string, newRole rbac.Role) (*identity.Profil, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermUsersManageRoles); err != nil {
		return nil, err
	}
	if memberID == actor.UserID {
		return nil, ErrSelfTarget
	}
	if !rbac.KnownRole(newRole) {
		return nil, ErrUnknownRole
	}

	member, err := s.loadMember(ctx, actor, memberID)
	if err != nil {
		return nil, err
	}

	// The actor must outrank both the current and the assigned role,
	// otherwise a manager could promote an employe to admin.
	if err := s.authorizer.CanManageRole(ctx, actor, member.Role); err != nil {
		return nil, err
	}
	if err := s.authorizer.CanManageRole(ctx, actor, newRole); err != nil {
		return nil, err
	}

	oldRole := member.Role
	if err := s.profils.UpdateRole(ctx, memberID, newRole); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	member.Role = newRole

	s.auditLogger.Log(ctx, audit.Event{
		Type:         audit.TypeRoleChanged,
		EntrepriseID: entrepriseOf(member),
		ActorID:      actor.UserID,
		Resource:     "user:" + memberID,
		Metadata: map[string]any{
			audit.AttrOldRole: string(oldRole),
			audit.AttrNewRole: string(newRole),
		},
	})
	return member, nil
}

// SuspendMember suspends a member's account and revokes their sessions.
// Suspension replaces deletion; accounts are never hard-deleted.
func (s *Service) SuspendMember(ctx context.Context, actor *authz.Actor, memberID string) error {
	return s.setStatut(ctx, actor, memberID, identity.StatutSuspendu, audit.TypeUserSuspended)
}

// ReactivateMember returns a suspended member to actif.
func (s *Service) ReactivateMember(ctx context.Context, actor *authz.Actor, memberID string) error {
	return s.setStatut(ctx, actor, memberID, identity.StatutActif, audit.TypeUserReactivated)
}

func (s *Service) setStatut(ctx context.Context, actor *authz.Actor, memberID string, statut identity.Statut, eventType string) error {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermUsersEdit); err != nil {
		return err
	}
	if memberID == actor.UserID {
		return ErrSelfTarget
	}

	member, err := s.loadMember(ctx, actor, memberID)
	if err != nil {
		return err
	}
	if err := s.authorizer.CanManageRole(ctx, actor, member.Role); err != nil {
		return err
	}

	if err := s.profils.UpdateStatut(ctx, memberID, statut); err != nil {
		return fmt.Errorf("failed to update statut: %w", err)
	}
	if statut == identity.StatutSuspendu {
		if err := s.sessions.DestroyAllForUser(ctx, memberID); err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:         eventType,
		EntrepriseID: entrepriseOf(member),
		ActorID:      actor.UserID,
		Resource:     "user:" + memberID,
	})
	return nil
}

// RoleBreakdown counts members per role within the actor's scope.
func (s *Service) RoleBreakdown(ctx context.Context, actor *authz.Actor) (map[string]int, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermUsersView); err != nil {
		return nil, err
	}
	counts, err := s.members.CountByRole(ctx, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("failed to count roles: %w", err)
	}
	return counts, nil
}

// loadMember fetches a profil and verifies it sits inside the actor's
// scope. A foreign member is reported as absent, not as forbidden.
func (s *Service) loadMember(ctx context.Context, actor *authz.Actor, memberID string) (*identity.Profil, error) {
	member, err := s.profils.GetByID(ctx, memberID)
	if err != nil {
		return nil, ErrMemberNotFound
	}
	if !actor.Scope().IsUnrestricted() {
		if member.EntrepriseID == nil || !actor.Scope().Allows(*member.EntrepriseID) {
			return nil, ErrMemberNotFound
		}
	}
	return member, nil
}

func entrepriseOf(p *identity.Profil) string {
	if p.EntrepriseID == nil {
		return ""
	}
	return *p.EntrepriseID
}
