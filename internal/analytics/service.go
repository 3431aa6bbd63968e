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

package analytics

import (
	"context"
	"fmt"

	"github.com/invexia/invexia/internal/authz"
	"github.com/invexia/invexia/internal/rbac"
)

const (
	recentProduitsLimit = 5
	recentActivityLimit = 10
	topProduitsLimit    = 4
)

// Service is the authoritative analytics API. Basic dashboard figures need
// analytics:view; the breakdown views need analytics:advanced.
type Service struct {
	repo       Repository
	authorizer *authz.Authorizer
}

// NewService creates an analytics service.
func NewService(repo Repository, authorizer *authz.Authorizer) *Service {
	return &Service{repo: repo, authorizer: authorizer}
}

// Dashboard assembles the headline stats for the actor's scope.
func (s *Service) Dashboard(ctx context.Context, actor *authz.Actor) (*DashboardStats, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermAnalyticsView); err != nil {
		return nil, err
	}
	filter := actor.Scope()

	stats := &DashboardStats{}
	var err error
	if stats.TotalProduits, err = s.repo.ProduitCount(ctx, filter); err != nil {
		return nil, fmt.Errorf("failed to count produits: %w", err)
	}
	if stats.StockFaible, err = s.repo.LowStockCount(ctx, filter); err != nil {
		return nil, fmt.Errorf("failed to count low stock: %w", err)
	}
	if stats.ValeurStock, err = s.repo.StockValue(ctx, filter); err != nil {
		return nil, fmt.Errorf("failed to sum stock value: %w", err)
	}
	if stats.Membres, err = s.repo.MemberCount(ctx, filter); err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	if stats.TicketsOuverts, err = s.repo.OpenTicketCount(ctx, filter); err != nil {
		return nil, fmt.Errorf("failed to count open tickets: %w", err)
	}
	return stats, nil
}

// RecentProduits returns the latest catalogue additions in scope.
func (s *Service) RecentProduits(ctx context.Context, actor *authz.Actor) ([]RecentProduit, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermAnalyticsView); err != nil {
		return nil, err
	}
	produits, err := s.repo.RecentProduits(ctx, actor.Scope(), recentProduitsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent produits: %w", err)
	}
	return produits, nil
}

// RecentActivity returns the latest audit journal lines in scope. Reading
// the activity feed requires the audit:view grant on top of analytics:view
// since it exposes journal content.
func (s *Service) RecentActivity(ctx context.Context, actor *authz.Actor) ([]ActivityItem, error) {
	if err := s.authorizer.AuthorizeAll(ctx, actor, rbac.PermAnalyticsView, rbac.PermAuditView); err != nil {
		return nil, err
	}
	items, err := s.repo.RecentActivity(ctx, actor.Scope(), recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activity: %w", err)
	}
	return items, nil
}

// CategorieBreakdown returns stock distribution per categorie.
func (s *Service) CategorieBreakdown(ctx context.Context, actor *authz.Actor) ([]CategorieMix, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermAnalyticsAdvanced); err != nil {
		return nil, err
	}
	mix, err := s.repo.CategorieBreakdown(ctx, actor.Scope())
	if err != nil {
		return nil, fmt.Errorf("failed to compute categorie breakdown: %w", err)
	}
	return mix, nil
}

// TopProduits ranks products by carried stock value.
func (s *Service) TopProduits(ctx context.Context, actor *authz.Actor) ([]TopProduit, error) {
	if err := s.authorizer.Authorize(ctx, actor, rbac.PermAnalyticsAdvanced); err != nil {
		return nil, err
	}
	top, err := s.repo.TopProduits(ctx, actor.Scope(), topProduitsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank produits: %w", err)
	}
	return top, nil
}
