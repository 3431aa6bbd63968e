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

package http

import "net/http"

// Dashboard returns the headline figures for the actor's entreprise.
// @Summary Dashboard Stats
// @Tags Analytics
// @Produce json
// @Security CookieAuth
// @Success 200 {object} analytics.DashboardStats
// @Failure 403 {object} map[string]string
// @Router /analytics/dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analyticsService.Dashboard(r.Context(), GetActor(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// RecentProduits returns the latest additions to the inventory.
// @Summary Recent Produits
// @Tags Analytics
// @Produce json
// @Security CookieAuth
// @Success 200 {array} analytics.RecentProduit
// @Router /analytics/recent-produits [get]
func (h *Handler) RecentProduits(w http.ResponseWriter, r *http.Request) {
	produits, err := h.analyticsService.RecentProduits(r.Context(), GetActor(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, produits)
}

// RecentActivity returns the latest journal-backed activity feed.
// @Summary Recent Activity
// @Tags Analytics
// @Produce json
// @Security CookieAuth
// @Success 200 {array} analytics.ActivityItem
// @Failure 403 {object} map[string]string
// @Router /analytics/activity [get]
func (h *Handler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.analyticsService.RecentActivity(r.Context(), GetActor(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, activity)
}

// CategorieBreakdown returns the stock mix per categorie.
// @Summary Categorie Breakdown
// @Tags Analytics
// @Produce json
// @Security CookieAuth
// @Success 200 {array} analytics.CategorieMix
// @Failure 403 {object} map[string]string
// @Router /analytics/categories [get]
func (h *Handler) CategorieBreakdown(w http.ResponseWriter, r *http.Request) {
	mix, err := h.analyticsService.CategorieBreakdown(r.Context(), GetActor(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mix)
}

// TopProduits returns the highest-value produits.
// @Summary Top Produits
// @Tags Analytics
// @Produce json
// @Security CookieAuth
// @Success 200 {array} analytics.TopProduit
// @Failure 403 {object} map[string]string
// @Router /analytics/top-produits [get]
func (h *Handler) TopProduits(w http.ResponseWriter, r *http.Request) {
	produits, err := h.analyticsService.TopProduits(r.Context(), GetActor(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, produits)
}
