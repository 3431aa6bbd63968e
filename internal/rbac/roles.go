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

package rbac

// Role is one of the closed set of platform roles. The enumeration is never
// extended at runtime.
type Role string

const (
	// RoleAdmin is the Invexia platform operator. Cross-tenant by definition:
	// the tenant-scoping rule exempts it.
	RoleAdmin Role = "admin"

	// RoleManager owns an entreprise and manages its team.
	RoleManager Role = "manager"

	// RoleEmploye is a standard tenant user with day-to-day access.
	RoleEmploye Role = "employe"
)

// rolePermissions is the static grant table. Admin holds the full taxonomy;
// manager and employe hold the operational subsets below. Invariant verified
// by tests: every employe grant is also a manager grant.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: allPermissions,

	RoleManager: {
		PermInventoryView, PermInventoryCreate, PermInventoryEdit,
		PermInventoryDelete, PermInventoryExport,
		PermCategoriesView, PermCategoriesCreate, PermCategoriesEdit,
		PermCategoriesDelete,
		PermUsersView, PermUsersCreate, PermUsersEdit, PermUsersDelete,
		PermUsersInvite,
		PermEntrepriseView, PermEntrepriseEdit,
		PermFournisseursView, PermFournisseursCreate, PermFournisseursEdit,
		PermFournisseursDelete,
		PermCommandesView, PermCommandesCreate, PermCommandesEdit,
		PermCommandesApprove,
		PermAnalyticsView, PermAnalyticsExport,
		PermAuditView, PermAuditExport,
		PermSettingsView, PermSettingsEdit,
		PermNotificationsView, PermNotificationsManage,
	},

	RoleEmploye: {
		PermInventoryView, PermInventoryCreate, PermInventoryEdit,
		PermCategoriesView,
		PermUsersView,
		PermEntrepriseView,
		PermFournisseursView,
		PermCommandesView, PermCommandesCreate, PermCommandesEdit,
		PermAnalyticsView,
		PermNotificationsView,
	},
}

// roleGrants is rolePermissions precomputed as sets for O(1) membership.
var roleGrants = func() map[Role]map[Permission]struct{} {
	m := make(map[Role]map[Permission]struct{}, len(rolePermissions))
	for role, perms := range rolePermissions {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		m[role] = set
	}
	return m
}()

// hierarchy orders roles for management decisions only. Never consult it for
// feature-permission checks; those go through the grant table.
var hierarchy = map[Role]int{
	RoleAdmin:   3,
	RoleManager: 2,
	RoleEmploye: 1,
}

// KnownRole reports whether r belongs to the closed role set.
func KnownRole(r Role) bool {
	_, ok := hierarchy[r]
	return ok
}

// PermissionsFor returns the grant list for a role. Total: an unknown or
// placeholder role (identity resolution can transiently present one) yields
// an empty list, never a panic.
func PermissionsFor(role Role) []Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Labels and descriptions shown by the UI collaborators.
var (
	RoleLabels = map[Role]string{
		RoleAdmin:   "Administrateur Invexia",
		RoleManager: "Manager (Propriétaire)",
		RoleEmploye: "Employé",
	}

	RoleDescriptions = map[Role]string{
		RoleAdmin:   "Accès complet à toutes les entreprises de la plateforme Invexia",
		RoleManager: "Propriétaire d'entreprise - Gestion complète de l'entreprise et des employés",
		RoleEmploye: "Employé - Accès aux opérations quotidiennes de l'entreprise",
	}
)
