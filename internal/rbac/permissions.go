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

// Package rbac is the authorization core: a closed permission taxonomy, the
// role registry, and the pure decision functions gating every privileged
// operation. Nothing here performs I/O; callers resolve the acting role
// first and re-check server-side at the data-access boundary.
package rbac

// Permission is a capability token from the closed `<domain>:<verb>`
// vocabulary below. Tokens are data, not behavior: adding one is a taxonomy
// change, never a runtime decision.
type Permission string

// Inventory
const (
	PermInventoryView   Permission = "inventory:view"
	PermInventoryCreate Permission = "inventory:create"
	PermInventoryEdit   Permission = "inventory:edit"
	PermInventoryDelete Permission = "inventory:delete"
	PermInventoryExport Permission = "inventory:export"
	PermInventoryImport Permission = "inventory:import"
)

// Categories
const (
	PermCategoriesView   Permission = "categories:view"
	PermCategoriesCreate Permission = "categories:create"
	PermCategoriesEdit   Permission = "categories:edit"
	PermCategoriesDelete Permission = "categories:delete"
)

// Users
const (
	PermUsersView        Permission = "users:view"
	PermUsersCreate      Permission = "users:create"
	PermUsersEdit        Permission = "users:edit"
	PermUsersDelete      Permission = "users:delete"
	PermUsersManageRoles Permission = "users:manage_roles"
	PermUsersInvite      Permission = "users:invite"
)

// Entreprise
const (
	PermEntrepriseView   Permission = "entreprise:view"
	PermEntrepriseEdit   Permission = "entreprise:edit"
	PermEntrepriseManage Permission = "entreprise:manage"
)

// Fournisseurs
const (
	PermFournisseursView   Permission = "fournisseurs:view"
	PermFournisseursCreate Permission = "fournisseurs:create"
	PermFournisseursEdit   Permission = "fournisseurs:edit"
	PermFournisseursDelete Permission = "fournisseurs:delete"
)

// Commandes
const (
	PermCommandesView    Permission = "commandes:view"
	PermCommandesCreate  Permission = "commandes:create"
	PermCommandesEdit    Permission = "commandes:edit"
	PermCommandesDelete  Permission = "commandes:delete"
	PermCommandesApprove Permission = "commandes:approve"
)

// Analytics
const (
	PermAnalyticsView     Permission = "analytics:view"
	PermAnalyticsExport   Permission = "analytics:export"
	PermAnalyticsAdvanced Permission = "analytics:advanced"
)

// Audit
const (
	PermAuditView   Permission = "audit:view"
	PermAuditExport Permission = "audit:export"
	PermAuditDelete Permission = "audit:delete"
)

// Settings
const (
	PermSettingsView         Permission = "settings:view"
	PermSettingsEdit         Permission = "settings:edit"
	PermSettingsBilling      Permission = "settings:billing"
	PermSettingsIntegrations Permission = "settings:integrations"
)

// Notifications
const (
	PermNotificationsView   Permission = "notifications:view"
	PermNotificationsManage Permission = "notifications:manage"
)

// allPermissions enumerates the full taxonomy. Kept in declaration order so
// exports and tests are deterministic.
var allPermissions = []Permission{
	PermInventoryView, PermInventoryCreate, PermInventoryEdit,
	PermInventoryDelete, PermInventoryExport, PermInventoryImport,
	PermCategoriesView, PermCategoriesCreate, PermCategoriesEdit,
	PermCategoriesDelete,
	PermUsersView, PermUsersCreate, PermUsersEdit, PermUsersDelete,
	PermUsersManageRoles, PermUsersInvite,
	PermEntrepriseView, PermEntrepriseEdit, PermEntrepriseManage,
	PermFournisseursView, PermFournisseursCreate, PermFournisseursEdit,
	PermFournisseursDelete,
	PermCommandesView, PermCommandesCreate, PermCommandesEdit,
	PermCommandesDelete, PermCommandesApprove,
	PermAnalyticsView, PermAnalyticsExport, PermAnalyticsAdvanced,
	PermAuditView, PermAuditExport, PermAuditDelete,
	PermSettingsView, PermSettingsEdit, PermSettingsBilling,
	PermSettingsIntegrations,
	PermNotificationsView, PermNotificationsManage,
}

var permissionSet = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(allPermissions))
	for _, p := range allPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// AllPermissions returns a copy of the full taxonomy.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// Valid reports whether p belongs to the taxonomy.
func Valid(p Permission) bool {
	_, ok := permissionSet[p]
	return ok
}
