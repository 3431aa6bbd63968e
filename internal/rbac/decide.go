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

// HasPermission reports whether the role's grant set contains the
// permission. Pure and total: unknown roles have no grants. Callers decide
// what "no role yet" means; this function always requires a concrete value.
func HasPermission(role Role, permission Permission) bool {
	grants, ok := roleGrants[role]
	if !ok {
		return false
	}
	_, ok = grants[permission]
	return ok
}

// HasAllPermissions reports whether every permission is granted.
// An empty list is vacuously true.
func HasAllPermissions(role Role, permissions []Permission) bool {
	for _, p := range permissions {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}

// HasAnyPermission reports whether at least one permission is granted.
// An empty list is false.
func HasAnyPermission(role Role, permissions []Permission) bool {
	for _, p := range permissions {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// CanManageRole reports whether an actor role may modify, suspend, or
// promote an account holding the target role. Strictly greater: peers never
// manage each other, and no role manages itself. Callers must separately
// refuse actor==target *identity* before consulting this gate.
func CanManageRole(actingRole, targetRole Role) bool {
	return hierarchy[actingRole] > hierarchy[targetRole]
}
