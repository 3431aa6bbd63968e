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
	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/rbac"
)

// Filter is the mandatory tenant constraint for a data access. Exactly one
// of three shapes: unrestricted (platform admin), scoped to one entreprise,
// or matching nothing. The zero value matches nothing, so a forgotten filter
// fails closed.
type Filter struct {
	unrestricted bool
	entrepriseID string
}

// Unrestricted is the cross-tenant filter. Only ScopeFilter hands it out.
func Unrestricted() Filter {
	return Filter{unrestricted: true}
}

// Scoped constrains access to a single entreprise.
func Scoped(entrepriseID string) Filter {
	if entrepriseID == "" {
		return MatchNone()
	}
	return Filter{entrepriseID: entrepriseID}
}

// MatchNone matches zero rows.
func MatchNone() Filter {
	return Filter{}
}

// ScopeFilter derives the mandatory filter for a profil. Admin operates
// cross-tenant; everyone else is confined to their own entreprise; a
// non-admin without an entreprise (or no profil at all, or a non-actif
// profil) gets a filter that matches nothing.
func ScopeFilter(p *identity.Profil) Filter {
	if p == nil {
		return MatchNone()
	}
	role, ok := p.EffectiveRole()
	if !ok {
		return MatchNone()
	}
	if role == rbac.RoleAdmin {
		return Unrestricted()
	}
	if p.EntrepriseID == nil || *p.EntrepriseID == "" {
		return MatchNone()
	}
	return Scoped(*p.EntrepriseID)
}

// IsUnrestricted reports whether the filter allows cross-tenant access.
func (f Filter) IsUnrestricted() bool {
	return f.unrestricted
}

// IsMatchNone reports whether the filter matches zero rows.
func (f Filter) IsMatchNone() bool {
	return !f.unrestricted && f.entrepriseID == ""
}

// EntrepriseID returns the tenant the filter is scoped to, if any.
func (f Filter) EntrepriseID() (string, bool) {
	if f.unrestricted || f.entrepriseID == "" {
		return "", false
	}
	return f.entrepriseID, true
}

// Allows reports whether a row belonging to entrepriseID passes the filter.
// Used by services to reject cross-tenant targets before touching the store.
func (f Filter) Allows(entrepriseID string) bool {
	if f.unrestricted {
		return true
	}
	if f.entrepriseID == "" {
		return false
	}
	return f.entrepriseID == entrepriseID
}
