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

package authz

import (
	"net/url"
	"strings"

	"github.com/invexia/invexia/internal/rbac"
	"github.com/invexia/invexia/internal/session"
)

// Mode selects how a multi-permission guard combines its checks.
type Mode int

const (
	ModeAll Mode = iota
	ModeAny
)

// Guard decides whether a gated region may render for the given resolver
// snapshot. While identity is still loading (initial resolution or a profil
// refresh) it optimistically allows, to avoid flicker; the data behind the
// region is protected by the Authorizer, which re-checks every operation.
// This function is a display convenience, not the security boundary.
func Guard(snap session.Snapshot, mode Mode, permissions ...rbac.Permission) bool {
	if snap.State == session.StateResolving {
		return true
	}
	if snap.Authenticated() && snap.ProfileRefreshing {
		return true
	}

	role, ok := roleOf(snap)
	if !ok {
		return false
	}
	if mode == ModeAny {
		return rbac.HasAnyPermission(role, permissions)
	}
	return rbac.HasAllPermissions(role, permissions)
}

// PageDecision is the outcome of a page-level guard.
type PageDecision int

const (
	// PageProceed renders the page.
	PageProceed PageDecision = iota
	// PageLoading renders a loading indicator while resolution is in flight.
	PageLoading
	// PageRedirectToLogin redirects, preserving the requested path.
	PageRedirectToLogin
	// PageDenied renders an access-denied view in place. Page-level denial
	// is informative, not a silent redirect.
	PageDenied
)

// PageGuard decides how to treat a page request for the given snapshot.
func PageGuard(snap session.Snapshot, required ...rbac.Permission) PageDecision {
	switch snap.State {
	case session.StateUninitialized, session.StateResolving:
		return PageLoading
	case session.StateUnauthenticated:
		return PageRedirectToLogin
	case session.StateAuthenticatedNoProfile:
		// Tolerated transiently: the page may poll for provisioning, but
		// nothing permission-gated renders yet.
		if len(required) == 0 {
			return PageProceed
		}
		return PageLoading
	}

	role, ok := roleOf(snap)
	if !ok {
		return PageDenied
	}
	if !rbac.HasAllPermissions(role, required) {
		return PageDenied
	}
	return PageProceed
}

// publicPaths are the route prefixes reachable without authentication:
// the auth entry points and the legal pages.
var publicPaths = []string{
	"/auth/login",
	"/auth/inscription",
	"/auth/inscription-succes",
	"/auth/erreur",
	"/auth/callback",
	"/auth/reset-password",
	"/auth/update-password",
	"/conditions",
	"/confidentialite",
}

// PublicPath reports whether the path bypasses the authentication redirect.
func PublicPath(path string) bool {
	for _, p := range publicPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// LoginRedirect builds the login URL for a PageRedirectToLogin decision,
// preserving the originally requested path as the return target.
func LoginRedirect(requested string) string {
	if requested == "" {
		requested = "/"
	}
	return "/auth/login?redirect=" + url.QueryEscape(requested)
}

func roleOf(snap session.Snapshot) (rbac.Role, bool) {
	if snap.Profil == nil {
		return "", false
	}
	return snap.Profil.EffectiveRole()
}
