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

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/invexia/invexia/internal/authz"
	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/observability/logger"
)

// Tenant Resolution Principles:
// 1. Tenant context is derived EXCLUSIVELY from the authenticated profil
// 2. No request header, query parameter or body field ever selects a tenant
// 3. The X-Entreprise-ID header is FORBIDDEN and rejected when present
//
// Anti-Patterns (FORBIDDEN):
// - Magic entreprise IDs (e.g., "default", "system", "platform")
// - Accepting entreprise_id from the request payload on writes
// - Hardcoded role checks (use permission checks)

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware resolves the actor for the request. It accepts a session
// cookie or a bearer token; a bearer token is only honored while its backing
// session still exists, so logout revokes API access immediately.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, fromCookie := h.resolveSession(r)
		if sessionID == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		sess, err := h.sessionService.Get(r.Context(), sessionID)
		if h.authzMetrics != nil {
			h.authzMetrics.SessionResolves.Add(r.Context(), 1)
		}
		if err != nil {
			if fromCookie {
				h.clearSessionCookie(w)
			}
			respondError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		// Sliding expiration applies to interactive sessions only.
		if fromCookie {
			if _, err := h.sessionService.Refresh(r.Context(), sessionID); err != nil {
				slog.ErrorContext(r.Context(), "failed to refresh session", logger.Error(err))
			}
		}

		// Security hardening: reject X-Entreprise-ID on authenticated
		// requests. Tenant context comes from the profil, nowhere else.
		if r.Header.Get("X-Entreprise-ID") != "" {
			slog.WarnContext(r.Context(), "entreprise header spoofing attempt detected on authenticated route",
				logger.SessionID(truncateID(sess.ID)),
				logger.UserID(truncateID(sess.UserID)),
			)
			respondError(w, http.StatusBadRequest, "X-Entreprise-ID header is not allowed; entreprise is derived from the profil")
			return
		}

		actor := &authz.Actor{UserID: sess.UserID}
		profil, err := h.identityService.GetProfil(r.Context(), sess.UserID)
		switch {
		case err == nil:
			actor.Profil = profil
		case errors.Is(err, identity.ErrProfilNotProvisioned):
			// Authenticated but not onboarded. Only the onboarding and
			// profile endpoints accept such an actor; everything else
			// fails inside the authorizer.
		default:
			slog.ErrorContext(r.Context(), "failed to resolve profil", logger.Error(err), logger.UserID(truncateID(sess.UserID)))
			respondError(w, http.StatusInternalServerError, "failed to resolve account")
			return
		}

		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor, sess.ID)))
	})
}

// resolveSession extracts the session ID from the cookie or, failing that,
// from a bearer token. The bool reports whether a cookie supplied it.
func (h *Handler) resolveSession(r *http.Request) (string, bool) {
	if sessionID := h.getSessionFromCookie(r); sessionID != "" {
		return sessionID, true
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	claims, err := h.tokenManager.Validate(strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return "", false
	}
	return claims.SessionID, false
}

// CSRFMiddleware protects against Cross-Site Request Forgery for
// state-changing requests. A custom X-CSRF-Token header is enforced; bearer
// clients are exempt because a browser cannot attach their Authorization
// header cross-site.
func (h *Handler) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions || r.Method == http.MethodTrace {
			next.ServeHTTP(w, r)
			return
		}

		if strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		if r.Header.Get("X-CSRF-Token") == "" {
			slog.WarnContext(r.Context(), "missing CSRF token header", "method", r.Method, "path", r.URL.Path)
			respondError(w, http.StatusForbidden, "CSRF protection: X-CSRF-Token header is required for state-changing operations")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// truncateID shortens an identifier for log output.
func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
