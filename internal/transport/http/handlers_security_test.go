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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/authz"
	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/rbac"
	"github.com/invexia/invexia/internal/session"
	"github.com/invexia/invexia/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TRANSPORT SECURITY TESTS
// Category: HTTP API - Authentication, CSRF & Header Hardening
// Type: Unit Test (UT)
// =============================================================================

type memoryUsers struct {
	users       map[string]*identity.User
	byEmail     map[string]string
	credentials map[string]*identity.Credentials
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{
		users:       make(map[string]*identity.User),
		byEmail:     make(map[string]string),
		credentials: make(map[string]*identity.Credentials),
	}
}

func (m *memoryUsers) Create(ctx context.Context, user *identity.User) error {
	m.users[user.ID] = user
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *memoryUsers) AddCredentials(ctx context.Context, credentials *identity.Credentials) error {
	m.credentials[credentials.UserID] = credentials
	return nil
}

func (m *memoryUsers) GetByID(ctx context.Context, id string) (*identity.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return user, nil
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *memoryUsers) Update(ctx context.Context, user *identity.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memoryUsers) UpdateLockout(ctx context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error {
	if user, ok := m.users[userID]; ok {
		user.FailedLoginAttempts = failedAttempts
		user.LockedUntil = lockedUntil
	}
	return nil
}

func (m *memoryUsers) GetCredentials(ctx context.Context, userID string) (*identity.Credentials, error) {
	credentials, ok := m.credentials[userID]
	if !ok {
		return nil, identity.ErrInvalidCredentials
	}
	return credentials, nil
}

func (m *memoryUsers) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if credentials, ok := m.credentials[userID]; ok {
		credentials.PasswordHash = passwordHash
	}
	return nil
}

func (m *memoryUsers) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

type memoryProfils struct {
	profils map[string]*identity.Profil
}

func newMemoryProfils() *memoryProfils {
	return &memoryProfils{profils: make(map[string]*identity.Profil)}
}

func (m *memoryProfils) Create(ctx context.Context, profil *identity.Profil) error {
	m.profils[profil.ID] = profil
	return nil
}

func (m *memoryProfils) GetByID(ctx context.Context, id string) (*identity.Profil, error) {
	profil, ok := m.profils[id]
	if !ok {
		return nil, identity.ErrProfilNotFound
	}
	return profil, nil
}

func (m *memoryProfils) Update(ctx context.Context, profil *identity.Profil) error {
	m.profils[profil.ID] = profil
	return nil
}

func (m *memoryProfils) UpdateStatut(ctx context.Context, id string, statut identity.Statut) error {
	if profil, ok := m.profils[id]; ok {
		profil.Statut = statut
	}
	return nil
}

func (m *memoryProfils) UpdateRole(ctx context.Context, id string, role rbac.Role) error {
	if profil, ok := m.profils[id]; ok {
		profil.Role = role
	}
	return nil
}

func (m *memoryProfils) AttachEntreprise(ctx context.Context, id, entrepriseID string) error {
	if profil, ok := m.profils[id]; ok {
		profil.EntrepriseID = &entrepriseID
	}
	return nil
}

func (m *memoryProfils) TouchDerniereConnexion(ctx context.Context, id string, at time.Time) error {
	if profil, ok := m.profils[id]; ok {
		profil.DerniereConnexion = &at
	}
	return nil
}

type memorySessions struct {
	sessions map[string]*session.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]*session.Session)}
}

func (m *memorySessions) Create(ctx context.Context, s *session.Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *memorySessions) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return s, nil
}

func (m *memorySessions) Update(ctx context.Context, s *session.Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *memorySessions) Delete(ctx context.Context, sessionID string) error {
	delete(m.sessions, sessionID)
	return nil
}

func (m *memorySessions) DeleteByUserID(ctx context.Context, userID string) error {
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *memorySessions) DeleteExpired(ctx context.Context) error {
	for id, s := range m.sessions {
		if s.IsExpired() {
			delete(m.sessions, id)
		}
	}
	return nil
}

// newTestHandler wires identity, session and token services over in-memory
// stores. Domain services stay nil; these tests never reach them.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	auditLogger := audit.NewSlogLogger()
	// Minimal Argon2id parameters keep the tests fast.
	hasher := identity.NewPasswordHasher(8*1024, 1, 1, 16, 32)
	identityService := identity.NewService(newMemoryUsers(), newMemoryProfils(), hasher, auditLogger, 5, 15*time.Minute)
	sessionService := session.NewService(newMemorySessions(), 24*time.Hour, time.Hour)

	tokenManager, err := token.NewManager([]byte("0123456789abcdef0123456789abcdef"), "invexia", "invexia-api", 15*time.Minute)
	require.NoError(t, err)

	return NewHandler(Services{
		Identity: identityService,
		Session:  sessionService,
		Token:    tokenManager,
		Authz:    authz.NewAuthorizer(auditLogger),
	}, auditLogger, SessionConfig{
		CookieName:     "invexia_session",
		CookiePath:     "/",
		CookieSecure:   true,
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	})
}

// registerAndLogin creates an account and returns its session ID.
func registerAndLogin(t *testing.T, h *Handler) (string, string) {
	t.Helper()
	ctx := context.Background()

	user, _, err := h.identityService.Register(ctx, identity.RegisterInput{
		Email:    "marie@acme.fr",
		Password: "secret123",
		Prenom:   "Marie",
		Nom:      "Dubois",
	})
	require.NoError(t, err)

	sess, err := h.sessionService.Create(ctx, user.ID, "127.0.0.1", "test")
	require.NoError(t, err)
	return user.ID, sess.ID
}

// TestPurpose: Validates that requests without a session cookie or bearer token are rejected.
// Scope: Unit Test
// Security: Authentication boundary (CWE-306 Missing Authentication)
// Expected: Returns HTTP 401 Unauthorized.
// Test Case ID: HTTP-01
func TestAuthMiddleware_NoCredentials_ReturnsUnauthorized(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	w := httptest.NewRecorder()

	h.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("HTTP-01: handler must not run without credentials")
	})).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestPurpose: Validates that the X-Entreprise-ID header is rejected on authenticated routes.
// Scope: Unit Test
// Security: Tenant context must come from the profil, never from a client header (CWE-639)
// Expected: Returns HTTP 400 Bad Request and the handler never runs.
// Test Case ID: HTTP-02
func TestAuthMiddleware_EntrepriseHeaderSpoofing_Rejected(t *testing.T) {
	h := newTestHandler(t)
	_, sessionID := registerAndLogin(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "invexia_session", Value: sessionID})
	req.Header.Set("X-Entreprise-ID", "someone-elses-entreprise")
	w := httptest.NewRecorder()

	h.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("HTTP-02: handler must not run when the tenant header is spoofed")
	})).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPurpose: Validates that a valid session cookie resolves an actor into the request context.
// Scope: Unit Test
// Security: Actor resolution correctness
// Expected: The downstream handler sees the actor with the session's user ID.
// Test Case ID: HTTP-03
func TestAuthMiddleware_ValidCookie_ResolvesActor(t *testing.T) {
	h := newTestHandler(t)
	userID, sessionID := registerAndLogin(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "invexia_session", Value: sessionID})
	w := httptest.NewRecorder()

	var seen *authz.Actor
	h.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetActor(r.Context())
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, userID, seen.UserID)
	require.NotNil(t, seen.Profil)
	assert.Equal(t, "Marie Dubois", seen.Profil.NomComplet())
}

// TestPurpose: Validates that a bearer token works only while its backing session exists.
// Scope: Unit Test
// Security: Token revocation through session destruction (CWE-613)
// Expected: The token authenticates before logout and is refused after.
// Test Case ID: HTTP-04
func TestAuthMiddleware_BearerToken_BoundToSession(t *testing.T) {
	h := newTestHandler(t)
	userID, sessionID := registerAndLogin(t, h)

	tokenString, err := h.tokenManager.Issue(userID, sessionID)
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/produits", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	h.AuthMiddleware(next).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "HTTP-04: token must authenticate while the session lives")

	require.NoError(t, h.sessionService.Destroy(context.Background(), sessionID))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/produits", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w = httptest.NewRecorder()
	h.AuthMiddleware(next).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "HTTP-04: destroying the session must revoke the token")
}

// TestPurpose: Validates CSRF enforcement on state-changing cookie-authenticated requests.
// Scope: Unit Test
// Security: Cross-Site Request Forgery protection (CWE-352)
// Expected: POST without X-CSRF-Token is 403; GET and bearer-authenticated POST pass.
// Test Case ID: HTTP-05
func TestCSRFMiddleware_Enforcement(t *testing.T) {
	h := newTestHandler(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	post := httptest.NewRequest(http.MethodPost, "/api/v1/produits", nil)
	w := httptest.NewRecorder()
	h.CSRFMiddleware(next).ServeHTTP(w, post)
	assert.Equal(t, http.StatusForbidden, w.Code, "HTTP-05: POST without CSRF header must be refused")

	post = httptest.NewRequest(http.MethodPost, "/api/v1/produits", nil)
	post.Header.Set("X-CSRF-Token", "present")
	w = httptest.NewRecorder()
	h.CSRFMiddleware(next).ServeHTTP(w, post)
	assert.Equal(t, http.StatusOK, w.Code)

	get := httptest.NewRequest(http.MethodGet, "/api/v1/produits", nil)
	w = httptest.NewRecorder()
	h.CSRFMiddleware(next).ServeHTTP(w, get)
	assert.Equal(t, http.StatusOK, w.Code, "HTTP-05: safe methods are exempt")

	bearer := httptest.NewRequest(http.MethodPost, "/api/v1/produits", nil)
	bearer.Header.Set("Authorization", "Bearer some-token")
	w = httptest.NewRecorder()
	h.CSRFMiddleware(next).ServeHTTP(w, bearer)
	assert.Equal(t, http.StatusOK, w.Code, "HTTP-05: bearer clients cannot be CSRF'd cross-site")
}

// TestPurpose: Validates that malformed JSON bodies are rejected before any service call.
// Scope: Unit Test
// Security: Input sanitization boundary check
// Expected: Returns HTTP 400 Bad Request.
// Test Case ID: HTTP-06
func TestAuth_Register_InvalidBody_ReturnsBadRequest(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Register(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPurpose: Validates that weak passwords are refused at registration.
// Scope: Unit Test
// Security: Password strength validation (prevents weak credentials)
// Expected: Returns HTTP 400 Bad Request for passwords under 8 characters.
// Test Case ID: HTTP-07
func TestAuth_Register_WeakPassword_ReturnsBadRequest(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(RegisterRequest{
		Email:    "marie@acme.fr",
		Password: "short",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Register(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPurpose: Validates that a wrong password yields a generic 401 without detail.
// Scope: Unit Test
// Security: Account enumeration resistance (CWE-204)
// Expected: Returns HTTP 401 with the same body as an unknown account.
// Test Case ID: HTTP-08
func TestAuth_Login_WrongPassword_ReturnsUnauthorized(t *testing.T) {
	h := newTestHandler(t)
	registerAndLogin(t, h)

	body, _ := json.Marshal(LoginRequest{Email: "marie@acme.fr", Password: "wrong-password"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")

	body, _ = json.Marshal(LoginRequest{Email: "ghost@acme.fr", Password: "whatever1"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	w2 := httptest.NewRecorder()
	h.Login(w2, req)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)
	assert.Contains(t, w2.Body.String(), "invalid credentials",
		"HTTP-08: unknown accounts and wrong passwords must be indistinguishable")
}

// TestPurpose: Validates the full login round trip through the router, cookie included.
// Scope: Unit Test
// Security: Session establishment
// Expected: Login sets the session cookie; /auth/me works with it.
// Test Case ID: HTTP-09
func TestRouter_LoginFlow(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h, NewRateLimiter(100, 100))

	body, _ := json.Marshal(RegisterRequest{
		Email:    "paul@acme.fr",
		Password: "secret123",
		Prenom:   "Paul",
		Nom:      "Martin",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	body, _ = json.Marshal(LoginRequest{Email: "paul@acme.fr", Password: "secret123"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "invexia_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "HTTP-09: login must set the session cookie")
	assert.True(t, cookie.HttpOnly)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "paul@acme.fr")
}

// TestPurpose: Validates that the per-IP rate limiter rejects requests over budget.
// Scope: Unit Test
// Security: Brute-force and scraping mitigation (CWE-307)
// Expected: Requests beyond the burst return HTTP 429.
// Test Case ID: HTTP-10
func TestRateLimitMiddleware_OverBudget_Returns429(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])

	// A different IP keeps its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestPurpose: Validates sliding expiration on authenticated requests: a
// cookie-backed request extends the session lifetime, a bearer-backed one
// does not.
// Scope: Unit Test
// Security: Session lifetime management (CWE-613)
// Expected: ExpiresAt jumps to the full TTL after a cookie request and is
// untouched after a bearer request.
// Test Case ID: HTTP-11
func TestAuthMiddleware_CookieRequest_SlidesExpiration(t *testing.T) {
	h := newTestHandler(t)
	_, sessionID := registerAndLogin(t, h)
	ctx := context.Background()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Shrink the stored expiry so the refresh is observable.
	sess, err := h.sessionService.Get(ctx, sessionID)
	require.NoError(t, err)
	sess.ExpiresAt = time.Now().Add(time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "invexia_session", Value: sessionID})
	w := httptest.NewRecorder()
	h.AuthMiddleware(next).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	refreshed, err := h.sessionService.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, refreshed.ExpiresAt.After(time.Now().Add(23*time.Hour)),
		"HTTP-11: cookie request must extend the session to the full TTL")

	// Bearer traffic leaves the interactive session's expiry alone.
	refreshed.ExpiresAt = time.Now().Add(time.Minute)
	bearer, err := h.tokenManager.Issue(refreshed.UserID, sessionID)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+bearer)
	w = httptest.NewRecorder()
	h.AuthMiddleware(next).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	after, err := h.sessionService.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, after.ExpiresAt.Before(time.Now().Add(2*time.Minute)),
		"HTTP-11: bearer request must not slide the session expiry")
}

// TestPurpose: Validates that an authenticated user whose profil is not yet
// provisioned passes the middleware with a nil-profil actor instead of an
// error response.
// Scope: Unit Test
// Security: Provisioning races must not become server errors; the
// authorizer denies gated operations for such actors anyway
// Expected: handler runs, actor present, profil nil.
// Test Case ID: HTTP-12
func TestAuthMiddleware_UnprovisionedProfil_AdmitsNilProfilActor(t *testing.T) {
	h := newTestHandler(t)

	// A session can outlive provisioning: the user row exists but no
	// profil has been created yet.
	sess, err := h.sessionService.Create(context.Background(), "user-sans-profil", "127.0.0.1", "test")
	require.NoError(t, err)

	var actor *authz.Actor
	req := httptest.NewRequest(http.MethodGet, "/api/v1/onboarding", nil)
	req.AddCookie(&http.Cookie{Name: "invexia_session", Value: sess.ID})
	w := httptest.NewRecorder()

	h.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = GetActor(r.Context())
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "provisioning gap must not be a server error")
	require.NotNil(t, actor)
	assert.Equal(t, "user-sans-profil", actor.UserID)
	assert.Nil(t, actor.Profil)
}
