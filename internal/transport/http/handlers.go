// @title Invexia API
// @version 1.0.0
// @description Multi-tenant inventory management backend

// @contact.name API Support
// @contact.email support@invexia.example

// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name invexia_session

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/invexia/invexia/internal/analytics"
	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/audit/journal"
	"github.com/invexia/invexia/internal/authz"
	"github.com/invexia/invexia/internal/chat"
	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/inventory"
	"github.com/invexia/invexia/internal/observability/metrics"
	"github.com/invexia/invexia/internal/session"
	"github.com/invexia/invexia/internal/support"
	"github.com/invexia/invexia/internal/team"
	"github.com/invexia/invexia/internal/tenant"
	"github.com/invexia/invexia/internal/token"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService  *identity.Service
	sessionService   *session.Service
	tokenManager     *token.Manager
	authorizer       *authz.Authorizer
	tenantService    *tenant.Service
	inventoryService *inventory.Service
	teamService      *team.Service
	supportService   *support.Service
	chatService      *chat.Service
	analyticsService *analytics.Service
	journalService   *journal.Service
	auditLogger      audit.Logger
	authzMetrics     *metrics.AuthzMetrics
	sessionConfig    SessionConfig
}

// Services bundles the domain services the transport layer fronts.
type Services struct {
	Identity  *identity.Service
	Session   *session.Service
	Token     *token.Manager
	Authz     *authz.Authorizer
	Tenant    *tenant.Service
	Inventory *inventory.Service
	Team      *team.Service
	Support   *support.Service
	Chat      *chat.Service
	Analytics *analytics.Service
	Journal   *journal.Service

	// Metrics is optional; nil disables the transport counters.
	Metrics *metrics.AuthzMetrics
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite http.SameSite
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, auditLogger audit.Logger, sessionConfig SessionConfig) *Handler {
	return &Handler{
		identityService:  services.Identity,
		sessionService:   services.Session,
		tokenManager:     services.Token,
		authorizer:       services.Authz,
		tenantService:    services.Tenant,
		inventoryService: services.Inventory,
		teamService:      services.Team,
		supportService:   services.Support,
		chatService:      services.Chat,
		analyticsService: services.Analytics,
		journalService:   services.Journal,
		auditLogger:      auditLogger,
		authzMetrics:     services.Metrics,
		sessionConfig:    sessionConfig,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)
			r.Use(h.CSRFMiddleware)

			r.Get("/auth/me", h.GetCurrentUser)
			r.Post("/auth/token", h.IssueToken)

			// User profile
			r.Get("/user/profile", h.GetProfile)
			r.Put("/user/profile", h.UpdateProfile)
			r.Post("/user/change-password", h.ChangePassword)

			// Onboarding: the only tenant-creating operation
			r.Post("/onboarding", h.CompleteOnboarding)

			// Entreprise administration
			r.Route("/entreprise", func(r chi.Router) {
				r.Get("/", h.GetEntreprise)
				r.Put("/", h.UpdateEntreprise)
				r.Put("/plan", h.ChangePlan)
				r.Put("/statut", h.SetEntrepriseStatus)
			})
			r.Get("/entreprises", h.ListEntreprises)

			// Inventory
			r.Route("/produits", func(r chi.Router) {
				r.Get("/", h.ListProduits)
				r.Post("/", h.CreateProduit)
				r.Delete("/", h.DeleteProduits)
				r.Get("/low-stock", h.ListLowStock)
				r.Get("/export", h.ExportProduitsCSV)
				r.Route("/{produitID}", func(r chi.Router) {
					r.Get("/", h.GetProduit)
					r.Put("/", h.UpdateProduit)
					r.Delete("/", h.DeleteProduit)
					r.Post("/stock", h.AdjustStock)
				})
			})
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Post("/", h.CreateCategorie)
				r.Put("/{categorieID}", h.UpdateCategorie)
				r.Delete("/{categorieID}", h.DeleteCategorie)
			})

			// Team
			r.Route("/team", func(r chi.Router) {
				r.Get("/", h.ListMembers)
				r.Get("/roles", h.RoleBreakdown)
				r.Post("/invitations", h.InviteMember)
				r.Route("/{memberID}", func(r chi.Router) {
					r.Get("/", h.GetMember)
					r.Put("/role", h.UpdateMemberRole)
					r.Post("/suspend", h.SuspendMember)
					r.Post("/reactivate", h.ReactivateMember)
				})
			})

			// Support tickets
			r.Route("/support/tickets", func(r chi.Router) {
				r.Get("/", h.ListTickets)
				r.Post("/", h.CreateTicket)
				r.Get("/stats", h.TicketStats)
				r.Route("/{ticketID}", func(r chi.Router) {
					r.Get("/", h.GetTicket)
					r.Put("/statut", h.UpdateTicketStatut)
					r.Put("/priorite", h.UpdateTicketPriorite)
					r.Get("/reponses", h.ListReponses)
					r.Post("/reponses", h.AddReponse)
				})
			})

			// Chat
			r.Route("/chat/conversations", func(r chi.Router) {
				r.Get("/", h.ListConversations)
				r.Post("/", h.CreateConversation)
				r.Route("/{conversationID}", func(r chi.Router) {
					r.Get("/", h.GetConversation)
					r.Put("/statut", h.SetConversationStatut)
					r.Get("/messages", h.ListMessages)
					r.Post("/messages", h.SendMessage)
					r.Post("/read", h.MarkConversationRead)
				})
			})

			// Analytics
			r.Route("/analytics", func(r chi.Router) {
				r.Get("/dashboard", h.Dashboard)
				r.Get("/recent-produits", h.RecentProduits)
				r.Get("/activity", h.RecentActivity)
				r.Get("/categories", h.CategorieBreakdown)
				r.Get("/top-produits", h.TopProduits)
			})

			// Audit journal
			r.Route("/journal", func(r chi.Router) {
				r.Get("/", h.ListJournal)
				r.Get("/export", h.ExportJournalCSV)
				r.Post("/purge", h.PurgeJournal)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "invexia",
	})
}

// Helper functions
func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    sessionID,
		Path:     h.sessionConfig.CookiePath,
		Domain:   h.sessionConfig.CookieDomain,
		Secure:   h.sessionConfig.CookieSecure,
		HttpOnly: h.sessionConfig.CookieHTTPOnly,
		SameSite: h.sessionConfig.CookieSameSite,
		MaxAge:   86400, // 24 hours
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   h.sessionConfig.CookieName,
		Value:  "",
		Path:   h.sessionConfig.CookiePath,
		Domain: h.sessionConfig.CookieDomain,
		MaxAge: -1,
	})
}

func (h *Handler) getSessionFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(h.sessionConfig.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
