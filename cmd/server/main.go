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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/invexia/invexia/internal/analytics"
	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/audit/journal"
	"github.com/invexia/invexia/internal/authz"
	"github.com/invexia/invexia/internal/chat"
	"github.com/invexia/invexia/internal/config"
	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/inventory"
	"github.com/invexia/invexia/internal/observability/logger"
	"github.com/invexia/invexia/internal/observability/metrics"
	"github.com/invexia/invexia/internal/observability/tracing"
	"github.com/invexia/invexia/internal/session"
	"github.com/invexia/invexia/internal/store/postgres"
	"github.com/invexia/invexia/internal/support"
	"github.com/invexia/invexia/internal/team"
	"github.com/invexia/invexia/internal/tenant"
	"github.com/invexia/invexia/internal/token"
	transportHTTP "github.com/invexia/invexia/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting invexia backend")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Initialize context
	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
		os.Exit(1)
	}

	authzMetrics, err := metrics.NewAuthzMetrics(meter)
	if err != nil {
		slog.Error("failed to register authorization metrics", logger.Error(err))
		os.Exit(1)
	}

	// Initialize database
	db, err := postgres.New(ctx, postgresConfig(cfg))
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	profilRepo := postgres.NewProfilRepository(db)
	entrepriseRepo := postgres.NewEntrepriseRepository(db)
	storeSessionRepo := postgres.NewSessionRepository(db)
	produitRepo := postgres.NewProduitRepository(db)
	categorieRepo := postgres.NewCategorieRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	journalRepo := postgres.NewJournalRepository(db)
	analyticsRepo := postgres.NewAnalyticsRepository(db)

	// Initialize helpers. Audit events are both logged and persisted
	// to the journal so they survive restarts.
	auditLogger := journal.NewRecorder(journalRepo, audit.NewSlogLogger())
	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)

	tokenManager, err := token.NewManager([]byte(cfg.Token.Secret), cfg.Token.Issuer, cfg.Token.Audience, cfg.Token.TTL)
	if err != nil {
		slog.Error("failed to initialize token manager", logger.Error(err))
		os.Exit(1)
	}

	// Initialize services
	authorizer := authz.NewAuthorizer(auditLogger).WithMetrics(authzMetrics)
	identityService := identity.NewService(
		userRepo,
		profilRepo,
		passwordHasher,
		auditLogger,
		cfg.Security.LockoutMaxAttempts,
		cfg.Security.LockoutDuration,
	)
	sessionService := session.NewService(storeSessionRepo, cfg.Session.Lifetime, cfg.Session.IdleTimeout)
	tenantService := tenant.NewService(entrepriseRepo, profilRepo, auditLogger)
	inventoryService := inventory.NewService(produitRepo, categorieRepo, authorizer, auditLogger)
	teamService := team.NewService(profilRepo, profilRepo, identityService, sessionService, authorizer, auditLogger)
	supportService := support.NewService(ticketRepo, authorizer, auditLogger)
	chatService := chat.NewService(chatRepo, authorizer)
	analyticsService := analytics.NewService(analyticsRepo, authorizer)
	journalService := journal.NewService(journalRepo, authorizer, auditLogger)

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Configure SameSite mode
	sameSite := http.SameSiteLaxMode
	switch cfg.Session.CookieSameSite {
	case "Strict":
		sameSite = http.SameSiteStrictMode
	case "None":
		sameSite = http.SameSiteNoneMode
	}

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		transportHTTP.Services{
			Identity:  identityService,
			Session:   sessionService,
			Token:     tokenManager,
			Authz:     authorizer,
			Tenant:    tenantService,
			Inventory: inventoryService,
			Team:      teamService,
			Support:   supportService,
			Chat:      chatService,
			Analytics: analyticsService,
			Journal:   journalService,
			Metrics:   authzMetrics,
		},
		auditLogger,
		transportHTTP.SessionConfig{
			CookieName:     cfg.Session.CookieName,
			CookieDomain:   cfg.Session.CookieDomain,
			CookiePath:     cfg.Session.CookiePath,
			CookieSecure:   cfg.Session.CookieSecure,
			CookieHTTPOnly: cfg.Session.CookieHTTPOnly,
			CookieSameSite: sameSite,
		},
	)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start session cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := sessionService.DeleteExpired(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to cleanup expired sessions", logger.Error(err))
			}
		}
	}()

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

func postgresConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := postgres.New(ctx, postgresConfig(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}
