// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the "composition root": the one place where the whole dependency
// graph is assembled — database → repositories → services → handlers — and
// wired to URL patterns. main.go stays minimal (read config, call New,
// Start); everything below the routes stays ignorant of HTTP wiring.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/workmates/internal/auth"
	"github.com/sakif/workmates/internal/handler"
	"github.com/sakif/workmates/internal/middleware"
	sqliteRepo "github.com/sakif/workmates/internal/repository/sqlite"
	"github.com/sakif/workmates/internal/service"
)

// Config holds server configuration, loaded from the environment by main.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string

	// CookieSecure flips the session cookie to Secure + SameSite=None for
	// production deployments where the frontend is on another origin.
	CookieSecure bool

	// OAuth credentials. A provider whose ClientID is empty is simply not
	// registered — its routes report an unconfigured provider.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

// Server owns the router, the database connection, and the config. The DB
// is closed during graceful shutdown in Start.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with its full dependency chain:
//
//	sqlite.DB → (UserRepository, LikeRepository, MessageRepository, PlaceRepository)
//	         → AuthService / SocialService / MessageService / PlaceService
//	         → AuthHandler / MessageHandler / PlaceHandler
//
// Each layer receives only the interfaces it needs; handlers never touch the
// database, services never touch HTTP.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, builds the services and handlers, and
// declares every route.
func (s *Server) setupRoutes() error {
	// Global middleware, in order: request ID for tracing, real client IP
	// from proxy headers, panic recovery, then our structured request log.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	cookies := auth.Cookies{Secure: s.config.CookieSecure}

	// OAuth provider registry: populated only for providers whose
	// credentials are configured. No credentials, no provider, no route —
	// the handler map lookup reports unconfigured ones cleanly.
	providers := map[string]auth.OAuthProvider{}
	if s.config.GitHubClientID != "" {
		providers["github"] = auth.NewGitHubProvider(
			s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
		s.logger.Info("OAuth provider registered", slog.String("provider", "github"))
	}
	if s.config.GoogleClientID != "" {
		providers["google"] = auth.NewGoogleProvider(
			s.config.GoogleClientID, s.config.GoogleClientSecret, s.config.GoogleCallbackURL)
		s.logger.Info("OAuth provider registered", slog.String("provider", "google"))
	}

	// Services. The per-entity stores all embed the same sqlite.DB, which is
	// what lets likes and cascade deletion run cross-store transactions on
	// one pool.
	passwords := auth.NewPasswordService()
	authSvc := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	socialSvc := service.NewSocialService(s.db.Likes(), s.db.Users(), s.logger)
	messageSvc := service.NewMessageService(s.db.Messages(), s.db.Users(), s.logger)
	placeSvc := service.NewPlaceService(s.db.Places(), s.logger)

	authHandler := handler.NewAuthHandler(authSvc, socialSvc, providers, cookies, s.logger)
	messageHandler := handler.NewMessageHandler(messageSvc, s.logger)
	placeHandler := handler.NewPlaceHandler(placeSvc, s.logger)

	requireAuth := auth.RequireAuth(tokens, cookies)
	optionalAuth := auth.OptionalAuth(tokens, cookies)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/join", authHandler.HandleJoin)
		r.Post("/check", authHandler.HandleCheck)
		r.Post("/logout", authHandler.HandleLogout)

		r.Get("/{provider}/login", authHandler.HandleOAuthLogin)
		r.Get("/{provider}/callback", authHandler.HandleOAuthCallback)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Put("/update", authHandler.HandleUpdate)
			r.Delete("/delete", authHandler.HandleDelete)
			r.Post("/like/{targetUserId}", authHandler.HandleLike)
			r.Delete("/unlike/{targetUserId}", authHandler.HandleUnlike)
			r.Get("/liked-users", authHandler.HandleLikedUsers)
			r.Get("/liked-by-users", authHandler.HandleLikedByUsers)
		})
	})

	s.router.Route("/message", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/send", messageHandler.HandleSend)
		r.Get("/received", messageHandler.HandleReceived)
		r.Get("/sent", messageHandler.HandleSent)
		r.Get("/{id}", messageHandler.HandleGetByID)
		r.Patch("/{id}/read", messageHandler.HandleMarkRead)
	})

	s.router.Route("/workplace", func(r chi.Router) {
		// Public map feed and nearby lookup. OptionalAuth keeps logged-in
		// visitors' sessions sliding on these reads without gating them.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/all", placeHandler.HandleListAll)
			r.Get("/nearby", placeHandler.HandleNearby)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", placeHandler.HandleCreate)
			r.Get("/", placeHandler.HandleListOwn)
			r.Delete("/{id}", placeHandler.HandleDelete)
			r.Post("/{id}/notes", placeHandler.HandleAddNote)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s, and
// close the database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
