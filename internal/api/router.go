package api

import (
	"net/http"

	"github.com/dom/course-catalog/internal/api/handlers"
	"github.com/dom/course-catalog/internal/api/middleware"
	"github.com/dom/course-catalog/internal/config"
	"github.com/dom/course-catalog/internal/domain"
	"github.com/dom/course-catalog/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Auth, cfg)
	userHandler := handlers.NewUserHandler(services.User, cfg)

	production := cfg.IsProduction()
	authenticated := middleware.Authenticate(services.Auth, production)
	adminOnly := middleware.RequireRoles(production, domain.RoleAdmin)

	r.Route("/api/v1/user", func(r chi.Router) {
		// Public routes
		r.Post("/register", authHandler.Register)
		r.Post("/activate", authHandler.Activate)
		r.Post("/login", authHandler.Login)
		r.Post("/social-auth", authHandler.SocialAuth)

		// Refresh runs as a pipeline stage ahead of the terminal handler
		r.Group(func(r chi.Router) {
			r.Use(middleware.RefreshSession(services.Auth, production))
			r.Get("/refresh", authHandler.RefreshToken)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.Put("/update-user-info", userHandler.UpdateInfo)
			r.Put("/update-user-password", userHandler.UpdatePassword)
			r.Put("/update-user-avatar", userHandler.UpdateAvatar)

			// Admin routes: role guard always composes after the access guard
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/all", userHandler.GetAll)
				r.Put("/update-role", userHandler.UpdateRole)
				r.Delete("/{id}", userHandler.Delete)
			})
		})
	})

	return r
}
