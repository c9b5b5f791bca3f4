package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkaminski/vocadrill/internal/api"
	apiMiddleware "github.com/pkaminski/vocadrill/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userService,
		app.jwtService,
		app.passwordVerifier,
	)
	studyHandler := api.NewStudyHandler(
		app.sessionService,
		app.userService,
		app.logger,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Study session endpoints
			r.Post("/study/sessions", studyHandler.StartSession)
			r.Post("/study/sessions/{id}/answers", studyHandler.Evaluate)
			r.Get("/study/sessions/{id}/summary", studyHandler.GetSessionSummary)

			// Quota and unlock endpoints
			r.Get("/study/quota", studyHandler.GetQuota)
			r.Get("/study/groups/{id}/unlock", studyHandler.GetUnlockStatus)
			r.Post("/study/groups/{id}/unlock", studyHandler.RequestUnlock)

			// User preference endpoints
			r.Put("/users/me/preferences", studyHandler.UpdatePreferences)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
