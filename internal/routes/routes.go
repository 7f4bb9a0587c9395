package routes

import (
	"github.com/BradenHooton/authgate/internal/auth"
	"github.com/BradenHooton/authgate/internal/handlers"
	"github.com/BradenHooton/authgate/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers the /auth routes. Every auth response is marked no-cache.
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	secondFactorHandler *handlers.SecondFactorHandler,
	authenticator auth.AccessAuthenticator,
) {
	router.Route("/auth", func(r chi.Router) {
		r.Use(chimiddleware.NoCache)

		// Public routes - credential endpoints, limited per client address
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(middleware.DefaultAuthRateLimit()))

			r.Post("/register", authHandler.Register)
			r.Post("/activate", authHandler.Activate)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
		})

		// Protected routes - authentication required
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(authenticator))
			r.Use(middleware.RateLimitByUser(middleware.DefaultAccountRateLimit()))

			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.Post("/password", authHandler.ChangePassword)

			r.Post("/2fa/enroll", secondFactorHandler.Enroll)
			r.Post("/2fa/confirm", secondFactorHandler.Confirm)
			r.Post("/2fa/disable", secondFactorHandler.Disable)
		})
	})
}
