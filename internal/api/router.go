package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/MimoJanra/SitePulse/internal/auth"
	"github.com/MimoJanra/SitePulse/internal/models"
)

// SetupRouter wires the HTTP surface. Everything except login, health and
// the swagger UI requires a valid token; mutating routes are additionally
// gated by role.
func SetupRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Post("/auth/login", s.Login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticator([]byte(s.Auth.JWTSecret)))

		r.Get("/auth/me", s.Me)
		r.Post("/auth/change-password", s.ChangePassword)

		r.Route("/sites", func(r chi.Router) {
			r.Get("/", s.ListSites)
			r.With(auth.RequireRole(models.RoleOnlyEdit)).Post("/", s.CreateSite)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetSite)
				r.Get("/results", s.ListSiteResults)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(models.RoleOnlyEdit))
					r.Put("/", s.UpdateSite)
					r.Delete("/", s.DeleteSite)
					r.Put("/status", s.UpdateSiteStatus)
					r.Post("/check", s.CheckSiteNow)
				})
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", s.ListGroups)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleOnlyEdit))
				r.Post("/", s.CreateGroup)
				r.Put("/{id}", s.UpdateGroup)
				r.Delete("/{id}", s.DeleteGroup)
			})
		})

		r.Route("/alerts", func(r chi.Router) {
			r.With(auth.RequireRole(models.RoleAllRead)).Get("/config", s.GetAlertConfig)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole())
				r.Put("/config", s.UpdateAlertConfig)
				r.Post("/test", s.TestAlert)
			})
		})

		r.Route("/retention", func(r chi.Router) {
			r.With(auth.RequireRole(models.RoleAllRead)).Get("/config", s.GetRetentionConfig)
			r.With(auth.RequireRole()).Put("/config", s.UpdateRetentionConfig)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(auth.RequireRole())
			r.Get("/", s.ListUsers)
			r.Post("/", s.CreateUser)
			r.Put("/{id}", s.UpdateUser)
			r.Delete("/{id}", s.DeleteUser)
		})

		r.Route("/audit", func(r chi.Router) {
			r.Get("/me", s.MyAuditEntries)
			r.With(auth.RequireRole()).Get("/", s.ListAuditEntries)
		})
	})

	return r
}
