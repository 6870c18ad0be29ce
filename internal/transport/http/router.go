package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/minimalist-todo/api/internal/application/auth"
	"github.com/minimalist-todo/api/internal/application/todo"
	"github.com/minimalist-todo/api/internal/application/user"
	"github.com/minimalist-todo/api/internal/config"
	"github.com/minimalist-todo/api/internal/domain"
	"github.com/minimalist-todo/api/internal/transport/http/handler"
	appmiddleware "github.com/minimalist-todo/api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10, applied to the public auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	codes := auth.NewCodeIssuer(deps.VerificationRepo, deps.Mailer)
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo: deps.UserRepo,
		Codes:    codes,
		Signer:   deps.JWTProvider,
	})
	todoSvc := todo.NewService(deps.TodoRepo, deps.S3Store)
	userSvc := user.NewService(deps.UserRepo)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	todoH := handler.NewTodoHandler(todoSvc)
	userH := handler.NewUserHandler(userSvc)

	r.Route("/v1", func(r chi.Router) {
		// Public routes (no auth)
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/signup", authH.Signup)
		r.With(sensitiveRL.Limit).Post("/auth/verify", authH.Verify)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/todos", todoH.List)
			r.Post("/todos", todoH.Create)
			r.Get("/todos/{id}", todoH.Get)
			r.Put("/todos/{id}", todoH.Update)
			r.Delete("/todos/{id}", todoH.Delete)
			r.Post("/todos/{id}/attachment", todoH.Attach)
			r.Get("/todos/{id}/attachment", todoH.DownloadAttachment)

			r.Get("/users/{id}", userH.Get)
			r.Post("/users/change-password", userH.ChangePassword)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
			})
		})
	})

	return r
}
