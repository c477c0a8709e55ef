// Package buzznet собирает HTTP-приложение BuzzNet: зависимости и маршруты.
package buzznet

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/buzznet/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/buzznet/internal/http/handlers/auth/profile"
	"github.com/magabrotheeeer/buzznet/internal/http/handlers/auth/register"
	commentcreate "github.com/magabrotheeeer/buzznet/internal/http/handlers/comment/create"
	commentlist "github.com/magabrotheeeer/buzznet/internal/http/handlers/comment/list"
	"github.com/magabrotheeeer/buzznet/internal/http/handlers/health"
	"github.com/magabrotheeeer/buzznet/internal/http/handlers/post/create"
	"github.com/magabrotheeeer/buzznet/internal/http/handlers/post/list"
	"github.com/magabrotheeeer/buzznet/internal/http/handlers/post/react"
	"github.com/magabrotheeeer/buzznet/internal/http/handlers/post/read"
	"github.com/magabrotheeeer/buzznet/internal/http/handlers/post/remove"
	"github.com/magabrotheeeer/buzznet/internal/http/middlewarectx"
	"github.com/magabrotheeeer/buzznet/internal/models"
	authservice "github.com/magabrotheeeer/buzznet/internal/services/auth"
	postservice "github.com/magabrotheeeer/buzznet/internal/services/post"
)

// Deps — всё, что нужно маршрутам.
type Deps struct {
	Auth            *authservice.AuthService
	Posts           *postservice.Service
	LoginLimiter    *middlewarectx.RateLimiter
	RegisterLimiter *middlewarectx.RateLimiter
	Pingers         map[string]health.Pinger
	Gatherer        prometheus.Gatherer
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки, у каждой свой лимит по IP
		r.With(d.RegisterLimiter.Middleware(logger)).Post("/register", register.New(logger, d.Auth).ServeHTTP)
		r.With(d.LoginLimiter.Middleware(logger)).Post("/login", login.New(logger, d.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Auth, logger))
			r.Get("/profile", profile.New(logger, d.Auth).ServeHTTP)

			r.Post("/posts", create.New(logger, d.Posts).ServeHTTP)
			r.Get("/posts", list.New(logger, d.Posts).ServeHTTP)
			r.Get("/posts/{id}", read.New(logger, d.Posts).ServeHTTP)
			r.Delete("/posts/{id}", remove.New(logger, d.Posts).ServeHTTP)
			r.Patch("/posts/{id}/like", react.New(logger, d.Posts, models.ReactionLike).ServeHTTP)
			r.Patch("/posts/{id}/dislike", react.New(logger, d.Posts, models.ReactionDislike).ServeHTTP)
			r.Post("/posts/{id}/comments", commentcreate.New(logger, d.Posts).ServeHTTP)
			r.Get("/posts/{id}/comments", commentlist.New(logger, d.Posts).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, d.Pingers).ServeHTTP)
	r.Handle("/metrics", metricsHandler(d.Gatherer))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

func metricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
