// Package read реализует HTTP-обработчик получения поста по id.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/buzznet/internal/http/response"
	"github.com/magabrotheeeer/buzznet/internal/lib/sl"
	"github.com/magabrotheeeer/buzznet/internal/models"
	"github.com/magabrotheeeer/buzznet/internal/services/post"
)

// Service описывает чтение поста.
type Service interface {
	Get(ctx context.Context, id string) (*models.Post, error)
}

// Handler обрабатывает чтение поста.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить пост
// @Tags Posts
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID поста"
// @Success 200 {object} models.Post
// @Failure 404 {object} response.ErrorResponse "Пост не найден"
// @Router /posts/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.post.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			response.WriteError(w, r, http.StatusNotFound, "Post not found")
			return
		}
		log.Error("failed to read post", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to read post")
		return
	}

	render.JSON(w, r, p)
}
