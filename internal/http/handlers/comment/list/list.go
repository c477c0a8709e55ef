// Package list реализует HTTP-обработчик списка комментариев поста.
package list

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

// Service описывает чтение комментариев.
type Service interface {
	ListComments(ctx context.Context, postID string) ([]*models.Comment, error)
}

// Handler обрабатывает запрос комментариев.
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
// @Summary Комментарии поста
// @Description Комментарии от старых к новым.
// @Tags Comments
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID поста"
// @Success 200 {array} models.Comment
// @Failure 404 {object} response.ErrorResponse "Пост не найден"
// @Router /posts/{id}/comments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.comment.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	comments, err := h.service.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			response.WriteError(w, r, http.StatusNotFound, "Post not found")
			return
		}
		log.Error("failed to list comments", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to list comments")
		return
	}

	render.JSON(w, r, comments)
}
