// Package remove реализует HTTP-обработчик удаления поста.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/buzznet/internal/http/middlewarectx"
	"github.com/magabrotheeeer/buzznet/internal/http/response"
	"github.com/magabrotheeeer/buzznet/internal/lib/sl"
	"github.com/magabrotheeeer/buzznet/internal/services/post"
)

// Handler обрабатывает удаление поста.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает удаление поста от имени пользователя.
type Service interface {
	Delete(ctx context.Context, id, requesterUID string) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить пост
// @Description Удалять может автор поста или администратор.
// @Tags Posts
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID поста"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Нет прав"
// @Failure 404 {object} response.ErrorResponse "Пост не найден"
// @Router /posts/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.post.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		response.WriteError(w, r, http.StatusUnauthorized, "Not authorized, no token")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id, userUID); err != nil {
		switch {
		case errors.Is(err, post.ErrPostNotFound):
			response.WriteError(w, r, http.StatusNotFound, "Post not found")
		case errors.Is(err, post.ErrForbidden):
			log.Info("delete forbidden", slog.String("id", id))
			response.WriteError(w, r, http.StatusForbidden, "Not authorized to delete this post")
		default:
			log.Error("failed to delete post", sl.Err(err))
			response.WriteError(w, r, http.StatusInternalServerError, "failed to delete post")
		}
		return
	}

	log.Info("success to delete post", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}
