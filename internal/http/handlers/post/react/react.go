// Package react реализует HTTP-обработчики лайка и дизлайка поста.
//
// Повторный запрос того же вида снимает реакцию, запрос противоположного
// вида заменяет её. Один и тот же Handler обслуживает оба маршрута и
// различается только видом реакции.
package react

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
	"github.com/magabrotheeeer/buzznet/internal/models"
	"github.com/magabrotheeeer/buzznet/internal/services/post"
)

// Service описывает переключение реакции.
type Service interface {
	ToggleReaction(ctx context.Context, postID, userUID string, kind models.ReactionKind) (*models.ReactionResult, error)
}

// Handler обрабатывает переключение реакции вида kind.
type Handler struct {
	log     *slog.Logger
	service Service
	kind    models.ReactionKind
}

// New создает Handler для реакции kind.
func New(log *slog.Logger, service Service, kind models.ReactionKind) *Handler {
	return &Handler{
		log:     log,
		service: service,
		kind:    kind,
	}
}

// ServeHTTP godoc
// @Summary Лайк или дизлайк поста
// @Description Переключает реакцию пользователя. Ответ содержит счётчики, списки и флаги liked/disliked текущего пользователя.
// @Tags Reactions
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID поста"
// @Success 200 {object} models.ReactionResult
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Failure 404 {object} response.ErrorResponse "Пост или пользователь не найден"
// @Router /posts/{id}/like [patch]
// @Router /posts/{id}/dislike [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.post.react"

	log := h.log.With(
		slog.String("op", op),
		slog.String("kind", string(h.kind)),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		response.WriteError(w, r, http.StatusUnauthorized, "Not authorized, no token")
		return
	}

	id := chi.URLParam(r, "id")
	result, err := h.service.ToggleReaction(r.Context(), id, userUID, h.kind)
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			response.WriteError(w, r, http.StatusNotFound, "Post not found")
			return
		}
		if errors.Is(err, post.ErrAuthorNotFound) {
			response.WriteError(w, r, http.StatusNotFound, "User not found")
			return
		}
		log.Error("failed to toggle reaction", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to update reaction")
		return
	}

	render.JSON(w, r, result)
}
