// Package list реализует HTTP-обработчик ленты постов с пагинацией.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/buzznet/internal/http/response"
	"github.com/magabrotheeeer/buzznet/internal/lib/sl"
	"github.com/magabrotheeeer/buzznet/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Service описывает чтение ленты.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
}

// Handler обрабатывает запрос ленты.
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
// @Summary Лента постов
// @Description Посты от новых к старым.
// @Tags Posts
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы (1..100, по умолчанию 20)"
// @Param offset query int false "Смещение"
// @Success 200 {array} models.Post
// @Failure 400 {object} response.ErrorResponse "Неверные параметры пагинации"
// @Router /posts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.post.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil || limit < 1 {
		response.WriteError(w, r, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, maxLimit)

	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		response.WriteError(w, r, http.StatusBadRequest, "invalid offset")
		return
	}

	posts, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list posts", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "failed to list posts")
		return
	}

	log.Debug("posts listed", slog.Int("count", len(posts)))
	render.JSON(w, r, posts)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
