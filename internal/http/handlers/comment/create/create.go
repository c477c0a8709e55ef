// Package create реализует HTTP-обработчик добавления комментария к посту.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/buzznet/internal/http/middlewarectx"
	"github.com/magabrotheeeer/buzznet/internal/http/response"
	"github.com/magabrotheeeer/buzznet/internal/lib/sl"
	"github.com/magabrotheeeer/buzznet/internal/models"
	"github.com/magabrotheeeer/buzznet/internal/services/post"
)

const msgMissingContent = "Please provide comment content"

// Request — текст комментария.
type Request struct {
	Content string `json:"content" validate:"max=2000"`
}

// Service описывает добавление комментария.
type Service interface {
	AddComment(ctx context.Context, postID, authorUID, content string) (*models.Comment, error)
}

// Handler обрабатывает добавление комментария.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Комментировать пост
// @Tags Comments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID поста"
// @Param request body Request true "Текст комментария"
// @Success 201 {object} models.Comment
// @Failure 400 {object} response.ErrorResponse "Пустой комментарий"
// @Failure 404 {object} response.ErrorResponse "Пост не найден"
// @Router /posts/{id}/comments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.comment.create"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		response.WriteError(w, r, http.StatusBadRequest, "invalid request")
		return
	}

	postID := chi.URLParam(r, "id")
	c, err := h.service.AddComment(r.Context(), postID, userUID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, post.ErrMissingFields):
			response.WriteError(w, r, http.StatusBadRequest, msgMissingContent)
		case errors.Is(err, post.ErrPostNotFound):
			response.WriteError(w, r, http.StatusNotFound, "Post not found")
		case errors.Is(err, post.ErrAuthorNotFound):
			response.WriteError(w, r, http.StatusNotFound, "User not found")
		default:
			log.Error("failed to add comment", sl.Err(err))
			response.WriteError(w, r, http.StatusInternalServerError, "failed to add comment")
		}
		return
	}

	log.Info("comment added", slog.String("post_id", postID), slog.String("id", c.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, c)
}
