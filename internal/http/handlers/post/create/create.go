// Package create реализует HTTP-обработчик публикации поста.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/buzznet/internal/http/middlewarectx"
	"github.com/magabrotheeeer/buzznet/internal/http/response"
	"github.com/magabrotheeeer/buzznet/internal/lib/sl"
	"github.com/magabrotheeeer/buzznet/internal/models"
	"github.com/magabrotheeeer/buzznet/internal/services/post"
)

const msgMissingFields = "Please provide title and content"

// Request — данные нового поста.
type Request struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=10000"`
}

// Service описывает создание поста.
type Service interface {
	Create(ctx context.Context, authorUID, title, content string) (*models.Post, error)
}

// Handler обрабатывает создание поста.
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
// @Summary Создать пост
// @Tags Posts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Заголовок и текст"
// @Success 201 {object} models.Post
// @Failure 400 {object} response.ErrorResponse "Не заполнены поля"
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /posts [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.post.create"

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
			log.Info("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		response.WriteError(w, r, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.service.Create(r.Context(), userUID, req.Title, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, post.ErrMissingFields):
			response.WriteError(w, r, http.StatusBadRequest, msgMissingFields)
		case errors.Is(err, post.ErrAuthorNotFound):
			response.WriteError(w, r, http.StatusNotFound, "User not found")
		default:
			log.Error("failed to create post", sl.Err(err))
			response.WriteError(w, r, http.StatusInternalServerError, "failed to create post")
		}
		return
	}

	log.Info("post created", slog.String("id", created.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}
