// Package profile реализует HTTP-обработчик профиля текущего пользователя.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/buzznet/internal/http/middlewarectx"
	"github.com/magabrotheeeer/buzznet/internal/http/response"
	"github.com/magabrotheeeer/buzznet/internal/lib/sl"
	"github.com/magabrotheeeer/buzznet/internal/models"
	"github.com/magabrotheeeer/buzznet/internal/services/auth"
)

// Service возвращает публичный профиль пользователя.
type Service interface {
	Profile(ctx context.Context, userUID string) (*models.PublicUser, error)
}

// Handler обрабатывает запрос профиля.
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
// @Summary Профиль пользователя
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.PublicUser
// @Failure 401 {object} response.ErrorResponse "Нет или неверный токен"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.profile"

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

	user, err := h.service.Profile(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			response.WriteError(w, r, http.StatusNotFound, "User not found")
			return
		}
		log.Error("failed to load profile", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	render.JSON(w, r, user)
}
