// Package login реализует HTTP-обработчик входа по email и паролю.
//
// Неверный email и неверный пароль дают одинаковый ответ 401. После пяти
// неудачных попыток подряд аккаунт блокируется на пять минут, и ответ
// сообщает, через сколько минут можно повторить вход.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/buzznet/internal/http/response"
	"github.com/magabrotheeeer/buzznet/internal/lib/sl"
	"github.com/magabrotheeeer/buzznet/internal/services/auth"
)

const (
	msgMissingFields      = "Please provide email and password"
	msgInvalidCredentials = "Invalid email or password"
)

// Request — учётные данные для входа.
type Request struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Response — публичные данные пользователя и токен.
type Response struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Service описывает вход пользователя.
type Service interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

// Handler обрабатывает HTTP-запросы входа.
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
// @Summary Вход пользователя
// @Description Проверяет email и пароль, учитывая блокировку аккаунта. Возвращает JWT на 3 часа.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Не заполнены поля"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные или аккаунт заблокирован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var locked *auth.LockedError
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			response.WriteError(w, r, http.StatusBadRequest, msgMissingFields)
		case errors.As(err, &locked):
			log.Info("login rejected, account locked", slog.Int("minutes", locked.Minutes))
			response.WriteError(w, r, http.StatusUnauthorized, locked.Error())
		case errors.Is(err, auth.ErrInvalidCredentials):
			log.Info("invalid credentials")
			response.WriteError(w, r, http.StatusUnauthorized, msgInvalidCredentials)
		default:
			log.Error("login failed", sl.Err(err))
			response.WriteError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	log.Info("login success", slog.String("user_uid", session.User.ID))
	render.JSON(w, r, Response{
		ID:        session.User.ID,
		Username:  session.User.Username,
		Email:     session.User.Email,
		Role:      session.User.Role,
		Token:     session.Token,
		CreatedAt: session.User.CreatedAt,
		UpdatedAt: session.User.UpdatedAt,
	})
}
