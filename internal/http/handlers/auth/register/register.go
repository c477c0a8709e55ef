// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Обработчик декодирует JSON, проверяет обязательные поля и формат
// (email, длина пароля), делегирует создание пользователя сервису и
// возвращает публичные данные пользователя вместе с токеном.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/buzznet/internal/http/response"
	"github.com/magabrotheeeer/buzznet/internal/lib/sl"
	"github.com/magabrotheeeer/buzznet/internal/services/auth"
)

const (
	msgMissingFields  = "Please provide username, email, and password"
	msgDuplicateEmail = "User already exists with this email"
)

// Request — входные данные регистрации.
type Request struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Response — публичные данные созданного пользователя и токен.
type Response struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Service описывает регистрацию пользователя.
type Service interface {
	Register(ctx context.Context, username, email, password string) (*auth.Session, error)
}

// Handler обрабатывает HTTP-запросы регистрации.
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
// @Summary Регистрация пользователя
// @Description Создаёт пользователя с ролью user и возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные нового пользователя"
// @Success 201 {object} Response
// @Failure 400 {object} response.ErrorResponse "Не заполнены поля, неверный формат или email занят"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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

	if req.Username == "" || req.Email == "" || req.Password == "" {
		log.Info("missing required fields")
		response.WriteError(w, r, http.StatusBadRequest, msgMissingFields)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		response.WriteError(w, r, http.StatusBadRequest, "invalid request")
		return
	}

	session, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			response.WriteError(w, r, http.StatusBadRequest, msgMissingFields)
		case errors.Is(err, auth.ErrDuplicateEmail):
			log.Info("email already registered")
			response.WriteError(w, r, http.StatusBadRequest, msgDuplicateEmail)
		default:
			log.Error("failed to register user", sl.Err(err))
			response.WriteError(w, r, http.StatusInternalServerError, "User registration failed")
		}
		return
	}

	log.Info("user registered", slog.String("user_uid", session.User.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{
		ID:        session.User.ID,
		Username:  session.User.Username,
		Email:     session.User.Email,
		Token:     session.Token,
		CreatedAt: session.User.CreatedAt,
		UpdatedAt: session.User.UpdatedAt,
	})
}
