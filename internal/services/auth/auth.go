// Package auth содержит регистрацию, вход с блокировкой аккаунта и
// проверку токенов доступа.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/buzznet/internal/lib/jwt"
	"github.com/magabrotheeeer/buzznet/internal/lib/metrics"
	"github.com/magabrotheeeer/buzznet/internal/lib/password"
	"github.com/magabrotheeeer/buzznet/internal/lib/sl"
	"github.com/magabrotheeeer/buzznet/internal/models"
	"github.com/magabrotheeeer/buzznet/internal/storage/repository"
)

// Ключи маршрутизации событий аккаунта.
const (
	EventUserRegistered = "user.registered"
	EventUserLocked     = "user.locked"
)

// UserRepository описывает хранилище учётных записей.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	RegisterFailedLogin(ctx context.Context, userUID string, now time.Time,
		maxAttempts int, lockFor time.Duration) (int, *time.Time, error)
	ResetLoginAttempts(ctx context.Context, userUID string) error
}

// EventPublisher отправляет события во внешний брокер.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Session — публичные данные пользователя и выданный ему токен.
type Session struct {
	User  models.PublicUser
	Token string
}

// UserEvent — тело событий аккаунта.
type UserEvent struct {
	UserID    string     `json:"userId"`
	Email     string     `json:"email"`
	LockUntil *time.Time `json:"lockUntil,omitempty"`
	At        time.Time  `json:"at"`
}

// AuthService отвечает за регистрацию, вход и валидацию JWT.
type AuthService struct {
	log      *slog.Logger
	users    UserRepository
	jwtMaker jwt.Maker
	events   EventPublisher
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewAuthService создает AuthService. events может быть nil, тогда события
// не публикуются.
func NewAuthService(log *slog.Logger, users UserRepository, jwtMaker jwt.Maker,
	events EventPublisher, m *metrics.Metrics) *AuthService {
	if m == nil {
		m = metrics.Nop()
	}
	return &AuthService{
		log:      log,
		users:    users,
		jwtMaker: jwtMaker,
		events:   events,
		metrics:  m,
		now:      time.Now,
	}
}

// Register создаёт пользователя с ролью user и сразу выдаёт ему токен.
func (s *AuthService) Register(ctx context.Context, username, email, rawPassword string) (*Session, error) {
	const op = "auth.Register"

	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || rawPassword == "" {
		return nil, ErrMissingFields
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.RegisterUser(ctx, models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.UUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, EventUserRegistered, UserEvent{UserID: user.UUID, Email: user.Email, At: s.now()})
	return &Session{User: user.Public(), Token: token}, nil
}

// Login проверяет учётные данные с учётом блокировки аккаунта.
//
// Заблокированный аккаунт отклоняется даже при верном пароле. Неверный
// пароль атомарно увеличивает счётчик в хранилище; попытка, доведшая его
// до MaxLoginAttempts, блокирует аккаунт на LockDuration. Успешный вход
// обнуляет счётчик.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "auth.Login"

	email = normalizeEmail(email)
	if email == "" || rawPassword == "" {
		return nil, ErrMissingFields
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.LoginAttempts.WithLabelValues(metrics.LoginFailed).Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	if st := State(user.LoginAttempts, user.LockUntil, now); st.Locked {
		s.metrics.LoginAttempts.WithLabelValues(metrics.LoginLocked).Inc()
		return nil, &LockedError{Minutes: st.RemainingMinutes}
	}

	ok, err := password.Matches(user.PasswordHash, rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, s.failedAttempt(ctx, user, now)
	}

	if err = s.users.ResetLoginAttempts(ctx, user.UUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	token, err := s.jwtMaker.GenerateToken(user.UUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.LoginAttempts.WithLabelValues(metrics.LoginSuccess).Inc()
	return &Session{User: user.Public(), Token: token}, nil
}

func (s *AuthService) failedAttempt(ctx context.Context, user *models.User, now time.Time) error {
	const op = "auth.failedAttempt"

	attempts, lockUntil, err := s.users.RegisterFailedLogin(ctx, user.UUID, now, MaxLoginAttempts, LockDuration)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.LoginAttempts.WithLabelValues(metrics.LoginFailed).Inc()

	st := State(attempts, lockUntil, now)
	if !st.Locked {
		s.log.Info("invalid password",
			slog.String("user_uid", user.UUID),
			slog.Int("attempts_left", st.AttemptsLeft))
		return ErrInvalidCredentials
	}
	// Блокировку выставляет ровно одна попытка: та, что довела счётчик до порога.
	if attempts != MaxLoginAttempts {
		return &LockedError{Minutes: st.RemainingMinutes}
	}

	s.metrics.AccountLocks.Inc()
	s.log.Info("account locked",
		slog.String("user_uid", user.UUID),
		slog.Time("lock_until", *lockUntil))
	s.publish(ctx, EventUserLocked, UserEvent{UserID: user.UUID, Email: user.Email, LockUntil: lockUntil, At: now})
	return &LockedError{Minutes: st.RemainingMinutes, JustLocked: true}
}

// Profile возвращает публичные данные пользователя.
func (s *AuthService) Profile(ctx context.Context, userUID string) (*models.PublicUser, error) {
	const op = "auth.Profile"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	public := user.Public()
	return &public, nil
}

// ValidateToken проверяет токен и возвращает uid пользователя из sub.
func (s *AuthService) ValidateToken(_ context.Context, token string) (string, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims.UserUID(), nil
}

func (s *AuthService) publish(ctx context.Context, routingKey string, event UserEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("routing_key", routingKey), sl.Err(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
