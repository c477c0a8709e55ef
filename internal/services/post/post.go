// Package post содержит бизнес-логику постов, реакций и комментариев
// с кешированием постов в Redis.
package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/buzznet/internal/lib/metrics"
	"github.com/magabrotheeeer/buzznet/internal/lib/sl"
	"github.com/magabrotheeeer/buzznet/internal/models"
	"github.com/magabrotheeeer/buzznet/internal/storage/repository"
)

// EventPostReacted — ключ маршрутизации события о реакции.
const EventPostReacted = "post.reacted"

var (
	// ErrPostNotFound — пост не найден.
	ErrPostNotFound = errors.New("post not found")
	// ErrAuthorNotFound — пользователь из токена больше не существует.
	ErrAuthorNotFound = errors.New("user not found")
	// ErrForbidden — пользователь не автор поста и не администратор.
	ErrForbidden = errors.New("not authorized to delete this post")
	// ErrMissingFields — не заполнено обязательное поле.
	ErrMissingFields = errors.New("missing required fields")
)

// Repository определяет методы хранилища постов.
type Repository interface {
	CreatePost(ctx context.Context, post models.Post) (*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	ToggleReaction(ctx context.Context, postID, userUID string, kind models.ReactionKind) (models.Reactions, error)
	CreateComment(ctx context.Context, c models.Comment) (*models.Comment, error)
	ListComments(ctx context.Context, postID string) ([]*models.Comment, error)
}

// UserReader возвращает пользователя по uid.
type UserReader interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Cache описывает методы для кэширования данных. Запись в кеш проходит
// только если ключ не инвалидировали после чтения его версии.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Version(ctx context.Context, key string) (int64, error)
	SetIfVersion(ctx context.Context, key string, version int64, value any, expiration time.Duration) (bool, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// EventPublisher отправляет события во внешний брокер.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// ReactionEvent — тело события post.reacted.
type ReactionEvent struct {
	PostID   string              `json:"postId"`
	UserID   string              `json:"userId"`
	Kind     models.ReactionKind `json:"kind"`
	State    models.ReactionKind `json:"state"`
	Likes    int                 `json:"likes"`
	Dislikes int                 `json:"dislikes"`
}

// Service реализует операции над постами.
type Service struct {
	repo     Repository
	users    UserReader
	cache    Cache
	events   EventPublisher
	metrics  *metrics.Metrics
	log      *slog.Logger
	cacheTTL time.Duration
}

// NewService создает Service. events может быть nil.
func NewService(repo Repository, users UserReader, cache Cache, events EventPublisher,
	m *metrics.Metrics, log *slog.Logger, cacheTTL time.Duration) *Service {
	if m == nil {
		m = metrics.Nop()
	}
	return &Service{
		repo:     repo,
		users:    users,
		cache:    cache,
		events:   events,
		metrics:  m,
		log:      log,
		cacheTTL: cacheTTL,
	}
}

func cacheKey(id string) string {
	return "post:" + id
}

// Create публикует пост от имени authorUID.
func (s *Service) Create(ctx context.Context, authorUID, title, content string) (*models.Post, error) {
	const op = "post.Create"

	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(content) == "" {
		return nil, ErrMissingFields
	}
	author, err := s.author(ctx, authorUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id := uuid.NewString()
	version, versionErr := s.cache.Version(ctx, cacheKey(id))
	created, err := s.repo.CreatePost(ctx, models.Post{
		ID:      id,
		Title:   title,
		Content: content,
		Author:  author,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new post", slog.String("id", created.ID))

	s.cacheSet(ctx, created, version, versionErr)
	return created, nil
}

// Get возвращает пост, сначала пытаясь прочитать его из кеша.
func (s *Service) Get(ctx context.Context, id string) (*models.Post, error) {
	const op = "post.Get"

	if !validID(id) {
		return nil, ErrPostNotFound
	}

	var cached *models.Post
	found, err := s.cache.Get(ctx, cacheKey(id), &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	if found && cached != nil {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	// Версию читаем до базы: если пост изменят между чтением и записью
	// в кеш, устаревший снимок не сохранится.
	version, versionErr := s.cache.Version(ctx, cacheKey(id))
	result, err := s.repo.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheSet(ctx, result, version, versionErr)
	return result, nil
}

// List возвращает посты от новых к старым.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	const op = "post.List"

	posts, err := s.repo.ListPosts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return posts, nil
}

// Delete удаляет пост. Удалять может автор или администратор.
func (s *Service) Delete(ctx context.Context, id, requesterUID string) error {
	const op = "post.Delete"

	if !validID(id) {
		return ErrPostNotFound
	}
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if p.Author.ID != requesterUID {
		requester, err := s.users.GetUser(ctx, requesterUID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, err)
		}
		if requester == nil || requester.Role != models.RoleAdmin {
			return ErrForbidden
		}
	}

	if err = s.repo.DeletePost(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("deleted post", slog.String("id", id), slog.String("by", requesterUID))

	s.invalidate(ctx, id)
	return nil
}

// ToggleReaction переключает реакцию kind пользователя userUID на пост.
//
// Повторная реакция того же вида снимает её, реакция противоположного
// вида заменяет прежнюю. Ответ содержит счётчики, оба множества и
// флаги liked/disliked для самого пользователя.
func (s *Service) ToggleReaction(ctx context.Context, postID, userUID string,
	kind models.ReactionKind) (*models.ReactionResult, error) {
	const op = "post.ToggleReaction"

	if !validID(postID) {
		return nil, ErrPostNotFound
	}
	reactions, err := s.repo.ToggleReaction(ctx, postID, userUID, kind)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, postID)

	result := models.NewReactionResult(postID, userUID, reactions)
	state := reactions.Of(userUID)
	s.metrics.Reactions.WithLabelValues(string(kind), stateLabel(state)).Inc()
	s.log.Info("reaction toggled",
		slog.String("post_id", postID),
		slog.String("kind", string(kind)),
		slog.Int("likes", result.Likes),
		slog.Int("dislikes", result.Dislikes))

	if s.events != nil {
		event := ReactionEvent{
			PostID:   postID,
			UserID:   userUID,
			Kind:     kind,
			State:    state,
			Likes:    result.Likes,
			Dislikes: result.Dislikes,
		}
		if err := s.events.Publish(ctx, EventPostReacted, event); err != nil {
			s.log.Warn("failed to publish event", slog.String("routing_key", EventPostReacted), sl.Err(err))
		}
	}
	return &result, nil
}

// AddComment добавляет комментарий к посту.
func (s *Service) AddComment(ctx context.Context, postID, authorUID, content string) (*models.Comment, error) {
	const op = "post.AddComment"

	if strings.TrimSpace(content) == "" {
		return nil, ErrMissingFields
	}
	if !validID(postID) {
		return nil, ErrPostNotFound
	}
	author, err := s.author(ctx, authorUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c, err := s.repo.CreateComment(ctx, models.Comment{
		ID:      uuid.NewString(),
		PostID:  postID,
		Author:  author,
		Content: content,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, postID)
	return c, nil
}

// ListComments возвращает комментарии поста от старых к новым.
func (s *Service) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	const op = "post.ListComments"

	if !validID(postID) {
		return nil, ErrPostNotFound
	}
	comments, err := s.repo.ListComments(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return comments, nil
}

func (s *Service) author(ctx context.Context, userUID string) (models.Author, error) {
	u, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Author{}, ErrAuthorNotFound
		}
		return models.Author{}, err
	}
	return models.Author{ID: u.UUID, Username: u.Username}, nil
}

func (s *Service) cacheSet(ctx context.Context, p *models.Post, version int64, versionErr error) {
	key := cacheKey(p.ID)
	if versionErr != nil {
		s.log.Warn("failed to read cache version", slog.String("key", key), sl.Err(versionErr))
		return
	}
	stored, err := s.cache.SetIfVersion(ctx, key, version, p, s.cacheTTL)
	if err != nil {
		s.log.Warn("failed to cache post", slog.String("key", key), sl.Err(err))
		return
	}
	if !stored {
		s.log.Debug("post changed while reading, not cached", slog.String("key", key))
	}
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
}

func stateLabel(k models.ReactionKind) string {
	if k == models.ReactionNone {
		return "none"
	}
	return string(k)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
