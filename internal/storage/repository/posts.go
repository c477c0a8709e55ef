package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/buzznet/internal/models"
)

const postSelect = `SELECT p.id, p.title, p.content, p.author_uid, COALESCE(u.username, ''),
	       p.created_at, p.updated_at,
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
	  FROM posts p
	  LEFT JOIN users u ON u.uid = p.author_uid`

// queryer — общее у *sql.DB и *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// CreatePost сохраняет пост. ID задаёт вызывающий.
func (s *Storage) CreatePost(ctx context.Context, post models.Post) (*models.Post, error) {
	const op = "storage.CreatePost"

	query := `INSERT INTO posts (id, author_uid, title, content)
			  VALUES ($1, $2, $3, $4)
			  RETURNING created_at, updated_at`
	if err := s.DB.QueryRowContext(ctx, query, post.ID, post.Author.ID, post.Title, post.Content).
		Scan(&post.CreatedAt, &post.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	post.SetReactions(models.Reactions{})
	return &post, nil
}

// GetPost возвращает пост вместе с множествами реакций.
func (s *Storage) GetPost(ctx context.Context, id string) (*models.Post, error) {
	const op = "storage.GetPost"

	post, err := scanPost(s.DB.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reactions, err := loadReactions(ctx, s.DB, []string{id})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	post.SetReactions(reactions[id])
	return post, nil
}

// ListPosts возвращает посты от новых к старым.
func (s *Storage) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	const op = "storage.ListPosts"

	rows, err := s.DB.QueryContext(ctx,
		postSelect+` ORDER BY p.created_at DESC, p.id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Post, 0, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, post)
		ids = append(ids, post.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(ids) == 0 {
		return result, nil
	}

	reactions, err := loadReactions(ctx, s.DB, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, post := range result {
		post.SetReactions(reactions[post.ID])
	}
	return result, nil
}

// DeletePost удаляет пост вместе с реакциями и комментариями.
func (s *Storage) DeletePost(ctx context.Context, id string) error {
	const op = "storage.DeletePost"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ToggleReaction переключает реакцию kind пользователя на пост одной
// транзакцией.
//
// Строка поста блокируется через FOR UPDATE, поэтому одновременные
// переключения разных пользователей выполняются по очереди и не теряют
// изменений друг друга. Решение о новом состоянии принимает
// models.Reactions.Toggle; счётчики likes и dislikes пересчитываются из
// размеров множеств.
func (s *Storage) ToggleReaction(ctx context.Context, postID, userUID string,
	kind models.ReactionKind) (models.Reactions, error) {
	const op = "storage.ToggleReaction"

	var result models.Reactions
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var locked string
		err := tx.QueryRowContext(ctx, `SELECT id FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		all, err := loadReactions(ctx, tx, []string{postID})
		if err != nil {
			return err
		}
		reactions := all[postID]
		after, err := reactions.Toggle(userUID, kind)
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx,
			`DELETE FROM post_reactions WHERE post_id = $1 AND user_uid = $2`, postID, userUID); err != nil {
			return err
		}
		if after != models.ReactionNone {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO post_reactions (post_id, user_uid, kind) VALUES ($1, $2, $3)`,
				postID, userUID, string(after)); err != nil {
				if isForeignKeyViolation(err) {
					return ErrUserNotFound
				}
				return err
			}
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE posts SET likes = $2, dislikes = $3, updated_at = NOW() WHERE id = $1`,
			postID, len(reactions.LikedBy), len(reactions.DislikedBy)); err != nil {
			return err
		}

		result = reactions
		return nil
	})
	if err != nil {
		return models.Reactions{}, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// loadReactions читает множества реакций для постов ids.
func loadReactions(ctx context.Context, q queryer, ids []string) (map[string]models.Reactions, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT post_id, user_uid, kind
		   FROM post_reactions
		  WHERE post_id = ANY($1)
		  ORDER BY created_at, user_uid`, ids)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make(map[string]models.Reactions, len(ids))
	for rows.Next() {
		var postID, userUID, kind string
		if err = rows.Scan(&postID, &userUID, &kind); err != nil {
			return nil, err
		}
		r := result[postID]
		switch models.ReactionKind(kind) {
		case models.ReactionLike:
			r.LikedBy = append(r.LikedBy, userUID)
		case models.ReactionDislike:
			r.DislikedBy = append(r.DislikedBy, userUID)
		}
		result[postID] = r
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	p := &models.Post{}
	var authorUID sql.NullString
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &authorUID, &p.Author.Username,
		&p.CreatedAt, &p.UpdatedAt, &p.CommentCount); err != nil {
		return nil, err
	}
	p.Author.ID = authorUID.String
	return p, nil
}
