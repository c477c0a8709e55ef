package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/buzznet/internal/models"
)

// CreateComment сохраняет комментарий. Если поста нет, возвращает ErrNotFound.
func (s *Storage) CreateComment(ctx context.Context, c models.Comment) (*models.Comment, error) {
	const op = "storage.CreateComment"

	query := `INSERT INTO comments (id, post_id, author_uid, content)
			  VALUES ($1, $2, $3, $4)
			  RETURNING created_at`
	if err := s.DB.QueryRowContext(ctx, query, c.ID, c.PostID, c.Author.ID, c.Content).
		Scan(&c.CreatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// ListComments возвращает комментарии поста от старых к новым.
func (s *Storage) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	const op = "storage.ListComments"

	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT c.id, c.post_id, COALESCE(c.author_uid::text, ''), COALESCE(u.username, ''),
		        c.content, c.created_at
		   FROM comments c
		   LEFT JOIN users u ON u.uid = c.author_uid
		  WHERE c.post_id = $1
		  ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []*models.Comment{}
	for rows.Next() {
		c := &models.Comment{}
		if err = rows.Scan(&c.ID, &c.PostID, &c.Author.ID, &c.Author.Username,
			&c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
