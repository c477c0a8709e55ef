package models

import "time"

// Author — слабая ссылка поста на пользователя.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Post — пост с реакциями. Likes и Dislikes всегда равны размерам
// LikedBy и DislikedBy.
type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Author       Author    `json:"author"`
	Likes        int       `json:"likes"`
	Dislikes     int       `json:"dislikes"`
	LikedBy      []string  `json:"likedBy"`
	DislikedBy   []string  `json:"dislikedBy"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SetReactions переносит множества реакций в пост и пересчитывает счётчики.
func (p *Post) SetReactions(r Reactions) {
	p.LikedBy = nonNil(r.LikedBy)
	p.DislikedBy = nonNil(r.DislikedBy)
	p.Likes = len(p.LikedBy)
	p.Dislikes = len(p.DislikedBy)
}

// Comment — комментарий к посту.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
