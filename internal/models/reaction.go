package models

import (
	"errors"
	"fmt"
	"slices"
)

// ReactionKind — вид реакции пользователя на пост.
type ReactionKind string

const (
	ReactionNone    ReactionKind = ""
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// ErrUnknownReaction возвращается для вида реакции кроме like и dislike.
var ErrUnknownReaction = errors.New("unknown reaction kind")

// ParseReactionKind разбирает вид реакции из строки.
func ParseReactionKind(s string) (ReactionKind, error) {
	switch ReactionKind(s) {
	case ReactionLike, ReactionDislike:
		return ReactionKind(s), nil
	default:
		return ReactionNone, fmt.Errorf("%w: %q", ErrUnknownReaction, s)
	}
}

// Reactions — два непересекающихся множества пользователей поста.
// Порядок элементов — порядок, в котором пользователи ставили реакцию.
type Reactions struct {
	LikedBy    []string
	DislikedBy []string
}

// Of возвращает текущую реакцию пользователя.
func (r Reactions) Of(userUID string) ReactionKind {
	switch {
	case slices.Contains(r.LikedBy, userUID):
		return ReactionLike
	case slices.Contains(r.DislikedBy, userUID):
		return ReactionDislike
	default:
		return ReactionNone
	}
}

// Toggle применяет реакцию kind от userUID и возвращает реакцию
// пользователя после изменения.
//
// Повторная реакция того же вида снимает её. Реакция другого вида
// ставится, а противоположная снимается, так что пользователь всегда
// находится не более чем в одном множестве.
func (r *Reactions) Toggle(userUID string, kind ReactionKind) (ReactionKind, error) {
	switch kind {
	case ReactionLike:
		if toggle(&r.LikedBy, &r.DislikedBy, userUID) {
			return ReactionLike, nil
		}
	case ReactionDislike:
		if toggle(&r.DislikedBy, &r.LikedBy, userUID) {
			return ReactionDislike, nil
		}
	default:
		return ReactionNone, fmt.Errorf("%w: %q", ErrUnknownReaction, kind)
	}
	return ReactionNone, nil
}

// toggle возвращает true, если userUID оказался в target.
func toggle(target, opposite *[]string, userUID string) bool {
	if slices.Contains(*target, userUID) {
		*target = without(*target, userUID)
		return false
	}
	*target = append(slices.Clone(*target), userUID)
	*opposite = without(*opposite, userUID)
	return true
}

func without(ids []string, userUID string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != userUID {
			out = append(out, id)
		}
	}
	return out
}

// ReactionResult — ответ на переключение реакции. Liked и Disliked
// относятся к пользователю, сделавшему запрос.
type ReactionResult struct {
	PostID     string   `json:"id"`
	Likes      int      `json:"likes"`
	Dislikes   int      `json:"dislikes"`
	LikedBy    []string `json:"likedBy"`
	DislikedBy []string `json:"dislikedBy"`
	Liked      bool     `json:"liked"`
	Disliked   bool     `json:"disliked"`
}

// NewReactionResult собирает ответ из множеств реакций поста.
func NewReactionResult(postID, userUID string, r Reactions) ReactionResult {
	current := r.Of(userUID)
	likedBy, dislikedBy := nonNil(r.LikedBy), nonNil(r.DislikedBy)
	return ReactionResult{
		PostID:     postID,
		Likes:      len(likedBy),
		Dislikes:   len(dislikedBy),
		LikedBy:    likedBy,
		DislikedBy: dislikedBy,
		Liked:      current == ReactionLike,
		Disliked:   current == ReactionDislike,
	}
}
