package models

import "time"

// Like records that a user liked a post. The (user, post) pair is unique so
// repeated like calls cannot double-count; displayed like totals are always
// the row count, never a separately maintained counter.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
