package models

import "time"

// PostLike records that a user liked a post. The composite unique index
// guarantees at most one row per (post, user) pair regardless of racing
// toggles; the like service relies on the duplicate-key error it produces.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
