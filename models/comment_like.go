package models

import "time"

// CommentLike records that a user liked a comment. See PostLike for the
// uniqueness contract.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_likes_comment_user" json:"comment_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_likes_comment_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
