package models

import "time"

// Comment represents a reply to a post. Same denormalization rules as Post:
// AuthorName is a creation-time snapshot and LikesCount mirrors CommentLike rows.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"index;not null" json:"post_id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	AuthorName string    `gorm:"size:64;not null" json:"author_name"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	LikesCount int64     `gorm:"not null;default:0" json:"likes_count"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
