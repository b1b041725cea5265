package models

import "time"

// Post represents a board post created by a user.
//
// AuthorName is a snapshot of the author's username taken at creation time.
// LikesCount is a denormalized counter kept in sync with PostLike rows by the
// like service; it is never recomputed during feed reads.
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	AuthorName string    `gorm:"size:64;not null" json:"author_name"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	LikesCount int64     `gorm:"not null;default:0" json:"likes_count"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Comments   []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
