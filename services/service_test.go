package services

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/orbitlab/orbitboard/models"
)

// newTestDB opens a private in-memory SQLite database with the same gorm
// settings the server uses, most importantly TranslateError so unique-index
// violations surface as gorm.ErrDuplicatedKey.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	// A second pooled connection would see a different :memory: database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.CommentLike{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createPost(t *testing.T, db *gorm.DB, author models.User, title string, createdAt time.Time) models.Post {
	t.Helper()
	post := models.Post{
		UserID:     author.ID,
		AuthorName: author.Username,
		Title:      title,
		Content:    "content of " + title,
		CreatedAt:  createdAt,
	}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("create post %s: %v", title, err)
	}
	return post
}

func createComment(t *testing.T, db *gorm.DB, post models.Post, author models.User, content string, createdAt time.Time) models.Comment {
	t.Helper()
	comment := models.Comment{
		PostID:     post.ID,
		UserID:     author.ID,
		AuthorName: author.Username,
		Content:    content,
		CreatedAt:  createdAt,
	}
	if err := db.Create(&comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return comment
}

func postLikesCount(t *testing.T, db *gorm.DB, postID uint) int64 {
	t.Helper()
	var post models.Post
	if err := db.First(&post, postID).Error; err != nil {
		t.Fatalf("reload post %d: %v", postID, err)
	}
	return post.LikesCount
}

func postMembershipRows(t *testing.T, db *gorm.DB, postID uint) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		t.Fatalf("count post likes: %v", err)
	}
	return n
}
