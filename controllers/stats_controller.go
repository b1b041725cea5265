package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/orbitlab/orbitboard/models"
	"github.com/orbitlab/orbitboard/utils"
)

// StatsController provides board statistics such as entity counts.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the board.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var userCount int64
	var postCount int64
	var commentCount int64
	var postLikes int64
	var commentLikes int64

	// Fallback to 0 instead of failing the whole endpoint
	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		userCount = 0
	}
	if err := s.db.Model(&models.Post{}).Count(&postCount).Error; err != nil {
		postCount = 0
	}
	if err := s.db.Model(&models.Comment{}).Count(&commentCount).Error; err != nil {
		commentCount = 0
	}
	if err := s.db.Model(&models.PostLike{}).Count(&postLikes).Error; err != nil {
		postLikes = 0
	}
	if err := s.db.Model(&models.CommentLike{}).Count(&commentLikes).Error; err != nil {
		commentLikes = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":    userCount,
		"post_count":    postCount,
		"comment_count": commentCount,
		"like_count":    postLikes + commentLikes,
	})
}
