package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/orbitlab/orbitboard/models"
	"github.com/orbitlab/orbitboard/services"
	"github.com/orbitlab/orbitboard/utils"
)

// LikeController exposes the toggle command for posts and comments.
type LikeController struct {
	db    *gorm.DB
	likes *services.LikeService
}

// NewLikeController creates a LikeController.
func NewLikeController(db *gorm.DB, likes *services.LikeService) *LikeController {
	return &LikeController{db: db, likes: likes}
}

// TogglePostLike inverts the caller's like on a post and reports the new state.
func (l *LikeController) TogglePostLike(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid post id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	liked, count, err := l.likes.Toggle(services.TargetPost, postID, userID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	case err != nil:
		utils.Sugar.Errorf("toggle like on post %d failed: %v", postID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to toggle like")
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + strconv.Itoa(int(postID)))
	// Feed pages embed likes_count
	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"liked": liked, "likes_count": count})
}

// ToggleCommentLike inverts the caller's like on a comment.
func (l *LikeController) ToggleCommentLike(ctx *gin.Context) {
	commentID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid comment id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	liked, count, err := l.likes.Toggle(services.TargetComment, commentID, userID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
		return
	case err != nil:
		utils.Sugar.Errorf("toggle like on comment %d failed: %v", commentID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to toggle like")
		return
	}

	// Invalidate the parent post's cached detail, which embeds the thread.
	var comment models.Comment
	if err := l.db.Select("post_id").First(&comment, commentID).Error; err == nil {
		utils.InvalidateByPrefix("cache:post:detail:" + strconv.Itoa(int(comment.PostID)))
	}

	utils.Success(ctx, gin.H{"liked": liked, "likes_count": count})
}
