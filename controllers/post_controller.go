package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/orbitlab/orbitboard/config"
	"github.com/orbitlab/orbitboard/middleware"
	"github.com/orbitlab/orbitboard/models"
	"github.com/orbitlab/orbitboard/services"
	"github.com/orbitlab/orbitboard/utils"
)

// PostController serves the feed read model and post/comment commands.
type PostController struct {
	db       *gorm.DB
	feed     *services.FeedService
	comments *services.CommentService
	likes    *services.LikeService
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, feed *services.FeedService, comments *services.CommentService, likes *services.LikeService) *PostController {
	return &PostController{db: db, feed: feed, comments: comments, likes: likes}
}

// ListPosts returns a recency-ordered feed page with per-post comment counts.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("cache:posts:list:page=%d:size=%d", page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	feedPage, err := p.feed.GetPage(page, pageSize)
	if err != nil {
		utils.Sugar.Errorf("feed page %d fetch failed: %v", page, err)
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list posts")
		return
	}

	payload := gin.H{
		"items": feedPage.Items,
		"pagination": gin.H{
			"page":        feedPage.Page,
			"page_size":   feedPage.PageSize,
			"total":       feedPage.Total,
			"total_pages": feedPage.TotalPages,
		},
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its thread and the acting user's like flags.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid post id")
		return
	}
	userID, authed := getUserID(ctx)

	// Detail responses embed per-user like flags, so only anonymous views
	// are cacheable.
	cacheKey := "cache:post:detail:" + strconv.Itoa(int(postID))
	if !authed {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Sugar.Errorf("post %d load failed: %v", postID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	thread, err := p.comments.List(postID, userID)
	if err != nil {
		utils.Sugar.Errorf("post %d thread load failed: %v", postID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load comments")
		return
	}

	isLiked := false
	if authed {
		if isLiked, err = p.likes.IsLiked(services.TargetPost, postID, userID); err != nil {
			utils.Sugar.Warnf("post %d like probe failed: %v", postID, err)
			isLiked = false
		}
	}

	payload := gin.H{
		"post":          post,
		"is_liked":      isLiked,
		"comments":      thread,
		"comment_count": len(thread),
	}
	if !authed {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required,min=1"`
		Content string `json:"content" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "content cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post := models.Post{
		UserID:     userID,
		AuthorName: getUsername(ctx),
		Title:      title,
		Content:    content,
	}
	if err := p.db.Create(&post).Error; err != nil {
		utils.Sugar.Errorf("create post failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"post": post})
}

// ListComments returns a post's full thread, newest first.
func (p *PostController) ListComments(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid post id")
		return
	}
	if err := p.db.Select("id").First(&models.Post{}, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post")
		return
	}

	userID, _ := getUserID(ctx)
	thread, err := p.comments.List(postID, userID)
	if err != nil {
		utils.Sugar.Errorf("post %d thread load failed: %v", postID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load comments")
		return
	}
	utils.Success(ctx, gin.H{"comments": thread, "comment_count": len(thread)})
}

// CreateComment allows authenticated users to comment on posts. The response
// carries the re-derived thread rather than the single new row.
func (p *PostController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid post id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	thread, err := p.comments.Create(postID, userID, getUsername(ctx), utils.Sanitize(req.Content))
	switch {
	case errors.Is(err, services.ErrEmptyContent):
		utils.Error(ctx, http.StatusBadRequest, 40025, "comment cannot be empty")
		return
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return
	case err != nil:
		utils.Sugar.Errorf("create comment on post %d failed: %v", postID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to create comment")
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + strconv.Itoa(int(postID)))
	// Feed pages embed comment counts
	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"comments": thread, "comment_count": len(thread)})
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := config.Get().FeedPageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func getUsername(ctx *gin.Context) string {
	value, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return ""
	}
	name, _ := value.(string)
	return name
}
