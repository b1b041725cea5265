package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/orbitlab/orbitboard/models"
)

// CommentView is a comment joined with the acting user's like membership.
type CommentView struct {
	models.Comment
	IsLiked bool `json:"is_liked"`
}

// CommentService retrieves and creates comment threads.
type CommentService struct {
	db    *gorm.DB
	likes *LikeService
}

// NewCommentService creates a CommentService instance.
func NewCommentService(db *gorm.DB, likes *LikeService) *CommentService {
	return &CommentService{db: db, likes: likes}
}

// List returns the full thread for postID, newest first, with userID's
// like flag merged onto each comment. userID 0 means anonymous and skips the
// membership lookup. The lookup is batched into a single query for the whole
// thread rather than probed per comment.
func (s *CommentService) List(postID, userID uint) ([]CommentView, error) {
	var comments []models.Comment
	if err := s.db.Where("post_id = ?", postID).
		Order("created_at DESC, id DESC").Find(&comments).Error; err != nil {
		return nil, err
	}

	liked := map[uint]bool{}
	if userID != 0 && len(comments) > 0 {
		ids := make([]uint, 0, len(comments))
		for _, c := range comments {
			ids = append(ids, c.ID)
		}
		var err error
		liked, err = s.likes.MembershipSet(TargetComment, ids, userID)
		if err != nil {
			return nil, err
		}
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, CommentView{Comment: c, IsLiked: liked[c.ID]})
	}
	return views, nil
}

// Create validates and stores a new comment, then returns the re-derived
// thread. The list is always re-read from the store after a mutation instead
// of splicing the new row into a held slice.
func (s *CommentService) Create(postID, userID uint, authorName, content string) ([]CommentView, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	if err := s.db.Select("id").First(&models.Post{}, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	comment := models.Comment{
		PostID:     postID,
		UserID:     userID,
		AuthorName: authorName,
		Content:    content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	return s.List(postID, userID)
}
