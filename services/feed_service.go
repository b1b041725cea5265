package services

import (
	"gorm.io/gorm"

	"github.com/orbitlab/orbitboard/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// FeedItem is a post enriched with its live comment tally. The tally is
// derived per read and never stored, unlike likes_count.
type FeedItem struct {
	models.Post
	CommentCount int64 `json:"comment_count"`
}

// FeedPage is one window of the recency-ordered post feed.
type FeedPage struct {
	Items      []FeedItem `json:"items"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"total_pages"`
}

// FeedService computes stable page windows over the posts relation.
type FeedService struct {
	db *gorm.DB
}

// NewFeedService creates a FeedService instance.
func NewFeedService(db *gorm.DB) *FeedService {
	return &FeedService{db: db}
}

// GetPage returns the 1-indexed page of posts ordered by recency, newest
// first, together with the total page count computed from a full count of the
// relation. An empty board yields zero pages and an empty item list.
func (s *FeedService) GetPage(page, pageSize int) (*FeedPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var total int64
	if err := s.db.Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, err
	}

	result := &FeedPage{
		Items:      []FeedItem{},
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
	if total == 0 {
		return result, nil
	}

	var posts []models.Post
	offset := (page - 1) * pageSize
	// id breaks ties between equal timestamps so the window stays stable
	// while the collection mutates underneath.
	if err := s.db.Order("created_at DESC, id DESC").
		Offset(offset).Limit(pageSize).Find(&posts).Error; err != nil {
		return nil, err
	}

	tallies, err := s.commentTallies(posts)
	if err != nil {
		return nil, err
	}

	result.Items = make([]FeedItem, 0, len(posts))
	for _, post := range posts {
		result.Items = append(result.Items, FeedItem{
			Post:         post,
			CommentCount: tallies[post.ID],
		})
	}
	return result, nil
}

// commentTallies counts comments for the page's posts in one grouped query.
func (s *FeedService) commentTallies(posts []models.Post) (map[uint]int64, error) {
	tallies := make(map[uint]int64, len(posts))
	if len(posts) == 0 {
		return tallies, nil
	}

	ids := make([]uint, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}

	var rows []struct {
		PostID uint  `gorm:"column:post_id"`
		Total  int64 `gorm:"column:total"`
	}
	if err := s.db.Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		tallies[row.PostID] = row.Total
	}
	return tallies, nil
}
