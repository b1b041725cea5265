package services

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"gorm.io/gorm"

	"github.com/orbitlab/orbitboard/models"
	"github.com/orbitlab/orbitboard/utils"
)

// TargetKind selects which relation a like applies to.
type TargetKind string

const (
	// TargetPost likes a post.
	TargetPost TargetKind = "post"
	// TargetComment likes a comment.
	TargetComment TargetKind = "comment"
)

const lockStripes = 64

// LikeService toggles like membership for posts and comments while keeping
// the denormalized likes_count equal to the number of membership rows.
//
// Correctness comes from three layers:
//   - the membership write and the counter update share one transaction, so
//     they cannot diverge on partial failure;
//   - the composite unique index on (target_id, user_id) rejects a second
//     membership row no matter which process inserts it;
//   - a striped in-process lock serializes racing toggles on the same
//     (kind, target, user) key, e.g. a double-click arriving twice.
type LikeService struct {
	db    *gorm.DB
	locks [lockStripes]sync.Mutex
}

// NewLikeService creates a LikeService instance.
func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

// Toggle inverts the like state of (kind, targetID) for userID and returns the
// resulting state plus the counter as stored after the transaction.
// Current state is always re-derived from the store; no state is held between calls.
func (s *LikeService) Toggle(kind TargetKind, targetID, userID uint) (liked bool, count int64, err error) {
	mu := s.lockFor(kind, targetID, userID)
	mu.Lock()
	defer mu.Unlock()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		switch kind {
		case TargetPost:
			return s.togglePost(tx, targetID, userID, &liked, &count)
		case TargetComment:
			return s.toggleComment(tx, targetID, userID, &liked, &count)
		default:
			return ErrUnknownTarget
		}
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (s *LikeService) togglePost(tx *gorm.DB, postID, userID uint, liked *bool, count *int64) error {
	if err := tx.Select("id").First(&models.Post{}, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	var membership models.PostLike
	probe := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&membership).Error
	switch {
	case probe == nil:
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		// Decrement only when a row was actually removed; the guard keeps the
		// counter from going negative if it was ever off.
		if res.RowsAffected > 0 {
			upd := tx.Model(&models.Post{}).
				Where("id = ? AND likes_count > 0", postID).
				UpdateColumn("likes_count", gorm.Expr("likes_count - ?", 1))
			if upd.Error != nil {
				return upd.Error
			}
			if upd.RowsAffected == 0 {
				logAnomaly("post", postID)
			}
		}
		*liked = false
	case errors.Is(probe, gorm.ErrRecordNotFound):
		err := tx.Create(&models.PostLike{PostID: postID, UserID: userID}).Error
		if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		// A duplicate-key error means another writer inserted between our
		// probe and write; the target is liked and already counted.
		if err == nil {
			if err := tx.Model(&models.Post{}).
				Where("id = ?", postID).
				UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error; err != nil {
				return err
			}
		}
		*liked = true
	default:
		return probe
	}

	return tx.Model(&models.Post{}).Select("likes_count").Where("id = ?", postID).Scan(count).Error
}

func (s *LikeService) toggleComment(tx *gorm.DB, commentID, userID uint, liked *bool, count *int64) error {
	if err := tx.Select("id").First(&models.Comment{}, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	var membership models.CommentLike
	probe := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&membership).Error
	switch {
	case probe == nil:
		res := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			upd := tx.Model(&models.Comment{}).
				Where("id = ? AND likes_count > 0", commentID).
				UpdateColumn("likes_count", gorm.Expr("likes_count - ?", 1))
			if upd.Error != nil {
				return upd.Error
			}
			if upd.RowsAffected == 0 {
				logAnomaly("comment", commentID)
			}
		}
		*liked = false
	case errors.Is(probe, gorm.ErrRecordNotFound):
		err := tx.Create(&models.CommentLike{CommentID: commentID, UserID: userID}).Error
		if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		if err == nil {
			if err := tx.Model(&models.Comment{}).
				Where("id = ?", commentID).
				UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error; err != nil {
				return err
			}
		}
		*liked = true
	default:
		return probe
	}

	return tx.Model(&models.Comment{}).Select("likes_count").Where("id = ?", commentID).Scan(count).Error
}

// IsLiked reports whether userID currently likes (kind, targetID).
func (s *LikeService) IsLiked(kind TargetKind, targetID, userID uint) (bool, error) {
	var n int64
	var err error
	switch kind {
	case TargetPost:
		err = s.db.Model(&models.PostLike{}).
			Where("post_id = ? AND user_id = ?", targetID, userID).Count(&n).Error
	case TargetComment:
		err = s.db.Model(&models.CommentLike{}).
			Where("comment_id = ? AND user_id = ?", targetID, userID).Count(&n).Error
	default:
		return false, ErrUnknownTarget
	}
	return n > 0, err
}

// MembershipSet resolves userID's like membership across targetIDs in a single
// query and returns the set of liked ids. Thread rendering depends on this
// staying one round trip regardless of how many targets are passed.
func (s *LikeService) MembershipSet(kind TargetKind, targetIDs []uint, userID uint) (map[uint]bool, error) {
	liked := make(map[uint]bool, len(targetIDs))
	if len(targetIDs) == 0 {
		return liked, nil
	}

	var ids []uint
	var err error
	switch kind {
	case TargetPost:
		err = s.db.Model(&models.PostLike{}).
			Where("user_id = ? AND post_id IN ?", userID, targetIDs).
			Pluck("post_id", &ids).Error
	case TargetComment:
		err = s.db.Model(&models.CommentLike{}).
			Where("user_id = ? AND comment_id IN ?", userID, targetIDs).
			Pluck("comment_id", &ids).Error
	default:
		return nil, ErrUnknownTarget
	}
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// logAnomaly reports a counter that hit zero while a membership row still
// existed. The guarded decrement already kept it from going negative; the log
// line makes the drift visible instead of silently absorbing it.
func logAnomaly(kind string, targetID uint) {
	if utils.Sugar != nil {
		utils.Sugar.Warnf("likes_count for %s %d was already 0 while a membership row existed", kind, targetID)
	}
}

func (s *LikeService) lockFor(kind TargetKind, targetID, userID uint) *sync.Mutex {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d:%d", kind, targetID, userID)
	return &s.locks[h.Sum32()%lockStripes]
}
