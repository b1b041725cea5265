package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/orbitlab/orbitboard/models"
)

func TestTogglePostLikeRoundTrip(t *testing.T) {
	db := newTestDB(t)
	likes := NewLikeService(db)

	u1 := createUser(t, db, "u1")
	u2 := createUser(t, db, "u2")
	post := createPost(t, db, u1, "P1", time.Now())

	if got := postLikesCount(t, db, post.ID); got != 0 {
		t.Fatalf("fresh post likes_count = %d, want 0", got)
	}

	liked, count, err := likes.Toggle(TargetPost, post.ID, u2.ID)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !liked || count != 1 {
		t.Fatalf("first toggle = (%v, %d), want (true, 1)", liked, count)
	}
	if got := postLikesCount(t, db, post.ID); got != 1 {
		t.Fatalf("stored likes_count = %d, want 1", got)
	}

	liked, count, err = likes.Toggle(TargetPost, post.ID, u2.ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if liked || count != 0 {
		t.Fatalf("second toggle = (%v, %d), want (false, 0)", liked, count)
	}
	if rows := postMembershipRows(t, db, post.ID); rows != 0 {
		t.Fatalf("membership rows after untoggle = %d, want 0", rows)
	}
}

func TestToggleParityMatchesMembership(t *testing.T) {
	db := newTestDB(t)
	likes := NewLikeService(db)

	author := createUser(t, db, "author")
	post := createPost(t, db, author, "P1", time.Now())
	users := []models.User{
		createUser(t, db, "a"),
		createUser(t, db, "b"),
		createUser(t, db, "c"),
	}

	// a toggles 3x (ends liked), b 2x (ends unliked), c 1x (ends liked)
	for i, n := range []int{3, 2, 1} {
		for j := 0; j < n; j++ {
			if _, _, err := likes.Toggle(TargetPost, post.ID, users[i].ID); err != nil {
				t.Fatalf("toggle user %s round %d: %v", users[i].Username, j, err)
			}
		}
	}

	rows := postMembershipRows(t, db, post.ID)
	if rows != 2 {
		t.Fatalf("membership rows = %d, want 2", rows)
	}
	if counter := postLikesCount(t, db, post.ID); counter != rows {
		t.Fatalf("likes_count = %d diverged from membership rows = %d", counter, rows)
	}

	for i, wantLiked := range []bool{true, false, true} {
		got, err := likes.IsLiked(TargetPost, post.ID, users[i].ID)
		if err != nil {
			t.Fatalf("IsLiked user %s: %v", users[i].Username, err)
		}
		if got != wantLiked {
			t.Fatalf("IsLiked(%s) = %v, want %v", users[i].Username, got, wantLiked)
		}
	}
}

func TestToggleCommentLike(t *testing.T) {
	db := newTestDB(t)
	likes := NewLikeService(db)

	author := createUser(t, db, "author")
	reader := createUser(t, db, "reader")
	post := createPost(t, db, author, "P1", time.Now())
	comment := createComment(t, db, post, author, "hello", time.Now())

	liked, count, err := likes.Toggle(TargetComment, comment.ID, reader.ID)
	if err != nil {
		t.Fatalf("toggle comment: %v", err)
	}
	if !liked || count != 1 {
		t.Fatalf("toggle comment = (%v, %d), want (true, 1)", liked, count)
	}

	var reloaded models.Comment
	if err := db.First(&reloaded, comment.ID).Error; err != nil {
		t.Fatalf("reload comment: %v", err)
	}
	if reloaded.LikesCount != 1 {
		t.Fatalf("comment likes_count = %d, want 1", reloaded.LikesCount)
	}

	liked, count, err = likes.Toggle(TargetComment, comment.ID, reader.ID)
	if err != nil {
		t.Fatalf("untoggle comment: %v", err)
	}
	if liked || count != 0 {
		t.Fatalf("untoggle comment = (%v, %d), want (false, 0)", liked, count)
	}
}

func TestToggleMissingTarget(t *testing.T) {
	db := newTestDB(t)
	likes := NewLikeService(db)
	user := createUser(t, db, "u1")

	if _, _, err := likes.Toggle(TargetPost, 12345, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("toggle missing post err = %v, want ErrNotFound", err)
	}
	if _, _, err := likes.Toggle(TargetComment, 12345, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("toggle missing comment err = %v, want ErrNotFound", err)
	}
	if _, _, err := likes.Toggle(TargetKind("page"), 1, user.ID); !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("toggle unknown kind err = %v, want ErrUnknownTarget", err)
	}
}

func TestDuplicateMembershipRejectedByIndex(t *testing.T) {
	db := newTestDB(t)
	author := createUser(t, db, "author")
	liker := createUser(t, db, "liker")
	post := createPost(t, db, author, "P1", time.Now())

	if err := db.Create(&models.PostLike{PostID: post.ID, UserID: liker.ID}).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := db.Create(&models.PostLike{PostID: post.ID, UserID: liker.ID}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("second insert err = %v, want gorm.ErrDuplicatedKey", err)
	}
	if rows := postMembershipRows(t, db, post.ID); rows != 1 {
		t.Fatalf("membership rows = %d, want 1", rows)
	}
}

func TestConcurrentTogglesKeepInvariant(t *testing.T) {
	db := newTestDB(t)
	likes := NewLikeService(db)

	author := createUser(t, db, "author")
	clicker := createUser(t, db, "clicker")
	post := createPost(t, db, author, "P1", time.Now())

	// An even number of racing toggles on one key must land back on
	// unliked with exactly zero membership rows.
	const rounds = 8
	var wg sync.WaitGroup
	errs := make(chan error, rounds)
	for i := 0; i < rounds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := likes.Toggle(TargetPost, post.ID, clicker.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent toggle: %v", err)
	}

	rows := postMembershipRows(t, db, post.ID)
	if rows != 0 {
		t.Fatalf("membership rows after %d toggles = %d, want 0", rounds, rows)
	}
	if counter := postLikesCount(t, db, post.ID); counter != 0 {
		t.Fatalf("likes_count after %d toggles = %d, want 0", rounds, counter)
	}
}

func TestMembershipSetBatches(t *testing.T) {
	db := newTestDB(t)
	likes := NewLikeService(db)

	author := createUser(t, db, "author")
	reader := createUser(t, db, "reader")
	post := createPost(t, db, author, "P1", time.Now())

	c1 := createComment(t, db, post, author, "one", time.Now())
	c2 := createComment(t, db, post, author, "two", time.Now())
	c3 := createComment(t, db, post, author, "three", time.Now())

	for _, id := range []uint{c1.ID, c3.ID} {
		if _, _, err := likes.Toggle(TargetComment, id, reader.ID); err != nil {
			t.Fatalf("toggle comment %d: %v", id, err)
		}
	}

	set, err := likes.MembershipSet(TargetComment, []uint{c1.ID, c2.ID, c3.ID}, reader.ID)
	if err != nil {
		t.Fatalf("membership set: %v", err)
	}
	if !set[c1.ID] || set[c2.ID] || !set[c3.ID] {
		t.Fatalf("membership set = %v, want {%d,%d}", set, c1.ID, c3.ID)
	}

	empty, err := likes.MembershipSet(TargetComment, nil, reader.ID)
	if err != nil {
		t.Fatalf("membership set with no ids: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("membership set with no ids = %v, want empty", empty)
	}
}
