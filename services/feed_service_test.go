package services

import (
	"fmt"
	"testing"
	"time"
)

func TestGetPageEmptyBoard(t *testing.T) {
	db := newTestDB(t)
	feed := NewFeedService(db)

	page, err := feed.GetPage(1, 10)
	if err != nil {
		t.Fatalf("GetPage on empty board: %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("items = %d, want 0", len(page.Items))
	}
	if page.TotalPages != 0 || page.Total != 0 {
		t.Fatalf("total_pages = %d total = %d, want 0/0", page.TotalPages, page.Total)
	}
	if page.Items == nil {
		t.Fatal("items must be an empty slice, not nil")
	}
}

func TestGetPageWindows(t *testing.T) {
	db := newTestDB(t)
	feed := NewFeedService(db)
	author := createUser(t, db, "author")

	// 23 posts, strictly increasing timestamps: post-23 is the newest.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 23; i++ {
		createPost(t, db, author, fmt.Sprintf("post-%d", i), base.Add(time.Duration(i)*time.Second))
	}

	tests := []struct {
		page       int
		wantLen    int
		wantFirst  string
		wantLast   string
		wantTotal  int64
		wantPages  int
	}{
		{page: 1, wantLen: 10, wantFirst: "post-23", wantLast: "post-14", wantTotal: 23, wantPages: 3},
		{page: 2, wantLen: 10, wantFirst: "post-13", wantLast: "post-4", wantTotal: 23, wantPages: 3},
		{page: 3, wantLen: 3, wantFirst: "post-3", wantLast: "post-1", wantTotal: 23, wantPages: 3},
		{page: 4, wantLen: 0, wantTotal: 23, wantPages: 3},
	}
	for _, tt := range tests {
		got, err := feed.GetPage(tt.page, 10)
		if err != nil {
			t.Fatalf("GetPage(%d): %v", tt.page, err)
		}
		if got.Total != tt.wantTotal || got.TotalPages != tt.wantPages {
			t.Fatalf("page %d: total=%d pages=%d, want %d/%d", tt.page, got.Total, got.TotalPages, tt.wantTotal, tt.wantPages)
		}
		if len(got.Items) != tt.wantLen {
			t.Fatalf("page %d: %d items, want %d", tt.page, len(got.Items), tt.wantLen)
		}
		if tt.wantLen > 0 {
			if got.Items[0].Title != tt.wantFirst {
				t.Fatalf("page %d first = %s, want %s", tt.page, got.Items[0].Title, tt.wantFirst)
			}
			if got.Items[len(got.Items)-1].Title != tt.wantLast {
				t.Fatalf("page %d last = %s, want %s", tt.page, got.Items[len(got.Items)-1].Title, tt.wantLast)
			}
		}
	}
}

func TestGetPageEvenlyDivisible(t *testing.T) {
	db := newTestDB(t)
	feed := NewFeedService(db)
	author := createUser(t, db, "author")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 20; i++ {
		createPost(t, db, author, fmt.Sprintf("post-%d", i), base.Add(time.Duration(i)*time.Second))
	}

	page, err := feed.GetPage(2, 10)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if page.TotalPages != 2 {
		t.Fatalf("total_pages = %d, want 2", page.TotalPages)
	}
	if len(page.Items) != 10 {
		t.Fatalf("last page items = %d, want full 10", len(page.Items))
	}
}

func TestGetPageClampsArguments(t *testing.T) {
	db := newTestDB(t)
	feed := NewFeedService(db)

	page, err := feed.GetPage(0, 0)
	if err != nil {
		t.Fatalf("GetPage(0,0): %v", err)
	}
	if page.Page != 1 || page.PageSize != 10 {
		t.Fatalf("clamped to page=%d size=%d, want 1/10", page.Page, page.PageSize)
	}

	page, err = feed.GetPage(-3, 5000)
	if err != nil {
		t.Fatalf("GetPage(-3,5000): %v", err)
	}
	if page.Page != 1 || page.PageSize != 100 {
		t.Fatalf("clamped to page=%d size=%d, want 1/100", page.Page, page.PageSize)
	}
}

func TestCommentCountsAreRederived(t *testing.T) {
	db := newTestDB(t)
	feed := NewFeedService(db)
	author := createUser(t, db, "author")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	noisy := createPost(t, db, author, "noisy", base.Add(2*time.Second))
	quiet := createPost(t, db, author, "quiet", base.Add(time.Second))

	for i := 0; i < 3; i++ {
		createComment(t, db, noisy, author, fmt.Sprintf("reply %d", i), base.Add(time.Duration(10+i)*time.Second))
	}

	page, err := feed.GetPage(1, 10)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	counts := map[string]int64{}
	for _, item := range page.Items {
		counts[item.Title] = item.CommentCount
	}
	if counts["noisy"] != 3 || counts["quiet"] != 0 {
		t.Fatalf("comment counts = %v, want noisy=3 quiet=0", counts)
	}

	// The tally tracks the live relation on every read, never a stored value.
	createComment(t, db, quiet, author, "late reply", base.Add(time.Minute))
	page, err = feed.GetPage(1, 10)
	if err != nil {
		t.Fatalf("GetPage after comment: %v", err)
	}
	for _, item := range page.Items {
		if item.Title == "quiet" && item.CommentCount != 1 {
			t.Fatalf("quiet comment_count = %d after new comment, want 1", item.CommentCount)
		}
	}
}
