package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:   "sqlite",
		FilePath: filepath.Join(t.TempDir(), "feed.db"),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, repo *GormUserRepository, externalID string) *domain.User {
	t.Helper()
	u := &domain.User{ExternalID: externalID, Name: externalID}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", externalID, err)
	}
	return u
}

func createPost(t *testing.T, repo *GormPostRepository, userID string) *domain.Post {
	t.Helper()
	p := &domain.Post{UserID: userID, ImageURL: "http://img/" + userID, ImageKey: userID + "/x.png"}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func TestUserCreate_DuplicateExternalID(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	ctx := context.Background()

	createUser(t, users, "auth|alice")

	err := users.Create(ctx, &domain.User{ExternalID: "auth|alice"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("second create: got %v, want ErrUserExists", err)
	}

	got, err := users.GetByExternalID(ctx, "auth|alice")
	if err != nil {
		t.Fatalf("GetByExternalID: %v", err)
	}
	if got.Name != "auth|alice" {
		t.Errorf("name = %q", got.Name)
	}

	if _, err := users.GetByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID(missing) = %v, want ErrUserNotFound", err)
	}
}

func TestLikeCreate_Duplicate(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	posts := NewGormPostRepository(db)
	likes := NewGormLikeRepository(db)
	ctx := context.Background()

	u := createUser(t, users, "u1")
	p := createPost(t, posts, u.ID)

	if err := likes.Create(ctx, &domain.Like{PostID: p.ID, UserID: u.ID}); err != nil {
		t.Fatalf("first like: %v", err)
	}
	if err := likes.Create(ctx, &domain.Like{PostID: p.ID, UserID: u.ID}); !errors.Is(err, ErrAlreadyLiked) {
		t.Fatalf("second like: got %v, want ErrAlreadyLiked", err)
	}

	var count int64
	db.Model(&domain.LikeModel{}).Where("post_id = ?", p.ID).Count(&count)
	if count != 1 {
		t.Errorf("like rows = %d, want 1", count)
	}

	removed, err := likes.Delete(ctx, p.ID, u.ID)
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v", removed, err)
	}
	removed, err = likes.Delete(ctx, p.ID, u.ID)
	if err != nil || removed {
		t.Fatalf("Delete again = %v, %v; want false, nil", removed, err)
	}
}

func TestPostDelete_CascadesLikesAndComments(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	posts := NewGormPostRepository(db)
	likes := NewGormLikeRepository(db)
	comments := NewGormCommentRepository(db)
	ctx := context.Background()

	owner := createUser(t, users, "owner")
	fan := createUser(t, users, "fan")
	p := createPost(t, posts, owner.ID)

	if err := likes.Create(ctx, &domain.Like{PostID: p.ID, UserID: fan.ID}); err != nil {
		t.Fatalf("like: %v", err)
	}
	c := &domain.Comment{PostID: p.ID, UserID: fan.ID, Content: "nice"}
	if err := comments.Create(ctx, c); err != nil {
		t.Fatalf("comment: %v", err)
	}

	if err := posts.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	var n int64
	db.Model(&domain.LikeModel{}).Where("post_id = ?", p.ID).Count(&n)
	if n != 0 {
		t.Errorf("likes left after cascade: %d", n)
	}
	db.Model(&domain.CommentModel{}).Where("post_id = ?", p.ID).Count(&n)
	if n != 0 {
		t.Errorf("comments left after cascade: %d", n)
	}
	if _, err := comments.GetByID(ctx, c.ID); !errors.Is(err, ErrCommentNotFound) {
		t.Errorf("GetByID after cascade = %v", err)
	}
	if err := posts.Delete(ctx, p.ID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("second delete = %v, want ErrPostNotFound", err)
	}
}

func TestPostStats_CountsMatchRows(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	posts := NewGormPostRepository(db)
	likes := NewGormLikeRepository(db)
	comments := NewGormCommentRepository(db)
	ctx := context.Background()

	owner := createUser(t, users, "owner")
	p := createPost(t, posts, owner.ID)
	other := createPost(t, posts, owner.ID)

	for i := 0; i < 3; i++ {
		u := createUser(t, users, "fan"+string(rune('a'+i)))
		if err := likes.Create(ctx, &domain.Like{PostID: p.ID, UserID: u.ID}); err != nil {
			t.Fatalf("like: %v", err)
		}
		if err := comments.Create(ctx, &domain.Comment{PostID: p.ID, UserID: u.ID, Content: "hi"}); err != nil {
			t.Fatalf("comment: %v", err)
		}
	}
	c := &domain.Comment{PostID: p.ID, UserID: owner.ID, Content: "thanks"}
	if err := comments.Create(ctx, c); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if err := comments.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}

	stats, err := posts.GetStats(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.LikesCount != 3 || stats.CommentsCount != 3 {
		t.Errorf("counts = %d likes, %d comments; want 3, 3", stats.LikesCount, stats.CommentsCount)
	}
	if stats.UserExternalID != "owner" {
		t.Errorf("user_external_id = %q", stats.UserExternalID)
	}

	stats, err = posts.GetStats(ctx, other.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.LikesCount != 0 || stats.CommentsCount != 0 {
		t.Errorf("untouched post counts = %d, %d", stats.LikesCount, stats.CommentsCount)
	}

	if _, err := posts.GetStats(ctx, "missing"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("GetStats(missing) = %v", err)
	}
}

func TestPostList_NewestFirstAndOwnerFilter(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	posts := NewGormPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 4; i++ {
		owner := alice.ID
		if i%2 == 1 {
			owner = bob.ID
		}
		p := &domain.Post{
			UserID:    owner,
			ImageURL:  "u",
			ImageKey:  "k",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := posts.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, p.ID)
	}

	rows, err := posts.List(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("len = %d", len(rows))
	}
	for i, row := range rows {
		if want := ids[len(ids)-1-i]; row.PostID != want {
			t.Errorf("rows[%d] = %s, want %s", i, row.PostID, want)
		}
	}

	rows, err = posts.List(ctx, bob.ID, 10, 0)
	if err != nil {
		t.Fatalf("List(bob): %v", err)
	}
	if len(rows) != 2 || rows[0].PostID != ids[3] || rows[1].PostID != ids[1] {
		t.Errorf("bob's posts = %+v", rows)
	}

	rows, err = posts.List(ctx, "", 2, 3)
	if err != nil {
		t.Fatalf("List(offset): %v", err)
	}
	if len(rows) != 1 || rows[0].PostID != ids[0] {
		t.Errorf("offset page = %+v", rows)
	}
}

func TestCommentList_OldestFirstWithAuthor(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	posts := NewGormPostRepository(db)
	comments := NewGormCommentRepository(db)
	ctx := context.Background()

	u := createUser(t, users, "writer")
	p := createPost(t, posts, u.ID)

	var ids []string
	for _, text := range []string{"first", "second", "third"} {
		c := &domain.Comment{PostID: p.ID, UserID: u.ID, Content: text}
		if err := comments.Create(ctx, c); err != nil {
			t.Fatalf("create: %v", err)
		}
		if c.Author.ExternalID != "writer" {
			t.Errorf("created comment author = %+v", c.Author)
		}
		ids = append(ids, c.ID)
		time.Sleep(2 * time.Millisecond)
	}

	page, total, err := comments.ListByPost(ctx, p.ID, 2, 0)
	if err != nil {
		t.Fatalf("ListByPost: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d", total)
	}
	if len(page) != 2 || page[0].ID != ids[0] || page[1].ID != ids[1] {
		t.Errorf("page = %+v", page)
	}

	page, _, err = comments.ListByPost(ctx, p.ID, 2, 2)
	if err != nil {
		t.Fatalf("ListByPost: %v", err)
	}
	if len(page) != 1 || page[0].Content != "third" {
		t.Errorf("second page = %+v", page)
	}
}

func TestFollow_UniqueAndUserStats(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	follows := NewGormFollowRepository(db)
	ctx := context.Background()

	a := createUser(t, users, "a")
	b := createUser(t, users, "b")

	before, err := users.GetStats(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}

	if _, err := follows.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if _, err := follows.Follow(ctx, a.ID, b.ID); !errors.Is(err, ErrAlreadyFollowing) {
		t.Fatalf("duplicate follow = %v, want ErrAlreadyFollowing", err)
	}

	ok, err := follows.IsFollowing(ctx, a.ID, b.ID)
	if err != nil || !ok {
		t.Fatalf("IsFollowing = %v, %v", ok, err)
	}

	mid, _ := users.GetStats(ctx, b.ID)
	if mid.FollowersCount != before.FollowersCount+1 {
		t.Errorf("followers after follow = %d", mid.FollowersCount)
	}
	aStats, _ := users.GetStats(ctx, a.ID)
	if aStats.FollowingCount != 1 {
		t.Errorf("a following = %d", aStats.FollowingCount)
	}

	if err := follows.Unfollow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	after, _ := users.GetStats(ctx, b.ID)
	if after.FollowersCount != before.FollowersCount {
		t.Errorf("followers after round trip = %d, want %d", after.FollowersCount, before.FollowersCount)
	}

	if err := follows.Unfollow(ctx, a.ID, b.ID); !errors.Is(err, ErrFollowNotFound) {
		t.Errorf("second unfollow = %v, want ErrFollowNotFound", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
