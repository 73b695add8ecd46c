package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyuniciel/1208-sns-proj/internal/cache"
	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/internal/repository"
	"github.com/hyuniciel/1208-sns-proj/pkg/database"
	"github.com/hyuniciel/1208-sns-proj/pkg/middleware"
	"github.com/hyuniciel/1208-sns-proj/pkg/pubsub"
	"github.com/hyuniciel/1208-sns-proj/pkg/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*pubsub.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	users    *repository.GormUserRepository
	posts    *repository.GormPostRepository
	likes    *repository.GormLikeRepository
	comments *repository.GormCommentRepository
	follows  *repository.GormFollowRepository
	store    *storage.LocalStorage
	events   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := database.New(&database.Config{
		Driver:   "sqlite",
		FilePath: filepath.Join(dir, "feed.db"),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath:      filepath.Join(dir, "media"),
		PublicBaseURL: "http://localhost/media",
	})
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	return &fixture{
		users:    repository.NewGormUserRepository(db),
		posts:    repository.NewGormPostRepository(db),
		likes:    repository.NewGormLikeRepository(db),
		comments: repository.NewGormCommentRepository(db),
		follows:  repository.NewGormFollowRepository(db),
		store:    store,
		events:   &recordingPublisher{},
	}
}

func (f *fixture) user(t *testing.T, externalID string) *domain.User {
	t.Helper()
	u := &domain.User{ExternalID: externalID, Name: externalID}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCreatePost_Validation(t *testing.T) {
	f := newFixture(t)
	svc := NewPostService(f.posts, f.likes, f.store, f.events)
	u := f.user(t, "owner")
	ctx := context.Background()

	tests := []struct {
		name string
		in   domain.CreatePostInput
		want error
	}{
		{"empty image", domain.CreatePostInput{}, ErrImageRequired},
		{"too large", domain.CreatePostInput{Image: make([]byte, domain.MaxImageSize+1)}, ErrImageTooLarge},
		{"text file", domain.CreatePostInput{Image: []byte("just some text\n"), Filename: "a.txt"}, ErrInvalidImageType},
		{"long caption", domain.CreatePostInput{Image: pngBytes(t), Caption: strings.Repeat("가", domain.MaxCaptionLength+1)}, ErrCaptionTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			if _, err := svc.CreatePost(ctx, u.ID, u.ExternalID, &in); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreatePost_StoresImageAndTrimsCaption(t *testing.T) {
	f := newFixture(t)
	svc := NewPostService(f.posts, f.likes, f.store, f.events)
	u := f.user(t, "owner")
	ctx := context.Background()

	// Exactly at the limit is accepted once trimmed.
	caption := "  " + strings.Repeat("a", domain.MaxCaptionLength) + "  "
	item, err := svc.CreatePost(ctx, u.ID, u.ExternalID, &domain.CreatePostInput{Image: pngBytes(t), Caption: caption})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if item.Stats.Caption == nil || len(*item.Stats.Caption) != domain.MaxCaptionLength {
		t.Errorf("caption not trimmed: %v", item.Stats.Caption)
	}
	if !strings.HasPrefix(item.Stats.ImageKey, "owner/") || !strings.HasSuffix(item.Stats.ImageKey, ".png") {
		t.Errorf("image key = %q", item.Stats.ImageKey)
	}
	if item.Stats.ImageURL != "http://localhost/media/"+item.Stats.ImageKey {
		t.Errorf("image url = %q", item.Stats.ImageURL)
	}
	ok, err := f.store.Exists(ctx, item.Stats.ImageKey)
	if err != nil || !ok {
		t.Errorf("object missing: %v, %v", ok, err)
	}

	blank, err := svc.CreatePost(ctx, u.ID, u.ExternalID, &domain.CreatePostInput{Image: pngBytes(t), Caption: "   "})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if blank.Stats.Caption != nil {
		t.Errorf("blank caption stored as %q", *blank.Stats.Caption)
	}

	if got := f.events.types(); len(got) != 2 || got[0] != pubsub.EventPostCreated {
		t.Errorf("events = %v", got)
	}
}

type failingPostRepo struct {
	repository.PostRepository
}

func (failingPostRepo) Create(context.Context, *domain.Post) error {
	return errors.New("insert failed")
}

func TestCreatePost_InsertFailureRemovesObject(t *testing.T) {
	f := newFixture(t)
	svc := NewPostService(failingPostRepo{f.posts}, f.likes, f.store, f.events)
	u := f.user(t, "owner")
	ctx := context.Background()

	if _, err := svc.CreatePost(ctx, u.ID, u.ExternalID, &domain.CreatePostInput{Image: pngBytes(t)}); err == nil {
		t.Fatal("expected error")
	}
	svc.Drain()

	matches, err := filepath.Glob(filepath.Join(f.store.BasePath(), "owner", "*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("orphaned objects left: %v", matches)
	}
	if got := f.events.types(); len(got) != 0 {
		t.Errorf("events after failed insert = %v", got)
	}
}

type statsFailingPostRepo struct {
	repository.PostRepository
}

func (statsFailingPostRepo) GetStats(context.Context, string) (*domain.PostStats, error) {
	return nil, errors.New("view unavailable")
}

func TestCreatePost_ReloadFailureReturnsInsertedPost(t *testing.T) {
	f := newFixture(t)
	svc := NewPostService(statsFailingPostRepo{f.posts}, f.likes, f.store, f.events)
	u := f.user(t, "owner")
	ctx := context.Background()

	item, err := svc.CreatePost(ctx, u.ID, u.ExternalID, &domain.CreatePostInput{Image: pngBytes(t), Caption: " hi "})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if item.Stats.PostID == "" || item.Stats.UserID != u.ID || item.Stats.UserExternalID != "owner" {
		t.Errorf("item = %+v", item.Stats)
	}
	if item.Stats.Caption == nil || *item.Stats.Caption != "hi" {
		t.Errorf("caption = %v", item.Stats.Caption)
	}
	if ok, _ := f.store.Exists(ctx, item.Stats.ImageKey); !ok {
		t.Error("image not stored")
	}
	if _, err := f.posts.GetByID(ctx, item.Stats.PostID); err != nil {
		t.Errorf("inserted row missing: %v", err)
	}
}

// countingStore records deletes reaching the underlying storage.
type countingStore struct {
	*storage.LocalStorage
	deletes atomic.Int32
}

func (s *countingStore) Delete(ctx context.Context, key string) error {
	s.deletes.Add(1)
	return s.LocalStorage.Delete(ctx, key)
}

func TestDeletePost_SkipsMissingImage(t *testing.T) {
	f := newFixture(t)
	store := &countingStore{LocalStorage: f.store}
	svc := NewPostService(f.posts, f.likes, store, f.events)
	owner := f.user(t, "owner")
	ctx := context.Background()

	item, err := svc.CreatePost(ctx, owner.ID, owner.ExternalID, &domain.CreatePostInput{Image: pngBytes(t)})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if err := f.store.Delete(ctx, item.Stats.ImageKey); err != nil {
		t.Fatalf("remove image: %v", err)
	}

	if err := svc.DeletePost(ctx, owner.ID, item.Stats.PostID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if n := store.deletes.Load(); n != 0 {
		t.Errorf("storage deletes = %d, want 0", n)
	}
	if _, err := svc.GetPost(ctx, "", item.Stats.PostID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("GetPost after delete = %v", err)
	}
}

func TestDeletePost_OwnerOnlyAndRemovesObject(t *testing.T) {
	f := newFixture(t)
	svc := NewPostService(f.posts, f.likes, f.store, f.events)
	owner := f.user(t, "owner")
	other := f.user(t, "other")
	ctx := context.Background()

	item, err := svc.CreatePost(ctx, owner.ID, owner.ExternalID, &domain.CreatePostInput{Image: pngBytes(t)})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	postID := item.Stats.PostID

	if err := svc.DeletePost(ctx, other.ID, postID); !errors.Is(err, ErrNotPostOwner) {
		t.Fatalf("non-owner delete = %v", err)
	}
	if err := svc.DeletePost(ctx, owner.ID, postID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if ok, _ := f.store.Exists(ctx, item.Stats.ImageKey); ok {
		t.Error("object still stored")
	}
	if _, err := svc.GetPost(ctx, "", postID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("GetPost after delete = %v", err)
	}
	if err := svc.DeletePost(ctx, owner.ID, postID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestListPosts_LikedFlagAndHasMore(t *testing.T) {
	f := newFixture(t)
	postSvc := NewPostService(f.posts, f.likes, f.store, f.events)
	likeSvc := NewLikeService(f.likes, f.posts, f.events)
	owner := f.user(t, "owner")
	viewer := f.user(t, "viewer")
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		item, err := postSvc.CreatePost(ctx, owner.ID, owner.ExternalID, &domain.CreatePostInput{Image: pngBytes(t)})
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		ids = append(ids, item.Stats.PostID)
	}
	if _, err := likeSvc.Like(ctx, viewer.ID, ids[1]); err != nil {
		t.Fatalf("Like: %v", err)
	}

	page, err := postSvc.ListPosts(ctx, viewer.ID, domain.ListPostsRequest{Limit: 3})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if !page.HasMore {
		t.Error("full page should report has_more")
	}
	for _, item := range page.Items {
		if want := item.Stats.PostID == ids[1]; item.Liked != want {
			t.Errorf("post %s liked = %v, want %v", item.Stats.PostID, item.Liked, want)
		}
	}

	page, err = postSvc.ListPosts(ctx, viewer.ID, domain.ListPostsRequest{Limit: 3, Offset: 3})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if page.HasMore || len(page.Items) != 0 {
		t.Errorf("past the end: has_more=%v items=%d", page.HasMore, len(page.Items))
	}

	page, err = postSvc.ListPosts(ctx, owner.ID, domain.ListPostsRequest{Limit: 500})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if page.Limit != domain.MaxPostLimit || page.HasMore {
		t.Errorf("limit = %d has_more = %v", page.Limit, page.HasMore)
	}
}

func TestLikeService(t *testing.T) {
	f := newFixture(t)
	postSvc := NewPostService(f.posts, f.likes, f.store, f.events)
	svc := NewLikeService(f.likes, f.posts, f.events)
	u := f.user(t, "u")
	ctx := context.Background()

	item, err := postSvc.CreatePost(ctx, u.ID, u.ExternalID, &domain.CreatePostInput{Image: pngBytes(t)})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	postID := item.Stats.PostID

	if _, err := svc.Like(ctx, u.ID, "missing"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("like missing post = %v", err)
	}
	if _, err := svc.Like(ctx, u.ID, postID); err != nil {
		t.Fatalf("Like: %v", err)
	}
	if _, err := svc.Like(ctx, u.ID, postID); !errors.Is(err, ErrAlreadyLiked) {
		t.Errorf("second like = %v", err)
	}
	if err := svc.Unlike(ctx, u.ID, postID); err != nil {
		t.Errorf("Unlike: %v", err)
	}
	if err := svc.Unlike(ctx, u.ID, postID); err != nil {
		t.Errorf("Unlike with nothing to remove: %v", err)
	}

	var deleted int
	for _, typ := range f.events.types() {
		if typ == pubsub.EventLikeDeleted {
			deleted++
		}
	}
	if deleted != 1 {
		t.Errorf("like.deleted events = %d, want 1", deleted)
	}
}

func TestCommentService(t *testing.T) {
	f := newFixture(t)
	postSvc := NewPostService(f.posts, f.likes, f.store, f.events)
	svc := NewCommentService(f.comments, f.posts, f.events)
	owner := f.user(t, "owner")
	author := f.user(t, "author")
	ctx := context.Background()

	item, err := postSvc.CreatePost(ctx, owner.ID, owner.ExternalID, &domain.CreatePostInput{Image: pngBytes(t)})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	postID := item.Stats.PostID

	if _, err := svc.CreateComment(ctx, author.ID, domain.CreateCommentRequest{PostID: postID, Content: " \t\n "}); !errors.Is(err, ErrEmptyComment) {
		t.Errorf("whitespace comment = %v", err)
	}
	if _, err := svc.CreateComment(ctx, author.ID, domain.CreateCommentRequest{PostID: "missing", Content: "hi"}); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("comment on missing post = %v", err)
	}

	c, err := svc.CreateComment(ctx, author.ID, domain.CreateCommentRequest{PostID: postID, Content: "  hello  "})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if c.Content != "hello" || c.Author.ExternalID != "author" {
		t.Errorf("comment = %+v", c)
	}

	// The post owner is not the comment author.
	if err := svc.DeleteComment(ctx, owner.ID, c.ID); !errors.Is(err, ErrNotCommentOwner) {
		t.Errorf("owner deleting other's comment = %v", err)
	}

	list, total, err := svc.ListComments(ctx, domain.ListCommentsRequest{PostID: postID})
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("ListComments = %d items, total %d, %v", len(list), total, err)
	}

	if err := svc.DeleteComment(ctx, author.ID, c.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if err := svc.DeleteComment(ctx, author.ID, c.ID); !errors.Is(err, ErrCommentNotFound) {
		t.Errorf("second delete = %v", err)
	}
	if _, _, err := svc.ListComments(ctx, domain.ListCommentsRequest{PostID: "missing"}); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("list on missing post = %v", err)
	}
}

func TestFollowService(t *testing.T) {
	f := newFixture(t)
	svc := NewFollowService(f.follows, f.users, f.events)
	a := f.user(t, "a")
	b := f.user(t, "b")
	ctx := context.Background()

	if _, err := svc.Follow(ctx, a.ID, a.ID); !errors.Is(err, ErrSelfFollow) {
		t.Errorf("self follow = %v", err)
	}
	if _, err := svc.Follow(ctx, a.ID, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("follow missing user = %v", err)
	}
	if _, err := svc.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if _, err := svc.Follow(ctx, a.ID, b.ID); !errors.Is(err, ErrAlreadyFollowing) {
		t.Errorf("duplicate follow = %v", err)
	}
	if err := svc.Unfollow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	if err := svc.Unfollow(ctx, a.ID, b.ID); !errors.Is(err, ErrNotFollowing) {
		t.Errorf("unfollow again = %v", err)
	}
}

func TestUserService_GetProfile(t *testing.T) {
	f := newFixture(t)
	followSvc := NewFollowService(f.follows, f.users, f.events)
	svc := NewUserService(f.users, f.follows)
	a := f.user(t, "a")
	b := f.user(t, "b")
	ctx := context.Background()

	if _, err := followSvc.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	p, err := svc.GetProfile(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.IsOwnProfile || p.IsFollowing == nil || !*p.IsFollowing || p.Stats.FollowersCount != 1 {
		t.Errorf("viewer profile = %+v", p)
	}

	p, err = svc.GetProfile(ctx, b.ID, b.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !p.IsOwnProfile || p.IsFollowing != nil {
		t.Errorf("own profile = %+v", p)
	}

	p, err = svc.GetProfile(ctx, "", b.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.IsOwnProfile || p.IsFollowing != nil {
		t.Errorf("anonymous profile = %+v", p)
	}

	if _, err := svc.GetProfile(ctx, a.ID, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing profile = %v", err)
	}
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *memoryCache) Get(_ context.Context, externalID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[externalID]; ok {
		return v, nil
	}
	return "", cache.ErrCacheMiss
}

func (c *memoryCache) Set(_ context.Context, externalID, userID string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[externalID] = userID
	return nil
}

func (c *memoryCache) Close() error { return nil }

func TestResolveSubject_CreatesOnce(t *testing.T) {
	f := newFixture(t)
	mc := &memoryCache{data: map[string]string{}}
	svc := NewIdentityService(f.users, mc, time.Hour)
	ctx := context.Background()
	subject := middleware.Subject{ExternalID: "auth|new", DisplayName: "New User"}

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = svc.ResolveSubject(ctx, subject)
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("worker %d resolved %s, worker 0 resolved %s", i, ids[i], ids[0])
		}
	}

	u, err := f.users.GetByExternalID(ctx, "auth|new")
	if err != nil {
		t.Fatalf("GetByExternalID: %v", err)
	}
	if u.ID != ids[0] || u.Name != "New User" {
		t.Errorf("user = %+v", u)
	}
	if cached, _ := mc.Get(ctx, "auth|new"); cached != u.ID {
		t.Errorf("cache = %q, want %q", cached, u.ID)
	}

	if _, err := svc.ResolveSubject(ctx, middleware.Subject{}); !errors.Is(err, ErrNoSubject) {
		t.Errorf("empty subject = %v", err)
	}
}

// blockingUserRepo holds the first external-id lookup until release is
// closed or the lookup's context is cancelled.
type blockingUserRepo struct {
	repository.UserRepository
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (r *blockingUserRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	if r.calls.Add(1) == 1 {
		close(r.entered)
		select {
		case <-r.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.UserRepository.GetByExternalID(ctx, externalID)
}

func TestResolveSubject_CancelledCallerDoesNotFailOthers(t *testing.T) {
	f := newFixture(t)
	repo := &blockingUserRepo{
		UserRepository: f.users,
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	svc := NewIdentityService(repo, nil, time.Hour)
	subject := middleware.Subject{ExternalID: "auth|shared", DisplayName: "Shared"}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.ResolveSubject(firstCtx, subject)
		firstDone <- err
	}()
	<-repo.entered

	type result struct {
		id  string
		err error
	}
	secondDone := make(chan result, 1)
	go func() {
		id, err := svc.ResolveSubject(context.Background(), subject)
		secondDone <- result{id, err}
	}()

	// Let the second caller join the in-flight lookup before the first goes away.
	time.Sleep(50 * time.Millisecond)
	cancelFirst()
	time.Sleep(10 * time.Millisecond)
	close(repo.release)

	second := <-secondDone
	if second.err != nil {
		t.Fatalf("live caller failed: %v", second.err)
	}
	<-firstDone

	u, err := f.users.GetByExternalID(context.Background(), "auth|shared")
	if err != nil {
		t.Fatalf("GetByExternalID: %v", err)
	}
	if second.id != u.ID {
		t.Errorf("resolved %q, stored %q", second.id, u.ID)
	}
}
