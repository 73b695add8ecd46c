package feedclient

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/hyuniciel/1208-sns-proj/pkg/log"
)

// Status is the load state of a Feed.
type Status string

const (
	StatusIdle           Status = "idle"
	StatusLoadingInitial Status = "loading-initial"
	StatusLoaded         Status = "loaded"
	StatusLoadingMore    Status = "loading-more"
	StatusError          Status = "error"
)

// ErrBusy is returned when a load is requested while another is running.
var ErrBusy = errors.New("feed is already loading")

// FeedAPI is the part of the API a Feed needs.
type FeedAPI interface {
	ListPosts(ctx context.Context, p ListPostsParams) (*PostPage, error)
	Like(ctx context.Context, postID string) (*LikeView, error)
	Unlike(ctx context.Context, postID string) error
	DeletePost(ctx context.Context, postID string) error
}

// FeedState is a copy of a Feed's state at one point in time.
type FeedState struct {
	Status  Status
	Posts   []PostView
	HasMore bool
	Err     error
}

// Feed is the view-model of a scrolling post list. Mutations patch the list
// in memory; nothing is re-fetched after a like, comment or delete.
type Feed struct {
	api      FeedAPI
	userID   string
	pageSize int

	mu         sync.Mutex
	status     Status
	posts      []PostView
	hasMore    bool
	nextOffset int
	err        error
}

// NewFeed creates an idle Feed. userID restricts the feed to one author;
// pageSize 0 uses the server default.
func NewFeed(api FeedAPI, userID string, pageSize int) *Feed {
	return &Feed{
		api:      api,
		userID:   userID,
		pageSize: pageSize,
		status:   StatusIdle,
	}
}

// LoadInitial fetches the first page, replacing whatever was loaded.
func (f *Feed) LoadInitial(ctx context.Context) error {
	f.mu.Lock()
	if f.status == StatusLoadingInitial || f.status == StatusLoadingMore {
		f.mu.Unlock()
		return ErrBusy
	}
	f.status = StatusLoadingInitial
	f.err = nil
	f.mu.Unlock()

	page, err := f.api.ListPosts(ctx, ListPostsParams{Limit: f.pageSize, UserID: f.userID})

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.status = StatusError
		f.err = err
		return err
	}
	f.posts = AppendPage(nil, page.Data)
	f.applyPaging(page, 0)
	f.status = StatusLoaded
	return nil
}

// LoadMore fetches the next page when the end of the list comes into view.
// It does nothing unless the feed is loaded and the last page was full.
func (f *Feed) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if f.status != StatusLoaded || !f.hasMore {
		f.mu.Unlock()
		return nil
	}
	f.status = StatusLoadingMore
	offset := f.nextOffset
	f.mu.Unlock()

	page, err := f.api.ListPosts(ctx, ListPostsParams{Limit: f.pageSize, Offset: offset, UserID: f.userID})

	f.mu.Lock()
	defer f.mu.Unlock()
	// A failed page keeps what is already shown.
	f.status = StatusLoaded
	if err != nil {
		f.err = err
		return err
	}
	f.posts = AppendPage(f.posts, page.Data)
	f.applyPaging(page, offset)
	return nil
}

func (f *Feed) applyPaging(page *PostPage, offset int) {
	f.hasMore = page.HasMore
	switch {
	case page.NextOffset != nil:
		f.nextOffset = *page.NextOffset
	default:
		f.nextOffset = offset + len(page.Data)
	}
}

// ToggleLike flips the viewer's like on postID at once and calls the API.
// On failure the post goes back to how it was.
func (f *Feed) ToggleLike(ctx context.Context, postID string) error {
	f.mu.Lock()
	prev, ok := findPost(f.posts, postID)
	if !ok {
		f.mu.Unlock()
		return nil
	}
	liked := !prev.Liked
	f.posts = ApplyLike(f.posts, postID, liked)
	f.mu.Unlock()

	var err error
	if liked {
		_, err = f.api.Like(ctx, postID)
		// The server already has the like; the optimistic state is right.
		if IsStatus(err, http.StatusConflict) {
			err = nil
		}
	} else {
		err = f.api.Unlike(ctx, postID)
	}
	if err == nil {
		return nil
	}

	l := log.Ctx(ctx)
	l.Warn().Err(err).Str(log.FieldPostID, postID).Bool("liked", liked).Msg("like toggle failed, rolling back")

	f.mu.Lock()
	f.posts = ReplacePost(f.posts, prev)
	f.mu.Unlock()
	return err
}

// DeletePost deletes postID and drops it from the list once the API agrees.
func (f *Feed) DeletePost(ctx context.Context, postID string) error {
	if err := f.api.DeletePost(ctx, postID); err != nil {
		return err
	}
	f.mu.Lock()
	f.posts = RemovePost(f.posts, postID)
	f.mu.Unlock()
	return nil
}

// CommentAdded records a comment created elsewhere, e.g. in a Modal.
func (f *Feed) CommentAdded(postID string) {
	f.mu.Lock()
	f.posts = ApplyCommentAdded(f.posts, postID)
	f.mu.Unlock()
}

// CommentDeleted records a comment deleted elsewhere.
func (f *Feed) CommentDeleted(postID string) {
	f.mu.Lock()
	f.posts = ApplyCommentDeleted(f.posts, postID)
	f.mu.Unlock()
}

// SyncPost copies the counts and like state of p into the list. It is the
// callback a Modal reports changes through.
func (f *Feed) SyncPost(p PostView) {
	f.mu.Lock()
	f.posts = ReplacePost(f.posts, p)
	f.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (f *Feed) Snapshot() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FeedState{
		Status:  f.status,
		Posts:   clone(f.posts),
		HasMore: f.hasMore,
		Err:     f.err,
	}
}
