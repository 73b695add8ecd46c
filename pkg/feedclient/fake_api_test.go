package feedclient

import (
	"context"
	"net/http"
	"strconv"
	"sync"
)

// fakeAPI is an in-memory stand-in for the feed API.
type fakeAPI struct {
	mu       sync.Mutex
	posts    []PostView
	liked    map[string]bool
	comments map[string][]CommentView
	profiles map[string]*ProfileView
	nextID   int

	failLike   error
	failFollow error
	listCalls  []ListPostsParams
}

func newFakeAPI(n int) *fakeAPI {
	f := &fakeAPI{
		liked:    map[string]bool{},
		comments: map[string][]CommentView{},
		profiles: map[string]*ProfileView{},
	}
	for i := n - 1; i >= 0; i-- {
		f.posts = append(f.posts, PostView{ID: "p" + strconv.Itoa(i)})
	}
	return f
}

func (f *fakeAPI) ListPosts(_ context.Context, p ListPostsParams) (*PostPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, p)

	limit := p.Limit
	if limit == 0 {
		limit = 10
	}
	end := p.Offset + limit
	if end > len(f.posts) {
		end = len(f.posts)
	}
	var data []PostView
	if p.Offset < len(f.posts) {
		data = append(data, f.posts[p.Offset:end]...)
	}
	page := &PostPage{Data: data, HasMore: len(data) == limit}
	if page.HasMore {
		next := p.Offset + len(data)
		page.NextOffset = &next
	}
	return page, nil
}

func (f *fakeAPI) GetPost(_ context.Context, id string) (*PostView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			p.Liked = f.liked[id]
			return &p, nil
		}
	}
	return nil, &APIError{Status: http.StatusNotFound, Message: "Post not found"}
}

func (f *fakeAPI) Like(_ context.Context, id string) (*LikeView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLike != nil {
		return nil, f.failLike
	}
	if f.liked[id] {
		return nil, &APIError{Status: http.StatusConflict, Message: "Already liked"}
	}
	f.liked[id] = true
	return &LikeView{PostID: id}, nil
}

func (f *fakeAPI) Unlike(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLike != nil {
		return f.failLike
	}
	delete(f.liked, id)
	return nil
}

func (f *fakeAPI) DeletePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = RemovePost(f.posts, id)
	return nil
}

func (f *fakeAPI) ListComments(_ context.Context, postID string, limit, offset int) (*CommentPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs := f.comments[postID]
	if limit == 0 {
		limit = 20
	}
	var out []CommentView
	if offset < len(cs) {
		end := offset + limit
		if end > len(cs) {
			end = len(cs)
		}
		out = append(out, cs[offset:end]...)
	}
	return &CommentPage{Comments: out, Total: int64(len(cs))}, nil
}

func (f *fakeAPI) AddComment(_ context.Context, postID, content string) (*CommentView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c := CommentView{ID: "c" + strconv.Itoa(f.nextID), PostID: postID, Content: content}
	f.comments[postID] = append(f.comments[postID], c)
	return &c, nil
}

func (f *fakeAPI) DeleteComment(_ context.Context, commentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for postID, cs := range f.comments {
		for i, c := range cs {
			if c.ID == commentID {
				f.comments[postID] = append(cs[:i:i], cs[i+1:]...)
				return nil
			}
		}
	}
	return &APIError{Status: http.StatusNotFound, Message: "Comment not found"}
}

func (f *fakeAPI) GetProfile(_ context.Context, id string) (*ProfileView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, &APIError{Status: http.StatusNotFound, Message: "User not found"}
	}
	v := *p
	return &v, nil
}

func (f *fakeAPI) Follow(_ context.Context, id string) (*FollowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFollow != nil {
		return nil, f.failFollow
	}
	return &FollowView{FollowingID: id}, nil
}

func (f *fakeAPI) Unfollow(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failFollow
}
