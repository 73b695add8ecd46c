package feedclient

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hyuniciel/1208-sns-proj/pkg/log"
)

// ModalAPI is the part of the API a Modal needs.
type ModalAPI interface {
	GetPost(ctx context.Context, postID string) (*PostView, error)
	ListComments(ctx context.Context, postID string, limit, offset int) (*CommentPage, error)
	AddComment(ctx context.Context, postID, content string) (*CommentView, error)
	DeleteComment(ctx context.Context, commentID string) error
	Like(ctx context.Context, postID string) (*LikeView, error)
	Unlike(ctx context.Context, postID string) error
}

// Modal is the detail view of one post. It holds its own copy of the post
// and its comments and reports count changes through onChange.
type Modal struct {
	api      ModalAPI
	onChange func(PostView)

	mu       sync.Mutex
	post     PostView
	comments []CommentView
	total    int64
}

// OpenModal fetches postID and its first page of comments. onChange may be
// nil.
func OpenModal(ctx context.Context, api ModalAPI, postID string, onChange func(PostView)) (*Modal, error) {
	var (
		post *PostView
		page *CommentPage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		post, err = api.GetPost(gctx, postID)
		return err
	})
	g.Go(func() error {
		var err error
		page, err = api.ListComments(gctx, postID, 0, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Modal{
		api:      api,
		onChange: onChange,
		post:     *post,
		comments: append([]CommentView(nil), page.Comments...),
		total:    page.Total,
	}, nil
}

// Post returns the modal's copy of the post.
func (m *Modal) Post() PostView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.post
}

// Comments returns the loaded comments, oldest first, and the total count.
func (m *Modal) Comments() ([]CommentView, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CommentView(nil), m.comments...), m.total
}

// HasMoreComments reports whether comments beyond the loaded ones exist.
func (m *Modal) HasMoreComments() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.comments)) < m.total
}

// LoadMoreComments fetches the next page of comments after the loaded ones.
// limit 0 uses the server default.
func (m *Modal) LoadMoreComments(ctx context.Context, limit int) error {
	m.mu.Lock()
	postID := m.post.ID
	offset := len(m.comments)
	m.mu.Unlock()

	page, err := m.api.ListComments(ctx, postID, limit, offset)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{}, len(m.comments))
	for _, c := range m.comments {
		seen[c.ID] = struct{}{}
	}
	for _, c := range page.Comments {
		if _, ok := seen[c.ID]; !ok {
			m.comments = append(m.comments, c)
		}
	}
	m.total = page.Total
	return nil
}

// AddComment posts a comment. It is appended only when every earlier
// comment is loaded; otherwise it arrives with a later page.
func (m *Modal) AddComment(ctx context.Context, content string) (*CommentView, error) {
	m.mu.Lock()
	postID := m.post.ID
	m.mu.Unlock()

	comment, err := m.api.AddComment(ctx, postID, content)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if int64(len(m.comments)) >= m.total {
		m.comments = append(m.comments, *comment)
	}
	m.total++
	m.post.CommentsCount++
	post := m.post
	m.mu.Unlock()

	m.notify(post)
	return comment, nil
}

// DeleteComment deletes one of the viewer's comments. The counts drop
// whether or not the comment is loaded.
func (m *Modal) DeleteComment(ctx context.Context, commentID string) error {
	if err := m.api.DeleteComment(ctx, commentID); err != nil {
		return err
	}

	m.mu.Lock()
	kept := make([]CommentView, 0, len(m.comments))
	for _, c := range m.comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	m.comments = kept
	if m.total > 0 {
		m.total--
	}
	if m.post.CommentsCount > 0 {
		m.post.CommentsCount--
	}
	post := m.post
	m.mu.Unlock()

	m.notify(post)
	return nil
}

// ToggleLike flips the like state optimistically and rolls back on failure.
func (m *Modal) ToggleLike(ctx context.Context) error {
	m.mu.Lock()
	prev := m.post
	liked := !prev.Liked
	m.post = ApplyLike([]PostView{prev}, prev.ID, liked)[0]
	optimistic := m.post
	m.mu.Unlock()

	m.notify(optimistic)

	var err error
	if liked {
		_, err = m.api.Like(ctx, prev.ID)
		if IsStatus(err, http.StatusConflict) {
			err = nil
		}
	} else {
		err = m.api.Unlike(ctx, prev.ID)
	}
	if err == nil {
		return nil
	}

	l := log.Ctx(ctx)
	l.Warn().Err(err).Str(log.FieldPostID, prev.ID).Bool("liked", liked).Msg("like toggle failed, rolling back")

	m.mu.Lock()
	m.post = prev
	m.mu.Unlock()

	m.notify(prev)
	return err
}

func (m *Modal) notify(p PostView) {
	if m.onChange != nil {
		m.onChange(p)
	}
}
