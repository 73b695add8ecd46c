package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/hyuniciel/1208-sns-proj/internal/audit"
	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/internal/repository"
	"github.com/hyuniciel/1208-sns-proj/pkg/log"
	"github.com/hyuniciel/1208-sns-proj/pkg/pubsub"
	"github.com/hyuniciel/1208-sns-proj/pkg/storage"
)

const cleanupTimeout = 30 * time.Second

// postService implements PostService.
type postService struct {
	posts     repository.PostRepository
	likes     repository.LikeRepository
	store     storage.Storage
	publisher pubsub.Publisher

	cleanups sync.WaitGroup
}

// NewPostService creates a new PostService.
func NewPostService(
	posts repository.PostRepository,
	likes repository.LikeRepository,
	store storage.Storage,
	publisher pubsub.Publisher,
) PostService {
	return &postService{
		posts:     posts,
		likes:     likes,
		store:     store,
		publisher: publisher,
	}
}

// ListPosts returns one page of the feed for viewerID. HasMore is set when
// the page came back full; an exactly full last page reports true once and
// the next request comes back empty.
func (s *postService) ListPosts(ctx context.Context, viewerID string, req domain.ListPostsRequest) (*domain.PostPage, error) {
	req.Normalize()

	rows, err := s.posts.List(ctx, req.UserID, req.Limit, req.Offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PostID)
	}
	liked, err := s.likes.LikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("load liked posts: %w", err)
	}

	items := make([]domain.PostFeedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.PostFeedItem{Stats: row, Liked: liked[row.PostID]})
	}

	return &domain.PostPage{
		Items:   items,
		Limit:   req.Limit,
		Offset:  req.Offset,
		HasMore: len(items) == req.Limit,
	}, nil
}

// CreatePost validates the upload, stores the image under the owner's
// prefix and inserts the post. If the insert fails the stored object is
// removed in the background; a failed removal is only logged.
func (s *postService) CreatePost(ctx context.Context, ownerID, ownerExternalID string, in *domain.CreatePostInput) (*domain.PostFeedItem, error) {
	l := log.Ctx(ctx)

	contentType, ext, err := validateImage(in.Image)
	if err != nil {
		l.Debug().Err(err).Str("filename", in.Filename).Int("size", len(in.Image)).Msg("upload rejected")
		return nil, err
	}
	caption, err := normalizeCaption(in.Caption)
	if err != nil {
		return nil, err
	}

	key := ownerExternalID + "/" + uuid.New().String() + ext
	if err := s.store.Write(ctx, key, bytes.NewReader(in.Image), int64(len(in.Image)), contentType); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	post := &domain.Post{
		UserID:   ownerID,
		ImageURL: s.store.PublicURL(key),
		ImageKey: key,
		Caption:  caption,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		l.Error().Err(err).Str(log.FieldObjectKey, key).Msg("failed to insert post, removing uploaded image")
		s.removeObjectAsync(ctx, key)
		return nil, fmt.Errorf("insert post: %w", err)
	}

	audit.Log(ctx, audit.ActionPostCreated, ownerID, post.ID, "post created")
	publish(ctx, s.publisher, pubsub.EventPostCreated, post.ID, ownerID, map[string]string{
		"post_id":   post.ID,
		"user_id":   ownerID,
		"image_url": post.ImageURL,
	})

	stats, err := s.posts.GetStats(ctx, post.ID)
	if err != nil {
		// The post exists; answer with what the insert returned.
		l.Warn().Err(err).Str(log.FieldPostID, post.ID).Msg("failed to reload created post, returning inserted row")
		return &domain.PostFeedItem{Stats: domain.PostStats{
			PostID:         post.ID,
			UserID:         post.UserID,
			ImageURL:       post.ImageURL,
			ImageKey:       post.ImageKey,
			Caption:        post.Caption,
			CreatedAt:      post.CreatedAt,
			UpdatedAt:      post.UpdatedAt,
			UserExternalID: ownerExternalID,
		}}, nil
	}
	return &domain.PostFeedItem{Stats: *stats}, nil
}

// GetPost returns one post as seen by viewerID.
func (s *postService) GetPost(ctx context.Context, viewerID, postID string) (*domain.PostFeedItem, error) {
	stats, err := s.posts.GetStats(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}

	item := &domain.PostFeedItem{Stats: *stats}
	if viewerID != "" {
		liked, err := s.likes.LikedPostIDs(ctx, viewerID, []string{postID})
		if err != nil {
			return nil, fmt.Errorf("load liked state: %w", err)
		}
		item.Liked = liked[postID]
	}
	return item, nil
}

// DeletePost removes a post owned by requesterID. The image is deleted
// first; if that fails the row is deleted anyway.
func (s *postService) DeletePost(ctx context.Context, requesterID, postID string) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("get post: %w", err)
	}
	if post.UserID != requesterID {
		return ErrNotPostOwner
	}

	if post.ImageKey != "" {
		s.deleteImage(ctx, postID, post.ImageKey)
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}

	audit.Log(ctx, audit.ActionPostDeleted, requesterID, postID, "post deleted")
	publish(ctx, s.publisher, pubsub.EventPostDeleted, postID, requesterID, map[string]string{
		"post_id": postID,
		"user_id": requesterID,
	})
	return nil
}

// deleteImage removes a post's stored image. Failures are logged only.
func (s *postService) deleteImage(ctx context.Context, postID, key string) {
	l := log.Ctx(ctx)

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		l.Warn().Err(err).Str(log.FieldObjectKey, key).Msg("failed to check post image, deleting anyway")
		exists = true
	}
	if !exists {
		l.Info().Str(log.FieldPostID, postID).Str(log.FieldObjectKey, key).Msg("post image already gone")
		return
	}

	if err := s.store.Delete(ctx, key); err != nil {
		l.Warn().Err(err).
			Str(log.FieldPostID, postID).
			Str(log.FieldObjectKey, key).
			Msg("failed to delete post image, deleting row anyway")
	}
}

// Drain waits for background object removals.
func (s *postService) Drain() {
	s.cleanups.Wait()
}

func (s *postService) removeObjectAsync(ctx context.Context, key string) {
	cleanupCtx := log.Detach(ctx)

	s.cleanups.Add(1)
	go func() {
		defer s.cleanups.Done()

		ctx, cancel := context.WithTimeout(cleanupCtx, cleanupTimeout)
		defer cancel()

		l := log.Ctx(ctx)
		if err := s.store.Delete(ctx, key); err != nil {
			l.Warn().Err(err).Str(log.FieldObjectKey, key).Msg("failed to remove orphaned image")
		}
	}()
}

// validateImage checks size and sniffed content type and returns the MIME
// type with the object extension to use.
func validateImage(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", ErrImageRequired
	}
	if len(data) > domain.MaxImageSize {
		return "", "", ErrImageTooLarge
	}

	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		if ext, ok := domain.AllowedImageTypes[mt.String()]; ok {
			return mt.String(), ext, nil
		}
	}
	return "", "", ErrInvalidImageType
}

// normalizeCaption trims the caption and enforces its length. An empty
// caption is stored as NULL.
func normalizeCaption(raw string) (*string, error) {
	caption := strings.TrimSpace(raw)
	if caption == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(caption) > domain.MaxCaptionLength {
		return nil, ErrCaptionTooLong
	}
	return &caption, nil
}

var _ PostService = (*postService)(nil)
