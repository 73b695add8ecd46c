package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyuniciel/1208-sns-proj/internal/audit"
	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/internal/repository"
	"github.com/hyuniciel/1208-sns-proj/pkg/pubsub"
)

// commentService implements CommentService.
type commentService struct {
	comments  repository.CommentRepository
	posts     repository.PostRepository
	publisher pubsub.Publisher
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, publisher pubsub.Publisher) CommentService {
	return &commentService{comments: comments, posts: posts, publisher: publisher}
}

func (s *commentService) ensurePost(ctx context.Context, postID string) error {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("get post: %w", err)
	}
	return nil
}

// ListComments returns a page of a post's comments, oldest first, and the
// post's total comment count.
func (s *commentService) ListComments(ctx context.Context, req domain.ListCommentsRequest) ([]domain.Comment, int64, error) {
	req.Normalize()

	if err := s.ensurePost(ctx, req.PostID); err != nil {
		return nil, 0, err
	}

	comments, total, err := s.comments.ListByPost(ctx, req.PostID, req.Limit, req.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, nil
}

// CreateComment adds a comment. Content is stored trimmed and must not be
// empty after trimming.
func (s *commentService) CreateComment(ctx context.Context, userID string, req domain.CreateCommentRequest) (*domain.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyComment
	}

	if err := s.ensurePost(ctx, req.PostID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{PostID: req.PostID, UserID: userID, Content: content}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	publish(ctx, s.publisher, pubsub.EventCommentCreated, req.PostID, userID, map[string]string{
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"user_id":    userID,
	})
	return comment, nil
}

// DeleteComment removes a comment written by userID. The owner of the post
// has no special rights here.
func (s *commentService) DeleteComment(ctx context.Context, userID, commentID string) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("get comment: %w", err)
	}
	if comment.UserID != userID {
		return ErrNotCommentOwner
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}

	audit.Log(ctx, audit.ActionCommentDeleted, userID, commentID, "comment deleted")
	publish(ctx, s.publisher, pubsub.EventCommentDeleted, comment.PostID, userID, map[string]string{
		"comment_id": commentID,
		"post_id":    comment.PostID,
		"user_id":    userID,
	})
	return nil
}

var _ CommentService = (*commentService)(nil)
