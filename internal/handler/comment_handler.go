package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/internal/service"
	"github.com/hyuniciel/1208-sns-proj/pkg/log"
	"github.com/hyuniciel/1208-sns-proj/pkg/middleware"
	"github.com/hyuniciel/1208-sns-proj/pkg/response"
)

// ListComments returns a post's comments, oldest first.
func (h *Handler) ListComments(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.ListCommentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		l.Warn().Err(err).Msg("invalid list comments query")
		response.BadRequest(c, "post_id is required")
		return
	}

	comments, total, err := h.commentService.ListComments(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			response.NotFound(c, msgPostNotFound)
			return
		}
		l.Error().Err(err).Str(log.FieldPostID, req.PostID).Msg("list comments failed")
		response.InternalError(c, msgInternal)
		return
	}

	views := make([]domain.CommentResponse, 0, len(comments))
	for i := range comments {
		views = append(views, comments[i].ToResponse())
	}
	response.OK(c, domain.ListCommentsResponse{Comments: views, Total: total})
}

// CreateComment adds a comment to a post.
func (h *Handler) CreateComment(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, msgUnauthorized)
		return
	}

	var req domain.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid create comment request")
		response.BadRequest(c, msgInvalidRequestBody)
		return
	}

	comment, err := h.commentService.CreateComment(ctx, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyComment):
			response.BadRequest(c, msgCommentRequired)
		case errors.Is(err, service.ErrPostNotFound):
			response.NotFound(c, msgPostNotFound)
		default:
			l.Error().Err(err).Str(log.FieldPostID, req.PostID).Msg("create comment failed")
			response.InternalError(c, msgInternal)
		}
		return
	}

	response.Created(c, domain.CreateCommentResponse{Success: true, Comment: comment.ToResponse()})
}

// DeleteComment deletes a comment written by the caller.
func (h *Handler) DeleteComment(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, msgUnauthorized)
		return
	}

	var req domain.DeleteCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid delete comment request")
		response.BadRequest(c, msgInvalidRequestBody)
		return
	}

	if err := h.commentService.DeleteComment(ctx, userID, req.CommentID); err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			response.NotFound(c, msgCommentNotFound)
		case errors.Is(err, service.ErrNotCommentOwner):
			response.Forbidden(c, msgNotCommentOwner)
		default:
			l.Error().Err(err).Str(log.FieldCommentID, req.CommentID).Msg("delete comment failed")
			response.InternalError(c, msgInternal)
		}
		return
	}

	response.Success(c, "")
}
