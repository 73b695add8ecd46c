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

// CreateLike likes a post.
func (h *Handler) CreateLike(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, msgUnauthorized)
		return
	}

	var req domain.LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid like request")
		response.BadRequest(c, msgInvalidRequestBody)
		return
	}

	like, err := h.likeService.Like(ctx, userID, req.PostID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			response.NotFound(c, msgPostNotFound)
		case errors.Is(err, service.ErrAlreadyLiked):
			response.Conflict(c, msgAlreadyLiked)
		default:
			l.Error().Err(err).Str(log.FieldPostID, req.PostID).Msg("like failed")
			response.InternalError(c, msgInternal)
		}
		return
	}

	response.Created(c, domain.CreateLikeResponse{Success: true, Like: like.ToResponse()})
}

// DeleteLike removes the caller's like from a post.
func (h *Handler) DeleteLike(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, msgUnauthorized)
		return
	}

	var req domain.LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid unlike request")
		response.BadRequest(c, msgInvalidRequestBody)
		return
	}

	if err := h.likeService.Unlike(ctx, userID, req.PostID); err != nil {
		l.Error().Err(err).Str(log.FieldPostID, req.PostID).Msg("unlike failed")
		response.InternalError(c, msgInternal)
		return
	}

	response.Success(c, "")
}
