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

// CreateFollow follows another user.
func (h *Handler) CreateFollow(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, msgUnauthorized)
		return
	}

	var req domain.FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid follow request")
		response.BadRequest(c, msgInvalidRequestBody)
		return
	}

	follow, err := h.followService.Follow(ctx, userID, req.FollowingID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfFollow):
			response.BadRequest(c, msgSelfFollow)
		case errors.Is(err, service.ErrAlreadyFollowing):
			response.BadRequest(c, msgAlreadyFollowing)
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, msgUserNotFound)
		default:
			l.Error().Err(err).Str(log.FieldFollowingID, req.FollowingID).Msg("follow failed")
			response.InternalError(c, msgInternal)
		}
		return
	}

	response.Created(c, domain.CreateFollowResponse{Success: true, Follow: follow.ToResponse()})
}

// DeleteFollow unfollows a user.
func (h *Handler) DeleteFollow(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, msgUnauthorized)
		return
	}

	var req domain.FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid unfollow request")
		response.BadRequest(c, msgInvalidRequestBody)
		return
	}

	if err := h.followService.Unfollow(ctx, userID, req.FollowingID); err != nil {
		if errors.Is(err, service.ErrNotFollowing) {
			response.NotFound(c, msgNotFollowing)
			return
		}
		l.Error().Err(err).Str(log.FieldFollowingID, req.FollowingID).Msg("unfollow failed")
		response.InternalError(c, msgInternal)
		return
	}

	response.Success(c, "")
}
