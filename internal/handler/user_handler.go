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

const meAlias = "me"

// GetUser returns a profile by internal id, or the caller's own profile for
// "me".
func (h *Handler) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	viewerID := middleware.GetUserID(c)

	userID := c.Param("id")
	if userID == meAlias {
		if viewerID == "" {
			response.Unauthorized(c, msgUnauthorized)
			return
		}
		userID = viewerID
	}

	profile, err := h.userService.GetProfile(ctx, viewerID, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, msgUserNotFound)
			return
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("get profile failed")
		response.InternalError(c, msgInternal)
		return
	}

	view := profile.ToResponse()
	response.OK(c, domain.ProfileEnvelope{Data: &view})
}
