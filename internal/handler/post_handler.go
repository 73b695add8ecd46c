package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hyuniciel/1208-sns-proj/internal/domain"
	"github.com/hyuniciel/1208-sns-proj/internal/service"
	"github.com/hyuniciel/1208-sns-proj/pkg/log"
	"github.com/hyuniciel/1208-sns-proj/pkg/middleware"
	"github.com/hyuniciel/1208-sns-proj/pkg/response"
)

// maxUploadBodySize caps a whole create-post request: the image plus room
// for the caption and multipart framing.
const maxUploadBodySize = domain.MaxImageSize + 1<<20

// ListPosts returns a page of the feed, newest first.
func (h *Handler) ListPosts(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, msgUnauthorized)
		return
	}

	var req domain.ListPostsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		l.Warn().Err(err).Msg("invalid list posts query")
		response.BadRequest(c, msgInvalidQuery)
		return
	}

	page, err := h.postService.ListPosts(ctx, userID, req)
	if err != nil {
		l.Error().Err(err).Msg("list posts failed")
		response.InternalError(c, msgInternal)
		return
	}

	response.OK(c, page.ToResponse())
}

// CreatePost accepts a multipart upload with an image and optional caption.
func (h *Handler) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, msgUnauthorized)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBodySize)
	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(c, msgImageTooLarge)
			return
		}
		response.BadRequest(c, msgImageRequired)
		return
	}
	if fileHeader.Size > domain.MaxImageSize {
		response.BadRequest(c, msgImageTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		l.Error().Err(err).Msg("failed to open uploaded image")
		response.InternalError(c, msgInternal)
		return
	}
	defer file.Close()

	// One byte past the limit is enough to tell an oversized body apart.
	data, err := io.ReadAll(io.LimitReader(file, domain.MaxImageSize+1))
	if err != nil {
		l.Error().Err(err).Msg("failed to read uploaded image")
		response.InternalError(c, msgInternal)
		return
	}

	in := &domain.CreatePostInput{
		Image:    data,
		Filename: fileHeader.Filename,
		Caption:  c.PostForm("caption"),
	}
	item, err := h.postService.CreatePost(ctx, userID, middleware.GetExternalID(c), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImageRequired):
			response.BadRequest(c, msgImageRequired)
		case errors.Is(err, service.ErrImageTooLarge):
			response.BadRequest(c, msgImageTooLarge)
		case errors.Is(err, service.ErrInvalidImageType):
			response.BadRequest(c, msgInvalidImageType)
		case errors.Is(err, service.ErrCaptionTooLong):
			response.BadRequest(c, msgCaptionTooLong)
		default:
			l.Error().Err(err).Msg("create post failed")
			response.InternalError(c, msgInternal)
		}
		return
	}

	response.Created(c, domain.CreatePostResponse{Success: true, Post: item.ToResponse()})
}

// GetPost returns a single post. Anonymous viewers are allowed.
func (h *Handler) GetPost(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	postID := c.Param("id")

	item, err := h.postService.GetPost(ctx, middleware.GetUserID(c), postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			msg := msgPostNotFound
			response.JSON(c, http.StatusNotFound, domain.GetPostResponse{Error: &msg})
			return
		}
		l.Error().Err(err).Str(log.FieldPostID, postID).Msg("get post failed")
		msg := msgInternal
		response.JSON(c, http.StatusInternalServerError, domain.GetPostResponse{Error: &msg})
		return
	}

	view := item.ToResponse()
	response.OK(c, domain.GetPostResponse{Data: &view})
}

// DeletePost deletes a post owned by the caller.
func (h *Handler) DeletePost(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, msgUnauthorized)
		return
	}
	postID := c.Param("id")

	if err := h.postService.DeletePost(ctx, userID, postID); err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			response.NotFound(c, msgPostNotFound)
		case errors.Is(err, service.ErrNotPostOwner):
			response.Forbidden(c, msgNotPostOwner)
		default:
			l.Error().Err(err).Str(log.FieldPostID, postID).Msg("delete post failed")
			response.InternalError(c, msgInternal)
		}
		return
	}

	response.Success(c, msgPostDeleted)
}
