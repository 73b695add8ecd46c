package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hyuniciel/1208-sns-proj/internal/service"
	"github.com/hyuniciel/1208-sns-proj/pkg/middleware"
)

// Error messages returned at the HTTP boundary.
const (
	msgUnauthorized       = "Unauthorized"
	msgImageRequired      = "Image file is required"
	msgImageTooLarge      = "File size exceeds 5MB limit"
	msgInvalidImageType   = "Invalid file type. Only JPEG, PNG, WebP and GIF are allowed"
	msgCaptionTooLong     = "Caption must be 2200 characters or less"
	msgPostNotFound       = "Post not found"
	msgNotPostOwner       = "You can only delete your own posts"
	msgAlreadyLiked       = "Already liked"
	msgCommentRequired    = "Comment content is required"
	msgCommentNotFound    = "Comment not found"
	msgNotCommentOwner    = "You can only delete your own comments"
	msgSelfFollow         = "Cannot follow yourself"
	msgUserNotFound       = "User not found"
	msgAlreadyFollowing   = "Already following"
	msgNotFollowing       = "Not following this user"
	msgInternal           = "Internal server error"
	msgPostDeleted        = "Post deleted"
	msgInvalidRequestBody = "Invalid request body"
	msgInvalidQuery       = "Invalid query parameters"
)

// Handler handles HTTP requests for the feed API.
type Handler struct {
	postService    service.PostService
	likeService    service.LikeService
	commentService service.CommentService
	followService  service.FollowService
	userService    service.UserService
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	postService service.PostService,
	likeService service.LikeService,
	commentService service.CommentService,
	followService service.FollowService,
	userService service.UserService,
	authMiddleware *middleware.AuthMiddleware,
) *Handler {
	return &Handler{
		postService:    postService,
		likeService:    likeService,
		commentService: commentService,
		followService:  followService,
		userService:    userService,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	requireAuth := h.authMiddleware.RequireAuth()
	optionalAuth := h.authMiddleware.OptionalAuth()

	api := r.Group("/api/v1")
	{
		posts := api.Group("/posts")
		{
			posts.GET("", requireAuth, h.ListPosts)
			posts.POST("", requireAuth, h.CreatePost)
			posts.GET("/:id", optionalAuth, h.GetPost)
			posts.DELETE("/:id", requireAuth, h.DeletePost)
		}

		likes := api.Group("/likes")
		likes.Use(requireAuth)
		{
			likes.POST("", h.CreateLike)
			likes.DELETE("", h.DeleteLike)
		}

		comments := api.Group("/comments")
		{
			comments.GET("", optionalAuth, h.ListComments)
			comments.POST("", requireAuth, h.CreateComment)
			comments.DELETE("", requireAuth, h.DeleteComment)
		}

		follows := api.Group("/follows")
		follows.Use(requireAuth)
		{
			follows.POST("", h.CreateFollow)
			follows.DELETE("", h.DeleteFollow)
		}

		api.GET("/users/:id", optionalAuth, h.GetUser)
	}
}
