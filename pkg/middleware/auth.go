package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hyuniciel/1208-sns-proj/pkg/jwt"
	"github.com/hyuniciel/1208-sns-proj/pkg/log"
	"github.com/hyuniciel/1208-sns-proj/pkg/response"
)

const (
	UserIDKey     = "user_id"
	ExternalIDKey = "external_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "

	msgUnauthorized = "Unauthorized"
)

// Subject is the verified identity carried by a request.
type Subject struct {
	ExternalID  string
	DisplayName string
}

// SubjectResolver maps a verified external subject to an internal user id,
// creating the user on first sight.
type SubjectResolver interface {
	ResolveSubject(ctx context.Context, subject Subject) (string, error)
}

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// AuthMiddleware authenticates requests with bearer tokens.
type AuthMiddleware struct {
	verifier TokenVerifier
	resolver SubjectResolver
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(verifier TokenVerifier, resolver SubjectResolver) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		resolver: resolver,
	}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearerToken(c)
		if !present {
			response.AbortWithError(c, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		if !m.authenticate(c, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through. A token that is present but
// invalid is still rejected.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearerToken(c)
		if !present {
			c.Next()
			return
		}
		if !m.authenticate(c, token) {
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context, token string) bool {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	if token == "" {
		response.AbortWithError(c, http.StatusUnauthorized, msgUnauthorized)
		return false
	}

	claims, err := m.verifier.Verify(token)
	if err != nil {
		l.Debug().Err(err).Msg("token rejected")
		response.AbortWithError(c, http.StatusUnauthorized, msgUnauthorized)
		return false
	}

	subject := Subject{ExternalID: claims.Subject, DisplayName: claims.DisplayName()}
	userID, err := m.resolver.ResolveSubject(ctx, subject)
	if err != nil {
		l.Error().Err(err).Str(log.FieldExternalID, subject.ExternalID).Msg("failed to resolve subject")
		response.AbortWithError(c, http.StatusInternalServerError, "Failed to resolve user")
		return false
	}

	c.Set(UserIDKey, userID)
	c.Set(ExternalIDKey, subject.ExternalID)

	// Later log lines for this request carry the actor.
	child := l.With().Str(log.FieldUserID, userID).Logger()
	c.Request = c.Request.WithContext(log.WithLogger(ctx, child))
	return true
}

// bearerToken reports whether an Authorization header was sent at all; a
// malformed header still counts as present so callers reject it.
func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader(AuthHeaderKey))
	if header == "" {
		return "", false
	}
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", true
	}
	return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix)), true
}

// GetUserID extracts the internal user id from the Gin context.
// It is empty for anonymous requests.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetExternalID extracts the external subject id from the Gin context.
func GetExternalID(c *gin.Context) string {
	return c.GetString(ExternalIDKey)
}
