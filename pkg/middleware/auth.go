package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/papershelf/papershelf/backend/go-services/internal/models"
	"github.com/papershelf/papershelf/backend/go-services/internal/sessions"
	"github.com/papershelf/papershelf/backend/go-services/internal/users"
	"github.com/papershelf/papershelf/backend/go-services/pkg/logger"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey      = "claims"
	CurrentUserKey = "currentUser"
	AccessTokenKey = "accessToken"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Chain tries each verifier in order and accepts the first success.
type Chain []Verifier

func (ch Chain) Verify(ctx context.Context, raw string) (Token, error) {
	if len(ch) == 0 {
		return nil, errors.New("no token verifier configured")
	}
	var errs []error
	for _, v := range ch {
		if v == nil {
			continue
		}
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// UserResolver maps verified claims to a user.
type UserResolver interface {
	ResolveClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error)
}

// AuthMiddleware verifies the Bearer token, rejects blacklisted tokens and
// resolves the current user. resolver may be nil, in which case only claims are set.
func AuthMiddleware(ver Verifier, resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		ctx := c.Request.Context()
		black, err := sessions.IsAccessTokenBlacklisted(ctx, token)
		if err != nil {
			logger.Warnf("blacklist lookup failed: %v", err)
		}
		if black {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}

		idToken, err := ver.Verify(ctx, token)
		if err != nil {
			logger.Debugf("token rejected: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Set(AccessTokenKey, token)

		if resolver != nil {
			u, err := resolver.ResolveClaims(ctx, claims)
			switch {
			case errors.Is(err, users.ErrNotFound), errors.Is(err, users.ErrInvalidInput):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
				return
			case err != nil:
				logger.Errorf("resolve current user: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			c.Set(CurrentUserKey, u)
		}
		c.Next()
	}
}

// CurrentUser returns the user resolved by AuthMiddleware, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

// Claims returns the verified token claims set by AuthMiddleware.
func Claims(c *gin.Context) map[string]interface{} {
	if v, ok := c.Get(ClaimsKey); ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}
