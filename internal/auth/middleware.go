package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxClaimsKey = "auth_claims"

// AdminHeader carries the shared administrator token
const AdminHeader = "X-Admin-Token"

// VersionSource returns the current token version of a user
type VersionSource interface {
	GetTokenVersion(ctx context.Context, id uint) (int, error)
}

// RequireAuth rejects requests without a valid, unrevoked access token
func RequireAuth(tokens TokenService, versions VersionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := verify(c, tokens, versions, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid access token is present and never rejects
func OptionalAuth(tokens TokenService, versions VersionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if claims, err := verify(c, tokens, versions, raw); err == nil {
				c.Set(CtxClaimsKey, claims)
			}
		}
		c.Next()
	}
}

// RequireAdmin checks the admin header against token. An empty token leaves the
// routes open.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader(AdminHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin token required"})
			return
		}
		c.Next()
	}
}

func verify(c *gin.Context, tokens TokenService, versions VersionSource, raw string) (*Claims, error) {
	claims, err := tokens.Parse(raw, KindAccess)
	if err != nil {
		return nil, err
	}
	if versions != nil {
		current, err := versions.GetTokenVersion(c.Request.Context(), claims.UserID)
		if err != nil {
			return nil, err
		}
		if current != claims.TokenVersion {
			return nil, ErrRevoked
		}
	}
	return claims, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(h[len("Bearer "):])
	return raw, raw != ""
}

// MustGetClaims returns the claims set by the auth middleware, or nil
func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
