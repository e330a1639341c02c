package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bookstore/pkg/models"
)

const CtxClaimsKey = "auth_claims"

// AuthMiddleware requires a valid bearer token. With a non-nil repo the
// token version and role are re-read from storage, so logout and role
// changes apply immediately.
func AuthMiddleware(tokens TokenService, repo *Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}

		raw := strings.TrimSpace(h[len("Bearer "):])
		claims, err := tokens.Parse(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		if repo != nil {
			st, err := repo.GetAuthState(c.Request.Context(), claims.UserID)
			if err != nil || st == nil || st.TokenVersion != claims.TokenVersion {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				c.Abort()
				return
			}
			claims.Role = st.Role
		}

		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware. It is the server-side half
// of the authorization gate: hiding controls in a client is not enough.
func RequireAdmin(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CanMutate(RoleOf(c)) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":  "admin role required",
				"action": action,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// RoleOf returns the caller's role, RoleGuest when unauthenticated.
func RoleOf(c *gin.Context) models.Role {
	claims := MustGetClaims(c)
	if claims == nil {
		return models.RoleGuest
	}
	return claims.Role
}
