package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxClaimsKey = "auth_claims"

// Guard accepts either a shared static bearer token or a signed operator
// JWT. With neither configured the API is open.
type Guard struct {
	StaticToken string
	Tokens      TokenService
}

func (g Guard) Enabled() bool {
	return g.StaticToken != "" || g.Tokens.Enabled()
}

// Middleware returns nil when the guard is disabled, which the meta handler
// reads as "no auth".
func (g Guard) Middleware() gin.HandlerFunc {
	if !g.Enabled() {
		return nil
	}
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}

		raw := strings.TrimSpace(h[len("Bearer "):])
		if g.StaticToken != "" && subtle.ConstantTimeCompare([]byte(raw), []byte(g.StaticToken)) == 1 {
			c.Next()
			return
		}
		if g.Tokens.Enabled() {
			if claims, err := g.Tokens.Parse(raw); err == nil {
				c.Set(CtxClaimsKey, claims)
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "invalid token"})
		c.Abort()
	}
}

// GetClaims returns the JWT claims of the caller, or nil for static token
// callers.
func GetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
