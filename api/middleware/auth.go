// Package middleware guards the scraping API. Every authenticated request
// can fan a browser pool out across real storefronts, so both middlewares
// key off the same caller identity: the API key when auth is on, the
// client IP otherwise.
package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garimpolabs/garimpo/models"
)

// identityKey is where Auth stores the caller identity in the gin context
// for RateLimit to pick up.
const identityKey = "caller_identity"

// keyring holds SHA-256 digests of the configured API keys, so a lookup
// compares fixed-size values in constant time regardless of key length.
type keyring [][sha256.Size]byte

func newKeyring(apiKeys []string) keyring {
	var kr keyring
	for _, k := range apiKeys {
		if k != "" {
			kr = append(kr, sha256.Sum256([]byte(k)))
		}
	}
	return kr
}

func (kr keyring) contains(key string) bool {
	digest := sha256.Sum256([]byte(key))
	match := 0
	for _, want := range kr {
		match |= subtle.ConstantTimeCompare(want[:], digest[:])
	}
	return match == 1
}

// Auth returns API key authentication middleware. The key arrives either
// as X-API-Key or as a bearer token; an empty key list disables auth.
func Auth(apiKeys []string) gin.HandlerFunc {
	kr := newKeyring(apiKeys)
	if len(kr) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := callerKey(c)
		switch {
		case key == "":
			unauthorized(c, "missing API key: send X-API-Key or Authorization: Bearer <key>")
		case !kr.contains(key):
			unauthorized(c, "unrecognized API key")
		default:
			c.Set(identityKey, key)
			c.Next()
		}
	}
}

// callerKey reads the API key from the request, X-API-Key first.
func callerKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.SearchResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}
