package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// JWTMiddleware validates bearer tokens issued by the console's identity
// provider against its published JWKS.
type JWTMiddleware struct {
	jwksURL string
	cache   *jwk.Cache
}

func NewJWTMiddleware(jwksURL string) (*JWTMiddleware, error) {
	if jwksURL == "" {
		return nil, fmt.Errorf("JWKS URL is required")
	}

	// Create a cache for JWKS
	cache := jwk.NewCache(context.Background())

	// Register the JWKS URL with the cache
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	// Fetch the initial keyset
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		log.Printf("Warning: failed to fetch initial JWKS: %v", err)
	}

	log.Printf("✓ JWT middleware initialized for JWKS: %s", jwksURL)

	return &JWTMiddleware{
		jwksURL: jwksURL,
		cache:   cache,
	}, nil
}

func (m *JWTMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token from Authorization header
		token := extractBearerToken(c.Request)
		if token == "" {
			abortUnauthorized(c, "Missing or invalid authorization header")
			return
		}

		// Get JWKS
		keyset, err := m.cache.Get(c.Request.Context(), m.jwksURL)
		if err != nil {
			log.Printf("Failed to get JWKS: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to validate token",
				},
			})
			c.Abort()
			return
		}

		// Parse and validate the token
		parsedToken, err := jwt.Parse(
			[]byte(token),
			jwt.WithKeySet(keyset),
			jwt.WithValidate(true),
		)

		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			abortUnauthorized(c, "Invalid token")
			return
		}

		// Extract claims
		sub, ok := parsedToken.Get("sub")
		if !ok {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		c.Set("user_id", sub)

		// Organization membership rides along as a custom claim
		if orgClaim, exists := parsedToken.Get("org_id"); exists {
			if orgID, ok := orgClaim.(string); ok && orgID != "" {
				c.Set("organization_id", orgID)
			}
		}

		c.Next()
	}
}

// extractBearerToken extracts the JWT token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// GetOrganizationIDFromContext is a helper to extract organization_id from gin.Context
func GetOrganizationIDFromContext(c *gin.Context) (string, error) {
	orgID, exists := c.Get("organization_id")
	if !exists || orgID == "" {
		return "", errors.New("organization_id not found in context")
	}

	orgIDStr, ok := orgID.(string)
	if !ok {
		return "", errors.New("organization_id is not a string")
	}

	if orgIDStr == "" {
		return "", errors.New("organization_id is empty")
	}

	return orgIDStr, nil
}
