// SPDX-License-Identifier: LicenseRef-PromptProof-Proprietary

package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/promptproof-ai/promptproof-be/internal/storage"
)

// authCacheTTL bounds how long a revoked key keeps working.
const authCacheTTL = 5 * time.Minute

// AuthMiddleware authenticates requests by API key. Validated keys are
// cached in Redis so the hot path skips Postgres entirely.
type AuthMiddleware struct {
	apiKeyRepo  storage.APIKeyRepository
	redisClient *redis.Client
}

func NewAuthMiddleware(apiKeyRepo storage.APIKeyRepository, redisClient *redis.Client) *AuthMiddleware {
	return &AuthMiddleware{
		apiKeyRepo:  apiKeyRepo,
		redisClient: redisClient,
	}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Expected format: "Bearer pp_live_..."
		apiKey := extractBearerToken(c.Request)
		if apiKey == "" {
			abortUnauthorized(c, "Missing or malformed authorization header")
			return
		}

		// Only the SHA-256 of the key ever touches Redis or Postgres
		hash := sha256.Sum256([]byte(apiKey))
		keyHash := hex.EncodeToString(hash[:])

		ctx := c.Request.Context()
		if org, tier, ok := m.cachedIdentity(ctx, keyHash); ok {
			setIdentity(c, keyHash, org, tier)
			c.Next()
			return
		}

		apiKeyData, err := m.apiKeyRepo.GetByHash(ctx, keyHash)
		if err != nil {
			if err == storage.ErrNotFound {
				abortUnauthorized(c, "Invalid API key")
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to validate API key",
				},
			})
			c.Abort()
			return
		}

		if apiKeyData.RevokedAt != nil {
			abortUnauthorized(c, "API key has been revoked")
			return
		}
		if apiKeyData.ExpiresAt != nil && apiKeyData.ExpiresAt.Before(time.Now()) {
			abortUnauthorized(c, "API key has expired")
			return
		}

		m.cacheIdentity(ctx, keyHash, apiKeyData.OrganizationID, apiKeyData.Tier)
		setIdentity(c, keyHash, apiKeyData.OrganizationID, apiKeyData.Tier)

		// Update last used timestamp (async, don't block request)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			m.apiKeyRepo.UpdateLastUsed(ctx, apiKeyData.ID)
		}()

		c.Next()
	}
}

func (m *AuthMiddleware) cachedIdentity(ctx context.Context, keyHash string) (org, tier string, ok bool) {
	values, err := m.redisClient.MGet(ctx, "apikey:org:"+keyHash, "apikey:tier:"+keyHash).Result()
	if err != nil || len(values) != 2 {
		return "", "", false
	}
	org, orgOK := values[0].(string)
	tier, tierOK := values[1].(string)
	return org, tier, orgOK && tierOK && org != "" && tier != ""
}

func (m *AuthMiddleware) cacheIdentity(ctx context.Context, keyHash, org, tier string) {
	m.redisClient.Set(ctx, "apikey:org:"+keyHash, org, authCacheTTL)
	m.redisClient.Set(ctx, "apikey:tier:"+keyHash, tier, authCacheTTL)
}

func setIdentity(c *gin.Context, keyHash, org, tier string) {
	c.Set("api_key_hash", keyHash)
	c.Set("organization_id", org)
	c.Set("tier", tier)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
	c.Abort()
}
