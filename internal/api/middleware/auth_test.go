package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptproof-ai/promptproof-be/internal/storage"
)

type fakeAPIKeyRepo struct {
	keys   map[string]*storage.APIKey
	hits   atomic.Int64
	lastID atomic.Value
}

func (f *fakeAPIKeyRepo) GetByHash(_ context.Context, keyHash string) (*storage.APIKey, error) {
	f.hits.Add(1)
	key, ok := f.keys[keyHash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return key, nil
}

func (f *fakeAPIKeyRepo) Create(context.Context, *storage.APIKey) error { return nil }

func (f *fakeAPIKeyRepo) ListByOrganization(context.Context, string) ([]*storage.APIKey, error) {
	return nil, nil
}

func (f *fakeAPIKeyRepo) UpdateLastUsed(_ context.Context, id string) error {
	f.lastID.Store(id)
	return nil
}

func (f *fakeAPIKeyRepo) Revoke(context.Context, string) error { return nil }

func hashKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

func setupAuthRouter(t *testing.T, repo *fakeAPIKeyRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r := gin.New()
	r.Use(NewAuthMiddleware(repo, client).Authenticate())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"organization_id": c.GetString("organization_id"),
			"tier":            c.GetString("tier"),
		})
	})
	return r
}

func TestAuthenticate_ValidKey(t *testing.T) {
	apiKey := "pp_live_validkey0000000000000000000000000000000"
	repo := &fakeAPIKeyRepo{keys: map[string]*storage.APIKey{
		hashKey(apiKey): {ID: "key-1", OrganizationID: "org-1", Tier: "team"},
	}}
	r := setupAuthRouter(t, repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"organization_id":"org-1"`)
	assert.Contains(t, w.Body.String(), `"tier":"team"`)
}

func TestAuthenticate_CachesValidation(t *testing.T) {
	apiKey := "pp_live_cachedkey000000000000000000000000000000"
	repo := &fakeAPIKeyRepo{keys: map[string]*storage.APIKey{
		hashKey(apiKey): {ID: "key-1", OrganizationID: "org-1", Tier: "starter"},
	}}
	r := setupAuthRouter(t, repo)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+apiKey)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, int64(1), repo.hits.Load(), "repeat requests should hit Redis, not Postgres")
}

func TestAuthenticate_UnknownKey(t *testing.T) {
	repo := &fakeAPIKeyRepo{keys: map[string]*storage.APIKey{}}
	r := setupAuthRouter(t, repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer pp_live_nosuchkey")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}

func TestAuthenticate_RevokedKey(t *testing.T) {
	apiKey := "pp_live_revoked0000000000000000000000000000000"
	revoked := time.Now().Add(-time.Hour)
	repo := &fakeAPIKeyRepo{keys: map[string]*storage.APIKey{
		hashKey(apiKey): {ID: "key-1", OrganizationID: "org-1", Tier: "team", RevokedAt: &revoked},
	}}
	r := setupAuthRouter(t, repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestAuthenticate_ExpiredKey(t *testing.T) {
	apiKey := "pp_live_expired0000000000000000000000000000000"
	expired := time.Now().Add(-time.Minute)
	repo := &fakeAPIKeyRepo{keys: map[string]*storage.APIKey{
		hashKey(apiKey): {ID: "key-1", OrganizationID: "org-1", Tier: "team", ExpiresAt: &expired},
	}}
	r := setupAuthRouter(t, repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	repo := &fakeAPIKeyRepo{keys: map[string]*storage.APIKey{}}
	r := setupAuthRouter(t, repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, int64(0), repo.hits.Load())
}
