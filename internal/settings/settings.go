// Package settings resolves per-organization execution settings with a
// short-lived Redis cache in front of the organization store.
package settings

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promptproof-ai/promptproof-be/internal/storage"
)

const (
	cacheTTL = 5 * time.Minute

	// Hard ceiling regardless of what the organization row says.
	MaxConcurrency = 20
)

type Service struct {
	orgRepo     storage.OrganizationRepository
	redisClient *redis.Client
}

func NewService(orgRepo storage.OrganizationRepository, redisClient *redis.Client) *Service {
	return &Service{
		orgRepo:     orgRepo,
		redisClient: redisClient,
	}
}

// MaxConcurrentTests resolves the organization's worker pool ceiling.
// Redis misses and errors fall through to the database; a zero or
// unset value means the tier default applies downstream.
func (s *Service) MaxConcurrentTests(ctx context.Context, orgID string) (int, error) {
	cacheKey := "orgsettings:concurrency:" + orgID

	cached, err := s.redisClient.Get(ctx, cacheKey).Result()
	if err == nil {
		if n, convErr := strconv.Atoi(cached); convErr == nil {
			return clampConcurrency(n), nil
		}
	}

	org, err := s.orgRepo.Get(ctx, orgID)
	if err != nil {
		return 0, err
	}

	s.redisClient.Set(ctx, cacheKey, strconv.Itoa(org.MaxConcurrentTests), cacheTTL)
	return clampConcurrency(org.MaxConcurrentTests), nil
}

// UpdateMaxConcurrentTests persists the new ceiling and invalidates the
// cache so the next run picks it up immediately.
func (s *Service) UpdateMaxConcurrentTests(ctx context.Context, orgID string, maxConcurrentTests int) error {
	maxConcurrentTests = clampConcurrency(maxConcurrentTests)
	if err := s.orgRepo.UpdateExecutionSettings(ctx, orgID, maxConcurrentTests); err != nil {
		return err
	}
	s.redisClient.Del(ctx, "orgsettings:concurrency:"+orgID)
	return nil
}

func clampConcurrency(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}
