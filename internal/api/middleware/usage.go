// SPDX-License-Identifier: LicenseRef-PromptProof-Proprietary

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptproof-ai/promptproof-be/internal/storage"
)

type UsageMiddleware struct {
	orgRepo storage.OrganizationRepository
}

func NewUsageMiddleware(orgRepo storage.OrganizationRepository) *UsageMiddleware {
	return &UsageMiddleware{
		orgRepo: orgRepo,
	}
}

// TrackRuns enforces the monthly run quota. Apply only to the route
// that starts a test run; reads never count against the quota.
func (m *UsageMiddleware) TrackRuns() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetString("organization_id")
		if orgID == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		// Get current org state and increment counter atomically
		org, err := m.orgRepo.IncrementRunCount(ctx, orgID)
		if err != nil {
			// On error, allow the request (fail open) but log it
			c.Next()
			return
		}

		// Check if we need to reset the monthly counter
		if time.Now().UTC().After(org.UsageResetAt) {
			if err := m.orgRepo.ResetMonthlyUsage(ctx, orgID); err == nil {
				// Refetch after reset
				org, _ = m.orgRepo.Get(ctx, orgID)
			}
		}

		// Calculate usage percentage
		usagePercent := float64(org.MonthlyRunCount) / float64(org.MonthlyRunLimit) * 100

		// Set usage headers for client visibility
		c.Header("X-Monthly-Limit", formatInt64(org.MonthlyRunLimit))
		c.Header("X-Monthly-Used", formatInt64(org.MonthlyRunCount))
		c.Header("X-Monthly-Reset", org.UsageResetAt.Format(time.RFC3339))

		// Enforce limits based on tier
		tier := c.GetString("tier")
		if tier == "" {
			tier = org.Tier
		}

		// Starter tier: hard stop at 100%
		if tier == "starter" && usagePercent >= 100 {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error": gin.H{
					"code":    "USAGE_LIMIT_EXCEEDED",
					"message": "Monthly run limit exceeded. Upgrade your plan to continue.",
					"details": gin.H{
						"limit":    org.MonthlyRunLimit,
						"used":     org.MonthlyRunCount,
						"tier":     tier,
						"reset_at": org.UsageResetAt,
					},
				},
			})
			c.Abort()
			return
		}

		// Team tier: hard stop at 120% to leave headroom for bursts
		if tier == "team" && usagePercent >= 120 {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "USAGE_LIMIT_THROTTLED",
					"message": "Monthly run limit exceeded by 20%. Runs are being throttled.",
					"details": gin.H{
						"limit":    org.MonthlyRunLimit,
						"used":     org.MonthlyRunCount,
						"tier":     tier,
						"reset_at": org.UsageResetAt,
						"overage":  org.MonthlyRunCount - org.MonthlyRunLimit,
					},
				},
			})
			c.Abort()
			return
		}

		// Enterprise: no hard limit enforcement (custom/negotiated)

		c.Next()
	}
}

func formatInt64(n int64) string {
	return strconv.FormatInt(n, 10)
}
