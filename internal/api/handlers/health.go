package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	db          *sql.DB
	redisClient *redis.Client
}

func NewHealthHandler(db *sql.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
	}
}

// Health reports liveness of the API and its two backing stores.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{
		"database": "up",
		"redis":    "up",
	}
	healthy := true

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "down"
		healthy = false
	}
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		checks["redis"] = "down"
		healthy = false
	}

	code := http.StatusOK
	state := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		state = "error"
	}

	c.JSON(code, gin.H{
		"status":  state,
		"service": "promptproof-api",
		"checks":  checks,
	})
}
