package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptproof-ai/promptproof-be/internal/engine/webhook"
	"github.com/promptproof-ai/promptproof-be/internal/storage"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

const defaultWebhookRetries = 3

type WebhookHandler struct {
	webhookRepo storage.WebhookRepository
	dispatcher  *webhook.Dispatcher
}

func NewWebhookHandler(webhookRepo storage.WebhookRepository, dispatcher *webhook.Dispatcher) *WebhookHandler {
	return &WebhookHandler{
		webhookRepo: webhookRepo,
		dispatcher:  dispatcher,
	}
}

// CreateWebhook registers a webhook endpoint for the organization
// @Summary Register a webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body types.CreateWebhookRequest true "Webhook details"
// @Success 201 {object} promptproof.Webhook
// @Failure 400 {object} types.ErrorResponse
// @Router /webhooks [post]
func (h *WebhookHandler) CreateWebhook(c *gin.Context) {
	orgID := c.GetString("organization_id")
	if orgID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Organization not found in token",
			},
		})
		return
	}

	var req struct {
		URL              string   `json:"url" binding:"required,url"`
		Secret           string   `json:"secret" binding:"required,min=16"`
		Events           []string `json:"events" binding:"required,min=1"`
		SuiteIDs         []string `json:"suite_ids"`
		OnlyOnFailure    bool     `json:"only_on_failure"`
		OnlyOnRegression bool     `json:"only_on_regression"`
		RetryCount       *int     `json:"retry_count"`
		RetryDelayMS     *int     `json:"retry_delay_ms"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	events, msg := parseWebhookEvents(req.Events)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": msg,
			},
		})
		return
	}

	hook := &promptproof.Webhook{
		URL:              req.URL,
		Secret:           req.Secret,
		Events:           events,
		SuiteIDs:         req.SuiteIDs,
		OnlyOnFailure:    req.OnlyOnFailure,
		OnlyOnRegression: req.OnlyOnRegression,
		RetryCount:       defaultWebhookRetries,
		Status:           promptproof.WebhookActive,
	}
	if req.RetryCount != nil && *req.RetryCount >= 0 && *req.RetryCount <= 10 {
		hook.RetryCount = *req.RetryCount
	}
	if req.RetryDelayMS != nil && *req.RetryDelayMS > 0 {
		hook.RetryDelayMS = *req.RetryDelayMS
	}

	if err := h.webhookRepo.Create(c.Request.Context(), orgID, hook); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to create webhook",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, hook)
}

// ListWebhooks returns the organization's webhooks
func (h *WebhookHandler) ListWebhooks(c *gin.Context) {
	orgID := c.GetString("organization_id")
	if orgID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Organization not found in token",
			},
		})
		return
	}

	webhooks, err := h.webhookRepo.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch webhooks",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"webhooks": webhooks,
		"count":    len(webhooks),
	})
}

// GetWebhook returns a single webhook
func (h *WebhookHandler) GetWebhook(c *gin.Context) {
	orgID := c.GetString("organization_id")
	webhookID := c.Param("webhookID")

	hook, err := h.webhookRepo.Get(c.Request.Context(), orgID, webhookID)
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Webhook not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch webhook",
			},
		})
		return
	}

	c.JSON(http.StatusOK, hook)
}

// UpdateWebhook replaces a webhook registration. An empty secret keeps
// the stored one.
func (h *WebhookHandler) UpdateWebhook(c *gin.Context) {
	orgID := c.GetString("organization_id")
	webhookID := c.Param("webhookID")

	var req struct {
		URL              string   `json:"url" binding:"required,url"`
		Secret           string   `json:"secret"`
		Events           []string `json:"events" binding:"required,min=1"`
		SuiteIDs         []string `json:"suite_ids"`
		OnlyOnFailure    bool     `json:"only_on_failure"`
		OnlyOnRegression bool     `json:"only_on_regression"`
		RetryCount       *int     `json:"retry_count"`
		RetryDelayMS     *int     `json:"retry_delay_ms"`
		Status           string   `json:"status" binding:"omitempty,oneof=active inactive"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	events, msg := parseWebhookEvents(req.Events)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": msg,
			},
		})
		return
	}

	existing, err := h.webhookRepo.Get(c.Request.Context(), orgID, webhookID)
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Webhook not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch webhook",
			},
		})
		return
	}

	existing.URL = req.URL
	existing.Events = events
	existing.SuiteIDs = req.SuiteIDs
	existing.OnlyOnFailure = req.OnlyOnFailure
	existing.OnlyOnRegression = req.OnlyOnRegression
	if req.Secret != "" {
		existing.Secret = req.Secret
	}
	if req.RetryCount != nil && *req.RetryCount >= 0 && *req.RetryCount <= 10 {
		existing.RetryCount = *req.RetryCount
	}
	if req.RetryDelayMS != nil && *req.RetryDelayMS > 0 {
		existing.RetryDelayMS = *req.RetryDelayMS
	}
	if req.Status != "" {
		existing.Status = promptproof.WebhookStatus(req.Status)
	}

	if err := h.webhookRepo.Update(c.Request.Context(), orgID, existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to update webhook",
			},
		})
		return
	}

	c.JSON(http.StatusOK, existing)
}

// DeleteWebhook removes a webhook registration
func (h *WebhookHandler) DeleteWebhook(c *gin.Context) {
	orgID := c.GetString("organization_id")
	webhookID := c.Param("webhookID")

	if err := h.webhookRepo.Delete(c.Request.Context(), orgID, webhookID); err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Webhook not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to delete webhook",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TestWebhook fires a signed test.ping delivery so the consumer can
// verify their endpoint and secret end to end.
func (h *WebhookHandler) TestWebhook(c *gin.Context) {
	orgID := c.GetString("organization_id")
	webhookID := c.Param("webhookID")

	hook, err := h.webhookRepo.Get(c.Request.Context(), orgID, webhookID)
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Webhook not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch webhook",
			},
		})
		return
	}

	delivered := h.dispatcher.SendTest(c.Request.Context(), hook)

	c.JSON(http.StatusOK, gin.H{
		"delivered": delivered,
	})
}

func parseWebhookEvents(raw []string) ([]promptproof.WebhookEvent, string) {
	events := make([]promptproof.WebhookEvent, 0, len(raw))
	for _, e := range raw {
		switch promptproof.WebhookEvent(e) {
		case promptproof.EventRunCompleted, promptproof.EventRunFailed, promptproof.EventRegressionDetected:
			events = append(events, promptproof.WebhookEvent(e))
		default:
			return nil, "unknown event type: " + e
		}
	}
	return events, ""
}
