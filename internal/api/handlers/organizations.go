// SPDX-License-Identifier: LicenseRef-PromptProof-Proprietary

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptproof-ai/promptproof-be/internal/settings"
	"github.com/promptproof-ai/promptproof-be/internal/storage"
)

type OrganizationHandler struct {
	orgRepo  storage.OrganizationRepository
	settings *settings.Service
}

func NewOrganizationHandler(orgRepo storage.OrganizationRepository, settingsService *settings.Service) *OrganizationHandler {
	return &OrganizationHandler{
		orgRepo:  orgRepo,
		settings: settingsService,
	}
}

// CreateOrganization creates a new organization
// @Summary Create an organization
// @Tags organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body types.CreateOrganizationRequest true "Organization details"
// @Success 201 {object} types.Organization
// @Failure 400 {object} types.ErrorResponse
// @Failure 409 {object} types.ErrorResponse
// @Router /organizations [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Slug string `json:"slug" binding:"required"`
		Tier string `json:"tier" binding:"required,oneof=starter team enterprise"`
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

	org := &storage.Organization{
		Name:               req.Name,
		Slug:               req.Slug,
		Tier:               req.Tier,
		MaxConcurrentTests: 3,
		MonthlyRunLimit:    monthlyRunLimitForTier(req.Tier),
	}

	if err := h.orgRepo.Create(c.Request.Context(), org); err != nil {
		if err == storage.ErrAlreadyExists {
			c.JSON(http.StatusConflict, gin.H{
				"error": gin.H{
					"code":    "ALREADY_EXISTS",
					"message": "Organization with this slug already exists",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to create organization",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, org)
}

// GetOrganization retrieves the authenticated organization
// @Summary Get your organization
// @Tags organizations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} types.Organization
// @Failure 401 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /organizations/me [get]
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
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

	org, err := h.orgRepo.Get(c.Request.Context(), orgID)
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Organization not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch organization",
			},
		})
		return
	}

	c.JSON(http.StatusOK, org)
}

// UpdateExecutionSettings changes how test runs execute for the
// organization, currently just the worker pool ceiling.
// @Summary Update execution settings
// @Tags organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body types.UpdateExecutionSettingsRequest true "Execution settings"
// @Success 200 {object} types.SuccessResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 401 {object} types.ErrorResponse
// @Router /organizations/me/execution-settings [put]
func (h *OrganizationHandler) UpdateExecutionSettings(c *gin.Context) {
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
		MaxConcurrentTests int `json:"max_concurrent_tests" binding:"required,min=1,max=20"`
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

	if err := h.settings.UpdateMaxConcurrentTests(c.Request.Context(), orgID, req.MaxConcurrentTests); err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Organization not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to update execution settings",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
