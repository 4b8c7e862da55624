package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/promptproof-ai/promptproof-be/internal/storage"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

type SuiteHandler struct {
	suiteRepo storage.SuiteRepository
}

func NewSuiteHandler(suiteRepo storage.SuiteRepository) *SuiteHandler {
	return &SuiteHandler{suiteRepo: suiteRepo}
}

// CreateSuite stores a new test suite definition
// @Summary Create a test suite
// @Tags suites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Param suite body promptproof.TestSuite true "Suite definition"
// @Success 201 {object} promptproof.TestSuite
// @Failure 400 {object} types.ErrorResponse
// @Failure 409 {object} types.ErrorResponse
// @Router /projects/{projectID}/suites [post]
func (h *SuiteHandler) CreateSuite(c *gin.Context) {
	projectID := c.Param("projectID")

	var suite promptproof.TestSuite
	if err := c.ShouldBindJSON(&suite); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid suite definition",
			},
		})
		return
	}

	if msg := validateSuite(&suite); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_SUITE",
				"message": msg,
			},
		})
		return
	}

	if suite.SuiteID == "" {
		suite.SuiteID = uuid.New().String()
	}

	if err := h.suiteRepo.Create(c.Request.Context(), projectID, &suite); err != nil {
		if err == storage.ErrAlreadyExists {
			c.JSON(http.StatusConflict, gin.H{
				"error": gin.H{
					"code":    "ALREADY_EXISTS",
					"message": "Suite with this ID already exists",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to store suite",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, suite)
}

// GetSuite returns a single suite definition
func (h *SuiteHandler) GetSuite(c *gin.Context) {
	projectID := c.Param("projectID")
	suiteID := c.Param("suiteID")

	suite, err := h.suiteRepo.Get(c.Request.Context(), projectID, suiteID)
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Suite not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch suite",
			},
		})
		return
	}

	c.JSON(http.StatusOK, suite)
}

// ListSuites returns a paginated list of suites for a project
func (h *SuiteHandler) ListSuites(c *gin.Context) {
	projectID := c.Param("projectID")
	limit, offset := paginationParams(c)

	suites, err := h.suiteRepo.List(c.Request.Context(), projectID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch suites",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suites": suites,
		"count":  len(suites),
	})
}

// UpdateSuite replaces a suite definition
func (h *SuiteHandler) UpdateSuite(c *gin.Context) {
	projectID := c.Param("projectID")
	suiteID := c.Param("suiteID")

	var suite promptproof.TestSuite
	if err := c.ShouldBindJSON(&suite); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid suite definition",
			},
		})
		return
	}

	if msg := validateSuite(&suite); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_SUITE",
				"message": msg,
			},
		})
		return
	}

	suite.SuiteID = suiteID

	if err := h.suiteRepo.Update(c.Request.Context(), projectID, &suite); err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Suite not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to update suite",
			},
		})
		return
	}

	c.JSON(http.StatusOK, suite)
}

// DeleteSuite soft deletes a suite. Completed runs of the suite remain
// queryable.
func (h *SuiteHandler) DeleteSuite(c *gin.Context) {
	projectID := c.Param("projectID")
	suiteID := c.Param("suiteID")

	if err := h.suiteRepo.Delete(c.Request.Context(), projectID, suiteID); err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Suite not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to delete suite",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// validateSuite applies the structural checks a definition must pass
// before it is accepted. Returns an empty string when valid.
func validateSuite(suite *promptproof.TestSuite) string {
	if suite.Name == "" {
		return "name is required"
	}
	if len(suite.Cases) == 0 {
		return "at least one test case is required"
	}
	switch suite.Target.Type {
	case promptproof.TargetPrompt:
		if suite.Target.Prompt == nil || suite.Target.Prompt.Template == "" {
			return "prompt target requires a template"
		}
	case promptproof.TargetHTTP:
		if suite.Target.HTTP == nil || suite.Target.HTTP.URL == "" {
			return "http target requires a url"
		}
	default:
		return "target type must be prompt or http"
	}
	if suite.Judge != nil && len(suite.Judge.Criteria) == 0 {
		return "judge config requires at least one criterion"
	}
	seen := make(map[string]struct{}, len(suite.Cases))
	for i := range suite.Cases {
		tc := &suite.Cases[i]
		if tc.ID == "" {
			return "every test case needs an id"
		}
		if _, dup := seen[tc.ID]; dup {
			return "duplicate test case id: " + tc.ID
		}
		seen[tc.ID] = struct{}{}
	}
	return ""
}

func paginationParams(c *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
