package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/felling-licence-api/internal/dto"
	"github.com/noah-isme/felling-licence-api/internal/models"
	appErrors "github.com/noah-isme/felling-licence-api/pkg/errors"
	"github.com/noah-isme/felling-licence-api/pkg/response"
)

type adminOfficerReviewService interface {
	GetTaskList(ctx context.Context, applicationID string, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error)
	UpdateAgentAuthorityCheck(ctx context.Context, applicationID string, req dto.CheckUpdateRequest, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error)
	UpdateMappingCheck(ctx context.Context, applicationID string, req dto.CheckUpdateRequest, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error)
	UpdateConstraintsCheck(ctx context.Context, applicationID string, req dto.CheckUpdateRequest, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error)
	AssignWoodlandOfficer(ctx context.Context, applicationID string, req dto.AssignWoodlandOfficerRequest, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error)
	CompleteReview(ctx context.Context, applicationID string, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error)
}

type checkUpdater func(ctx context.Context, applicationID string, req dto.CheckUpdateRequest, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error)

// AdminOfficerReviewHandler exposes the admin officer review task list.
type AdminOfficerReviewHandler struct {
	service adminOfficerReviewService
}

// NewAdminOfficerReviewHandler builds a new handler.
func NewAdminOfficerReviewHandler(service adminOfficerReviewService) *AdminOfficerReviewHandler {
	return &AdminOfficerReviewHandler{service: service}
}

// Get godoc
// @Summary Get the admin officer review task list
// @Tags AdminOfficerReview
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/admin-officer-review [get]
func (h *AdminOfficerReviewHandler) Get(c *gin.Context) {
	summary, err := h.service.GetTaskList(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// UpdateAgentAuthority godoc
// @Summary Record the agent authority form check
// @Tags AdminOfficerReview
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.CheckUpdateRequest true "Check outcome"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/admin-officer-review/agent-authority [put]
func (h *AdminOfficerReviewHandler) UpdateAgentAuthority(c *gin.Context) {
	h.updateCheck(c, h.service.UpdateAgentAuthorityCheck)
}

// UpdateMapping godoc
// @Summary Record the mapping check
// @Tags AdminOfficerReview
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.CheckUpdateRequest true "Check outcome"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/admin-officer-review/mapping [put]
func (h *AdminOfficerReviewHandler) UpdateMapping(c *gin.Context) {
	h.updateCheck(c, h.service.UpdateMappingCheck)
}

// UpdateConstraints godoc
// @Summary Record the constraints check
// @Tags AdminOfficerReview
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.CheckUpdateRequest true "Check outcome"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/admin-officer-review/constraints [put]
func (h *AdminOfficerReviewHandler) UpdateConstraints(c *gin.Context) {
	h.updateCheck(c, h.service.UpdateConstraintsCheck)
}

// AssignWoodlandOfficer godoc
// @Summary Assign a woodland officer
// @Tags AdminOfficerReview
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.AssignWoodlandOfficerRequest true "Woodland officer"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/admin-officer-review/woodland-officer [post]
func (h *AdminOfficerReviewHandler) AssignWoodlandOfficer(c *gin.Context) {
	var req dto.AssignWoodlandOfficerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid assignment payload"))
		return
	}
	summary, err := h.service.AssignWoodlandOfficer(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Complete godoc
// @Summary Complete the admin officer review
// @Tags AdminOfficerReview
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/admin-officer-review/complete [post]
func (h *AdminOfficerReviewHandler) Complete(c *gin.Context) {
	summary, err := h.service.CompleteReview(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

func (h *AdminOfficerReviewHandler) updateCheck(c *gin.Context, update checkUpdater) {
	var req dto.CheckUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid check payload"))
		return
	}
	summary, err := update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
