package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/felling-licence-api/internal/dto"
	"github.com/noah-isme/felling-licence-api/internal/models"
	"github.com/noah-isme/felling-licence-api/pkg/response"
)

type subStatusService interface {
	GetCurrentSubStatuses(ctx context.Context, applicationID string) (*dto.SubStatusesResponse, error)
}

type withdrawalService interface {
	Withdraw(ctx context.Context, applicationID string, actor *models.JWTClaims) (*models.StatusHistory, error)
}

// ApplicationHandler exposes application level status endpoints.
type ApplicationHandler struct {
	subStatuses subStatusService
	withdrawals withdrawalService
}

// NewApplicationHandler builds a new handler.
func NewApplicationHandler(subStatuses subStatusService, withdrawals withdrawalService) *ApplicationHandler {
	return &ApplicationHandler{subStatuses: subStatuses, withdrawals: withdrawals}
}

// SubStatuses godoc
// @Summary List the sub-statuses currently applying to an application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/sub-statuses [get]
func (h *ApplicationHandler) SubStatuses(c *gin.Context) {
	result, err := h.subStatuses.GetCurrentSubStatuses(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Withdraw godoc
// @Summary Withdraw an application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/withdraw [post]
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	entry, err := h.withdrawals.Withdraw(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
