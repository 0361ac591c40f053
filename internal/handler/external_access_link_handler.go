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

type externalAccessLinkService interface {
	CreateLink(ctx context.Context, applicationID string, req dto.CreateExternalAccessLinkRequest, actor *models.JWTClaims) (*dto.ExternalAccessLinkCreated, error)
	ListLinks(ctx context.Context, applicationID string) ([]models.ExternalAccessLink, error)
	VerifyAccess(ctx context.Context, req dto.VerifyExternalAccessRequest) (*models.ExternalAccessLink, error)
}

// ExternalAccessLinkHandler exposes consultee access link endpoints.
type ExternalAccessLinkHandler struct {
	service externalAccessLinkService
}

// NewExternalAccessLinkHandler builds a new handler.
func NewExternalAccessLinkHandler(service externalAccessLinkService) *ExternalAccessLinkHandler {
	return &ExternalAccessLinkHandler{service: service}
}

// List godoc
// @Summary List consultee access links for an application
// @Tags ExternalAccessLinks
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/external-access-links [get]
func (h *ExternalAccessLinkHandler) List(c *gin.Context) {
	links, err := h.service.ListLinks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, map[string]interface{}{"total": len(links)})
}

// Create godoc
// @Summary Invite a consultee to view the application
// @Tags ExternalAccessLinks
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.CreateExternalAccessLinkRequest true "Consultee details"
// @Success 201 {object} response.Envelope
// @Router /applications/{id}/external-access-links [post]
func (h *ExternalAccessLinkHandler) Create(c *gin.Context) {
	var req dto.CreateExternalAccessLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid consultee payload"))
		return
	}
	created, err := h.service.CreateLink(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Verify godoc
// @Summary Verify a consultee access link
// @Tags ExternalAccessLinks
// @Accept json
// @Produce json
// @Param payload body dto.VerifyExternalAccessRequest true "Token and access code"
// @Success 200 {object} response.Envelope
// @Router /external-access/verify [post]
func (h *ExternalAccessLinkHandler) Verify(c *gin.Context) {
	var req dto.VerifyExternalAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid verification payload"))
		return
	}
	link, err := h.service.VerifyAccess(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}
