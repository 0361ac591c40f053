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

type publicRegisterService interface {
	PublishToConsultationRegister(ctx context.Context, applicationID string, req dto.PublishToRegisterRequest, actor *models.JWTClaims) (*models.PublicRegister, error)
	RemoveFromConsultationRegister(ctx context.Context, applicationID string, actor *models.JWTClaims) (*models.PublicRegister, error)
}

// PublicRegisterHandler exposes consultation public register endpoints.
type PublicRegisterHandler struct {
	service publicRegisterService
}

// NewPublicRegisterHandler builds a new handler.
func NewPublicRegisterHandler(service publicRegisterService) *PublicRegisterHandler {
	return &PublicRegisterHandler{service: service}
}

// Publish godoc
// @Summary Publish an application to the consultation public register
// @Tags PublicRegister
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.PublishToRegisterRequest false "Publication period"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/public-register/publish [post]
func (h *PublicRegisterHandler) Publish(c *gin.Context) {
	var req dto.PublishToRegisterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Validation(err, "invalid publication payload"))
			return
		}
	}
	register, err := h.service.PublishToConsultationRegister(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, register, nil)
}

// Remove godoc
// @Summary Remove an application from the consultation public register
// @Tags PublicRegister
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/public-register/remove [post]
func (h *PublicRegisterHandler) Remove(c *gin.Context) {
	register, err := h.service.RemoveFromConsultationRegister(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, register, nil)
}
