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

type woodlandOfficerReviewService interface {
	SetConsultationsComplete(ctx context.Context, applicationID string, req dto.ConsultationsCompleteRequest, actor *models.JWTClaims) (*models.WoodlandOfficerReview, error)
	StartAmendmentReview(ctx context.Context, applicationID string, req dto.StartAmendmentReviewRequest, actor *models.JWTClaims) (*models.AmendmentReview, error)
	CompleteAmendmentReview(ctx context.Context, applicationID, amendmentReviewID string, req dto.CompleteAmendmentReviewRequest, actor *models.JWTClaims) (*models.AmendmentReview, error)
}

// WoodlandOfficerReviewHandler exposes woodland officer review endpoints.
type WoodlandOfficerReviewHandler struct {
	service woodlandOfficerReviewService
}

// NewWoodlandOfficerReviewHandler builds a new handler.
func NewWoodlandOfficerReviewHandler(service woodlandOfficerReviewService) *WoodlandOfficerReviewHandler {
	return &WoodlandOfficerReviewHandler{service: service}
}

// SetConsultations godoc
// @Summary Mark consultations as complete or reopen them
// @Tags WoodlandOfficerReview
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ConsultationsCompleteRequest true "Consultation state"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/woodland-officer-review/consultations [put]
func (h *WoodlandOfficerReviewHandler) SetConsultations(c *gin.Context) {
	var req dto.ConsultationsCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid consultation payload"))
		return
	}
	review, err := h.service.SetConsultationsComplete(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}

// StartAmendment godoc
// @Summary Send amendments to the applicant
// @Tags WoodlandOfficerReview
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.StartAmendmentReviewRequest false "Response deadline"
// @Success 201 {object} response.Envelope
// @Router /applications/{id}/woodland-officer-review/amendments [post]
func (h *WoodlandOfficerReviewHandler) StartAmendment(c *gin.Context) {
	var req dto.StartAmendmentReviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Validation(err, "invalid amendment payload"))
			return
		}
	}
	amendment, err := h.service.StartAmendmentReview(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, amendment)
}

// CompleteAmendment godoc
// @Summary Record the applicant's response to amendments
// @Tags WoodlandOfficerReview
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param amendmentId path string true "Amendment review ID"
// @Param payload body dto.CompleteAmendmentReviewRequest true "Applicant response"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/woodland-officer-review/amendments/{amendmentId}/complete [post]
func (h *WoodlandOfficerReviewHandler) CompleteAmendment(c *gin.Context) {
	var req dto.CompleteAmendmentReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid amendment response payload"))
		return
	}
	amendment, err := h.service.CompleteAmendmentReview(c.Request.Context(), c.Param("id"), c.Param("amendmentId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, amendment, nil)
}
