package dto

import (
	"time"

	"github.com/noah-isme/felling-licence-api/internal/models"
)

// ConsultationsCompleteRequest toggles the consultation stage of a woodland officer review.
type ConsultationsCompleteRequest struct {
	Complete *bool `json:"complete" validate:"required"`
}

// StartAmendmentReviewRequest opens a new round of amendments with the applicant.
type StartAmendmentReviewRequest struct {
	ResponseDeadline *time.Time `json:"responseDeadline"`
}

// CompleteAmendmentReviewRequest closes an amendment round.
type CompleteAmendmentReviewRequest struct {
	ApplicantAgreed *bool  `json:"applicantAgreed" validate:"required"`
	Reason          string `json:"reason" validate:"max=2000"`
}

// SubStatusesResponse lists the sub-statuses currently applying to an application.
type SubStatusesResponse struct {
	ApplicationID string                      `json:"applicationId"`
	CurrentStatus models.FellingLicenceStatus `json:"currentStatus,omitempty"`
	SubStatuses   []models.SubStatus          `json:"subStatuses"`
}
