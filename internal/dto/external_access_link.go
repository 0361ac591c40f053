package dto

import (
	"time"

	"github.com/noah-isme/felling-licence-api/internal/models"
)

// CreateExternalAccessLinkRequest invites a consultee to view the application.
type CreateExternalAccessLinkRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	ContactEmail string `json:"contactEmail" validate:"required,email"`
	Purpose      string `json:"purpose" validate:"required,max=500"`
}

// ExternalAccessLinkCreated is returned once on creation; the access code is not stored in clear.
type ExternalAccessLinkCreated struct {
	Link       models.ExternalAccessLink `json:"link"`
	AccessCode string                    `json:"accessCode"`
	Token      string                    `json:"token"`
	ExpiresAt  time.Time                 `json:"expiresAt"`
}

// VerifyExternalAccessRequest is presented by a consultee following a link.
type VerifyExternalAccessRequest struct {
	Token      string `json:"token" validate:"required"`
	AccessCode string `json:"accessCode" validate:"required"`
}
