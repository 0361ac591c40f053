package service

import "github.com/noah-isme/felling-licence-api/internal/models"

// SubStatusSpecification is a named predicate over an application snapshot.
type SubStatusSpecification interface {
	SubStatus() models.SubStatus
	IsSatisfiedBy(application *models.ApplicationSnapshot) bool
}

// SubStatusEngine evaluates an ordered set of specifications against an application.
type SubStatusEngine struct {
	specifications []SubStatusSpecification
}

// NewSubStatusEngine builds an engine over the provided specifications.
func NewSubStatusEngine(specifications ...SubStatusSpecification) *SubStatusEngine {
	return &SubStatusEngine{specifications: specifications}
}

// DefaultSubStatusSpecifications returns the specifications used by the service.
func DefaultSubStatusSpecifications() []SubStatusSpecification {
	return []SubStatusSpecification{
		AmendmentsWithApplicantSpecification{},
		OnPublicRegisterSpecification{},
		ConsultationSpecification{},
	}
}

// GetCurrentSubStatuses returns the tags whose specification holds. Sub-statuses only
// apply while the application is in woodland officer review.
func (e *SubStatusEngine) GetCurrentSubStatuses(application *models.ApplicationSnapshot) models.SubStatusSet {
	result := models.SubStatusSet{}
	current, ok := application.CurrentStatus()
	if !ok || current != models.StatusWoodlandOfficerReview {
		return result
	}
	for _, spec := range e.specifications {
		if spec.IsSatisfiedBy(application) {
			result[spec.SubStatus()] = struct{}{}
		}
	}
	return result
}

// AmendmentsWithApplicantSpecification holds while an amendment review awaits completion.
type AmendmentsWithApplicantSpecification struct{}

// SubStatus implements SubStatusSpecification.
func (AmendmentsWithApplicantSpecification) SubStatus() models.SubStatus {
	return models.SubStatusAmendmentsWithApplicant
}

// IsSatisfiedBy implements SubStatusSpecification.
func (AmendmentsWithApplicantSpecification) IsSatisfiedBy(application *models.ApplicationSnapshot) bool {
	if application == nil || application.WoodlandOfficerReview == nil {
		return false
	}
	for _, review := range application.WoodlandOfficerReview.AmendmentReviews {
		if review.Outstanding() {
			return true
		}
	}
	return false
}

// OnPublicRegisterSpecification holds while the application is published for consultation.
type OnPublicRegisterSpecification struct{}

// SubStatus implements SubStatusSpecification.
func (OnPublicRegisterSpecification) SubStatus() models.SubStatus {
	return models.SubStatusOnPublicRegister
}

// IsSatisfiedBy implements SubStatusSpecification.
func (OnPublicRegisterSpecification) IsSatisfiedBy(application *models.ApplicationSnapshot) bool {
	if application == nil {
		return false
	}
	return application.PublicRegister.OnConsultationRegister()
}

// ConsultationSpecification holds while consultees have been invited and consultation is open.
type ConsultationSpecification struct{}

// SubStatus implements SubStatusSpecification.
func (ConsultationSpecification) SubStatus() models.SubStatus {
	return models.SubStatusConsultation
}

// IsSatisfiedBy implements SubStatusSpecification.
func (ConsultationSpecification) IsSatisfiedBy(application *models.ApplicationSnapshot) bool {
	if application == nil || application.WoodlandOfficerReview == nil {
		return false
	}
	if application.WoodlandOfficerReview.ConsultationsComplete {
		return false
	}
	for _, link := range application.ExternalAccessLinks {
		if link.ApplicationID == application.Application.ID {
			return true
		}
	}
	return false
}
