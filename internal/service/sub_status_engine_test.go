package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/felling-licence-api/internal/models"
)

func snapshotWithStatus(status models.FellingLicenceStatus) *models.ApplicationSnapshot {
	now := time.Now().UTC()
	return &models.ApplicationSnapshot{
		Application: models.FellingLicenceApplication{ID: "app-1"},
		StatusHistories: []models.StatusHistory{
			{ID: "sh-1", ApplicationID: "app-1", Status: models.StatusSubmitted, CreatedAt: now.Add(-2 * time.Hour)},
			{ID: "sh-2", ApplicationID: "app-1", Status: status, CreatedAt: now},
			{ID: "sh-3", ApplicationID: "app-1", Status: models.StatusAdminOfficerReview, CreatedAt: now.Add(-time.Hour)},
		},
	}
}

func outstandingAmendments() *models.WoodlandOfficerReview {
	return &models.WoodlandOfficerReview{
		ID:                    "wor-1",
		ConsultationsComplete: true,
		AmendmentReviews:      []models.AmendmentReview{{ID: "amr-1", AmendmentReviewCompleted: boolPtr(false)}},
	}
}

func publishedRegister() *models.PublicRegister {
	published := time.Now().UTC().Add(-time.Hour)
	return &models.PublicRegister{ID: "pr-1", ConsultationPublicationTimestamp: &published}
}

func TestSubStatusEngineNoRecords(t *testing.T) {
	engine := NewSubStatusEngine(DefaultSubStatusSpecifications()...)
	result := engine.GetCurrentSubStatuses(snapshotWithStatus(models.StatusWoodlandOfficerReview))
	assert.Empty(t, result)
}

func TestSubStatusEngineAmendmentsWithApplicant(t *testing.T) {
	engine := NewSubStatusEngine(DefaultSubStatusSpecifications()...)
	app := snapshotWithStatus(models.StatusWoodlandOfficerReview)
	app.WoodlandOfficerReview = outstandingAmendments()

	result := engine.GetCurrentSubStatuses(app)
	assert.Equal(t, []models.SubStatus{models.SubStatusAmendmentsWithApplicant}, result.Sorted())
}

func TestSubStatusEngineOnPublicRegister(t *testing.T) {
	engine := NewSubStatusEngine(DefaultSubStatusSpecifications()...)
	app := snapshotWithStatus(models.StatusWoodlandOfficerReview)
	app.PublicRegister = publishedRegister()

	result := engine.GetCurrentSubStatuses(app)
	require.Len(t, result, 1)
	assert.True(t, result.Has(models.SubStatusOnPublicRegister))

	removed := time.Now().UTC()
	app.PublicRegister.ConsultationRemovedTimestamp = &removed
	assert.Empty(t, engine.GetCurrentSubStatuses(app))
}

func TestSubStatusEngineMultipleSubStatuses(t *testing.T) {
	engine := NewSubStatusEngine(DefaultSubStatusSpecifications()...)
	app := snapshotWithStatus(models.StatusWoodlandOfficerReview)
	app.WoodlandOfficerReview = outstandingAmendments()
	app.PublicRegister = publishedRegister()

	result := engine.GetCurrentSubStatuses(app)
	require.Len(t, result, 2)
	assert.True(t, result.Has(models.SubStatusAmendmentsWithApplicant))
	assert.True(t, result.Has(models.SubStatusOnPublicRegister))
}

func TestSubStatusEngineConsultation(t *testing.T) {
	engine := NewSubStatusEngine(DefaultSubStatusSpecifications()...)
	app := snapshotWithStatus(models.StatusWoodlandOfficerReview)
	app.WoodlandOfficerReview = &models.WoodlandOfficerReview{ID: "wor-1"}
	app.ExternalAccessLinks = []models.ExternalAccessLink{{ID: "link-1", ApplicationID: "app-1"}}

	result := engine.GetCurrentSubStatuses(app)
	assert.Equal(t, []models.SubStatus{models.SubStatusConsultation}, result.Sorted())

	app.WoodlandOfficerReview.ConsultationsComplete = true
	assert.Empty(t, engine.GetCurrentSubStatuses(app))
}

func TestSubStatusEngineAllSubStatuses(t *testing.T) {
	engine := NewSubStatusEngine(DefaultSubStatusSpecifications()...)
	app := snapshotWithStatus(models.StatusWoodlandOfficerReview)
	app.WoodlandOfficerReview = outstandingAmendments()
	app.WoodlandOfficerReview.ConsultationsComplete = false
	app.ExternalAccessLinks = []models.ExternalAccessLink{{ID: "link-1", ApplicationID: "app-1"}}
	app.PublicRegister = publishedRegister()

	result := engine.GetCurrentSubStatuses(app)
	assert.Equal(t, []models.SubStatus{
		models.SubStatusAmendmentsWithApplicant,
		models.SubStatusConsultation,
		models.SubStatusOnPublicRegister,
	}, result.Sorted())
}

func TestSubStatusEngineOtherStatusIsEmpty(t *testing.T) {
	engine := NewSubStatusEngine(DefaultSubStatusSpecifications()...)
	for _, status := range []models.FellingLicenceStatus{
		models.StatusAdminOfficerReview,
		models.StatusSentForApproval,
		models.StatusWithdrawn,
	} {
		app := snapshotWithStatus(status)
		app.WoodlandOfficerReview = outstandingAmendments()
		app.PublicRegister = publishedRegister()
		assert.Empty(t, engine.GetCurrentSubStatuses(app), status)
	}
}

func TestSubStatusEngineEmptyHistory(t *testing.T) {
	engine := NewSubStatusEngine(DefaultSubStatusSpecifications()...)
	app := &models.ApplicationSnapshot{PublicRegister: publishedRegister()}
	assert.Empty(t, engine.GetCurrentSubStatuses(app))
	assert.Empty(t, engine.GetCurrentSubStatuses(nil))
}

func TestSubStatusEngineUsesInjectedSpecifications(t *testing.T) {
	engine := NewSubStatusEngine(OnPublicRegisterSpecification{})
	app := snapshotWithStatus(models.StatusWoodlandOfficerReview)
	app.WoodlandOfficerReview = outstandingAmendments()
	app.PublicRegister = publishedRegister()

	result := engine.GetCurrentSubStatuses(app)
	assert.Equal(t, []models.SubStatus{models.SubStatusOnPublicRegister}, result.Sorted())
}

func TestConsultationSpecification(t *testing.T) {
	spec := ConsultationSpecification{}
	app := snapshotWithStatus(models.StatusWoodlandOfficerReview)
	assert.False(t, spec.IsSatisfiedBy(app))

	app.WoodlandOfficerReview = &models.WoodlandOfficerReview{ID: "wor-1", ConsultationsComplete: false}
	assert.False(t, spec.IsSatisfiedBy(app))

	app.ExternalAccessLinks = []models.ExternalAccessLink{{ID: "link-1", ApplicationID: "app-1"}}
	assert.True(t, spec.IsSatisfiedBy(app))

	app.WoodlandOfficerReview.ConsultationsComplete = true
	assert.False(t, spec.IsSatisfiedBy(app))
}

func TestAmendmentsWithApplicantIgnoresUndecidedReviews(t *testing.T) {
	spec := AmendmentsWithApplicantSpecification{}
	app := snapshotWithStatus(models.StatusWoodlandOfficerReview)
	app.WoodlandOfficerReview = &models.WoodlandOfficerReview{
		AmendmentReviews: []models.AmendmentReview{
			{ID: "amr-1", AmendmentReviewCompleted: nil},
			{ID: "amr-2", AmendmentReviewCompleted: boolPtr(true)},
		},
	}
	assert.False(t, spec.IsSatisfiedBy(app))
}
