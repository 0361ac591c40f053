package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/noah-isme/felling-licence-api/internal/models"
	appErrors "github.com/noah-isme/felling-licence-api/pkg/errors"
)

type applicationReader interface {
	GetByID(ctx context.Context, id string) (*models.FellingLicenceApplication, error)
	ListStatusHistory(ctx context.Context, applicationID string) ([]models.StatusHistory, error)
	ListAssignees(ctx context.Context, applicationID string) ([]models.AssigneeHistory, error)
}

type adminOfficerReviewReader interface {
	GetByApplicationID(ctx context.Context, applicationID string) (*models.AdminOfficerReview, error)
}

type woodlandOfficerReviewReader interface {
	GetByApplicationID(ctx context.Context, applicationID string) (*models.WoodlandOfficerReview, error)
}

type publicRegisterReader interface {
	GetByApplicationID(ctx context.Context, applicationID string) (*models.PublicRegister, error)
}

type externalAccessLinkLister interface {
	ListByApplicationID(ctx context.Context, applicationID string) ([]models.ExternalAccessLink, error)
}

type snapshotLoader interface {
	Load(ctx context.Context, applicationID string) (*models.ApplicationSnapshot, error)
}

// ApplicationSnapshotLoader assembles the full state of an application from its repositories.
type ApplicationSnapshotLoader struct {
	applications    applicationReader
	adminReviews    adminOfficerReviewReader
	woodlandReviews woodlandOfficerReviewReader
	publicRegisters publicRegisterReader
	externalLinks   externalAccessLinkLister
	metrics         *MetricsService
}

// NewApplicationSnapshotLoader wires the loader. metrics may be nil.
func NewApplicationSnapshotLoader(
	applications applicationReader,
	adminReviews adminOfficerReviewReader,
	woodlandReviews woodlandOfficerReviewReader,
	publicRegisters publicRegisterReader,
	externalLinks externalAccessLinkLister,
	metrics *MetricsService,
) *ApplicationSnapshotLoader {
	return &ApplicationSnapshotLoader{
		applications:    applications,
		adminReviews:    adminReviews,
		woodlandReviews: woodlandReviews,
		publicRegisters: publicRegisters,
		externalLinks:   externalLinks,
		metrics:         metrics,
	}
}

// Load returns the snapshot or a NOT_FOUND error when the application does not exist.
func (l *ApplicationSnapshotLoader) Load(ctx context.Context, applicationID string) (*models.ApplicationSnapshot, error) {
	if applicationID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "application id is required")
	}
	start := time.Now()
	defer func() {
		l.metrics.ObserveDBQuery("application_snapshot", time.Since(start))
	}()

	app, err := l.applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Internal(err, "failed to load application")
	}

	snapshot := &models.ApplicationSnapshot{Application: *app}
	if snapshot.StatusHistories, err = l.applications.ListStatusHistory(ctx, applicationID); err != nil {
		return nil, appErrors.Internal(err, "failed to load status history")
	}
	if snapshot.AssigneeHistories, err = l.applications.ListAssignees(ctx, applicationID); err != nil {
		return nil, appErrors.Internal(err, "failed to load assignees")
	}
	if snapshot.AdminOfficerReview, err = l.adminReviews.GetByApplicationID(ctx, applicationID); err != nil {
		return nil, appErrors.Internal(err, "failed to load admin officer review")
	}
	if snapshot.WoodlandOfficerReview, err = l.woodlandReviews.GetByApplicationID(ctx, applicationID); err != nil {
		return nil, appErrors.Internal(err, "failed to load woodland officer review")
	}
	if snapshot.PublicRegister, err = l.publicRegisters.GetByApplicationID(ctx, applicationID); err != nil {
		return nil, appErrors.Internal(err, "failed to load public register")
	}
	if snapshot.ExternalAccessLinks, err = l.externalLinks.ListByApplicationID(ctx, applicationID); err != nil {
		return nil, appErrors.Internal(err, "failed to load external access links")
	}
	return snapshot, nil
}

func requireStatus(snapshot *models.ApplicationSnapshot, allowed ...models.FellingLicenceStatus) (models.FellingLicenceStatus, error) {
	current, ok := snapshot.CurrentStatus()
	if ok {
		for _, status := range allowed {
			if current == status {
				return current, nil
			}
		}
	}
	return current, appErrors.Clone(appErrors.ErrWrongStage, "application is not at the required workflow stage")
}
