package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/felling-licence-api/internal/dto"
	"github.com/noah-isme/felling-licence-api/internal/models"
	"github.com/noah-isme/felling-licence-api/internal/repository"
	appErrors "github.com/noah-isme/felling-licence-api/pkg/errors"
)

const (
	woodlandOfficerReviewResource  = "woodland_officer_review"
	defaultAmendmentResponsePeriod = 14 * 24 * time.Hour
)

type woodlandOfficerReviewStore interface {
	Ensure(ctx context.Context, applicationID, actorID string, at time.Time) (string, error)
	SetConsultationsComplete(ctx context.Context, applicationID string, complete bool, actorID string, at time.Time) error
	CreateAmendmentReview(ctx context.Context, review *models.AmendmentReview) error
	CompleteAmendmentReview(ctx context.Context, params repository.CompleteAmendmentReviewParams) error
}

// WoodlandOfficerReviewService records progress through the woodland officer stage.
type WoodlandOfficerReviewService struct {
	snapshots      snapshotLoader
	reviews        woodlandOfficerReviewStore
	subStatuses    subStatusInvalidator
	audit          auditLogger
	validator      *validator.Validate
	responsePeriod time.Duration
	logger         *zap.Logger
}

// NewWoodlandOfficerReviewService constructs the service.
func NewWoodlandOfficerReviewService(snapshots snapshotLoader, reviews woodlandOfficerReviewStore, subStatuses subStatusInvalidator, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *WoodlandOfficerReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WoodlandOfficerReviewService{
		snapshots:      snapshots,
		reviews:        reviews,
		subStatuses:    subStatuses,
		audit:          audit,
		validator:      validate,
		responsePeriod: defaultAmendmentResponsePeriod,
		logger:         logger,
	}
}

// SetConsultationsComplete marks the consultation stage as finished or reopens it.
func (s *WoodlandOfficerReviewService) SetConsultationsComplete(ctx context.Context, applicationID string, req dto.ConsultationsCompleteRequest, actor *models.JWTClaims) (*models.WoodlandOfficerReview, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "complete flag is required")
	}
	snapshot, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.reviews.SetConsultationsComplete(ctx, applicationID, *req.Complete, actor.UserID, now); err != nil {
		return nil, appErrors.Internal(err, "failed to update consultations")
	}

	review := models.WoodlandOfficerReview{ApplicationID: applicationID}
	var previous interface{}
	if snapshot.WoodlandOfficerReview != nil {
		review = *snapshot.WoodlandOfficerReview
		previous = map[string]bool{"consultationsComplete": review.ConsultationsComplete}
	}
	review.ConsultationsComplete = *req.Complete
	review.LastUpdatedByID = actor.UserID
	review.LastUpdatedDate = now

	s.afterWrite(ctx, applicationID, actor, previous, map[string]bool{"consultationsComplete": *req.Complete})
	return &review, nil
}

// StartAmendmentReview sends a new round of amendments to the applicant.
func (s *WoodlandOfficerReviewService) StartAmendmentReview(ctx context.Context, applicationID string, req dto.StartAmendmentReviewRequest, actor *models.JWTClaims) (*models.AmendmentReview, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	snapshot, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if review := snapshot.WoodlandOfficerReview; review != nil {
		for _, amendment := range review.AmendmentReviews {
			if amendment.Outstanding() {
				return nil, appErrors.Clone(appErrors.ErrConflict, "amendments are already with the applicant")
			}
		}
	}

	now := time.Now().UTC()
	deadline := now.Add(s.responsePeriod)
	if req.ResponseDeadline != nil {
		if !req.ResponseDeadline.After(now) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "response deadline must be in the future")
		}
		deadline = req.ResponseDeadline.UTC()
	}

	reviewID, err := s.reviews.Ensure(ctx, applicationID, actor.UserID, now)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to prepare woodland officer review")
	}
	completed := false
	amendment := &models.AmendmentReview{
		WoodlandOfficerReviewID:  reviewID,
		AmendmentsSentDate:       now,
		ResponseDeadline:         &deadline,
		AmendmentReviewCompleted: &completed,
	}
	if err := s.reviews.CreateAmendmentReview(ctx, amendment); err != nil {
		return nil, appErrors.Internal(err, "failed to create amendment review")
	}

	s.logger.Info("amendments sent to applicant", zap.String("application_id", applicationID), zap.String("amendment_review_id", amendment.ID))
	s.afterWrite(ctx, applicationID, actor, nil, map[string]interface{}{"amendmentReviewId": amendment.ID, "responseDeadline": deadline})
	return amendment, nil
}

// CompleteAmendmentReview records the applicant's response and closes the round.
func (s *WoodlandOfficerReviewService) CompleteAmendmentReview(ctx context.Context, applicationID, amendmentReviewID string, req dto.CompleteAmendmentReviewRequest, actor *models.JWTClaims) (*models.AmendmentReview, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid amendment response")
	}
	reason := strings.TrimSpace(req.Reason)
	if !*req.ApplicantAgreed && reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a reason is required when the applicant disagrees")
	}
	snapshot, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	review := snapshot.WoodlandOfficerReview
	var amendment *models.AmendmentReview
	if review != nil {
		for i := range review.AmendmentReviews {
			if review.AmendmentReviews[i].ID == amendmentReviewID {
				copied := review.AmendmentReviews[i]
				amendment = &copied
				break
			}
		}
	}
	if amendment == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "amendment review not found")
	}
	if !amendment.Outstanding() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "amendment review already completed")
	}

	now := time.Now().UTC()
	params := repository.CompleteAmendmentReviewParams{
		ID:                      amendmentReviewID,
		WoodlandOfficerReviewID: review.ID,
		ApplicantAgreed:         *req.ApplicantAgreed,
		CompletedAt:             now,
	}
	if reason != "" {
		params.DisagreementReason = &reason
	}
	if err := s.reviews.CompleteAmendmentReview(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "amendment review already completed")
		}
		return nil, appErrors.Internal(err, "failed to complete amendment review")
	}

	completed := true
	agreed := *req.ApplicantAgreed
	amendment.AmendmentReviewCompleted = &completed
	amendment.ApplicantAgreed = &agreed
	amendment.ApplicantDisagreementNote = params.DisagreementReason
	amendment.CompletedAt = &now

	s.afterWrite(ctx, applicationID, actor, map[string]string{"amendmentReviewId": amendmentReviewID},
		map[string]interface{}{"amendmentReviewId": amendmentReviewID, "applicantAgreed": agreed})
	return amendment, nil
}

func (s *WoodlandOfficerReviewService) load(ctx context.Context, applicationID string) (*models.ApplicationSnapshot, error) {
	snapshot, err := s.snapshots.Load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if _, err := requireStatus(snapshot, models.StatusWoodlandOfficerReview); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *WoodlandOfficerReviewService) afterWrite(ctx context.Context, applicationID string, actor *models.JWTClaims, oldValues, newValues interface{}) {
	if s.subStatuses != nil {
		s.subStatuses.Invalidate(ctx, applicationID)
	}
	recordAudit(ctx, s.audit, s.logger, "woodland-officer-review-service", actor, models.AuditActionWoodlandOfficerReviewUpdate,
		woodlandOfficerReviewResource, applicationID, oldValues, newValues)
}
