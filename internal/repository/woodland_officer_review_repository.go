package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/felling-licence-api/internal/models"
)

// WoodlandOfficerReviewRepository persists woodland officer reviews and amendment rounds.
type WoodlandOfficerReviewRepository struct {
	db *sqlx.DB
}

// NewWoodlandOfficerReviewRepository constructs the repository.
func NewWoodlandOfficerReviewRepository(db *sqlx.DB) *WoodlandOfficerReviewRepository {
	return &WoodlandOfficerReviewRepository{db: db}
}

// GetByApplicationID returns the review with its amendment reviews, or nil when none exists.
func (r *WoodlandOfficerReviewRepository) GetByApplicationID(ctx context.Context, applicationID string) (*models.WoodlandOfficerReview, error) {
	const query = `SELECT id, felling_licence_application_id, consultations_complete, last_updated_by_id, last_updated_date
	FROM woodland_officer_reviews WHERE felling_licence_application_id = $1`
	var review models.WoodlandOfficerReview
	if err := r.db.GetContext(ctx, &review, query, applicationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get woodland officer review: %w", err)
	}

	const amendmentsQuery = `SELECT id, woodland_officer_review_id, amendments_sent_date, response_deadline,
       applicant_agreed, applicant_disagreement_reason, amendment_review_completed, completed_at
	FROM amendment_reviews WHERE woodland_officer_review_id = $1 ORDER BY amendments_sent_date ASC`
	if err := r.db.SelectContext(ctx, &review.AmendmentReviews, amendmentsQuery, review.ID); err != nil {
		return nil, fmt.Errorf("list amendment reviews: %w", err)
	}
	return &review, nil
}

// Ensure creates the review for an application when missing and returns its identifier.
func (r *WoodlandOfficerReviewRepository) Ensure(ctx context.Context, applicationID, actorID string, at time.Time) (string, error) {
	const query = `INSERT INTO woodland_officer_reviews
	(id, felling_licence_application_id, consultations_complete, last_updated_by_id, last_updated_date)
	VALUES ($1, $2, FALSE, $3, $4)
	ON CONFLICT (felling_licence_application_id) DO UPDATE SET
	 last_updated_by_id = EXCLUDED.last_updated_by_id, last_updated_date = EXCLUDED.last_updated_date
	RETURNING id`
	var id string
	if err := r.db.GetContext(ctx, &id, query, uuid.NewString(), applicationID, actorID, at); err != nil {
		return "", fmt.Errorf("ensure woodland officer review: %w", err)
	}
	return id, nil
}

// SetConsultationsComplete records whether consultation has finished.
func (r *WoodlandOfficerReviewRepository) SetConsultationsComplete(ctx context.Context, applicationID string, complete bool, actorID string, at time.Time) error {
	const query = `INSERT INTO woodland_officer_reviews
	(id, felling_licence_application_id, consultations_complete, last_updated_by_id, last_updated_date)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (felling_licence_application_id) DO UPDATE SET
	 consultations_complete = EXCLUDED.consultations_complete,
	 last_updated_by_id = EXCLUDED.last_updated_by_id, last_updated_date = EXCLUDED.last_updated_date`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), applicationID, complete, actorID, at); err != nil {
		return fmt.Errorf("set consultations complete: %w", err)
	}
	return nil
}

// CreateAmendmentReview inserts a new amendment round.
func (r *WoodlandOfficerReviewRepository) CreateAmendmentReview(ctx context.Context, review *models.AmendmentReview) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.AmendmentsSentDate.IsZero() {
		review.AmendmentsSentDate = time.Now().UTC()
	}
	const query = `INSERT INTO amendment_reviews
	(id, woodland_officer_review_id, amendments_sent_date, response_deadline, applicant_agreed,
	 applicant_disagreement_reason, amendment_review_completed, completed_at)
	VALUES (:id, :woodland_officer_review_id, :amendments_sent_date, :response_deadline, :applicant_agreed,
	 :applicant_disagreement_reason, :amendment_review_completed, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("create amendment review: %w", err)
	}
	return nil
}

// CompleteAmendmentReviewParams groups values recorded when an amendment round closes.
type CompleteAmendmentReviewParams struct {
	ID                      string
	WoodlandOfficerReviewID string
	ApplicantAgreed         bool
	DisagreementReason      *string
	CompletedAt             time.Time
}

// CompleteAmendmentReview closes an open amendment round. It returns sql.ErrNoRows when
// the round does not exist or is already complete.
func (r *WoodlandOfficerReviewRepository) CompleteAmendmentReview(ctx context.Context, params CompleteAmendmentReviewParams) error {
	const query = `UPDATE amendment_reviews
	SET amendment_review_completed = TRUE, applicant_agreed = :applicant_agreed,
	    applicant_disagreement_reason = :reason, completed_at = :completed_at
	WHERE id = :id AND woodland_officer_review_id = :review_id AND amendment_review_completed = FALSE`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":               params.ID,
		"review_id":        params.WoodlandOfficerReviewID,
		"applicant_agreed": params.ApplicantAgreed,
		"reason":           params.DisagreementReason,
		"completed_at":     params.CompletedAt,
	})
	if err != nil {
		return fmt.Errorf("complete amendment review: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check amendment review rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
