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

const adminOfficerReviewColumns = `id, felling_licence_application_id, agent_authority_form_checked, agent_authority_check_passed,
       mapping_checked, mapping_check_passed, constraints_checked, constraints_check_passed,
       admin_officer_review_complete, last_updated_by_id, last_updated_date, completed_at`

// AdminOfficerReviewRepository persists admin officer review records.
type AdminOfficerReviewRepository struct {
	db *sqlx.DB
}

// NewAdminOfficerReviewRepository constructs the repository.
func NewAdminOfficerReviewRepository(db *sqlx.DB) *AdminOfficerReviewRepository {
	return &AdminOfficerReviewRepository{db: db}
}

// GetByApplicationID returns the review for an application or nil when none exists yet.
func (r *AdminOfficerReviewRepository) GetByApplicationID(ctx context.Context, applicationID string) (*models.AdminOfficerReview, error) {
	query := `SELECT ` + adminOfficerReviewColumns + ` FROM admin_officer_reviews WHERE felling_licence_application_id = $1`
	var review models.AdminOfficerReview
	if err := r.db.GetContext(ctx, &review, query, applicationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get admin officer review: %w", err)
	}
	return &review, nil
}

// reviewCheckColumns lists the column pair each check owns.
var reviewCheckColumns = map[models.ReviewCheck][2]string{
	models.ReviewCheckAgentAuthority: {"agent_authority_form_checked", "agent_authority_check_passed"},
	models.ReviewCheckMapping:        {"mapping_checked", "mapping_check_passed"},
	models.ReviewCheckConstraints:    {"constraints_checked", "constraints_check_passed"},
}

// UpdateReviewCheckParams describes a single check outcome write.
type UpdateReviewCheckParams struct {
	ApplicationID string
	Check         models.ReviewCheck
	Checked       *bool
	Passed        *bool
	UpdatedByID   string
	At            time.Time
	// Guard sees the locked row before the write. A non-nil error aborts the
	// transaction and is returned unchanged.
	Guard func(current *models.AdminOfficerReview) error
}

// UpdateCheck writes one check's columns, creating the review on first use. The
// row is locked for the duration so concurrent updates to other checks are kept.
func (r *AdminOfficerReviewRepository) UpdateCheck(ctx context.Context, params UpdateReviewCheckParams) (review *models.AdminOfficerReview, err error) {
	columns, ok := reviewCheckColumns[params.Check]
	if !ok {
		return nil, fmt.Errorf("unknown admin officer review check %q", params.Check)
	}
	if params.At.IsZero() {
		params.At = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin review check update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const ensureQuery = `INSERT INTO admin_officer_reviews
	(id, felling_licence_application_id, admin_officer_review_complete, last_updated_by_id, last_updated_date)
	VALUES ($1, $2, FALSE, $3, $4)
	ON CONFLICT (felling_licence_application_id) DO NOTHING`
	if _, err = tx.ExecContext(ctx, ensureQuery, uuid.NewString(), params.ApplicationID, params.UpdatedByID, params.At); err != nil {
		return nil, fmt.Errorf("ensure admin officer review: %w", err)
	}

	var current models.AdminOfficerReview
	lockQuery := `SELECT ` + adminOfficerReviewColumns + ` FROM admin_officer_reviews WHERE felling_licence_application_id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &current, lockQuery, params.ApplicationID); err != nil {
		return nil, fmt.Errorf("lock admin officer review: %w", err)
	}
	if params.Guard != nil {
		if err = params.Guard(&current); err != nil {
			return nil, err
		}
	}

	updateQuery := `UPDATE admin_officer_reviews SET ` + columns[0] + ` = $1, ` + columns[1] + ` = $2,
	 last_updated_by_id = $3, last_updated_date = $4
	WHERE felling_licence_application_id = $5`
	if _, err = tx.ExecContext(ctx, updateQuery, params.Checked, params.Passed, params.UpdatedByID, params.At, params.ApplicationID); err != nil {
		return nil, fmt.Errorf("update admin officer review check: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit review check update: %w", err)
	}

	current.SetCheck(params.Check, params.Checked, params.Passed)
	current.LastUpdatedByID = params.UpdatedByID
	current.LastUpdatedDate = params.At
	return &current, nil
}

// Complete marks the review complete and moves the application to woodland officer review.
func (r *AdminOfficerReviewRepository) Complete(ctx context.Context, applicationID, completedByID string, at time.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review completion: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateQuery = `UPDATE admin_officer_reviews
	SET admin_officer_review_complete = TRUE, completed_at = $1, last_updated_by_id = $2, last_updated_date = $1
	WHERE felling_licence_application_id = $3 AND admin_officer_review_complete = FALSE`
	result, err := tx.ExecContext(ctx, updateQuery, at, completedByID, applicationID)
	if err != nil {
		return fmt.Errorf("complete admin officer review: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check review completion rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if err = insertStatusHistory(ctx, tx, &models.StatusHistory{
		ApplicationID: applicationID,
		Status:        models.StatusWoodlandOfficerReview,
		CreatedByID:   &completedByID,
		CreatedAt:     at,
	}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit review completion: %w", err)
	}
	return nil
}
