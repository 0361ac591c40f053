package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/felling-licence-api/internal/models"
)

// ApplicationRepository reads felling licence applications and their histories.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// GetByID fetches an application by identifier.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.FellingLicenceApplication, error) {
	const query = `SELECT id, application_reference, woodland_owner_id, created_by_id, is_agent_application, created_at
	FROM felling_licence_applications WHERE id = $1`
	var app models.FellingLicenceApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// ListStatusHistory returns the status trail of an application (oldest first).
func (r *ApplicationRepository) ListStatusHistory(ctx context.Context, applicationID string) ([]models.StatusHistory, error) {
	const query = `SELECT id, felling_licence_application_id, status, created_by_id, created
	FROM status_histories WHERE felling_licence_application_id = $1 ORDER BY created ASC`
	var history []models.StatusHistory
	if err := r.db.SelectContext(ctx, &history, query, applicationID); err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	return history, nil
}

// AddStatusHistory appends a status entry.
func (r *ApplicationRepository) AddStatusHistory(ctx context.Context, entry *models.StatusHistory) error {
	return insertStatusHistory(ctx, r.db, entry)
}

// ListAssignees returns the assignee history of an application.
func (r *ApplicationRepository) ListAssignees(ctx context.Context, applicationID string) ([]models.AssigneeHistory, error) {
	const query = `SELECT id, felling_licence_application_id, assigned_user_id, role, timestamp_assigned, timestamp_unassigned
	FROM assignee_histories WHERE felling_licence_application_id = $1 ORDER BY timestamp_assigned ASC`
	var assignees []models.AssigneeHistory
	if err := r.db.SelectContext(ctx, &assignees, query, applicationID); err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	return assignees, nil
}

// AssignUser closes any open assignment for the role and opens a new one for the user.
// It returns the previously assigned user, if any.
func (r *ApplicationRepository) AssignUser(ctx context.Context, applicationID, userID string, role models.AssignedRole, at time.Time) (prevUserID *string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assignment transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var previous []string
	const closeQuery = `UPDATE assignee_histories SET timestamp_unassigned = $1
	WHERE felling_licence_application_id = $2 AND role = $3 AND timestamp_unassigned IS NULL
	RETURNING assigned_user_id`
	if err = tx.SelectContext(ctx, &previous, closeQuery, at, applicationID, role); err != nil {
		return nil, fmt.Errorf("close previous assignment: %w", err)
	}
	if len(previous) > 0 {
		prevUserID = &previous[0]
	}

	const insertQuery = `INSERT INTO assignee_histories
	(id, felling_licence_application_id, assigned_user_id, role, timestamp_assigned)
	VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.ExecContext(ctx, insertQuery, uuid.NewString(), applicationID, userID, role, at); err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assignment: %w", err)
	}
	return prevUserID, nil
}

func insertStatusHistory(ctx context.Context, exec sqlx.ExtContext, entry *models.StatusHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO status_histories (id, felling_licence_application_id, status, created_by_id, created)
	VALUES (:id, :felling_licence_application_id, :status, :created_by_id, :created)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, entry); err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}
