package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/felling-licence-api/internal/models"
)

const externalAccessLinkColumns = `id, felling_licence_application_id, name, contact_email, purpose, access_code_hash,
       created_by_id, created_timestamp, expires_timestamp`

// ExternalAccessLinkRepository persists consultee access links.
type ExternalAccessLinkRepository struct {
	db *sqlx.DB
}

// NewExternalAccessLinkRepository constructs the repository.
func NewExternalAccessLinkRepository(db *sqlx.DB) *ExternalAccessLinkRepository {
	return &ExternalAccessLinkRepository{db: db}
}

// Create inserts a link.
func (r *ExternalAccessLinkRepository) Create(ctx context.Context, link *models.ExternalAccessLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO external_access_links
	(id, felling_licence_application_id, name, contact_email, purpose, access_code_hash, created_by_id, created_timestamp, expires_timestamp)
	VALUES (:id, :felling_licence_application_id, :name, :contact_email, :purpose, :access_code_hash, :created_by_id, :created_timestamp, :expires_timestamp)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("create external access link: %w", err)
	}
	return nil
}

// GetByID fetches a link by identifier.
func (r *ExternalAccessLinkRepository) GetByID(ctx context.Context, id string) (*models.ExternalAccessLink, error) {
	query := `SELECT ` + externalAccessLinkColumns + ` FROM external_access_links WHERE id = $1`
	var link models.ExternalAccessLink
	if err := r.db.GetContext(ctx, &link, query, id); err != nil {
		return nil, err
	}
	return &link, nil
}

// ListByApplicationID returns the links created for an application (latest first).
func (r *ExternalAccessLinkRepository) ListByApplicationID(ctx context.Context, applicationID string) ([]models.ExternalAccessLink, error) {
	query := `SELECT ` + externalAccessLinkColumns + ` FROM external_access_links
	WHERE felling_licence_application_id = $1 ORDER BY created_timestamp DESC`
	var links []models.ExternalAccessLink
	if err := r.db.SelectContext(ctx, &links, query, applicationID); err != nil {
		return nil, fmt.Errorf("list external access links: %w", err)
	}
	return links, nil
}
