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

// PublicRegisterRepository persists consultation public register state.
type PublicRegisterRepository struct {
	db *sqlx.DB
}

// NewPublicRegisterRepository constructs the repository.
func NewPublicRegisterRepository(db *sqlx.DB) *PublicRegisterRepository {
	return &PublicRegisterRepository{db: db}
}

// GetByApplicationID returns the register record or nil when the application was never published.
func (r *PublicRegisterRepository) GetByApplicationID(ctx context.Context, applicationID string) (*models.PublicRegister, error) {
	const query = `SELECT id, felling_licence_application_id, consultation_public_register_publication_timestamp,
       consultation_public_register_expiry_timestamp, consultation_public_register_removed_timestamp
	FROM public_registers WHERE felling_licence_application_id = $1`
	var register models.PublicRegister
	if err := r.db.GetContext(ctx, &register, query, applicationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get public register: %w", err)
	}
	return &register, nil
}

// Publish records publication on the consultation register, clearing any previous removal.
func (r *PublicRegisterRepository) Publish(ctx context.Context, applicationID string, publishedAt, expiresAt time.Time) error {
	const query = `INSERT INTO public_registers
	(id, felling_licence_application_id, consultation_public_register_publication_timestamp,
	 consultation_public_register_expiry_timestamp, consultation_public_register_removed_timestamp)
	VALUES ($1, $2, $3, $4, NULL)
	ON CONFLICT (felling_licence_application_id) DO UPDATE SET
	 consultation_public_register_publication_timestamp = EXCLUDED.consultation_public_register_publication_timestamp,
	 consultation_public_register_expiry_timestamp = EXCLUDED.consultation_public_register_expiry_timestamp,
	 consultation_public_register_removed_timestamp = NULL`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), applicationID, publishedAt, expiresAt); err != nil {
		return fmt.Errorf("publish to consultation register: %w", err)
	}
	return nil
}

// MarkRemoved stamps the removal time. It returns sql.ErrNoRows when the application is not
// currently on the register.
func (r *PublicRegisterRepository) MarkRemoved(ctx context.Context, applicationID string, removedAt time.Time) error {
	const query = `UPDATE public_registers SET consultation_public_register_removed_timestamp = $1
	WHERE felling_licence_application_id = $2
	  AND consultation_public_register_publication_timestamp IS NOT NULL
	  AND consultation_public_register_removed_timestamp IS NULL`
	result, err := r.db.ExecContext(ctx, query, removedAt, applicationID)
	if err != nil {
		return fmt.Errorf("remove from consultation register: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check register removal rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListExpired returns registers still on the consultation register whose expiry is at or before cutoff.
func (r *PublicRegisterRepository) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.PublicRegister, error) {
	const query = `SELECT id, felling_licence_application_id, consultation_public_register_publication_timestamp,
       consultation_public_register_expiry_timestamp, consultation_public_register_removed_timestamp
	FROM public_registers
	WHERE consultation_public_register_publication_timestamp IS NOT NULL
	  AND consultation_public_register_removed_timestamp IS NULL
	  AND consultation_public_register_expiry_timestamp <= $1
	ORDER BY consultation_public_register_expiry_timestamp
	LIMIT $2`
	registers := []models.PublicRegister{}
	if err := r.db.SelectContext(ctx, &registers, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list expired public registers: %w", err)
	}
	return registers, nil
}
