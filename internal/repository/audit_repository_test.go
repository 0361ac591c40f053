package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/felling-licence-api/internal/models"
)

func auditArgs() []driver.Value {
	args := make([]driver.Value, 10)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func TestAuditRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(auditArgs()...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	userID := "ao-1"
	entry := &models.AuditLog{UserID: &userID, Action: models.AuditActionAdminOfficerReviewComplete, Resource: "admin_officer_review"}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryCreateError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(auditArgs()...).
		WillReturnError(errors.New("disk full"))

	err := repo.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionApplicationWithdraw})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create audit log")
}
