package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/felling-licence-api/internal/models"
)

func TestExternalAccessLinkRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExternalAccessLinkRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO external_access_links")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	link := &models.ExternalAccessLink{
		ApplicationID:  "app-1",
		Name:           "Parish council",
		ContactEmail:   "clerk@parish.example",
		Purpose:        "consultation",
		AccessCodeHash: "hash",
		CreatedByID:    "wo-1",
		ExpiresAt:      time.Now().Add(7 * 24 * time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), link))
	assert.NotEmpty(t, link.ID)

	rows := sqlmock.NewRows([]string{"id", "felling_licence_application_id", "name", "contact_email", "purpose", "access_code_hash",
		"created_by_id", "created_timestamp", "expires_timestamp"}).
		AddRow(link.ID, "app-1", "Parish council", "clerk@parish.example", "consultation", "hash", "wo-1", time.Now(), link.ExpiresAt)
	mock.ExpectQuery(regexp.QuoteMeta("FROM external_access_links")).
		WithArgs("app-1").
		WillReturnRows(rows)

	links, err := repo.ListByApplicationID(context.Background(), "app-1")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, link.ID, links[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
