package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/felling-licence-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestApplicationRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "application_reference", "woodland_owner_id", "created_by_id", "is_agent_application", "created_at"}).
		AddRow("app-1", "002/123/2024", "owner-1", "user-1", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, application_reference")).
		WithArgs("app-1").
		WillReturnRows(rows)

	app, err := repo.GetByID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "002/123/2024", app.Reference)
	assert.True(t, app.IsAgentApplication)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, application_reference")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestApplicationRepositoryListStatusHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "felling_licence_application_id", "status", "created_by_id", "created"}).
		AddRow("sh-1", "app-1", "SUBMITTED", nil, now.Add(-time.Hour)).
		AddRow("sh-2", "app-1", "WOODLAND_OFFICER_REVIEW", "user-1", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM status_histories")).
		WithArgs("app-1").
		WillReturnRows(rows)

	history, err := repo.ListStatusHistory(context.Background(), "app-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Nil(t, history[0].CreatedByID)
	assert.Equal(t, models.StatusWoodlandOfficerReview, history[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryAssignUserReplacesPrevious(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE assignee_histories SET timestamp_unassigned")).
		WithArgs(at, "app-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"assigned_user_id"}).AddRow("wo-old"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignee_histories")).
		WithArgs(sqlmock.AnyArg(), "app-1", "wo-new", sqlmock.AnyArg(), at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	prev, err := repo.AssignUser(context.Background(), "app-1", "wo-new", models.AssignedRoleWoodlandOfficer, at)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "wo-old", *prev)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryAssignUserRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE assignee_histories")).
		WillReturnRows(sqlmock.NewRows([]string{"assigned_user_id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignee_histories")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.AssignUser(context.Background(), "app-1", "wo-new", models.AssignedRoleWoodlandOfficer, time.Now())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
