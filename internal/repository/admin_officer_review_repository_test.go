package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/felling-licence-api/internal/models"
)

var adminOfficerReviewRowColumns = []string{
	"id", "felling_licence_application_id", "agent_authority_form_checked", "agent_authority_check_passed",
	"mapping_checked", "mapping_check_passed", "constraints_checked", "constraints_check_passed",
	"admin_officer_review_complete", "last_updated_by_id", "last_updated_date", "completed_at",
}

func TestAdminOfficerReviewRepositoryGetNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminOfficerReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM admin_officer_reviews")).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows(adminOfficerReviewRowColumns))

	review, err := repo.GetByApplicationID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Nil(t, review)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminOfficerReviewRepositoryGetNullableChecks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminOfficerReviewRepository(db)

	rows := sqlmock.NewRows(adminOfficerReviewRowColumns).
		AddRow("aor-1", "app-1", true, nil, true, true, nil, nil, false, "ao-1", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM admin_officer_reviews")).
		WithArgs("app-1").
		WillReturnRows(rows)

	review, err := repo.GetByApplicationID(context.Background(), "app-1")
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, models.CheckInProgress, review.AgentAuthority())
	assert.Equal(t, models.CheckPassed, review.Mapping())
	assert.Equal(t, models.CheckUnset, review.Constraints())
}

func newRecordingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, *[]string) {
	t.Helper()
	var statements []string
	matcher := sqlmock.QueryMatcherFunc(func(expectedSQL, actualSQL string) error {
		statements = append(statements, actualSQL)
		return sqlmock.QueryMatcherRegexp.Match(expectedSQL, actualSQL)
	})
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	t.Cleanup(func() { _ = sqlxDB.Close() })
	return sqlxDB, mock, &statements
}

func TestAdminOfficerReviewRepositoryUpdateCheckWritesOnlyItsColumns(t *testing.T) {
	db, mock, statements := newRecordingRepoMock(t)
	repo := NewAdminOfficerReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO admin_officer_reviews")).
		WithArgs(sqlmock.AnyArg(), "app-1", "ao-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows(adminOfficerReviewRowColumns).
			AddRow("aor-1", "app-1", true, true, nil, nil, nil, nil, false, "ao-1", time.Now(), nil))
	mock.ExpectExec(`UPDATE admin_officer_reviews SET mapping_checked = \$1, mapping_check_passed = \$2`).
		WithArgs(true, true, "ao-2", sqlmock.AnyArg(), "app-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	checked, passed := true, true
	review, err := repo.UpdateCheck(context.Background(), UpdateReviewCheckParams{
		ApplicationID: "app-1",
		Check:         models.ReviewCheckMapping,
		Checked:       &checked,
		Passed:        &passed,
		UpdatedByID:   "ao-2",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CheckPassed, review.AgentAuthority(), "agent authority written by another officer must survive")
	assert.Equal(t, models.CheckPassed, review.Mapping())
	assert.Equal(t, "ao-2", review.LastUpdatedByID)
	require.NoError(t, mock.ExpectationsWereMet())

	var update string
	for _, statement := range *statements {
		if strings.HasPrefix(strings.TrimSpace(statement), "UPDATE") {
			update = statement
		}
	}
	require.NotEmpty(t, update)
	assert.NotContains(t, update, "agent_authority")
	assert.NotContains(t, update, "constraints_")
}

func TestAdminOfficerReviewRepositoryUpdateCheckGuardRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminOfficerReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO admin_officer_reviews")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows(adminOfficerReviewRowColumns).
			AddRow("aor-1", "app-1", nil, nil, nil, nil, nil, nil, false, "ao-1", time.Now(), nil))
	mock.ExpectRollback()

	locked := errors.New("constraints locked")
	checked := true
	_, err := repo.UpdateCheck(context.Background(), UpdateReviewCheckParams{
		ApplicationID: "app-1",
		Check:         models.ReviewCheckConstraints,
		Checked:       &checked,
		UpdatedByID:   "ao-1",
		Guard: func(current *models.AdminOfficerReview) error {
			assert.Equal(t, "aor-1", current.ID)
			return locked
		},
	})
	assert.ErrorIs(t, err, locked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminOfficerReviewRepositoryUpdateCheckUnknown(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminOfficerReviewRepository(db)

	_, err := repo.UpdateCheck(context.Background(), UpdateReviewCheckParams{ApplicationID: "app-1", Check: models.ReviewCheck("felling_plan")})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminOfficerReviewRepositoryComplete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminOfficerReviewRepository(db)

	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE admin_officer_reviews")).
		WithArgs(at, "ao-1", "app-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO status_histories")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Complete(context.Background(), "app-1", "ao-1", at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminOfficerReviewRepositoryCompleteAlreadyComplete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminOfficerReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE admin_officer_reviews")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Complete(context.Background(), "app-1", "ao-1", time.Now())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
