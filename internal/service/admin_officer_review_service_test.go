package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/felling-licence-api/internal/dto"
	"github.com/noah-isme/felling-licence-api/internal/models"
	"github.com/noah-isme/felling-licence-api/internal/repository"
	appErrors "github.com/noah-isme/felling-licence-api/pkg/errors"
)

// adminReviewStoreStub keeps one stored row and applies check writes to it the way
// the repository does: only the target check's fields change.
type adminReviewStoreStub struct {
	row         *models.AdminOfficerReview
	upserted    []models.AdminOfficerReview
	upsertErr   error
	completed   []string
	completeErr error
}

func (s *adminReviewStoreStub) UpdateCheck(ctx context.Context, params repository.UpdateReviewCheckParams) (*models.AdminOfficerReview, error) {
	current := models.AdminOfficerReview{ID: "aor-new", ApplicationID: params.ApplicationID}
	if s.row != nil {
		current = *s.row
	}
	if params.Guard != nil {
		if err := params.Guard(&current); err != nil {
			return nil, err
		}
	}
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	current.SetCheck(params.Check, params.Checked, params.Passed)
	current.LastUpdatedByID = params.UpdatedByID
	current.LastUpdatedDate = params.At
	stored := current
	s.row = &stored
	s.upserted = append(s.upserted, current)
	out := current
	return &out, nil
}

func (s *adminReviewStoreStub) Complete(ctx context.Context, applicationID, completedByID string, at time.Time) error {
	s.completed = append(s.completed, applicationID)
	return s.completeErr
}

type assignerStub struct {
	previous *string
	err      error
	calls    []string
}

func (s *assignerStub) AssignUser(ctx context.Context, applicationID, userID string, role models.AssignedRole, at time.Time) (*string, error) {
	s.calls = append(s.calls, userID)
	return s.previous, s.err
}

type adminReviewFixture struct {
	svc         *AdminOfficerReviewService
	loader      *snapshotLoaderStub
	store       *adminReviewStoreStub
	assigner    *assignerStub
	invalidator *invalidatorStub
	audit       *auditLogStub
}

func newAdminReviewFixture(snapshot *models.ApplicationSnapshot) adminReviewFixture {
	store := &adminReviewStoreStub{}
	if snapshot != nil && snapshot.AdminOfficerReview != nil {
		stored := *snapshot.AdminOfficerReview
		store.row = &stored
	}
	f := adminReviewFixture{
		loader:      &snapshotLoaderStub{snapshot: snapshot},
		store:       store,
		assigner:    &assignerStub{},
		invalidator: &invalidatorStub{},
		audit:       &auditLogStub{},
	}
	f.svc = NewAdminOfficerReviewService(f.loader, f.store, f.assigner, f.invalidator, f.audit, nil, nil, nil)
	return f
}

func adminReviewSnapshot(agent bool) *models.ApplicationSnapshot {
	snapshot := snapshotWithStatus(models.StatusAdminOfficerReview)
	snapshot.Application.Reference = "FLA-001"
	snapshot.Application.IsAgentApplication = agent
	snapshot.AssigneeHistories = []models.AssigneeHistory{activeAssignment(models.AssignedRoleAdminOfficer, "ao-1")}
	return snapshot
}

func passedReview() *models.AdminOfficerReview {
	return &models.AdminOfficerReview{
		ID:                        "aor-1",
		ApplicationID:             "app-1",
		AgentAuthorityFormChecked: boolPtr(true),
		AgentAuthorityCheckPassed: boolPtr(true),
		MappingChecked:            boolPtr(true),
		MappingCheckPassed:        boolPtr(true),
		ConstraintsChecked:        boolPtr(true),
		ConstraintsCheckPassed:    boolPtr(true),
	}
}

func assertErrorCode(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, want)
}

func TestAdminOfficerReviewGetTaskList(t *testing.T) {
	f := newAdminReviewFixture(adminReviewSnapshot(true))

	summary, err := f.svc.GetTaskList(context.Background(), "app-1", staffClaims("ao-1", models.RoleAdminOfficer))
	require.NoError(t, err)
	assert.Equal(t, "FLA-001", summary.ApplicationReference)
	assert.Equal(t, models.StatusAdminOfficerReview, summary.CurrentStatus)
	assert.True(t, summary.TaskList.AgentApplication)
	assert.True(t, summary.TaskList.AssignedToCurrentUser)
	assert.True(t, summary.TaskList.ReviewEditable)
	assert.Equal(t, models.StepNotStarted, summary.TaskList.AgentAuthorityFormStepStatus)
	assert.Equal(t, models.StepCannotStartYet, summary.TaskList.ConstraintsCheckStepStatus)
	assert.Equal(t, models.StepNotStarted, summary.TaskList.AssignWoodlandOfficerStatus)

	other, err := f.svc.GetTaskList(context.Background(), "app-1", staffClaims("fm-1", models.RoleFieldManager))
	require.NoError(t, err)
	assert.False(t, other.TaskList.AssignedToCurrentUser)
}

func TestAdminOfficerReviewGetTaskListNotFound(t *testing.T) {
	f := newAdminReviewFixture(nil)
	f.loader.err = appErrors.Clone(appErrors.ErrNotFound, "application not found")

	_, err := f.svc.GetTaskList(context.Background(), "missing", staffClaims("ao-1", models.RoleAdminOfficer))
	assertErrorCode(t, err, appErrors.ErrNotFound)
}

func TestAdminOfficerReviewUpdateMappingCreatesReview(t *testing.T) {
	f := newAdminReviewFixture(adminReviewSnapshot(false))

	summary, err := f.svc.UpdateMappingCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(true), Passed: boolPtr(true)}, staffClaims("ao-1", models.RoleAdminOfficer))
	require.NoError(t, err)
	require.Len(t, f.store.upserted, 1)
	assert.Equal(t, "app-1", f.store.upserted[0].ApplicationID)
	assert.Equal(t, "ao-1", f.store.upserted[0].LastUpdatedByID)
	assert.Equal(t, models.StepCompleted, summary.TaskList.MappingCheckStepStatus)
	assert.Equal(t, models.StepCompleted, summary.TaskList.AgentAuthorityFormStepStatus)
	assert.Equal(t, models.StepNotStarted, summary.TaskList.ConstraintsCheckStepStatus)
	assert.Equal(t, []string{models.AuditActionAdminOfficerReviewUpdate}, f.audit.actions())
	assert.Equal(t, []string{"app-1"}, f.invalidator.ids)
}

func TestAdminOfficerReviewUpdateValidation(t *testing.T) {
	f := newAdminReviewFixture(adminReviewSnapshot(true))
	actor := staffClaims("ao-1", models.RoleAdminOfficer)

	_, err := f.svc.UpdateMappingCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Passed: boolPtr(true)}, actor)
	assertErrorCode(t, err, appErrors.ErrValidation)

	_, err = f.svc.UpdateMappingCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(false), Passed: boolPtr(true)}, actor)
	assertErrorCode(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.store.upserted)
}

func TestAdminOfficerReviewAgentAuthorityRequiresAgentApplication(t *testing.T) {
	f := newAdminReviewFixture(adminReviewSnapshot(false))

	_, err := f.svc.UpdateAgentAuthorityCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(true)}, staffClaims("ao-1", models.RoleAdminOfficer))
	assertErrorCode(t, err, appErrors.ErrPreconditionFailed)
}

func TestAdminOfficerReviewConstraintsLocked(t *testing.T) {
	snapshot := adminReviewSnapshot(true)
	snapshot.AdminOfficerReview = &models.AdminOfficerReview{MappingChecked: boolPtr(true), MappingCheckPassed: boolPtr(true)}
	f := newAdminReviewFixture(snapshot)

	_, err := f.svc.UpdateConstraintsCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(true)}, staffClaims("ao-1", models.RoleAdminOfficer))
	assertErrorCode(t, err, appErrors.ErrStepLocked)
	assert.Empty(t, f.store.upserted)
}

func TestAdminOfficerReviewUpdateKeepsOtherSteps(t *testing.T) {
	snapshot := adminReviewSnapshot(true)
	review := passedReview()
	review.ConstraintsChecked, review.ConstraintsCheckPassed = nil, nil
	snapshot.AdminOfficerReview = review
	f := newAdminReviewFixture(snapshot)

	summary, err := f.svc.UpdateConstraintsCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(true), Passed: boolPtr(false)}, staffClaims("ao-1", models.RoleAdminOfficer))
	require.NoError(t, err)
	require.Len(t, f.store.upserted, 1)
	assert.Equal(t, "aor-1", f.store.upserted[0].ID)
	assert.True(t, *f.store.upserted[0].MappingCheckPassed)
	assert.Equal(t, models.StepFailed, summary.TaskList.ConstraintsCheckStepStatus)
	assert.Nil(t, review.ConstraintsChecked, "snapshot review must not be mutated before persistence")
}

func TestAdminOfficerReviewUpdateWrongStage(t *testing.T) {
	f := newAdminReviewFixture(snapshotWithStatus(models.StatusWoodlandOfficerReview))

	_, err := f.svc.UpdateMappingCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(false)}, staffClaims("fm-1", models.RoleFieldManager))
	assertErrorCode(t, err, appErrors.ErrWrongStage)
}

func TestAdminOfficerReviewUpdateRequiresAssignedOfficer(t *testing.T) {
	f := newAdminReviewFixture(adminReviewSnapshot(false))

	_, err := f.svc.UpdateMappingCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(false)}, staffClaims("ao-2", models.RoleAdminOfficer))
	assertErrorCode(t, err, appErrors.ErrForbidden)

	_, err = f.svc.UpdateMappingCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(false)}, staffClaims("fm-1", models.RoleFieldManager))
	require.NoError(t, err)
}

func TestAdminOfficerReviewUpdateCompletedReview(t *testing.T) {
	snapshot := adminReviewSnapshot(false)
	snapshot.AdminOfficerReview = passedReview()
	snapshot.AdminOfficerReview.ReviewComplete = true
	f := newAdminReviewFixture(snapshot)

	_, err := f.svc.UpdateMappingCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(false)}, staffClaims("ao-1", models.RoleAdminOfficer))
	assertErrorCode(t, err, appErrors.ErrConflict)
}

func TestAdminOfficerReviewAuditFailureIsIgnored(t *testing.T) {
	f := newAdminReviewFixture(adminReviewSnapshot(false))
	f.audit.err = errors.New("audit down")

	_, err := f.svc.UpdateMappingCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(false)}, staffClaims("ao-1", models.RoleAdminOfficer))
	require.NoError(t, err)
}

func TestAdminOfficerReviewAssignWoodlandOfficer(t *testing.T) {
	snapshot := adminReviewSnapshot(false)
	snapshot.AssigneeHistories = append(snapshot.AssigneeHistories, activeAssignment(models.AssignedRoleWoodlandOfficer, "wo-old"))
	f := newAdminReviewFixture(snapshot)
	previous := "wo-old"
	f.assigner.previous = &previous
	loaded := snapshot.AssigneeHistories

	summary, err := f.svc.AssignWoodlandOfficer(context.Background(), "app-1", dto.AssignWoodlandOfficerRequest{WoodlandOfficerID: "wo-1"}, staffClaims("ao-1", models.RoleAdminOfficer))
	require.NoError(t, err)
	assert.Equal(t, []string{"wo-1"}, f.assigner.calls)
	assert.Equal(t, models.StepCompleted, summary.TaskList.AssignWoodlandOfficerStatus)
	require.Len(t, f.audit.entries, 1)
	assert.JSONEq(t, `{"woodlandOfficerId":"wo-old"}`, string(f.audit.entries[0].OldValues))
	assert.JSONEq(t, `{"woodlandOfficerId":"wo-1"}`, string(f.audit.entries[0].NewValues))
	assert.True(t, loaded[1].Active(), "loaded history must not be mutated")
	assert.Equal(t, []string{"app-1"}, f.invalidator.ids)
}

func TestAdminOfficerReviewAssignWoodlandOfficerValidation(t *testing.T) {
	f := newAdminReviewFixture(adminReviewSnapshot(false))

	_, err := f.svc.AssignWoodlandOfficer(context.Background(), "app-1", dto.AssignWoodlandOfficerRequest{}, staffClaims("ao-1", models.RoleAdminOfficer))
	assertErrorCode(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.assigner.calls)
}

func TestAdminOfficerReviewCompleteRequiresAllSteps(t *testing.T) {
	snapshot := adminReviewSnapshot(false)
	snapshot.AdminOfficerReview = passedReview()
	f := newAdminReviewFixture(snapshot)

	_, err := f.svc.CompleteReview(context.Background(), "app-1", staffClaims("ao-1", models.RoleAdminOfficer))
	assertErrorCode(t, err, appErrors.ErrPreconditionFailed)
	assert.Empty(t, f.store.completed)
}

func TestAdminOfficerReviewComplete(t *testing.T) {
	snapshot := adminReviewSnapshot(true)
	snapshot.AdminOfficerReview = passedReview()
	snapshot.AssigneeHistories = append(snapshot.AssigneeHistories, activeAssignment(models.AssignedRoleWoodlandOfficer, "wo-1"))
	f := newAdminReviewFixture(snapshot)

	summary, err := f.svc.CompleteReview(context.Background(), "app-1", staffClaims("ao-1", models.RoleAdminOfficer))
	require.NoError(t, err)
	assert.True(t, summary.ReviewComplete)
	assert.Equal(t, models.StatusWoodlandOfficerReview, summary.CurrentStatus)
	assert.False(t, summary.TaskList.ReviewEditable)
	assert.Equal(t, []string{"app-1"}, f.store.completed)
	assert.Equal(t, []string{"app-1"}, f.invalidator.ids)
	assert.Equal(t, []string{models.AuditActionAdminOfficerReviewComplete}, f.audit.actions())
}

func TestAdminOfficerReviewCompleteRace(t *testing.T) {
	snapshot := adminReviewSnapshot(false)
	snapshot.AdminOfficerReview = passedReview()
	snapshot.AssigneeHistories = append(snapshot.AssigneeHistories, activeAssignment(models.AssignedRoleWoodlandOfficer, "wo-1"))
	f := newAdminReviewFixture(snapshot)
	f.store.completeErr = sql.ErrNoRows

	_, err := f.svc.CompleteReview(context.Background(), "app-1", staffClaims("ao-1", models.RoleAdminOfficer))
	assertErrorCode(t, err, appErrors.ErrConflict)
	assert.Empty(t, f.invalidator.ids)
}

func TestAdminOfficerReviewConcurrentChecksKeepEachOther(t *testing.T) {
	snapshot := adminReviewSnapshot(true)
	f := newAdminReviewFixture(snapshot)
	actor := staffClaims("fm-1", models.RoleFieldManager)
	passed := dto.CheckUpdateRequest{Checked: boolPtr(true), Passed: boolPtr(true)}

	// Both updates start from the same loaded snapshot, which has no review yet.
	_, err := f.svc.UpdateAgentAuthorityCheck(context.Background(), "app-1", passed, actor)
	require.NoError(t, err)
	summary, err := f.svc.UpdateMappingCheck(context.Background(), "app-1", passed, actor)
	require.NoError(t, err)

	require.NotNil(t, f.store.row)
	assert.Equal(t, models.CheckPassed, f.store.row.AgentAuthority())
	assert.Equal(t, models.CheckPassed, f.store.row.Mapping())
	assert.Equal(t, models.StepCompleted, summary.TaskList.AgentAuthorityFormStepStatus)
	assert.Equal(t, models.StepNotStarted, summary.TaskList.ConstraintsCheckStepStatus)
}

func TestAdminOfficerReviewConstraintsGateUsesStoredRow(t *testing.T) {
	snapshot := adminReviewSnapshot(false)
	f := newAdminReviewFixture(snapshot)
	f.store.row = &models.AdminOfficerReview{ID: "aor-1", ApplicationID: "app-1", MappingChecked: boolPtr(true), MappingCheckPassed: boolPtr(true)}

	// The loaded snapshot predates the mapping pass, the stored row does not.
	summary, err := f.svc.UpdateConstraintsCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(true), Passed: boolPtr(true)}, staffClaims("ao-1", models.RoleAdminOfficer))
	require.NoError(t, err)
	assert.Equal(t, models.StepCompleted, summary.TaskList.ConstraintsCheckStepStatus)

	f.store.row.MappingCheckPassed = boolPtr(false)
	_, err = f.svc.UpdateConstraintsCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(false)}, staffClaims("ao-1", models.RoleAdminOfficer))
	assertErrorCode(t, err, appErrors.ErrStepLocked)
}

func TestAdminOfficerReviewUpdateStoreFailure(t *testing.T) {
	f := newAdminReviewFixture(adminReviewSnapshot(false))
	f.store.upsertErr = errors.New("connection reset")

	_, err := f.svc.UpdateMappingCheck(context.Background(), "app-1", dto.CheckUpdateRequest{Checked: boolPtr(false)}, staffClaims("ao-1", models.RoleAdminOfficer))
	assertErrorCode(t, err, appErrors.ErrInternal)
	assert.Empty(t, f.invalidator.ids)
}
