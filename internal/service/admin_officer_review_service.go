package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/felling-licence-api/internal/dto"
	"github.com/noah-isme/felling-licence-api/internal/models"
	"github.com/noah-isme/felling-licence-api/internal/repository"
	appErrors "github.com/noah-isme/felling-licence-api/pkg/errors"
)

const adminOfficerReviewResource = "admin_officer_review"

type adminOfficerReviewStore interface {
	UpdateCheck(ctx context.Context, params repository.UpdateReviewCheckParams) (*models.AdminOfficerReview, error)
	Complete(ctx context.Context, applicationID, completedByID string, at time.Time) error
}

type applicationAssigner interface {
	AssignUser(ctx context.Context, applicationID, userID string, role models.AssignedRole, at time.Time) (*string, error)
}

// AdminOfficerReviewService orchestrates the admin officer review task list.
type AdminOfficerReviewService struct {
	snapshots   snapshotLoader
	reviews     adminOfficerReviewStore
	assignments applicationAssigner
	subStatuses subStatusInvalidator
	audit       auditLogger
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAdminOfficerReviewService builds the service with sane defaults.
func NewAdminOfficerReviewService(
	snapshots snapshotLoader,
	reviews adminOfficerReviewStore,
	assignments applicationAssigner,
	subStatuses subStatusInvalidator,
	audit auditLogger,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *AdminOfficerReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminOfficerReviewService{
		snapshots:   snapshots,
		reviews:     reviews,
		assignments: assignments,
		subStatuses: subStatuses,
		audit:       audit,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// GetTaskList returns the admin officer review task list for an application.
func (s *AdminOfficerReviewService) GetTaskList(ctx context.Context, applicationID string, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	snapshot, err := s.snapshots.Load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return summarise(snapshot, actor), nil
}

// UpdateCheck records the outcome of one of the admin officer checks. Only the
// columns of the given check are written; preconditions that depend on other
// checks are evaluated against the locked row.
func (s *AdminOfficerReviewService) UpdateCheck(ctx context.Context, applicationID string, check models.ReviewCheck, req dto.CheckUpdateRequest, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := validateCheckUpdate(req); err != nil {
		return nil, err
	}
	snapshot, err := s.loadEditable(ctx, applicationID, actor)
	if err != nil {
		return nil, err
	}

	switch check {
	case models.ReviewCheckAgentAuthority:
		if !snapshot.Application.IsAgentApplication {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "application was not submitted by an agent")
		}
	case models.ReviewCheckMapping, models.ReviewCheckConstraints:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown review step")
	}

	var previous *models.AdminOfficerReview
	input := TaskListInput{IsAgentApplication: snapshot.Application.IsAgentApplication}
	review, err := s.reviews.UpdateCheck(ctx, repository.UpdateReviewCheckParams{
		ApplicationID: applicationID,
		Check:         check,
		Checked:       req.Checked,
		Passed:        req.Passed,
		UpdatedByID:   actor.UserID,
		At:            time.Now().UTC(),
		Guard: func(current *models.AdminOfficerReview) error {
			if current.ReviewComplete {
				return appErrors.Clone(appErrors.ErrConflict, "admin officer review already completed")
			}
			if check == models.ReviewCheckConstraints &&
				ComputeAdminOfficerReviewStatus(current, input).ConstraintsCheckStepStatus == models.StepCannotStartYet {
				return appErrors.Clone(appErrors.ErrStepLocked, "constraints check cannot start until earlier checks pass")
			}
			locked := *current
			previous = &locked
			return nil
		},
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Internal(err, "failed to update admin officer review")
	}
	snapshot.AdminOfficerReview = review
	if s.subStatuses != nil {
		s.subStatuses.Invalidate(ctx, applicationID)
	}

	summary := summarise(snapshot, actor)
	s.metrics.RecordStepUpdate(string(check), models.NewCheckState(req.Checked, req.Passed).StepStatus())
	recordAudit(ctx, s.audit, s.logger, "admin-officer-review-service", actor, models.AuditActionAdminOfficerReviewUpdate,
		adminOfficerReviewResource, applicationID, previous, map[string]interface{}{"step": check, "checked": req.Checked, "passed": req.Passed})
	return summary, nil
}

// UpdateAgentAuthorityCheck records the agent authority form check.
func (s *AdminOfficerReviewService) UpdateAgentAuthorityCheck(ctx context.Context, applicationID string, req dto.CheckUpdateRequest, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error) {
	return s.UpdateCheck(ctx, applicationID, models.ReviewCheckAgentAuthority, req, actor)
}

// UpdateMappingCheck records the mapping check.
func (s *AdminOfficerReviewService) UpdateMappingCheck(ctx context.Context, applicationID string, req dto.CheckUpdateRequest, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error) {
	return s.UpdateCheck(ctx, applicationID, models.ReviewCheckMapping, req, actor)
}

// UpdateConstraintsCheck records the constraints check.
func (s *AdminOfficerReviewService) UpdateConstraintsCheck(ctx context.Context, applicationID string, req dto.CheckUpdateRequest, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error) {
	return s.UpdateCheck(ctx, applicationID, models.ReviewCheckConstraints, req, actor)
}

// AssignWoodlandOfficer assigns (or reassigns) the woodland officer for the application.
func (s *AdminOfficerReviewService) AssignWoodlandOfficer(ctx context.Context, applicationID string, req dto.AssignWoodlandOfficerRequest, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid woodland officer assignment")
	}
	snapshot, err := s.snapshots.Load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if _, err := requireStatus(snapshot, models.StatusAdminOfficerReview, models.StatusWoodlandOfficerReview); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	prevUserID, err := s.assignments.AssignUser(ctx, applicationID, req.WoodlandOfficerID, models.AssignedRoleWoodlandOfficer, now)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to assign woodland officer")
	}
	if s.subStatuses != nil {
		s.subStatuses.Invalidate(ctx, applicationID)
	}
	snapshot.AssigneeHistories = closeAssignments(snapshot.AssigneeHistories, models.AssignedRoleWoodlandOfficer, now)
	snapshot.AssigneeHistories = append(snapshot.AssigneeHistories, models.AssigneeHistory{
		ApplicationID:     applicationID,
		AssignedUserID:    req.WoodlandOfficerID,
		Role:              models.AssignedRoleWoodlandOfficer,
		TimestampAssigned: now,
	})

	var oldValues interface{}
	if prevUserID != nil {
		oldValues = map[string]string{"woodlandOfficerId": *prevUserID}
	}
	recordAudit(ctx, s.audit, s.logger, "admin-officer-review-service", actor, models.AuditActionAssignWoodlandOfficer,
		adminOfficerReviewResource, applicationID, oldValues, map[string]string{"woodlandOfficerId": req.WoodlandOfficerID})
	return summarise(snapshot, actor), nil
}

// CompleteReview finishes the admin officer review and moves the application on to
// woodland officer review.
func (s *AdminOfficerReviewService) CompleteReview(ctx context.Context, applicationID string, actor *models.JWTClaims) (*dto.AdminOfficerReviewSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	snapshot, err := s.loadEditable(ctx, applicationID, actor)
	if err != nil {
		return nil, err
	}
	if !summarise(snapshot, actor).TaskList.AllComplete() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "all admin officer review steps must be completed")
	}

	now := time.Now().UTC()
	if err := s.reviews.Complete(ctx, applicationID, actor.UserID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "admin officer review already completed")
		}
		return nil, appErrors.Internal(err, "failed to complete admin officer review")
	}
	if s.subStatuses != nil {
		s.subStatuses.Invalidate(ctx, applicationID)
	}

	snapshot.AdminOfficerReview.ReviewComplete = true
	snapshot.AdminOfficerReview.CompletedAt = &now
	snapshot.StatusHistories = append(snapshot.StatusHistories, models.StatusHistory{
		ApplicationID: applicationID,
		Status:        models.StatusWoodlandOfficerReview,
		CreatedByID:   &actor.UserID,
		CreatedAt:     now,
	})
	s.logger.Info("admin officer review completed", zap.String("application_id", applicationID), zap.String("user_id", actor.UserID))
	recordAudit(ctx, s.audit, s.logger, "admin-officer-review-service", actor, models.AuditActionAdminOfficerReviewComplete,
		adminOfficerReviewResource, applicationID, nil, map[string]interface{}{"status": models.StatusWoodlandOfficerReview})
	return summarise(snapshot, actor), nil
}

func (s *AdminOfficerReviewService) loadEditable(ctx context.Context, applicationID string, actor *models.JWTClaims) (*models.ApplicationSnapshot, error) {
	snapshot, err := s.snapshots.Load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if _, err := requireStatus(snapshot, models.StatusAdminOfficerReview); err != nil {
		return nil, err
	}
	if snapshot.AdminOfficerReview != nil && snapshot.AdminOfficerReview.ReviewComplete {
		return nil, appErrors.Clone(appErrors.ErrConflict, "admin officer review already completed")
	}
	if actor.Role == models.RoleAdminOfficer {
		assignee, ok := snapshot.ActiveAssignee(models.AssignedRoleAdminOfficer)
		if !ok || assignee.AssignedUserID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "application is assigned to another admin officer")
		}
	}
	return snapshot, nil
}

func summarise(snapshot *models.ApplicationSnapshot, actor *models.JWTClaims) *dto.AdminOfficerReviewSummary {
	current, _ := snapshot.CurrentStatus()
	adminOfficer, hasAdminOfficer := snapshot.ActiveAssignee(models.AssignedRoleAdminOfficer)
	_, hasWoodlandOfficer := snapshot.ActiveAssignee(models.AssignedRoleWoodlandOfficer)

	taskList := ComputeAdminOfficerReviewStatus(snapshot.AdminOfficerReview, TaskListInput{
		IsAgentApplication:        snapshot.Application.IsAgentApplication,
		IsWoodlandOfficerAssigned: hasWoodlandOfficer,
		AssignedToCurrentUser:     hasAdminOfficer && actor != nil && adminOfficer.AssignedUserID == actor.UserID,
		ReviewEditable:            current == models.StatusAdminOfficerReview,
	})
	return &dto.AdminOfficerReviewSummary{
		ApplicationID:        snapshot.Application.ID,
		ApplicationReference: snapshot.Application.Reference,
		CurrentStatus:        current,
		ReviewComplete:       snapshot.AdminOfficerReview != nil && snapshot.AdminOfficerReview.ReviewComplete,
		TaskList:             taskList,
	}
}

func validateCheckUpdate(req dto.CheckUpdateRequest) error {
	if req.Passed == nil {
		return nil
	}
	if req.Checked == nil || !*req.Checked {
		return appErrors.Clone(appErrors.ErrValidation, "passed can only be recorded once the check is marked as checked")
	}
	return nil
}

func closeAssignments(history []models.AssigneeHistory, role models.AssignedRole, at time.Time) []models.AssigneeHistory {
	out := make([]models.AssigneeHistory, len(history))
	copy(out, history)
	for i := range out {
		if out[i].Role == role && out[i].Active() {
			closedAt := at
			out[i].TimestampUnassigned = &closedAt
		}
	}
	return out
}
