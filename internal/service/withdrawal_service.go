package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/felling-licence-api/internal/models"
	appErrors "github.com/noah-isme/felling-licence-api/pkg/errors"
)

const applicationResource = "felling_licence_application"

type statusHistoryWriter interface {
	AddStatusHistory(ctx context.Context, entry *models.StatusHistory) error
}

type registerRemover interface {
	MarkRemoved(ctx context.Context, applicationID string, removedAt time.Time) error
}

var nonWithdrawableStatuses = map[models.FellingLicenceStatus]struct{}{
	models.StatusDraft:                    {},
	models.StatusApproved:                 {},
	models.StatusRefused:                  {},
	models.StatusWithdrawn:                {},
	models.StatusReferredToLocalAuthority: {},
}

// WithdrawalService withdraws submitted applications.
type WithdrawalService struct {
	snapshots   snapshotLoader
	statuses    statusHistoryWriter
	registers   registerRemover
	subStatuses subStatusInvalidator
	audit       auditLogger
	logger      *zap.Logger
}

// NewWithdrawalService constructs the service.
func NewWithdrawalService(snapshots snapshotLoader, statuses statusHistoryWriter, registers registerRemover, subStatuses subStatusInvalidator, audit auditLogger, logger *zap.Logger) *WithdrawalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WithdrawalService{
		snapshots:   snapshots,
		statuses:    statuses,
		registers:   registers,
		subStatuses: subStatuses,
		audit:       audit,
		logger:      logger,
	}
}

// Withdraw moves the application to Withdrawn and takes it off the consultation register.
func (s *WithdrawalService) Withdraw(ctx context.Context, applicationID string, actor *models.JWTClaims) (*models.StatusHistory, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	snapshot, err := s.snapshots.Load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleApplicant && snapshot.Application.CreatedByID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the applicant who created the application can withdraw it")
	}
	current, ok := snapshot.CurrentStatus()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrWrongStage, "application has no status history")
	}
	if _, blocked := nonWithdrawableStatuses[current]; blocked {
		return nil, appErrors.Clone(appErrors.ErrWrongStage, "application cannot be withdrawn from status "+string(current))
	}

	now := time.Now().UTC()
	entry := &models.StatusHistory{
		ApplicationID: applicationID,
		Status:        models.StatusWithdrawn,
		CreatedByID:   &actor.UserID,
		CreatedAt:     now,
	}
	if err := s.statuses.AddStatusHistory(ctx, entry); err != nil {
		return nil, appErrors.Internal(err, "failed to withdraw application")
	}

	if snapshot.PublicRegister.OnConsultationRegister() {
		if err := s.registers.MarkRemoved(ctx, applicationID, now); err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to remove withdrawn application from register", zap.String("application_id", applicationID), zap.Error(err))
		}
	}
	if s.subStatuses != nil {
		s.subStatuses.Invalidate(ctx, applicationID)
	}
	s.logger.Info("application withdrawn", zap.String("application_id", applicationID), zap.String("previous_status", string(current)))
	recordAudit(ctx, s.audit, s.logger, "withdrawal-service", actor, models.AuditActionApplicationWithdraw,
		applicationResource, applicationID, map[string]string{"status": string(current)}, map[string]string{"status": string(models.StatusWithdrawn)})
	return entry, nil
}
