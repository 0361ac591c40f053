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
	appErrors "github.com/noah-isme/felling-licence-api/pkg/errors"
)

const (
	publicRegisterResource = "public_register"
	expirySweepBatchSize   = 100
)

type publicRegisterStore interface {
	Publish(ctx context.Context, applicationID string, publishedAt, expiresAt time.Time) error
	MarkRemoved(ctx context.Context, applicationID string, removedAt time.Time) error
	ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.PublicRegister, error)
}

// PublicRegisterService manages consultation public register entries.
type PublicRegisterService struct {
	snapshots     snapshotLoader
	registers     publicRegisterStore
	subStatuses   subStatusInvalidator
	audit         auditLogger
	defaultPeriod time.Duration
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewPublicRegisterService constructs the service. defaultPeriod applies when a request omits one.
func NewPublicRegisterService(snapshots snapshotLoader, registers publicRegisterStore, subStatuses subStatusInvalidator, audit auditLogger, defaultPeriod time.Duration, validate *validator.Validate, logger *zap.Logger) *PublicRegisterService {
	if defaultPeriod <= 0 {
		defaultPeriod = 30 * 24 * time.Hour
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicRegisterService{
		snapshots:     snapshots,
		registers:     registers,
		subStatuses:   subStatuses,
		audit:         audit,
		defaultPeriod: defaultPeriod,
		validator:     validate,
		logger:        logger,
	}
}

// PublishToConsultationRegister places the application on the consultation register.
func (s *PublicRegisterService) PublishToConsultationRegister(ctx context.Context, applicationID string, req dto.PublishToRegisterRequest, actor *models.JWTClaims) (*models.PublicRegister, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid publication period")
	}
	snapshot, err := s.snapshots.Load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if _, err := requireStatus(snapshot, models.StatusWoodlandOfficerReview); err != nil {
		return nil, err
	}
	if snapshot.PublicRegister.OnConsultationRegister() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "application is already on the consultation register")
	}

	period := s.defaultPeriod
	if req.PeriodDays > 0 {
		period = time.Duration(req.PeriodDays) * 24 * time.Hour
	}
	now := time.Now().UTC()
	expires := now.Add(period)
	if err := s.registers.Publish(ctx, applicationID, now, expires); err != nil {
		return nil, appErrors.Internal(err, "failed to publish to consultation register")
	}

	register := &models.PublicRegister{ApplicationID: applicationID}
	if snapshot.PublicRegister != nil {
		register.ID = snapshot.PublicRegister.ID
	}
	register.ConsultationPublicationTimestamp = &now
	register.ConsultationExpiryTimestamp = &expires

	if s.subStatuses != nil {
		s.subStatuses.Invalidate(ctx, applicationID)
	}
	recordAudit(ctx, s.audit, s.logger, "public-register-service", actor, models.AuditActionPublicRegisterPublish,
		publicRegisterResource, applicationID, nil, map[string]time.Time{"publishedAt": now, "expiresAt": expires})
	return register, nil
}

// RemoveFromConsultationRegister takes the application off the consultation register.
func (s *PublicRegisterService) RemoveFromConsultationRegister(ctx context.Context, applicationID string, actor *models.JWTClaims) (*models.PublicRegister, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	snapshot, err := s.snapshots.Load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !snapshot.PublicRegister.OnConsultationRegister() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "application is not on the consultation register")
	}

	now := time.Now().UTC()
	if err := s.registers.MarkRemoved(ctx, applicationID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "application was already removed from the consultation register")
		}
		return nil, appErrors.Internal(err, "failed to remove from consultation register")
	}
	register := *snapshot.PublicRegister
	register.ConsultationRemovedTimestamp = &now

	if s.subStatuses != nil {
		s.subStatuses.Invalidate(ctx, applicationID)
	}
	recordAudit(ctx, s.audit, s.logger, "public-register-service", actor, models.AuditActionPublicRegisterRemove,
		publicRegisterResource, applicationID, nil, map[string]time.Time{"removedAt": now})
	return &register, nil
}

// RemoveExpired takes every register whose consultation period ended at or before now off the
// consultation register. It returns how many entries were removed.
func (s *PublicRegisterService) RemoveExpired(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	for {
		expired, err := s.registers.ListExpired(ctx, now, expirySweepBatchSize)
		if err != nil {
			return removed, appErrors.Internal(err, "failed to list expired consultation registers")
		}
		progressed := false
		for _, register := range expired {
			if err := s.registers.MarkRemoved(ctx, register.ApplicationID, now); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return removed, appErrors.Internal(err, "failed to remove expired consultation register")
			}
			progressed = true
			removed++
			if s.subStatuses != nil {
				s.subStatuses.Invalidate(ctx, register.ApplicationID)
			}
			recordAudit(ctx, s.audit, s.logger, "public-register-expiry", nil, models.AuditActionPublicRegisterExpire,
				publicRegisterResource, register.ApplicationID, nil, map[string]interface{}{"expiredAt": register.ConsultationExpiryTimestamp, "removedAt": now})
		}
		if len(expired) < expirySweepBatchSize || !progressed {
			return removed, nil
		}
	}
}

// StartExpirySweep removes expired consultation register entries every interval until ctx is done.
func (s *PublicRegisterService) StartExpirySweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.RemoveExpired(ctx, time.Now().UTC())
				if err != nil {
					s.logger.Warn("consultation register expiry sweep failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					s.logger.Info("expired consultation register entries removed", zap.Int("count", removed))
				}
			}
		}
	}()
}
