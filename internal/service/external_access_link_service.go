package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/felling-licence-api/internal/dto"
	"github.com/noah-isme/felling-licence-api/internal/models"
	appErrors "github.com/noah-isme/felling-licence-api/pkg/errors"
	"github.com/noah-isme/felling-licence-api/pkg/linktoken"
)

const (
	externalAccessLinkResource = "external_access_link"
	accessCodeLength           = 12
)

type externalAccessLinkStore interface {
	Create(ctx context.Context, link *models.ExternalAccessLink) error
	GetByID(ctx context.Context, id string) (*models.ExternalAccessLink, error)
}

type linkTokenSigner interface {
	Generate(linkID string, expiresAt time.Time) (string, error)
	Parse(token string) (string, time.Time, error)
}

// ExternalAccessLinkService issues and verifies consultee access links.
type ExternalAccessLinkService struct {
	snapshots   snapshotLoader
	links       externalAccessLinkStore
	signer      linkTokenSigner
	subStatuses subStatusInvalidator
	audit       auditLogger
	ttl         time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewExternalAccessLinkService constructs the service. ttl bounds how long a link stays valid.
func NewExternalAccessLinkService(snapshots snapshotLoader, links externalAccessLinkStore, signer linkTokenSigner, subStatuses subStatusInvalidator, audit auditLogger, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *ExternalAccessLinkService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExternalAccessLinkService{
		snapshots:   snapshots,
		links:       links,
		signer:      signer,
		subStatuses: subStatuses,
		audit:       audit,
		ttl:         ttl,
		validator:   validate,
		logger:      logger,
	}
}

// CreateLink invites a consultee. The plain access code is only returned here.
func (s *ExternalAccessLinkService) CreateLink(ctx context.Context, applicationID string, req dto.CreateExternalAccessLinkRequest, actor *models.JWTClaims) (*dto.ExternalAccessLinkCreated, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.Name = strings.TrimSpace(req.Name)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	req.Purpose = strings.TrimSpace(req.Purpose)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid consultee details")
	}
	snapshot, err := s.snapshots.Load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if _, err := requireStatus(snapshot, models.StatusWoodlandOfficerReview); err != nil {
		return nil, err
	}

	code := newAccessCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to secure access code")
	}
	now := time.Now().UTC()
	link := &models.ExternalAccessLink{
		ID:             uuid.NewString(),
		ApplicationID:  applicationID,
		Name:           req.Name,
		ContactEmail:   req.ContactEmail,
		Purpose:        req.Purpose,
		AccessCodeHash: string(hash),
		CreatedByID:    actor.UserID,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
	}
	token, err := s.signer.Generate(link.ID, link.ExpiresAt)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign access link")
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, appErrors.Internal(err, "failed to create access link")
	}

	if s.subStatuses != nil {
		s.subStatuses.Invalidate(ctx, applicationID)
	}
	recordAudit(ctx, s.audit, s.logger, "external-access-link-service", actor, models.AuditActionExternalAccessLinkCreate,
		externalAccessLinkResource, link.ID, nil, map[string]string{"applicationId": applicationID, "contactEmail": link.ContactEmail})
	return &dto.ExternalAccessLinkCreated{Link: *link, AccessCode: code, Token: token, ExpiresAt: link.ExpiresAt}, nil
}

// ListLinks returns every consultee link issued for the application.
func (s *ExternalAccessLinkService) ListLinks(ctx context.Context, applicationID string) ([]models.ExternalAccessLink, error) {
	snapshot, err := s.snapshots.Load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if snapshot.ExternalAccessLinks == nil {
		return []models.ExternalAccessLink{}, nil
	}
	return snapshot.ExternalAccessLinks, nil
}

// VerifyAccess checks a consultee's token and access code.
func (s *ExternalAccessLinkService) VerifyAccess(ctx context.Context, req dto.VerifyExternalAccessRequest) (*models.ExternalAccessLink, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "token and access code are required")
	}
	linkID, _, err := s.signer.Parse(req.Token)
	if err != nil {
		if errors.Is(err, linktoken.ErrExpired) {
			return nil, appErrors.ErrLinkExpired
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid access link")
	}

	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid access link")
		}
		return nil, appErrors.Internal(err, "failed to load access link")
	}
	if time.Now().After(link.ExpiresAt) {
		return nil, appErrors.ErrLinkExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(link.AccessCodeHash), []byte(strings.TrimSpace(req.AccessCode))); err != nil {
		s.logger.Warn("external access code mismatch", zap.String("link_id", link.ID))
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid access code")
	}
	return link, nil
}

func newAccessCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return raw[:accessCodeLength]
}
