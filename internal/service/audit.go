package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/felling-licence-api/internal/models"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type auditMetaKey struct{}

// AuditMeta describes the client that triggered a write.
type AuditMeta struct {
	IPAddress string
	UserAgent string
}

// WithAuditMeta attaches client details to ctx for audit records.
func WithAuditMeta(ctx context.Context, meta AuditMeta) context.Context {
	return context.WithValue(ctx, auditMetaKey{}, meta)
}

// AuditMetaFromContext returns client details stored by WithAuditMeta.
func AuditMetaFromContext(ctx context.Context) (AuditMeta, bool) {
	meta, ok := ctx.Value(auditMetaKey{}).(AuditMeta)
	return meta, ok
}

// recordAudit writes an audit entry without failing the calling operation.
func recordAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, source string, actor *models.JWTClaims, action, resource, resourceID string, oldValues, newValues interface{}) {
	if audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  source,
	}
	if meta, ok := AuditMetaFromContext(ctx); ok {
		entry.IPAddress = meta.IPAddress
		entry.UserAgent = meta.UserAgent
	}
	if actor != nil {
		userID := actor.UserID
		entry.UserID = &userID
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := audit.CreateAuditLog(ctx, entry); err != nil && logger != nil {
		logger.Warn("failed to record audit", zap.String("action", action), zap.String("resource_id", resourceID), zap.Error(err))
	}
}
