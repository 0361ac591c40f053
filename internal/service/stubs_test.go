package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/felling-licence-api/internal/models"
)

type snapshotLoaderStub struct {
	snapshot *models.ApplicationSnapshot
	err      error
	calls    int
	onLoad   func()
}

func (s *snapshotLoaderStub) Load(ctx context.Context, applicationID string) (*models.ApplicationSnapshot, error) {
	s.calls++
	if s.onLoad != nil {
		s.onLoad()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

type auditLogStub struct {
	mu      sync.Mutex
	entries []*models.AuditLog
	err     error
}

func (s *auditLogStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, log)
	return s.err
}

func (s *auditLogStub) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.Action)
	}
	return out
}

type invalidatorStub struct {
	ids []string
}

func (s *invalidatorStub) Invalidate(ctx context.Context, applicationID string) {
	s.ids = append(s.ids, applicationID)
}

func staffClaims(userID string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: role}
}

func activeAssignment(role models.AssignedRole, userID string) models.AssigneeHistory {
	return models.AssigneeHistory{
		ID:                "as-" + userID,
		ApplicationID:     "app-1",
		AssignedUserID:    userID,
		Role:              role,
		TimestampAssigned: time.Now().UTC().Add(-24 * time.Hour),
	}
}
