package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/felling-licence-api/internal/dto"
)

const subStatusCachePrefix = "substatus:"

// subStatusInvalidator drops cached sub-statuses after a write.
type subStatusInvalidator interface {
	Invalidate(ctx context.Context, applicationID string)
}

// SubStatusService reports the sub-statuses applying to an application.
type SubStatusService struct {
	snapshots snapshotLoader
	engine    *SubStatusEngine
	cache     *CacheService
	cacheTTL  time.Duration
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewSubStatusService builds the service. A nil engine uses the default specifications.
func NewSubStatusService(snapshots snapshotLoader, engine *SubStatusEngine, cache *CacheService, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *SubStatusService {
	if engine == nil {
		engine = NewSubStatusEngine(DefaultSubStatusSpecifications()...)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubStatusService{
		snapshots: snapshots,
		engine:    engine,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		logger:    logger,
	}
}

// GetCurrentSubStatuses loads the application and evaluates its sub-statuses.
func (s *SubStatusService) GetCurrentSubStatuses(ctx context.Context, applicationID string) (*dto.SubStatusesResponse, error) {
	key := subStatusCachePrefix + applicationID
	var cached dto.SubStatusesResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}
	gen, cacheable := s.cache.Generation(ctx, key)

	snapshot, err := s.snapshots.Load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	current, _ := snapshot.CurrentStatus()
	tags := s.engine.GetCurrentSubStatuses(snapshot).Sorted()
	s.metrics.RecordSubStatuses(tags)

	result := &dto.SubStatusesResponse{
		ApplicationID: applicationID,
		CurrentStatus: current,
		SubStatuses:   tags,
	}
	if cacheable {
		s.cache.SetIfGeneration(ctx, key, result, s.cacheTTL, gen)
	}
	s.logger.Debug("sub-statuses evaluated", zap.String("application_id", applicationID), zap.Int("count", len(tags)))
	return result, nil
}

// Invalidate drops the cached result for an application.
func (s *SubStatusService) Invalidate(ctx context.Context, applicationID string) {
	s.cache.Invalidate(ctx, subStatusCachePrefix+applicationID)
}
