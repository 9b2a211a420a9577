package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/change-control/internal/domain"
)

const deploymentStatusCacheKey = "change-control:deployment-statuses"

type cachedDeploymentStatusRepository struct {
	next   DeploymentStatusRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDeploymentStatusRepository wraps next with a Redis cache-aside layer.
// A nil client or non-positive ttl returns next unchanged.
func NewCachedDeploymentStatusRepository(next DeploymentStatusRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) DeploymentStatusRepository {
	if client == nil || ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedDeploymentStatusRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *cachedDeploymentStatusRepository) GetAll(ctx context.Context) ([]domain.SubmitterDeploymentStatus, error) {
	raw, err := r.client.Get(ctx, deploymentStatusCacheKey).Bytes()
	switch {
	case err == nil:
		var statuses []domain.SubmitterDeploymentStatus
		if jsonErr := json.Unmarshal(raw, &statuses); jsonErr == nil {
			return statuses, nil
		}
		r.logger.Warn("discarding corrupt deployment status cache entry")
	case !errors.Is(err, redis.Nil):
		// cache is best-effort; fall through to the store
		r.logger.Warn("deployment status cache read failed", zap.Error(err))
	}

	statuses, err := r.next.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if payload, jsonErr := json.Marshal(statuses); jsonErr == nil {
		if setErr := r.client.Set(ctx, deploymentStatusCacheKey, payload, r.ttl).Err(); setErr != nil {
			r.logger.Warn("deployment status cache write failed", zap.Error(setErr))
		}
	}
	return statuses, nil
}
