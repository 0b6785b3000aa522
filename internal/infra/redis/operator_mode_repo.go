package redis

import (
	"context"
	"fmt"
	"time"

	"telegram-promo-bot/internal/domain/ports/repository"
)

var _ repository.OperatorModeRepository = (*OperatorModeRepo)(nil)

// OperatorModeRepo keeps the per-operator checking flag in Redis, keyed by
// operator id. The TTL is housekeeping only: a checking session an operator
// forgot to close expires on its own, which is acceptable for operational
// state.
type OperatorModeRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewOperatorModeRepo(client RedisClient, ttl time.Duration) *OperatorModeRepo {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &OperatorModeRepo{client: client, ttl: ttl}
}

func (r *OperatorModeRepo) modeKey(operatorID int64) string {
	return fmt.Sprintf("operator_mode:%d", operatorID)
}

func (r *OperatorModeRepo) SetChecking(ctx context.Context, operatorID int64) error {
	return r.client.Set(ctx, r.modeKey(operatorID), "checking", r.ttl)
}

func (r *OperatorModeRepo) ClearChecking(ctx context.Context, operatorID int64) error {
	return r.client.Del(ctx, r.modeKey(operatorID))
}

func (r *OperatorModeRepo) IsChecking(ctx context.Context, operatorID int64) (bool, error) {
	_, err := r.client.Get(ctx, r.modeKey(operatorID))
	if err != nil {
		if IsNil(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
