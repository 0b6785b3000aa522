package repository

import "context"

// OperatorModeRepository is the port for the per-operator checking-mode flag.
// The flag is operational state, not transactional: it lives in a keyed store
// and losing it (restart, TTL expiry) simply drops the operator back to
// normal mode.
type OperatorModeRepository interface {
	SetChecking(ctx context.Context, operatorID int64) error
	ClearChecking(ctx context.Context, operatorID int64) error
	IsChecking(ctx context.Context, operatorID int64) (bool, error)
}
