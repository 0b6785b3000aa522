package usecase

import (
	"context"

	"telegram-promo-bot/internal/domain"
	"telegram-promo-bot/internal/domain/model"
	"telegram-promo-bot/internal/domain/ports/adapter"
	"telegram-promo-bot/internal/domain/ports/repository"
	"telegram-promo-bot/internal/infra/logging"
	"telegram-promo-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ OperatorUseCase = (*operatorUC)(nil)

// OperatorUseCase covers the operator-only surface: the per-operator
// checking-mode toggle and the administrative queries available while
// checking. Every method rejects identities outside the authorized set with
// domain.ErrUnauthorized; callers turn that into a silent ignore so the
// operator set cannot be probed.
type OperatorUseCase interface {
	Authorized(operatorID int64) bool
	// Toggle flips the operator's mode and reports whether checking mode is
	// now active.
	Toggle(ctx context.Context, operatorID int64) (checking bool, err error)
	IsChecking(ctx context.Context, operatorID int64) (bool, error)
	Counts(ctx context.Context, operatorID int64) (used int, unused int, err error)
	MembershipOf(ctx context.Context, operatorID int64, userID int64) (bool, error)
	Export(ctx context.Context, operatorID int64) ([]model.PromoCode, error)
}

type operatorUC struct {
	codes      repository.PromoCodeRepository
	modes      repository.OperatorModeRepository
	membership adapter.MembershipChecker
	operators  map[int64]struct{}
	log        *zerolog.Logger
}

func NewOperatorUseCase(
	codes repository.PromoCodeRepository,
	modes repository.OperatorModeRepository,
	membership adapter.MembershipChecker,
	operatorIDs []int64,
	logger *zerolog.Logger,
) *operatorUC {
	ops := make(map[int64]struct{}, len(operatorIDs))
	for _, id := range operatorIDs {
		ops[id] = struct{}{}
	}
	return &operatorUC{codes: codes, modes: modes, membership: membership, operators: ops, log: logger}
}

func (u *operatorUC) Authorized(operatorID int64) bool {
	_, ok := u.operators[operatorID]
	return ok
}

func (u *operatorUC) Toggle(ctx context.Context, operatorID int64) (bool, error) {
	defer logging.TraceDuration(u.log, "OperatorUC.Toggle")()
	if !u.Authorized(operatorID) {
		return false, domain.ErrUnauthorized
	}

	checking, err := u.modes.IsChecking(ctx, operatorID)
	if err != nil {
		return false, err
	}
	if checking {
		if err := u.modes.ClearChecking(ctx, operatorID); err != nil {
			return false, err
		}
		metrics.IncModeToggle(false)
		u.log.Info().Int64("operator_id", operatorID).Msg("checking mode deactivated")
		return false, nil
	}
	if err := u.modes.SetChecking(ctx, operatorID); err != nil {
		return false, err
	}
	metrics.IncModeToggle(true)
	u.log.Info().Int64("operator_id", operatorID).Msg("checking mode activated")
	return true, nil
}

func (u *operatorUC) IsChecking(ctx context.Context, operatorID int64) (bool, error) {
	if !u.Authorized(operatorID) {
		return false, domain.ErrUnauthorized
	}
	return u.modes.IsChecking(ctx, operatorID)
}

func (u *operatorUC) Counts(ctx context.Context, operatorID int64) (int, int, error) {
	defer logging.TraceDuration(u.log, "OperatorUC.Counts")()
	if !u.Authorized(operatorID) {
		return 0, 0, domain.ErrUnauthorized
	}
	return u.codes.Counts(ctx)
}

func (u *operatorUC) MembershipOf(ctx context.Context, operatorID int64, userID int64) (bool, error) {
	defer logging.TraceDuration(u.log, "OperatorUC.MembershipOf")()
	if !u.Authorized(operatorID) {
		return false, domain.ErrUnauthorized
	}
	return u.membership.IsMember(ctx, userID), nil
}

func (u *operatorUC) Export(ctx context.Context, operatorID int64) ([]model.PromoCode, error) {
	defer logging.TraceDuration(u.log, "OperatorUC.Export")()
	if !u.Authorized(operatorID) {
		return nil, domain.ErrUnauthorized
	}
	return u.codes.ExportAll(ctx)
}
