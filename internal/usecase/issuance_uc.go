package usecase

import (
	"context"
	"errors"

	"telegram-promo-bot/internal/domain"
	"telegram-promo-bot/internal/domain/model"
	"telegram-promo-bot/internal/domain/ports/adapter"
	"telegram-promo-bot/internal/domain/ports/repository"
	"telegram-promo-bot/internal/infra/logging"
	"telegram-promo-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ IssuanceUseCase = (*issuanceUC)(nil)

// IssueStatus is the outcome of an issuance attempt.
type IssueStatus int

const (
	// Issued means a new code was created for the user.
	Issued IssueStatus = iota
	// AlreadyIssued means the user already holds a code. The existing code
	// is deliberately not returned, so it cannot be re-leaked via /start.
	AlreadyIssued
	// NotEligible means the user is not currently a channel member.
	NotEligible
)

// IssuanceUseCase creates at most one promo code per eligible user.
type IssuanceUseCase interface {
	Issue(ctx context.Context, userID int64) (*model.PromoCode, IssueStatus, error)
}

type issuanceUC struct {
	codes      repository.PromoCodeRepository
	membership adapter.MembershipChecker
	log        *zerolog.Logger
}

func NewIssuanceUseCase(codes repository.PromoCodeRepository, membership adapter.MembershipChecker, logger *zerolog.Logger) *issuanceUC {
	return &issuanceUC{codes: codes, membership: membership, log: logger}
}

// Issue decides whether the user may receive a code and creates it.
//
// The HasCode pre-check keeps the common repeat-/start path cheap, but the
// one-row-per-user invariant is owned by the store: a concurrent duplicate
// request loses the insert race and is reported as AlreadyIssued. Candidate
// codes are redrawn until the store accepts one; the unique constraint on
// the code column is the only collision authority.
func (u *issuanceUC) Issue(ctx context.Context, userID int64) (*model.PromoCode, IssueStatus, error) {
	defer logging.TraceDuration(u.log, "IssuanceUC.Issue")()

	has, err := u.codes.HasCode(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if has {
		return nil, AlreadyIssued, nil
	}

	if !u.membership.IsMember(ctx, userID) {
		return nil, NotEligible, nil
	}

	for {
		code, err := generatePromoCode()
		if err != nil {
			return nil, 0, err
		}
		pc, err := u.codes.Insert(ctx, userID, code)
		if errors.Is(err, domain.ErrCodeCollision) {
			u.log.Debug().Int64("user_id", userID).Msg("promo code collision, redrawing")
			continue
		}
		if errors.Is(err, domain.ErrAlreadyIssued) {
			// Lost the race against a concurrent request from the same user.
			return nil, AlreadyIssued, nil
		}
		if err != nil {
			return nil, 0, err
		}
		metrics.IncCodesIssued()
		u.log.Info().Int64("user_id", userID).Int64("code_id", pc.ID).Msg("promo code issued")
		return pc, Issued, nil
	}
}
