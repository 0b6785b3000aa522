package usecase

import (
	"context"
	"errors"
	"strings"

	"telegram-promo-bot/internal/domain"
	"telegram-promo-bot/internal/domain/ports/adapter"
	"telegram-promo-bot/internal/domain/ports/repository"
	"telegram-promo-bot/internal/infra/logging"
	"telegram-promo-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ RedemptionUseCase = (*redemptionUC)(nil)

// RedemptionReport is the composed status of a redemption attempt.
type RedemptionReport struct {
	Found      bool
	Code       string // normalized form
	UserID     int64  // code holder, zero when not found
	UsedBefore bool
	Subscribed bool
	Redeemed   bool // true iff this call performed the used-transition
}

// RedemptionUseCase resolves a code entered by an operator and performs the
// at-most-once used-transition.
type RedemptionUseCase interface {
	Resolve(ctx context.Context, code string) (*RedemptionReport, error)
}

type redemptionUC struct {
	codes      repository.PromoCodeRepository
	membership adapter.MembershipChecker
	log        *zerolog.Logger
}

func NewRedemptionUseCase(codes repository.PromoCodeRepository, membership adapter.MembershipChecker, logger *zerolog.Logger) *redemptionUC {
	return &redemptionUC{codes: codes, membership: membership, log: logger}
}

// Resolve looks the code up, re-checks the holder's membership live, and
// marks the code used only when it is unused and the holder is still
// subscribed. Membership at issuance time does not count here: a user who
// left the channel after receiving a code is refused, and the code stays
// unused.
func (u *redemptionUC) Resolve(ctx context.Context, code string) (*RedemptionReport, error) {
	defer logging.TraceDuration(u.log, "RedemptionUC.Resolve")()

	normalized := strings.ToUpper(strings.TrimSpace(code))
	report := &RedemptionReport{Code: normalized}

	pc, err := u.codes.FindByCode(ctx, normalized)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.IncRedemptionLookup("not_found")
		return report, nil
	}
	if err != nil {
		return nil, err
	}

	report.Found = true
	report.UserID = pc.UserID
	report.UsedBefore = pc.Used
	report.Subscribed = u.membership.IsMember(ctx, pc.UserID)

	if pc.Used || !report.Subscribed {
		if pc.Used {
			metrics.IncRedemptionLookup("already_used")
		} else {
			metrics.IncRedemptionLookup("not_subscribed")
		}
		return report, nil
	}

	ok, err := u.codes.MarkUsed(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent redemption won the conditional update.
		report.UsedBefore = true
		metrics.IncRedemptionLookup("already_used")
		return report, nil
	}

	report.Redeemed = true
	metrics.IncRedemptionLookup("redeemed")
	metrics.IncCodesRedeemed()
	u.log.Info().Int64("user_id", pc.UserID).Int64("code_id", pc.ID).Msg("promo code redeemed")
	return report, nil
}
