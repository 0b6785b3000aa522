package repository

import (
	"context"

	"telegram-promo-bot/internal/domain/model"
)

// PromoCodeRepository is the port for the persisted promo-code table.
//
// Uniqueness of both the code string and the one-row-per-user rule are owned
// by the storage layer: Insert reports domain.ErrCodeCollision when the drawn
// code already exists and domain.ErrAlreadyIssued when the user already holds
// a row. MarkUsed performs the used-transition as a single conditional update
// and reports whether this call made the transition.
type PromoCodeRepository interface {
	// HasCode reports whether a row exists for the user. Side-effect free.
	HasCode(ctx context.Context, userID int64) (bool, error)
	// Insert persists a new unused code for the user.
	Insert(ctx context.Context, userID int64, code string) (*model.PromoCode, error)
	// FindByCode looks up a code by its stored (uppercase) form.
	FindByCode(ctx context.Context, code string) (*model.PromoCode, error)
	// MarkUsed sets used=true and stamps used_at, only if the code is still
	// unused. Returns false when the code was already used, and
	// domain.ErrNotFound when it does not exist at all.
	MarkUsed(ctx context.Context, code string) (bool, error)
	// Counts returns (used, unused) row counts.
	Counts(ctx context.Context) (used int, unused int, err error)
	// ExportAll returns every row ordered by id, for the operator export.
	ExportAll(ctx context.Context) ([]model.PromoCode, error)
}
