package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-promo-bot/internal/domain"
	"telegram-promo-bot/internal/domain/model"
	"telegram-promo-bot/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.PromoCodeRepository = (*promoCodeRepo)(nil)

const uniqueViolation = "23505"

type promoCodeRepo struct {
	pool *pgxpool.Pool
}

func NewPromoCodeRepo(pool *pgxpool.Pool) repository.PromoCodeRepository {
	return &promoCodeRepo{pool: pool}
}

func (r *promoCodeRepo) HasCode(ctx context.Context, userID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM promo_codes WHERE user_id = $1);`

	var exists bool
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&exists); err != nil {
		return false, storageErr(err)
	}
	return exists, nil
}

// Insert persists a new unused code. The unique indexes decide the two
// conflict cases: a taken code surfaces as ErrCodeCollision (the caller
// redraws), a user who already holds a row surfaces as ErrAlreadyIssued.
func (r *promoCodeRepo) Insert(ctx context.Context, userID int64, code string) (*model.PromoCode, error) {
	const q = `
INSERT INTO promo_codes (user_id, promo_code)
VALUES ($1, $2)
RETURNING id, used, created_at;
`
	pc := &model.PromoCode{UserID: userID, Code: code}
	err := r.pool.QueryRow(ctx, q, userID, code).Scan(&pc.ID, &pc.Used, &pc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case userUniqueConstraint:
				return nil, domain.ErrAlreadyIssued
			case codeUniqueConstraint:
				return nil, domain.ErrCodeCollision
			}
		}
		return nil, storageErr(err)
	}
	return pc, nil
}

func (r *promoCodeRepo) FindByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	const q = `
SELECT id, user_id, promo_code, used, created_at, used_at
  FROM promo_codes
 WHERE promo_code = $1;
`
	var pc model.PromoCode
	err := r.pool.QueryRow(ctx, q, code).Scan(
		&pc.ID, &pc.UserID, &pc.Code, &pc.Used, &pc.CreatedAt, &pc.UsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr(err)
	}
	return &pc, nil
}

// MarkUsed performs the used-transition as a single conditional update, so
// concurrent redemptions of the same code serialize at the row and exactly
// one caller sees true.
func (r *promoCodeRepo) MarkUsed(ctx context.Context, code string) (bool, error) {
	const q = `
UPDATE promo_codes
   SET used = TRUE, used_at = now()
 WHERE promo_code = $1 AND used = FALSE;
`
	ct, err := r.pool.Exec(ctx, q, code)
	if err != nil {
		return false, storageErr(err)
	}
	if ct.RowsAffected() > 0 {
		return true, nil
	}

	// Zero rows: either already used or never issued.
	exists := false
	const check = `SELECT EXISTS (SELECT 1 FROM promo_codes WHERE promo_code = $1);`
	if err := r.pool.QueryRow(ctx, check, code).Scan(&exists); err != nil {
		return false, storageErr(err)
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return false, nil
}

func (r *promoCodeRepo) Counts(ctx context.Context) (int, int, error) {
	const q = `
SELECT COUNT(*) FILTER (WHERE used),
       COUNT(*) FILTER (WHERE NOT used)
  FROM promo_codes;
`
	var used, unused int
	if err := r.pool.QueryRow(ctx, q).Scan(&used, &unused); err != nil {
		return 0, 0, storageErr(err)
	}
	return used, unused, nil
}

func (r *promoCodeRepo) ExportAll(ctx context.Context) ([]model.PromoCode, error) {
	const q = `
SELECT id, user_id, promo_code, used, created_at, used_at
  FROM promo_codes
 ORDER BY id;
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []model.PromoCode
	for rows.Next() {
		var pc model.PromoCode
		if err := rows.Scan(&pc.ID, &pc.UserID, &pc.Code, &pc.Used, &pc.CreatedAt, &pc.UsedAt); err != nil {
			return nil, storageErr(err)
		}
		out = append(out, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStorage, err)
}
