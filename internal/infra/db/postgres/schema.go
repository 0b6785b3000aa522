package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Constraint names the repo uses to tell the two 23505 cases apart.
const (
	codeUniqueConstraint = "promo_codes_code_key"
	userUniqueConstraint = "promo_codes_user_key"
)

// EnsureSchema creates the promo_codes table and its unique indexes.
// Both the code-uniqueness and the one-row-per-user invariants live here,
// not in application code: handlers may run on independent connections and
// the constraints are the only serialization point.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `
CREATE TABLE IF NOT EXISTS promo_codes (
    id         BIGSERIAL PRIMARY KEY,
    user_id    BIGINT NOT NULL,
    promo_code TEXT NOT NULL,
    used       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    used_at    TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS promo_codes_code_key ON promo_codes (promo_code);
CREATE UNIQUE INDEX IF NOT EXISTS promo_codes_user_key ON promo_codes (user_id);
`
	_, err := pool.Exec(ctx, q)
	return err
}
