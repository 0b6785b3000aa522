package model

import "time"

// CodeLength is the fixed length of every promo code.
const CodeLength = 8

// CodeAlphabet is the character set codes are drawn from.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// PromoCode represents a single-use code issued to a channel subscriber.
// A user holds at most one code; a code is marked used at most once.
type PromoCode struct {
	ID        int64
	UserID    int64
	Code      string
	Used      bool
	CreatedAt time.Time
	UsedAt    *time.Time // Pointer to allow for NULL
}
