package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyIssued = errors.New("user already has a promo code")
	ErrNotEligible   = errors.New("user is not a channel member")
	ErrCodeCollision = errors.New("promo code already exists")
	ErrAlreadyUsed   = errors.New("promo code already used")
	ErrUnauthorized  = errors.New("not an authorized operator")
	ErrStorage       = errors.New("storage failure")
)
