package usecase

import (
	"crypto/rand"
	"io"

	"telegram-promo-bot/internal/domain/model"
)

// generatePromoCode draws a candidate code uniformly from the code alphabet.
// Uniqueness is not checked here; the store's unique constraint is the
// authority and the issuance loop redraws on collision.
func generatePromoCode() (string, error) {
	buffer := make([]byte, model.CodeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}

	for i := 0; i < model.CodeLength; i++ {
		buffer[i] = model.CodeAlphabet[int(buffer[i])%len(model.CodeAlphabet)]
	}
	return string(buffer), nil
}
