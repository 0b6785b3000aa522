// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, telegramID int64, text string) error
	SendButtons(ctx context.Context, telegramID int64, text string, rows [][]InlineButton) error
	SendPhoto(ctx context.Context, telegramID int64, filename string, png []byte) error
	SendDocument(ctx context.Context, telegramID int64, filename string, data []byte) error
}

// MembershipChecker answers whether a user currently belongs to the target
// channel. Implementations fail open to false: any rejection from the
// transport is reported as not-a-member, never as an error the caller must
// distinguish.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64) bool
}

// BarcodeRenderer turns a promo code into image bytes. Pure and
// deterministic for a given symbology.
type BarcodeRenderer interface {
	Render(code string) ([]byte, error)
}
