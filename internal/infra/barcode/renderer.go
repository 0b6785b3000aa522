// Package barcode renders promo codes as Code128 PNG images for the chat
// transport.
package barcode

import (
	"bytes"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"

	"telegram-promo-bot/internal/domain/ports/adapter"
)

var _ adapter.BarcodeRenderer = (*Code128Renderer)(nil)

// Code128Renderer encodes a code string as a linear Code128 barcode.
type Code128Renderer struct {
	Width  int
	Height int
}

func NewCode128Renderer() *Code128Renderer {
	return &Code128Renderer{Width: 400, Height: 160}
}

func (r *Code128Renderer) Render(code string) ([]byte, error) {
	bc, err := code128.Encode(code)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(bc, r.Width, r.Height)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
