package export

import (
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// CardPayload is what a scanned patient card yields.
type CardPayload struct {
	ID     string `json:"id"`
	Serial string `json:"serial"`
	Name   string `json:"name"`
	Date   string `json:"date"`
}

const DefaultCardSize = 256

// CardPNG encodes p as JSON inside a QR code image of size pixels.
func CardPNG(p CardPayload, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultCardSize
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(string(b), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
