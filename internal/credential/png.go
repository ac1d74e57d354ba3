package credential

import (
	qrcode "github.com/skip2/go-qrcode"
)

// DefaultImageSize is the rendered QR side length in pixels.
const DefaultImageSize = 256

// Render rasterizes the payload into a PNG image. Medium error correction
// matches what the browser renderer used.
func Render(p Payload, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultImageSize
	}
	text, err := p.Encode()
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(text, qrcode.Medium, size)
}
