package helpers

import (
	qrcode "github.com/skip2/go-qrcode"
)

const QRCodeSize = 256

// EncodeQRCode renders content as a PNG QR code.
func EncodeQRCode(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, QRCodeSize)
}
