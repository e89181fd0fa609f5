// Package qr renders credential tokens as QR images.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// imageSize is the QR PNG edge length in pixels, large enough for venue
// scanners at arm's length.
const imageSize = 512

// PNG renders the credential as a PNG image.
func PNG(credential string) ([]byte, error) {
	png, err := qrcode.Encode(credential, qrcode.Medium, imageSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DataURL renders the credential as a data: URL for inline embedding in
// confirmation emails.
func DataURL(credential string) (string, error) {
	png, err := PNG(credential)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
