// utils/qrcode.go
package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// GenerateInviteQRCode renders a member's invite link as a base64 PNG data
// URI suitable for embedding in API responses.
func GenerateInviteQRCode(inviteCode string) (string, error) {
	baseURL := os.Getenv("INVITE_BASE_URL")
	if baseURL == "" {
		baseURL = "https://ascendra.network/join"
	}
	content := fmt.Sprintf("%s?code=%s", baseURL, inviteCode)

	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}

	// Scale the QR code to a reasonable size (300x300 pixels)
	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return "", err
	}

	base64QR := base64.StdEncoding.EncodeToString(buf.Bytes())
	return "data:image/png;base64," + base64QR, nil
}
