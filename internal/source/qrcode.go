package source

import (
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/img2video/internal/media"
)

// QRCard renders content as a square QR code image, used as an end card
// pointing viewers at a link.
func QRCard(content string, size int) (media.ImageAsset, error) {
	if content == "" {
		return media.ImageAsset{}, fmt.Errorf("%w: empty QR content", media.ErrInvalidAsset)
	}
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return media.ImageAsset{}, fmt.Errorf("%w: qr code: %v", media.ErrInvalidAsset, err)
	}
	return media.ImageAsset{Name: "qr end card", Image: q.Image(size)}, nil
}
