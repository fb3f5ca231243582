package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// AvatarMaxDataURLLength caps the submitted data URL, in characters.
	AvatarMaxDataURLLength = 500 * 1024
	// AvatarSize is the bounding box avatars are scaled down to fit.
	AvatarSize = 256
	// AvatarWebPQuality is the lossy WebP quality of stored avatars.
	AvatarWebPQuality = 80
)

var (
	errAvatarTooLarge = errors.New("Image is too large. Please use an image under 500KB.")
	errAvatarInvalid  = errors.New("Please upload a valid image.")
)

// decodeDataURL extracts the payload of a base64 image data URL.
func decodeDataURL(dataURL string) ([]byte, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, errAvatarInvalid
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errAvatarInvalid
	}
	return raw, nil
}

// resizeToFit scales src down to fit within maxWidth x maxHeight, keeping its aspect ratio.
func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// NormalizeAvatar decodes a PNG, JPEG, GIF or WebP data URL, scales it to
// fit AvatarSize and re-encodes it as a WebP data URL.
func NormalizeAvatar(dataURL string) (string, error) {
	if len(dataURL) > AvatarMaxDataURLLength {
		return "", errAvatarTooLarge
	}
	raw, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	decoded, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", errAvatarInvalid
	}

	scaled := resizeToFit(decoded, AvatarSize, AvatarSize)
	rgba, ok := scaled.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(scaled.Bounds())
		draw.Draw(rgba, rgba.Bounds(), scaled, scaled.Bounds().Min, draw.Src)
	}

	return EncodeAvatar(rgba)
}

// EncodeAvatar encodes img as a lossy WebP data URL.
func EncodeAvatar(img *image.RGBA) (string, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: AvatarWebPQuality}); err != nil {
		return "", err
	}
	return "data:image/webp;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
