// Package imagefit reconciles provider output dimensions with the template.
// None of the swap backends guarantee that output pixel dimensions match the
// input, and the before/after comparator in the client assumes
// pixel-identical framing.
package imagefit

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"

	"github.com/faceforge/faceforge-api/internal/imageio"
)

const jpegQuality = 95

// Dimensions is a probed pixel size.
type Dimensions struct {
	Width  int
	Height int
}

// Probe measures the pixel dimensions of an image reference, which may be an
// inline data URL or a remote URL.
func Probe(ctx context.Context, client *http.Client, ref string) (Dimensions, error) {
	data, _, err := imageio.Bytes(ctx, client, ref)
	if err != nil {
		return Dimensions{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// Reconcile resizes the result image to exactly match the template's
// dimensions. The result comes back unchanged, byte for byte, when the
// dimensions already agree; otherwise it is stretched to fill (no cropping)
// with a Lanczos kernel and re-encoded as quality-95 JPEG.
func Reconcile(ctx context.Context, client *http.Client, templateRef, resultDataURL string) (string, error) {
	want, err := Probe(ctx, client, templateRef)
	if err != nil {
		return "", fmt.Errorf("failed to probe template image: %w", err)
	}

	_, resultData, err := imageio.DecodeDataURL(resultDataURL)
	if err != nil {
		return "", fmt.Errorf("failed to decode result image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(resultData))
	if err != nil {
		return "", fmt.Errorf("failed to measure result image: %w", err)
	}

	if cfg.Width == want.Width && cfg.Height == want.Height {
		return resultDataURL, nil
	}

	img, err := imaging.Decode(bytes.NewReader(resultData))
	if err != nil {
		return "", fmt.Errorf("failed to decode result image: %w", err)
	}
	resized := imaging.Resize(img, want.Width, want.Height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("failed to encode resized image: %w", err)
	}
	return imageio.EncodeDataURL("image/jpeg", buf.Bytes()), nil
}
