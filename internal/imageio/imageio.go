// Package imageio moves image bytes between the three shapes the pipeline
// deals in: inline base64 data URLs, remote URLs and raw bytes.
package imageio

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultClient is used for remote fetches when no client is supplied.
// Provider results can be large, so the timeout is generous.
var DefaultClient = &http.Client{Timeout: 60 * time.Second}

// IsDataURL reports whether s is an inline base64 data URL.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURL splits a data URL into its MIME type and decoded bytes.
func DecodeDataURL(s string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL: missing payload")
	}
	mimeType = strings.TrimSuffix(meta, ";base64")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URL payload: %w", err)
	}
	return mimeType, data, nil
}

// EncodeDataURL encodes raw bytes as an inline base64 data URL.
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Fetch downloads an image from a remote URL.
func Fetch(ctx context.Context, client *http.Client, url string) (data []byte, mimeType string, err error) {
	if client == nil {
		client = DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// Bytes resolves an image reference to raw bytes, transparently handling
// both inline data URLs and remote URLs.
func Bytes(ctx context.Context, client *http.Client, ref string) (data []byte, mimeType string, err error) {
	if IsDataURL(ref) {
		mimeType, data, err = DecodeDataURL(ref)
		return data, mimeType, err
	}
	return Fetch(ctx, client, ref)
}

// MimeSubtype returns the genai-style format name for a MIME type
// ("image/jpeg" -> "jpeg"). Defaults to jpeg for unknown input.
func MimeSubtype(mimeType string) string {
	if sub, ok := strings.CutPrefix(mimeType, "image/"); ok && sub != "" {
		return sub
	}
	return "jpeg"
}
