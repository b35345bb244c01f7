package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/faceforge/faceforge-api/internal/config"
	"github.com/faceforge/faceforge-api/internal/imageio"
)

// WaveSpeed is a dedicated head/face-swap backend. One synchronous POST per
// swap; like Replicate it needs public image URLs and takes a structured
// target_index, and a non-2xx response is a hard failure.
type WaveSpeed struct {
	apiKey   string
	endpoint string
	client   *http.Client
	stager   ImageStager
}

// NewWaveSpeed creates the WaveSpeed backend from configuration.
func NewWaveSpeed(cfg *config.Config, stager ImageStager) *WaveSpeed {
	return &WaveSpeed{
		apiKey:   cfg.WaveSpeedKey,
		endpoint: cfg.WaveSpeedURL,
		client:   &http.Client{Timeout: 60 * time.Second},
		stager:   stager,
	}
}

func (w *WaveSpeed) Name() string { return config.ProviderWaveSpeed }

type waveSpeedResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Outputs []string `json:"outputs"`
	} `json:"data"`
}

func (w *WaveSpeed) Swap(ctx context.Context, in Input) (*Result, error) {
	targetURL, err := publicImageURL(ctx, w.stager, in.TargetImage)
	if err != nil {
		return nil, fmt.Errorf("failed to stage target image: %w", err)
	}
	sourceURL, err := publicImageURL(ctx, w.stager, in.SourceImage)
	if err != nil {
		return nil, fmt.Errorf("failed to stage source image: %w", err)
	}

	payload := map[string]any{
		"image":      targetURL,
		"face_image": sourceURL,
	}
	if in.IsGroupSwap {
		payload["target_index"] = in.FaceIndex
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: w.Name(), Kind: KindBadStatus,
			Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Provider: w.Name(), Kind: KindBadStatus,
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(raw), 200))}
	}

	var parsed waveSpeedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{Provider: w.Name(), Kind: KindBadStatus,
			Message: "malformed response", Err: err}
	}
	if len(parsed.Data.Outputs) == 0 {
		return nil, &Error{Provider: w.Name(), Kind: KindNoImage,
			Message: "response contained no output image"}
	}

	data, mime, err := imageio.Fetch(ctx, w.client, parsed.Data.Outputs[0])
	if err != nil {
		return nil, &Error{Provider: w.Name(), Kind: KindNoImage,
			Message: "failed to download result", Err: err}
	}
	return &Result{ResultImage: imageio.EncodeDataURL(mime, data)}, nil
}
