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

const replicateBaseURL = "https://api.replicate.com/v1"

// Replicate is a dedicated face-swap backend. It has no prompt semantics:
// both images must be fetchable public URLs and multi-subject targeting uses
// a structured target_index field. A non-2xx response is a hard failure with
// no internal retry.
type Replicate struct {
	token        string
	model        string // owner/name
	baseURL      string
	client       *http.Client
	stager       ImageStager
	pollInterval time.Duration
	maxPolls     int
}

// NewReplicate creates the Replicate backend from configuration.
func NewReplicate(cfg *config.Config, stager ImageStager) *Replicate {
	return &Replicate{
		token:        cfg.ReplicateToken,
		model:        cfg.ReplicateModel,
		baseURL:      replicateBaseURL,
		client:       &http.Client{Timeout: 60 * time.Second},
		stager:       stager,
		pollInterval: 2 * time.Second,
		maxPolls:     45,
	}
}

func (r *Replicate) Name() string { return config.ProviderReplicate }

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  *string         `json:"error"`
}

func (r *Replicate) Swap(ctx context.Context, in Input) (*Result, error) {
	targetURL, err := publicImageURL(ctx, r.stager, in.TargetImage)
	if err != nil {
		return nil, fmt.Errorf("failed to stage target image: %w", err)
	}
	sourceURL, err := publicImageURL(ctx, r.stager, in.SourceImage)
	if err != nil {
		return nil, fmt.Errorf("failed to stage source image: %w", err)
	}

	input := map[string]any{
		"input_image": targetURL,
		"swap_image":  sourceURL,
	}
	if in.IsGroupSwap {
		input["target_index"] = in.FaceIndex
	}

	pred, err := r.createPrediction(ctx, input)
	if err != nil {
		return nil, err
	}

	pred, err = r.pollForCompletion(ctx, pred)
	if err != nil {
		return nil, err
	}

	outputURL, err := extractReplicateOutput(pred.Output)
	if err != nil {
		return nil, &Error{Provider: r.Name(), Kind: KindNoImage,
			Message: "prediction succeeded without output", Err: err}
	}

	data, mime, err := imageio.Fetch(ctx, r.client, outputURL)
	if err != nil {
		return nil, &Error{Provider: r.Name(), Kind: KindNoImage,
			Message: "failed to download result", Err: err}
	}
	return &Result{ResultImage: imageio.EncodeDataURL(mime, data)}, nil
}

func (r *Replicate) createPrediction(ctx context.Context, input map[string]any) (*replicatePrediction, error) {
	body, _ := json.Marshal(map[string]any{"input": input})
	url := fmt.Sprintf("%s/models/%s/predictions", r.baseURL, r.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Content-Type", "application/json")

	return r.doPrediction(req)
}

func (r *Replicate) pollForCompletion(ctx context.Context, pred *replicatePrediction) (*replicatePrediction, error) {
	for i := 0; i < r.maxPolls; i++ {
		switch pred.Status {
		case "succeeded":
			return pred, nil
		case "failed", "canceled":
			msg := "prediction " + pred.Status
			if pred.Error != nil {
				msg = fmt.Sprintf("%s: %s", msg, *pred.Error)
			}
			return nil, &Error{Provider: r.Name(), Kind: KindBadStatus, Message: msg}
		}

		sleepCtx(ctx, r.pollInterval)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/predictions/%s", r.baseURL, pred.ID), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+r.token)

		pred, err = r.doPrediction(req)
		if err != nil {
			return nil, err
		}
	}
	return nil, &Error{Provider: r.Name(), Kind: KindBadStatus, Message: "prediction timed out"}
}

func (r *Replicate) doPrediction(req *http.Request) (*replicatePrediction, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: r.Name(), Kind: KindBadStatus,
			Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Provider: r.Name(), Kind: KindBadStatus,
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(raw), 200))}
	}

	var pred replicatePrediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return nil, &Error{Provider: r.Name(), Kind: KindBadStatus,
			Message: "malformed prediction response", Err: err}
	}
	return &pred, nil
}

// extractReplicateOutput handles both output shapes the API produces: a
// single URL string or a list of URLs.
func extractReplicateOutput(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty output")
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0], nil
	}
	return "", fmt.Errorf("unrecognized output shape: %s", truncate(string(raw), 100))
}
