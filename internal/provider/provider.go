// Package provider normalizes three heterogeneous face-swap backends behind
// one Swap contract. The caller never branches on provider identity beyond
// the one configuration value that selects the backend.
package provider

import (
	"context"
	"fmt"

	"github.com/faceforge/faceforge-api/internal/config"
	"github.com/faceforge/faceforge-api/internal/imageio"
)

// Input describes one face-swap request, provider-agnostic. TargetImage and
// SourceImage may each be a remote URL or an inline base64 data URL; each
// backend normalizes them to whatever it needs.
type Input struct {
	TargetImage string // template scene the face is swapped into
	SourceImage string // user photo supplying the face
	Prompt      string // generation instruction, generative backend only

	// Group-swap targeting. The generative backend receives these as
	// natural-language context; the dedicated backends pass FaceIndex as a
	// structured target_index field.
	IsGroupSwap bool
	FaceIndex   int
	TotalFaces  int
	SlotType    string // person | pet | baby
	SlotLabel   string
}

// Result is the normalized output of any backend.
type Result struct {
	ResultImage string // base64 data URL
}

// Provider is one face-swap backend.
type Provider interface {
	Name() string
	Swap(ctx context.Context, in Input) (*Result, error)
}

// ImageStager publishes inline image bytes to a fetchable public URL. The
// dedicated swap backends cannot accept inline bytes, so data-URL inputs are
// staged through it before the vendor call.
type ImageStager interface {
	StagePublicImage(ctx context.Context, dataURL string) (string, error)
}

// FromConfig selects the backend named by cfg.Provider.
func FromConfig(ctx context.Context, cfg *config.Config, stager ImageStager) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGemini(ctx, cfg)
	case config.ProviderReplicate:
		return NewReplicate(cfg, stager), nil
	case config.ProviderWaveSpeed:
		return NewWaveSpeed(cfg, stager), nil
	default:
		return nil, fmt.Errorf("unknown face-swap provider: %s", cfg.Provider)
	}
}

// publicImageURL returns ref unchanged when it is already a remote URL, or
// stages inline bytes to public storage first.
func publicImageURL(ctx context.Context, stager ImageStager, ref string) (string, error) {
	if !imageio.IsDataURL(ref) {
		return ref, nil
	}
	if stager == nil {
		return "", fmt.Errorf("inline image requires staging but no stager is configured")
	}
	return stager.StagePublicImage(ctx, ref)
}
