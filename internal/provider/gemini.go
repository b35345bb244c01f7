package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/faceforge/faceforge-api/internal/config"
	"github.com/faceforge/faceforge-api/internal/imageio"
)

// generateFunc is the one seam between Gemini and the genai SDK.
type generateFunc func(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)

// Gemini is the prompt-driven generative backend. It submits a
// natural-language instruction plus two inline images. The model occasionally
// answers with a text refusal instead of an image, so attempts without an
// image part are retried before giving up.
type Gemini struct {
	generate generateFunc
	retries  int // retries after the first attempt
	wait     time.Duration
	sleep    func(ctx context.Context, d time.Duration)
}

// NewGemini creates the generative backend from configuration.
func NewGemini(ctx context.Context, cfg *config.Config) (*Gemini, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.GeminiModel)

	return &Gemini{
		generate: model.GenerateContent,
		retries:  cfg.GeminiRetries,
		wait:     cfg.GeminiRetryWait,
		sleep:    sleepCtx,
	}, nil
}

func (g *Gemini) Name() string { return config.ProviderGemini }

func (g *Gemini) Swap(ctx context.Context, in Input) (*Result, error) {
	targetData, targetMime, err := imageio.Bytes(ctx, nil, in.TargetImage)
	if err != nil {
		return nil, fmt.Errorf("failed to load target image: %w", err)
	}
	sourceData, sourceMime, err := imageio.Bytes(ctx, nil, in.SourceImage)
	if err != nil {
		return nil, fmt.Errorf("failed to load source image: %w", err)
	}

	parts := []genai.Part{
		genai.Text(g.buildPrompt(in)),
		genai.ImageData(imageio.MimeSubtype(targetMime), targetData),
		genai.ImageData(imageio.MimeSubtype(sourceMime), sourceData),
	}

	var lastText string
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			g.sleep(ctx, g.wait)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}

		resp, err := g.generate(ctx, parts...)
		if err != nil {
			return nil, &Error{Provider: g.Name(), Kind: KindBadStatus,
				Message: "generation request failed", Err: err}
		}

		img, mime, text := extractImage(resp)
		if img != nil {
			return &Result{ResultImage: imageio.EncodeDataURL(mime, img)}, nil
		}
		if text != "" {
			lastText = text
		}
	}

	msg := fmt.Sprintf("no image returned after %d attempts", g.retries+1)
	if lastText != "" {
		msg = fmt.Sprintf("%s (model said: %s)", msg, truncate(lastText, 200))
	}
	return nil, &Error{Provider: g.Name(), Kind: KindNoImage, Message: msg}
}

// buildPrompt assembles the generation instruction. Group swaps get extra
// natural-language targeting context since the model has no structured
// target-index concept.
func (g *Gemini) buildPrompt(in Input) string {
	var b strings.Builder
	if in.Prompt != "" {
		b.WriteString(in.Prompt)
	} else {
		b.WriteString("Replace the face of the main subject in the first image with the face " +
			"from the second image. Preserve the scene, lighting, pose and framing of the first " +
			"image exactly. Blend skin tones naturally.")
	}

	if in.IsGroupSwap {
		slotType := in.SlotType
		if slotType == "" {
			slotType = "person"
		}
		fmt.Fprintf(&b, "\n\nThis is a group image. Replace only subject %d of %d (type: %s",
			in.FaceIndex+1, in.TotalFaces, slotType)
		if in.SlotLabel != "" {
			fmt.Fprintf(&b, ", %s", in.SlotLabel)
		}
		b.WriteString("), counted left to right. Leave every other subject untouched.")
	}

	return b.String()
}

// extractImage pulls the first inline image out of a response, along with any
// text the model produced instead.
func extractImage(resp *genai.GenerateContentResponse) (data []byte, mimeType string, text string) {
	if resp == nil {
		return nil, "", ""
	}
	var texts []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch p := part.(type) {
			case genai.Blob:
				return p.Data, p.MIMEType, ""
			case genai.Text:
				texts = append(texts, string(p))
			}
		}
	}
	return nil, "", strings.TrimSpace(strings.Join(texts, " "))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
