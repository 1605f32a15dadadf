package mind

import (
	"context"
	"strings"
	"time"

	"github.com/ThoBustos/tinyworld/character"
	"github.com/ThoBustos/tinyworld/logging"
	"github.com/ThoBustos/tinyworld/model"
)

// NoVisualInput is substituted when no image was supplied for a cycle.
const NoVisualInput = "No visual input reaches you in this moment; only your thoughts are present."

// FallbackVision is substituted when the extractor fails internally.
const FallbackVision = "The scene blurs before your eyes, refusing to resolve into distinct shapes."

// VisionExtractorOptions configure a VisionExtractor.
type VisionExtractorOptions struct {
	MaxTokens int64
	Logger    logging.Logger
}

// VisionExtractor turns an image into a short natural-language description.
// Pure function of its input; internal errors are converted to FallbackVision.
// Callers are responsible for only invoking Describe with a present, readable
// image.
type VisionExtractor struct {
	llm       model.Model
	maxTokens int64
	logger    logging.Logger
}

// NewVisionExtractor creates a vision extractor backed by llm.
func NewVisionExtractor(llm model.Model, optFns ...func(o *VisionExtractorOptions)) *VisionExtractor {
	opts := VisionExtractorOptions{MaxTokens: 160, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &VisionExtractor{llm: llm, maxTokens: opts.MaxTokens, logger: opts.Logger}
}

// Describe returns a short description of the image, or FallbackVision if the
// model call fails or returns nothing usable.
func (v *VisionExtractor) Describe(ctx context.Context, image []byte, mime string) string {
	start := time.Now()
	resp, err := v.llm.Generate(ctx, model.Request{
		Prompt:    character.VisionPrompt(),
		Image:     image,
		ImageMIME: mime,
		MaxTokens: v.maxTokens,
	})
	if err != nil {
		v.logger.Warn("vision model call failed, using fallback description", "error", err, "duration", time.Since(start))
		return FallbackVision
	}
	desc := strings.TrimSpace(resp.Text)
	if desc == "" {
		v.logger.Warn("vision model returned empty description, using fallback")
		return FallbackVision
	}
	return desc
}
