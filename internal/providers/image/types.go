package image

import (
	"context"
	"strings"

	"github.com/Maciekds1981/kolorowanki/internal/domain"
	"github.com/Maciekds1981/kolorowanki/internal/providers/openai"
)

// BatchRequest describes one batch of variants generated from a single idea.
type BatchRequest struct {
	BasePrompt string
	Count      int
	SizePx     int
	Quality    domain.Quality
}

// Generator is the contract of the remote image API as seen by the batch.
type Generator interface {
	HasCredentials() bool
	GenerateImage(ctx context.Context, req openai.ImageRequest) ([]byte, error)
}

var _ Generator = (*openai.Client)(nil)

// Validate checks the request bounds and fills the quality default.
func (r *BatchRequest) Validate() error {
	if strings.TrimSpace(r.BasePrompt) == "" {
		return domain.Validationf("base prompt is required")
	}
	if r.Count < domain.MinVariants || r.Count > domain.MaxVariants {
		return domain.Validationf("variant count must be between %d and %d", domain.MinVariants, domain.MaxVariants)
	}
	if !domain.ValidSize(r.SizePx) {
		return domain.Validationf("unsupported size %d", r.SizePx)
	}
	q, err := domain.ParseQuality(string(r.Quality))
	if err != nil {
		return err
	}
	r.Quality = q
	return nil
}
