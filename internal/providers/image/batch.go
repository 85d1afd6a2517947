package image

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/Maciekds1981/kolorowanki/internal/domain"
	"github.com/Maciekds1981/kolorowanki/internal/infra"
	"github.com/Maciekds1981/kolorowanki/internal/providers/openai"
)

// BatchOptions configures a BatchGenerator.
type BatchOptions struct {
	// Limiter paces the sequential image calls. Nil means unpaced.
	Limiter *rate.Limiter
	Logger  *infra.Logger
}

// BatchGenerator requests a batch of variants one after another. A failed
// variant is recorded and the batch moves on.
type BatchGenerator struct {
	generator Generator
	limiter   *rate.Limiter
	logger    *infra.Logger
}

func NewBatchGenerator(generator Generator, opts BatchOptions) *BatchGenerator {
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &BatchGenerator{generator: generator, limiter: opts.Limiter, logger: logger}
}

// LimiterPerMinute builds a limiter allowing perMinute calls with a burst of
// one. Zero or negative disables pacing.
func LimiterPerMinute(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// GenerateBatch returns one outcome per ordinal 1..Count, in order. The error
// is non-nil only when the batch could not start: invalid parameters or a
// missing API key.
func (b *BatchGenerator) GenerateBatch(ctx context.Context, req BatchRequest) ([]domain.VariantOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !b.generator.HasCredentials() {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrMissingAPIKey)
	}
	outcomes := make([]domain.VariantOutcome, 0, req.Count)
	for i := 1; i <= req.Count; i++ {
		outcomes = append(outcomes, b.generateVariant(ctx, req, i))
	}
	return outcomes, nil
}

func (b *BatchGenerator) generateVariant(ctx context.Context, req BatchRequest, ordinal int) domain.VariantOutcome {
	log := b.logger.With().Int("variant", ordinal).Int("count", req.Count).Logger()
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Msg("image batch: rate limiter wait aborted")
			return domain.VariantOutcome{Ordinal: ordinal, Err: err}
		}
	}
	start := time.Now()
	data, err := b.generator.GenerateImage(ctx, openai.ImageRequest{
		Prompt:  NormalizeColoringPrompt(VariantPrompt(req.BasePrompt, ordinal)),
		SizePx:  req.SizePx,
		Quality: req.Quality,
	})
	if err != nil {
		log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("image batch: variant failed")
		return domain.VariantOutcome{Ordinal: ordinal, Err: err}
	}
	log.Info().Int("bytes", len(data)).Dur("elapsed", time.Since(start)).Msg("image batch: variant generated")
	return domain.VariantOutcome{Ordinal: ordinal, Artifact: &domain.Artifact{Ordinal: ordinal, Data: data}}
}
