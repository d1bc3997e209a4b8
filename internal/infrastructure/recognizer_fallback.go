package infrastructure

import (
	"context"

	"github.com/rs/zerolog"

	"calobot/internal/entities"
)

// fallbackDishes is the fixed pool the degraded backends draw from.
var fallbackDishes = []string{"fried rice", "noodles", "hamburger", "salad", "sushi", "curry rice"}

const fallbackScore = 0.3

// LocalFallback is the no-credential backend: it derives a dish from the
// image byte length so the answer is deterministic, and tags every result
// as degraded in the logs. It never fails and never answers "absent".
type LocalFallback struct {
	logger *zerolog.Logger
}

func NewLocalFallback(logger *zerolog.Logger) *LocalFallback {
	return &LocalFallback{logger: logger}
}

func (f *LocalFallback) Name() string { return "fallback" }

func (f *LocalFallback) Recognize(_ context.Context, image []byte) (*entities.RecognitionResult, error) {
	label := fallbackDishes[len(image)%len(fallbackDishes)]
	f.logger.Warn().Str("label", label).Msg("local fallback recognizer, degraded-quality guess")

	return &entities.RecognitionResult{Label: label, Score: fallbackScore}, nil
}

// FixtureRecognizer returns one fixed result; wired in test mode so the
// whole pipeline is deterministic without any outbound call.
type FixtureRecognizer struct{}

func NewFixtureRecognizer() *FixtureRecognizer {
	return &FixtureRecognizer{}
}

func (f *FixtureRecognizer) Name() string { return "fixture" }

func (f *FixtureRecognizer) Recognize(context.Context, []byte) (*entities.RecognitionResult, error) {
	return &entities.RecognitionResult{Label: "ramen noodles", Score: 0.85}, nil
}
