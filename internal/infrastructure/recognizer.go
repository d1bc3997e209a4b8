package infrastructure

import (
	"github.com/rs/zerolog"

	"calobot/internal/config"
	"calobot/internal/interfaces"
)

// NewRecognizer builds the recognition strategy selected by configuration.
// Called once at startup; an override pointing at a backend whose credential
// is missing degrades to the local fallback instead of failing per image.
func NewRecognizer(cfg *config.Config, logger *zerolog.Logger) interfaces.Recognizer {
	backend := cfg.SelectBackend()

	switch backend {
	case config.BackendFixture:
		return NewFixtureRecognizer()
	case config.BackendOpenAI:
		if cfg.OpenAIAPIKey == "" {
			break
		}

		return NewOpenAIRecognizer(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.RecognitionTimeout, logger)
	case config.BackendLabels:
		if cfg.VisionAPIKey == "" {
			break
		}

		return NewLabelDetector(cfg.VisionAPIKey, cfg.VisionEndpoint, cfg.RecognitionTimeout, logger)
	case config.BackendClassifier:
		if cfg.ClassifierURL == "" {
			break
		}

		return NewFoodClassifier(cfg.ClassifierURL, cfg.ClassifierAPIKey, cfg.RecognitionTimeout, logger)
	case config.BackendFallback:
		return NewLocalFallback(logger)
	}

	logger.Warn().Str("backend", backend).Msg("recognizer credential missing, degrading to local fallback")

	return NewLocalFallback(logger)
}
