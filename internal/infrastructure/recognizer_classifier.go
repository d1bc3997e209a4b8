package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"calobot/internal/entities"
)

// FoodClassifier sends raw image bytes to a classifier endpoint specialized
// for food and takes the top-scoring class directly. An empty class list is
// an explicit "nothing recognized", not an error.
type FoodClassifier struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewFoodClassifier(url, apiKey string, timeout time.Duration, logger *zerolog.Logger) *FoodClassifier {
	return &FoodClassifier{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *FoodClassifier) Name() string { return "classifier" }

// classifierPrediction tolerates the label/class and score/confidence field
// spellings seen across hosted classifier endpoints.
type classifierPrediction struct {
	Label      string  `json:"label"`
	Class      string  `json:"class"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

func (p classifierPrediction) label() string {
	if p.Label != "" {
		return p.Label
	}

	return p.Class
}

func (p classifierPrediction) score() float64 {
	if p.Score > 0 {
		return p.Score
	}

	return p.Confidence
}

type classifierResponse struct {
	Predictions []classifierPrediction `json:"predictions"`
}

func (c *FoodClassifier) Recognize(ctx context.Context, image []byte) (*entities.RecognitionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(image))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("food classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("food classifier: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("food classifier: read body: %w", err)
	}

	var parsed classifierResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("food classifier: malformed response: %w", err)
	}

	var best *entities.RecognitionResult
	for _, p := range parsed.Predictions {
		label := strings.ToLower(strings.TrimSpace(p.label()))
		if label == "" {
			continue
		}

		if best == nil || p.score() > best.Score {
			best = &entities.RecognitionResult{Label: label, Score: p.score()}
		}
	}

	if best == nil {
		c.logger.Info().Msg("classifier returned no classes")

		return nil, nil
	}

	return best, nil
}
