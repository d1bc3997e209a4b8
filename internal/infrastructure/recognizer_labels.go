package infrastructure

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"calobot/internal/entities"
)

const labelScoreFloor = 0.5

// foodKeywords marks a label as food-related at all.
var foodKeywords = []string{
	"food", "dish", "cuisine", "meal", "noodle", "ramen", "rice", "sushi",
	"pizza", "burger", "salad", "soup", "stew", "curry", "dessert", "cake",
	"bread", "meat", "chicken", "seafood", "fruit", "vegetable", "snack",
	"breakfast", "lunch", "dinner", "sandwich", "dumpling",
}

// genericLabels are food-related but name no dish; a hit on these alone is
// not a usable classification.
var genericLabels = map[string]bool{
	"food":       true,
	"dish":       true,
	"cuisine":    true,
	"meal":       true,
	"recipe":     true,
	"ingredient": true,
	"tableware":  true,
}

// auxDishes maps auxiliary labels to plausible dishes for the derived
// guess. Checked in the order the response lists its labels.
var auxDishes = map[string][]string{
	"soup":       {"soup", "hot pot", "curry rice"},
	"stew":       {"soup", "curry rice"},
	"tableware":  {"rice", "noodles", "salad"},
	"ingredient": {"salad", "fried rice", "sandwich"},
}

var defaultGuesses = []string{"rice", "noodles", "hamburger", "salad", "sushi"}

// LabelDetector sends the image to a general-purpose label-detection
// service and filters the candidates down to a food label. It never answers
// "absent": when no specific dish clears the bar it falls back to a derived
// guess, which is flagged in the logs as exactly that.
type LabelDetector struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewLabelDetector(apiKey, endpoint string, timeout time.Duration, logger *zerolog.Logger) *LabelDetector {
	return &LabelDetector{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (d *LabelDetector) Name() string { return "labels" }

type labelAnnotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

type labelDetectionResponse struct {
	Responses []struct {
		LabelAnnotations []labelAnnotation `json:"labelAnnotations"`
	} `json:"responses"`
}

func (d *LabelDetector) Recognize(ctx context.Context, image []byte) (*entities.RecognitionResult, error) {
	payload := map[string]interface{}{
		"requests": []map[string]interface{}{{
			"image":    map[string]string{"content": base64.StdEncoding.EncodeToString(image)},
			"features": []map[string]interface{}{{"type": "LABEL_DETECTION", "maxResults": 10}},
		}},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint+"?key="+d.apiKey, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("label detection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("label detection: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("label detection: read body: %w", err)
	}

	var parsed labelDetectionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("label detection: malformed response: %w", err)
	}

	if len(parsed.Responses) == 0 {
		return nil, fmt.Errorf("label detection: empty response")
	}

	return d.pick(parsed.Responses[0].LabelAnnotations, image), nil
}

// pick returns the best specific food candidate above the score floor, or
// the derived guess when only generic labels showed up.
func (d *LabelDetector) pick(annotations []labelAnnotation, image []byte) *entities.RecognitionResult {
	var best *entities.RecognitionResult

	for _, a := range annotations {
		label := strings.ToLower(strings.TrimSpace(a.Description))
		if a.Score < labelScoreFloor || !isFoodLabel(label) || genericLabels[label] {
			continue
		}

		if best == nil || a.Score > best.Score {
			best = &entities.RecognitionResult{Label: label, Score: a.Score}
		}
	}

	if best != nil {
		return best
	}

	return d.derivedGuess(annotations, image)
}

// derivedGuess is a heuristic placeholder, not inference: it exists so the
// user never gets a bare "unknown" from this backend. The dish comes from a
// short list keyed off auxiliary labels, tie-broken by the image byte
// length.
func (d *LabelDetector) derivedGuess(annotations []labelAnnotation, image []byte) *entities.RecognitionResult {
	guesses := defaultGuesses

	for _, a := range annotations {
		label := strings.ToLower(strings.TrimSpace(a.Description))
		if dishes, ok := auxDishes[label]; ok {
			guesses = dishes

			break
		}
	}

	label := guesses[len(image)%len(guesses)]
	d.logger.Warn().Str("label", label).Msg("no specific food label, returning derived guess")

	return &entities.RecognitionResult{Label: label, Score: 0.3}
}

func isFoodLabel(label string) bool {
	for _, kw := range foodKeywords {
		if strings.Contains(label, kw) {
			return true
		}
	}

	return false
}
