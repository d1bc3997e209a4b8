package infrastructure

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"calobot/internal/entities"
)

const visionPrompt = `Identify the single main dish in this photo. ` +
	`Answer with JSON only: {"label":"<english food name>","score":<confidence between 0 and 1>}. ` +
	`If there is no food in the photo, answer {"label":"","score":0}.`

// OpenAIRecognizer classifies the image with a vision-capable chat model.
type OpenAIRecognizer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zerolog.Logger
}

func NewOpenAIRecognizer(apiKey, model string, timeout time.Duration, logger *zerolog.Logger) *OpenAIRecognizer {
	return &OpenAIRecognizer{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func (r *OpenAIRecognizer) Name() string { return "openai" }

func (r *OpenAIRecognizer) Recognize(ctx context.Context, image []byte) (*entities.RecognitionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.model,
		MaxTokens: 100,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: visionPrompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    imageURL,
					Detail: openai.ImageURLDetailLow,
				}},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("openai vision: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai vision: empty response")
	}

	return parseVisionAnswer(resp.Choices[0].Message.Content)
}

// parseVisionAnswer digs the JSON object out of the model answer, tolerating
// code fences and surrounding prose.
func parseVisionAnswer(content string) (*entities.RecognitionResult, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("openai vision: no JSON in answer %q", content)
	}

	var answer struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &answer); err != nil {
		return nil, fmt.Errorf("openai vision: malformed answer: %w", err)
	}

	label := strings.ToLower(strings.TrimSpace(answer.Label))
	if label == "" {
		return nil, nil
	}

	if answer.Score < 0 {
		answer.Score = 0
	}
	if answer.Score > 1 {
		answer.Score = 1
	}

	return &entities.RecognitionResult{Label: label, Score: answer.Score}, nil
}
