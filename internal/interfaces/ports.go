package interfaces

import (
	"context"

	"calobot/internal/entities"
)

// Recognizer classifies an image into a food label. A nil result with a nil
// error means the backend explicitly found nothing usable; a non-nil error
// means the call itself failed (transport, timeout, malformed response).
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (*entities.RecognitionResult, error)
	Name() string
}

// Messenger delivers text back to the messaging platform.
type Messenger interface {
	Reply(ctx context.Context, replyToken, text string) error
	Push(ctx context.Context, to, text string) error
}

// ContentFetcher downloads message attachments from the platform content API.
type ContentFetcher interface {
	FetchContent(ctx context.Context, messageID string) ([]byte, error)
}
