package entities

// EventKind is the platform message kind. Only text and image are handled;
// anything else passes through the dispatcher untouched.
type EventKind string

const (
	EventText  EventKind = "text"
	EventImage EventKind = "image"
	EventOther EventKind = "other"
)

// InboundEvent is one message notification from the platform webhook.
// Created per batch, consumed once, never persisted.
type InboundEvent struct {
	Kind       EventKind
	SenderID   string // conversation identifier, push target
	ReplyToken string // valid for exactly one synchronous reply
	MessageID  string // used to fetch image content
	Text       string // payload for text events
}

// RecognitionResult is what a recognition backend says about an image.
type RecognitionResult struct {
	Label string  // free-text, lowercase not guaranteed
	Score float64 // confidence in [0,1]
}

// CalorieEstimate is the estimator output. Always produced, never absent.
type CalorieEstimate struct {
	FoodName          string // canonical name billed against the table, or the raw label
	EstimatedCalories int    // kcal, positive
	Unit              string // always "kcal"
}
