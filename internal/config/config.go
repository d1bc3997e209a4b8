package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend names selectable via RECOGNIZER_BACKEND.
const (
	BackendOpenAI     = "openai"
	BackendLabels     = "labels"
	BackendClassifier = "classifier"
	BackendFallback   = "fallback"
	BackendFixture    = "fixture"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`
	Port   int    `env:"PORT" envDefault:"8080"`

	// Messaging platform credentials. The bot degrades to no-op delivery
	// when they are absent instead of refusing to start.
	ChannelSecret      string `env:"CHANNEL_SECRET"`
	ChannelAccessToken string `env:"CHANNEL_ACCESS_TOKEN"`
	MessagingAPIBase   string `env:"MESSAGING_API_BASE" envDefault:"https://api.line.me"`
	ContentAPIBase     string `env:"CONTENT_API_BASE" envDefault:"https://api-data.line.me"`

	// Recognition backends. Empty RecognizerBackend means auto-select from
	// whichever credential is present.
	RecognizerBackend  string        `env:"RECOGNIZER_BACKEND"`
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIModel        string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	VisionAPIKey       string        `env:"VISION_API_KEY"`
	VisionEndpoint     string        `env:"VISION_ENDPOINT" envDefault:"https://vision.googleapis.com/v1/images:annotate"`
	ClassifierURL      string        `env:"CLASSIFIER_URL"`
	ClassifierAPIKey   string        `env:"CLASSIFIER_API_KEY"`
	RecognitionTimeout time.Duration `env:"RECOGNITION_TIMEOUT" envDefault:"20s"`
	ContentTimeout     time.Duration `env:"CONTENT_TIMEOUT" envDefault:"15s"`
	MessagingTimeout   time.Duration `env:"MESSAGING_TIMEOUT" envDefault:"10s"`

	// TestMode forces the fixture recognizer so the pipeline is
	// deterministic end to end.
	TestMode bool `env:"TEST_MODE" envDefault:"false"`

	PushRPS   float64 `env:"PUSH_RPS" envDefault:"2"`
	PushBurst int     `env:"PUSH_BURST" envDefault:"5"`

	// Optional second channel.
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.RecognizerBackend {
	case "", BackendOpenAI, BackendLabels, BackendClassifier, BackendFallback, BackendFixture:
	default:
		return fmt.Errorf("unknown RECOGNIZER_BACKEND %q", c.RecognizerBackend)
	}

	if c.PushRPS <= 0 || c.PushBurst <= 0 {
		return fmt.Errorf("push rate limit must be positive (rps=%v burst=%d)", c.PushRPS, c.PushBurst)
	}

	return nil
}

// SelectBackend resolves which recognizer strategy to run, once at startup.
// Test mode always wins, an explicit override is honored as long as its
// credential is there, otherwise the first configured backend is picked.
func (c *Config) SelectBackend() string {
	if c.TestMode {
		return BackendFixture
	}

	if c.RecognizerBackend != "" {
		return c.RecognizerBackend
	}

	switch {
	case c.OpenAIAPIKey != "":
		return BackendOpenAI
	case c.VisionAPIKey != "":
		return BackendLabels
	case c.ClassifierURL != "":
		return BackendClassifier
	default:
		return BackendFallback
	}
}

// MessagingConfigured reports whether the platform credentials are present.
func (c *Config) MessagingConfigured() bool {
	return c.ChannelSecret != "" && c.ChannelAccessToken != ""
}
