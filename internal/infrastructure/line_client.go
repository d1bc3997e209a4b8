package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	// ErrReplyTokenUsed is returned on the second use of a reply token. The
	// platform enforces this server-side too; the local guard keeps a
	// double reply from ever leaving the process.
	ErrReplyTokenUsed = errors.New("reply token already used")

	// ErrNotConfigured means no channel access token is present; delivery
	// degrades to this error instead of the process refusing to start.
	ErrNotConfigured = errors.New("messaging credentials not configured")
)

const maxContentBytes = 10 << 20

// LineClient talks to the messaging platform's REST API: synchronous
// replies, push messages and attachment download. Pushes are rate limited
// per conversation.
type LineClient struct {
	accessToken string
	apiBase     string
	contentBase string

	httpClient    *http.Client
	contentClient *http.Client
	logger        *zerolog.Logger

	usedTokens sync.Map // replyToken -> struct{}

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	pushRPS  rate.Limit
	burst    int
}

func NewLineClient(accessToken, apiBase, contentBase string, messagingTimeout, contentTimeout time.Duration, pushRPS float64, burst int, logger *zerolog.Logger) *LineClient {
	return &LineClient{
		accessToken:   accessToken,
		apiBase:       apiBase,
		contentBase:   contentBase,
		httpClient:    &http.Client{Timeout: messagingTimeout},
		contentClient: &http.Client{Timeout: contentTimeout},
		logger:        logger,
		limiters:      make(map[string]*rate.Limiter),
		pushRPS:       rate.Limit(pushRPS),
		burst:         burst,
	}
}

// Reply sends the one synchronous reply a token allows.
func (c *LineClient) Reply(ctx context.Context, replyToken, text string) error {
	if c.accessToken == "" {
		return ErrNotConfigured
	}

	if _, loaded := c.usedTokens.LoadOrStore(replyToken, struct{}{}); loaded {
		return ErrReplyTokenUsed
	}

	payload := map[string]interface{}{
		"replyToken": replyToken,
		"messages":   []map[string]string{{"type": "text", "text": text}},
	}

	return c.post(ctx, c.apiBase+"/v2/bot/message/reply", payload)
}

// Push sends a message to a conversation id. No token, no expiry, any
// number of times.
func (c *LineClient) Push(ctx context.Context, to, text string) error {
	if c.accessToken == "" {
		return ErrNotConfigured
	}

	if err := c.limiter(to).Wait(ctx); err != nil {
		return fmt.Errorf("push rate limit: %w", err)
	}

	payload := map[string]interface{}{
		"to":       to,
		"messages": []map[string]string{{"type": "text", "text": text}},
	}

	return c.post(ctx, c.apiBase+"/v2/bot/message/push", payload)
}

// FetchContent downloads raw attachment bytes for a message id.
func (c *LineClient) FetchContent(ctx context.Context, messageID string) ([]byte, error) {
	if c.accessToken == "" {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/v2/bot/message/%s/content", c.contentBase, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.contentClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch content: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch content: read body: %w", err)
	}

	return data, nil
}

func (c *LineClient) post(ctx context.Context, url string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messaging api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug().Int("status", resp.StatusCode).Bytes("body", body).Str("url", url).Msg("messaging api rejected request")

		return fmt.Errorf("messaging api: unexpected status %d", resp.StatusCode)
	}

	return nil
}

func (c *LineClient) limiter(to string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.limiters[to]
	if !ok {
		l = rate.NewLimiter(c.pushRPS, c.burst)
		c.limiters[to] = l
	}

	return l
}
