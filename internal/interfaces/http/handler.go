package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"calobot/internal/config"
	"calobot/internal/entities"
	"calobot/internal/usecases"
)

type Handler struct {
	dispatcher *usecases.Dispatcher
	cfg        *config.Config
	backend    string
	logger     *zerolog.Logger
}

func NewHandler(dispatcher *usecases.Dispatcher, cfg *config.Config, backend string, logger *zerolog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		cfg:        cfg,
		backend:    backend,
		logger:     logger,
	}
}

func SetupRoutes(r *gin.Engine, h *Handler, middleware *Middleware) {
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(10 << 20)) // 10MB max request size

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.GET("/webhook", h.Health)
	r.POST("/webhook", middleware.VerifySignature(), h.HandleWebhook)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// webhookRequest mirrors the platform's webhook body: an ordered batch of
// event objects.
type webhookRequest struct {
	Destination string         `json:"destination"`
	Events      []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

// HandleWebhook accepts a verified event batch. The response is 200 as soon
// as every event had its synchronous step; per-event outcomes never change
// the status.
func (h *Handler) HandleWebhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events := make([]entities.InboundEvent, 0, len(req.Events))
	for _, ev := range req.Events {
		events = append(events, toInboundEvent(ev))
	}

	h.dispatcher.HandleEvents(c.Request.Context(), events)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Health reports operational readiness. Never triggers the pipeline.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"messaging_configured": h.cfg.MessagingConfigured(),
		"recognizer":           h.backend,
		"test_mode":            h.cfg.TestMode,
	})
}

func toInboundEvent(ev webhookEvent) entities.InboundEvent {
	kind := entities.EventOther
	if ev.Type == "message" {
		switch ev.Message.Type {
		case "text":
			kind = entities.EventText
		case "image":
			kind = entities.EventImage
		}
	}

	return entities.InboundEvent{
		Kind:       kind,
		SenderID:   ev.Source.UserID,
		ReplyToken: ev.ReplyToken,
		MessageID:  ev.Message.ID,
		Text:       ev.Message.Text,
	}
}
