package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"calobot/internal/entities"
	"calobot/internal/interfaces"
	"calobot/internal/observability"
)

// User-facing templates. Tests pin these, change with care.
const (
	MsgEchoPrefix     = "收到你的訊息："
	MsgImageAck       = "收到圖片了，正在幫你分析食物熱量，請稍等 🔍"
	MsgUnrecognized   = "看不太出來這是什麼食物 😅 換個角度再拍一張試試？"
	MsgAnalysisFailed = "分析的時候出了點問題，請稍後再試一次 🙏"
)

// pipelineTimeout bounds one background download-recognize-push run.
const pipelineTimeout = 60 * time.Second

// TaskQueue serializes background work per sender.
type TaskQueue interface {
	Submit(senderID string, task func())
}

// Dispatcher turns inbound platform events into replies and pushes.
//
// Delivery policy for images is acknowledge-then-push: the single-use reply
// token is spent on an immediate acknowledgment, and the recognition
// pipeline runs detached, delivering over the push channel. The webhook
// response never waits on the pipeline.
type Dispatcher struct {
	messenger  interfaces.Messenger
	content    interfaces.ContentFetcher
	recognizer interfaces.Recognizer
	queue      TaskQueue
	logger     *zerolog.Logger

	wg sync.WaitGroup
}

func NewDispatcher(messenger interfaces.Messenger, content interfaces.ContentFetcher, recognizer interfaces.Recognizer, queue TaskQueue, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		messenger:  messenger,
		content:    content,
		recognizer: recognizer,
		queue:      queue,
		logger:     logger,
	}
}

// HandleEvents processes a webhook batch. Events are independent: one
// event's failure never aborts its siblings, and nothing here is fatal.
func (d *Dispatcher) HandleEvents(ctx context.Context, events []entities.InboundEvent) {
	for _, ev := range events {
		observability.EventsReceived.WithLabelValues(string(ev.Kind)).Inc()

		switch ev.Kind {
		case entities.EventText:
			d.processText(ctx, ev)
		case entities.EventImage:
			d.processImage(ctx, ev)
		default:
			d.logger.Debug().Str("kind", string(ev.Kind)).Msg("ignoring unhandled event kind")
		}
	}
}

// Wait blocks until all detached pipeline tasks have finished. Used by
// tests and graceful shutdown, never by the webhook path.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) processText(ctx context.Context, ev entities.InboundEvent) {
	if err := d.messenger.Reply(ctx, ev.ReplyToken, MsgEchoPrefix+ev.Text); err != nil {
		observability.Deliveries.WithLabelValues("reply", "error").Inc()
		d.logger.Warn().Err(err).Str("sender", ev.SenderID).Msg("echo reply failed")

		return
	}

	observability.Deliveries.WithLabelValues("reply", "ok").Inc()
}

func (d *Dispatcher) processImage(ctx context.Context, ev entities.InboundEvent) {
	// The acknowledgment consumes the reply token. A failure here (expired
	// or already-used token) does not stop the pipeline: the push channel
	// does not depend on the token.
	if err := d.messenger.Reply(ctx, ev.ReplyToken, MsgImageAck); err != nil {
		observability.Deliveries.WithLabelValues("reply", "error").Inc()
		d.logger.Warn().Err(err).Str("sender", ev.SenderID).Msg("image acknowledgment failed")
	} else {
		observability.Deliveries.WithLabelValues("reply", "ok").Inc()
	}

	if ev.SenderID == "" {
		// No delivery target exists, nothing more to do.
		d.logger.Warn().Str("message_id", ev.MessageID).Msg("image event without sender id, dropping")

		return
	}

	d.wg.Add(1)
	d.queue.Submit(ev.SenderID, func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().Interface("panic", r).Str("sender", ev.SenderID).Msg("image pipeline panicked")
			}
		}()

		d.runPipeline(ev)
	})
}

// runPipeline is the detached half of an image event: download, recognize,
// estimate, push. Every failure ends here, reported to the user when a
// conversation id is known.
func (d *Dispatcher) runPipeline(ev entities.InboundEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	start := time.Now()

	image, err := d.content.FetchContent(ctx, ev.MessageID)
	if err != nil {
		d.logger.Error().Err(err).Str("message_id", ev.MessageID).Msg("image download failed")
		observability.RecognitionResults.WithLabelValues(d.recognizer.Name(), "download_error").Inc()
		d.push(ctx, ev.SenderID, MsgAnalysisFailed)

		return
	}

	text, err := d.AnalyzeImage(ctx, image)
	if err != nil {
		d.logger.Error().Err(err).Str("sender", ev.SenderID).Msg("recognition failed")
		d.push(ctx, ev.SenderID, MsgAnalysisFailed)

		return
	}

	observability.RecognitionDuration.WithLabelValues(d.recognizer.Name()).Observe(time.Since(start).Seconds())
	d.push(ctx, ev.SenderID, text)
}

// AnalyzeImage runs recognize → estimate and formats the user-facing
// message. A nil error with the unrecognized message means the backend
// explicitly found nothing food-like; a non-nil error means the backend
// call itself failed. Shared by the webhook pipeline and the Telegram
// channel.
func (d *Dispatcher) AnalyzeImage(ctx context.Context, image []byte) (string, error) {
	result, err := d.recognizer.Recognize(ctx, image)
	if err != nil {
		observability.RecognitionResults.WithLabelValues(d.recognizer.Name(), "error").Inc()

		return "", err
	}

	if result == nil {
		observability.RecognitionResults.WithLabelValues(d.recognizer.Name(), "unrecognized").Inc()

		return MsgUnrecognized, nil
	}

	observability.RecognitionResults.WithLabelValues(d.recognizer.Name(), "ok").Inc()

	return FormatEstimate(Estimate(result.Label), result.Score), nil
}

// FormatEstimate renders the final result message: food name, kcal figure
// and the confidence as a one-decimal percentage.
func FormatEstimate(est entities.CalorieEstimate, score float64) string {
	return fmt.Sprintf("這看起來是「%s」！\n估計熱量約 %d %s（信心度 %.1f%%）",
		est.FoodName, est.EstimatedCalories, est.Unit, score*100)
}

func (d *Dispatcher) push(ctx context.Context, to, text string) {
	if err := d.messenger.Push(ctx, to, text); err != nil {
		// Best effort, no retry.
		observability.Deliveries.WithLabelValues("push", "error").Inc()
		d.logger.Error().Err(err).Str("sender", to).Msg("push delivery failed")

		return
	}

	observability.Deliveries.WithLabelValues("push", "ok").Inc()
}
