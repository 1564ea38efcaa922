package webhook

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	webhookUseCase "go-campaign-dispatcher/src/application/usecases/webhook"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type IWebhookController interface {
	Verify(ctx *gin.Context)
	Receive(ctx *gin.Context)
}

type WebhookController struct {
	webhookUseCase webhookUseCase.IWebhookUseCase
	Logger         *logger.Logger
}

func NewWebhookController(webhookUseCase webhookUseCase.IWebhookUseCase, loggerInstance *logger.Logger) IWebhookController {
	return &WebhookController{
		webhookUseCase: webhookUseCase,
		Logger:         loggerInstance,
	}
}

// Verify answers the subscription handshake with the raw challenge.
func (c *WebhookController) Verify(ctx *gin.Context) {
	var request VerifyRequest
	if err := ctx.ShouldBindQuery(&request); err != nil {
		ctx.Status(http.StatusForbidden)
		return
	}
	challenge, err := c.webhookUseCase.Verify(request.Mode, request.Token, request.Challenge)
	if err != nil {
		ctx.Status(http.StatusForbidden)
		return
	}
	ctx.String(http.StatusOK, challenge)
}

// Receive always acknowledges with 200 so the provider does not redeliver.
func (c *WebhookController) Receive(ctx *gin.Context) {
	var payload Payload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		c.Logger.Warn("Couldn't decode webhook payload", zap.Error(err))
		ctx.Status(http.StatusOK)
		return
	}
	c.webhookUseCase.HandleEvent(ctx.Request.Context(), c.payloadToEvent(&payload))
	ctx.Status(http.StatusOK)
}

func (c *WebhookController) payloadToEvent(payload *Payload) *webhookUseCase.WebhookEvent {
	event := &webhookUseCase.WebhookEvent{}
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, raw := range change.Value.Statuses {
				item, ok := objectItem(raw)
				if !ok {
					c.Logger.Warn("Skipping malformed status item", zap.ByteString("item", raw))
					continue
				}
				update := webhookUseCase.StatusUpdate{
					MessageID:   item.Get("id").String(),
					RecipientID: item.Get("recipient_id").String(),
					Status:      item.Get("status").String(),
					Timestamp:   unixTime(item.Get("timestamp")),
				}
				if first := item.Get("errors.0"); first.IsObject() {
					update.ErrorDetail = errorDetail(first)
				}
				event.Statuses = append(event.Statuses, update)
			}
			for _, raw := range change.Value.Messages {
				item, ok := objectItem(raw)
				if !ok {
					c.Logger.Warn("Skipping malformed message item", zap.ByteString("item", raw))
					continue
				}
				event.Messages = append(event.Messages, webhookUseCase.InboundMessage{
					ID:        item.Get("id").String(),
					From:      item.Get("from").String(),
					Text:      item.Get("text.body").String(),
					Timestamp: unixTime(item.Get("timestamp")),
				})
			}
			for _, raw := range change.Value.Errors {
				item, _ := objectItem(raw)
				event.Errors = append(event.Errors, webhookUseCase.ProviderError{
					Code:    int(item.Get("code").Int()),
					Title:   item.Get("title").String(),
					Message: item.Get("message").String(),
					Raw:     string(raw),
				})
			}
		}
	}
	return event
}

func objectItem(raw json.RawMessage) (gjson.Result, bool) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, false
	}
	item := gjson.ParseBytes(raw)
	return item, item.IsObject()
}

// unixTime reads provider timestamps in seconds, sent either as a string or a number;
// zero means unknown.
func unixTime(value gjson.Result) time.Time {
	n := value.Int()
	if n <= 0 {
		return time.Time{}
	}
	return time.Unix(n, 0)
}

func errorDetail(e gjson.Result) string {
	msg := e.Get("title").String()
	if msg == "" {
		msg = e.Get("message").String()
	}
	code := e.Get("code").Int()
	if code == 0 {
		return msg
	}
	return strconv.FormatInt(code, 10) + ": " + msg
}
