package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go-campaign-dispatcher/src/domain/delivery"
	domainErrors "go-campaign-dispatcher/src/domain/errors"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/metrics"
	campaignRepo "go-campaign-dispatcher/src/infrastructure/repository/database/campaign"
	contactRepo "go-campaign-dispatcher/src/infrastructure/repository/database/contact"

	"go.uber.org/zap"
)

const (
	subscribeMode   = "subscribe"
	optOutKeyword   = "STOP"
	inboundPrefix   = "Inbound: "
	inboundMaxRunes = 100
)

// StatusUpdate is one delivery status reported by the provider.
type StatusUpdate struct {
	MessageID   string
	RecipientID string
	Status      string
	Timestamp   time.Time
	ErrorDetail string
}

// InboundMessage is a text message sent by a contact.
type InboundMessage struct {
	ID        string
	From      string
	Text      string
	Timestamp time.Time
}

type ProviderError struct {
	Code    int
	Title   string
	Message string
	Raw     string
}

// WebhookEvent is the flattened content of one webhook delivery.
type WebhookEvent struct {
	Statuses []StatusUpdate
	Messages []InboundMessage
	Errors   []ProviderError
}

type IWebhookUseCase interface {
	Verify(mode, token, challenge string) (string, error)
	HandleEvent(ctx context.Context, event *WebhookEvent)
}

type WebhookUseCase struct {
	deliveryEventRepository campaignRepo.DeliveryEventRepositoryInterface
	contactRepository       contactRepo.ContactRepositoryInterface
	verifyToken             string
	metrics                 *metrics.Metrics
	Logger                  *logger.Logger
}

func NewWebhookUseCase(
	deliveryEventRepository campaignRepo.DeliveryEventRepositoryInterface,
	contactRepository contactRepo.ContactRepositoryInterface,
	verifyToken string,
	m *metrics.Metrics,
	loggerInstance *logger.Logger,
) IWebhookUseCase {
	return &WebhookUseCase{
		deliveryEventRepository: deliveryEventRepository,
		contactRepository:       contactRepository,
		verifyToken:             verifyToken,
		metrics:                 m,
		Logger:                  loggerInstance,
	}
}

// Verify answers the provider subscription handshake with the challenge.
func (u *WebhookUseCase) Verify(mode, token, challenge string) (string, error) {
	if mode != subscribeMode || u.verifyToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(u.verifyToken)) != 1 {
		u.Logger.Warn("Webhook verification failed", zap.String("mode", mode))
		return "", domainErrors.NewAppError(errors.New("webhook verification failed"), domainErrors.NotAuthorized)
	}
	u.Logger.Info("Webhook verified")
	return challenge, nil
}

// HandleEvent applies every status, inbound message and error in the event.
// Failures are logged per item so one bad entry never blocks the rest.
func (u *WebhookUseCase) HandleEvent(ctx context.Context, event *WebhookEvent) {
	if event == nil {
		return
	}
	for _, s := range event.Statuses {
		u.applyStatus(ctx, s)
	}
	for _, m := range event.Messages {
		u.handleInbound(ctx, m)
	}
	for _, e := range event.Errors {
		u.Logger.Error("Provider reported webhook error",
			zap.Int("code", e.Code),
			zap.String("title", firstNonEmpty(e.Title, e.Message)),
			zap.String("details", e.Raw))
	}
}

func (u *WebhookUseCase) applyStatus(ctx context.Context, s StatusUpdate) {
	if s.MessageID == "" || s.RecipientID == "" || s.Status == "" {
		u.Logger.Warn("Skipping incomplete status update", zap.String("messageID", s.MessageID))
		return
	}
	status, ok := delivery.ParseWebhookStatus(s.Status)
	if !ok {
		u.Logger.Warn("Skipping unknown status", zap.String("status", s.Status), zap.String("messageID", s.MessageID))
		u.metrics.ObserveStatusUpdate(s.Status, "ignored")
		return
	}

	messageID := s.MessageID
	ts := s.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	record := &delivery.Event{
		Phone:     normalizePhone(s.RecipientID),
		MessageID: &messageID,
		Status:    status,
		Timestamp: ts,
	}
	if s.ErrorDetail != "" {
		detail := s.ErrorDetail
		record.ErrorMessage = &detail
	}

	created, err := u.deliveryEventRepository.ApplyStatus(ctx, record)
	if err != nil {
		u.Logger.Error("Error applying status update", zap.Error(err), zap.String("messageID", messageID))
		u.metrics.ObserveStatusUpdate(string(status), "error")
		return
	}
	result := "updated"
	if created {
		result = "created"
	}
	u.metrics.ObserveStatusUpdate(string(status), result)
	u.Logger.Debug("Status update applied",
		zap.String("messageID", messageID),
		zap.String("status", string(status)),
		zap.String("result", result))
}

func (u *WebhookUseCase) handleInbound(ctx context.Context, m InboundMessage) {
	if m.From == "" {
		return
	}
	from := normalizePhone(m.From)
	text := strings.TrimSpace(m.Text)
	optOut := strings.ToUpper(text) == optOutKeyword

	if optOut {
		changed, err := u.contactRepository.OptOut(ctx, from)
		if err != nil {
			u.Logger.Error("Error opting out contact", zap.Error(err), zap.String("phone", from))
		} else {
			u.Logger.Info("Contact opted out", zap.String("phone", from), zap.Bool("changed", changed))
		}
	}
	u.metrics.ObserveInbound(optOut)

	note := inboundPrefix + truncateRunes(text, inboundMaxRunes)
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	record := &delivery.Event{
		Phone:        from,
		Status:       delivery.StatusReceived,
		ErrorMessage: &note,
		Timestamp:    ts,
	}
	if m.ID != "" {
		messageID := m.ID
		record.MessageID = &messageID
	}
	if err := u.deliveryEventRepository.Create(ctx, record); err != nil {
		u.Logger.Error("Error storing inbound message", zap.Error(err), zap.String("messageID", m.ID))
	}
}

func normalizePhone(p string) string {
	return "+" + strings.TrimLeft(strings.TrimSpace(p), "+")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
