package whatsapp_client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go-campaign-dispatcher/src/domain/message"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

const bodyComponentTemplate = `{"type":"body","parameters":[{"type":"text","text":""}]}`

type Config struct {
	BaseURL       string
	PhoneNumberID string
	Token         string
}

// Client calls the WhatsApp Cloud API messages endpoint. One call per SendTemplate,
// retries are left to the caller.
type Client struct {
	config     Config
	httpClient *http.Client
	Logger     *logger.Logger
}

func NewWhatsAppClient(config Config, httpClient *http.Client, loggerInstance *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{config: config, httpClient: httpClient, Logger: loggerInstance}
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/messages", c.config.BaseURL, c.config.PhoneNumberID)
}

func (c *Client) SendTemplate(ctx context.Context, msg message.OutboundMessage) (string, error) {
	payload, err := c.BuildTemplatePayload(msg)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(), bytes.NewReader(payload))
	if err != nil {
		return "", &message.TransportError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &message.TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &message.TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rejection := &message.ProviderRejection{
			StatusCode: resp.StatusCode,
			Code:       int(gjson.GetBytes(body, "error.code").Int()),
			Detail:     gjson.GetBytes(body, "error.message").String(),
		}
		if rejection.Detail == "" {
			rejection.Detail = string(body)
		}
		c.Logger.Warn("WhatsApp API rejected message",
			zap.String("to", msg.Phone),
			zap.Int("status", resp.StatusCode),
			zap.Int("code", rejection.Code),
			zap.String("detail", rejection.Detail))
		return "", rejection
	}

	messageID := gjson.GetBytes(body, "messages.0.id").String()
	if messageID == "" {
		c.Logger.Warn("WhatsApp API response carried no message id", zap.String("to", msg.Phone), zap.ByteString("body", body))
	}
	return messageID, nil
}

// BuildTemplatePayload renders the template message body. Custom components must be a
// JSON array; anything else falls back to a single body parameter carrying BodyText.
func (c *Client) BuildTemplatePayload(msg message.OutboundMessage) ([]byte, error) {
	payload := []byte(`{"messaging_product":"whatsapp","type":"template"}`)
	var err error
	if payload, err = sjson.SetBytes(payload, "to", msg.Phone); err != nil {
		return nil, err
	}
	if payload, err = sjson.SetBytes(payload, "template.name", msg.TemplateName); err != nil {
		return nil, err
	}
	if payload, err = sjson.SetBytes(payload, "template.language.code", msg.LanguageCode); err != nil {
		return nil, err
	}

	components := []byte(msg.Components)
	if len(components) > 0 && !(gjson.ValidBytes(components) && gjson.ParseBytes(components).IsArray()) {
		c.Logger.Warn("Ignoring template components that are not a JSON array", zap.String("to", msg.Phone))
		components = nil
	}
	if len(components) == 0 {
		body, err := sjson.SetBytes([]byte(bodyComponentTemplate), "parameters.0.text", msg.BodyText)
		if err != nil {
			return nil, err
		}
		components = append(append([]byte("["), body...), ']')
	}
	return sjson.SetRawBytes(payload, "template.components", components)
}
