package message

import (
	"context"
	"encoding/json"
	"fmt"
)

// OutboundMessage is one templated message to a single destination.
type OutboundMessage struct {
	Phone        string
	BodyText     string
	TemplateName string
	LanguageCode string
	Components   json.RawMessage
}

// Transport performs exactly one remote send and returns the provider message id.
type Transport interface {
	SendTemplate(ctx context.Context, msg OutboundMessage) (string, error)
}

// TransportError is a network level failure, including timeouts.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProviderRejection is a non-success response from the provider.
type ProviderRejection struct {
	StatusCode int
	Code       int
	Detail     string
}

func (e *ProviderRejection) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("provider rejected message: status %d code %d: %s", e.StatusCode, e.Code, e.Detail)
	}
	return fmt.Sprintf("provider rejected message: status %d: %s", e.StatusCode, e.Detail)
}
