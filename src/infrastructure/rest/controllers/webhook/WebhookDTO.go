package webhook

import "encoding/json"

type VerifyRequest struct {
	Mode      string `form:"hub.mode"`
	Token     string `form:"hub.verify_token"`
	Challenge string `form:"hub.challenge"`
}

// Payload mirrors the provider webhook envelope: entry[].changes[].value.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue keeps every item raw so one malformed status or message cannot drop the
// rest of the delivery.
type ChangeValue struct {
	Statuses []json.RawMessage `json:"statuses"`
	Messages []json.RawMessage `json:"messages"`
	Errors   []json.RawMessage `json:"errors"`
}
