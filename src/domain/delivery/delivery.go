package delivery

import "time"

type Status string

const (
	StatusDryRun    Status = "dry_run"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
	StatusReceived  Status = "received"
)

// ParseWebhookStatus accepts the statuses the provider reports for outbound messages.
func ParseWebhookStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusSent, StatusDelivered, StatusRead, StatusFailed:
		return Status(s), true
	}
	return "", false
}

// Event is the latest known state of one message.
type Event struct {
	ID           int
	CampaignID   *string
	Phone        string
	MessageID    *string
	Status       Status
	ErrorMessage *string
	Timestamp    time.Time
}
