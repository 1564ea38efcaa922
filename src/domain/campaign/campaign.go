package campaign

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	DefaultLimit    = 100
	MaxLimit        = 100000
	DefaultBodyText = "Hello from our team!"
)

// Campaign is one dispatch request. Counters are written once, after the batch completes.
type Campaign struct {
	ID         string
	TemplateID *int
	BodyText   string
	Tag        *string
	Total      int
	Sent       int
	Failed     int
	DryRun     bool
	CreatedAt  time.Time
}

// Contact is the single shape every contact source is normalized into before dispatch.
type Contact struct {
	Phone   string
	OptedIn bool
	Tags    string
}

// HasTag matches tag against the comma separated tag list of the contact.
func (c Contact) HasTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return true
	}
	for _, t := range strings.Split(c.Tags, ",") {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}

// TemplateRef names the provider template used for every message in a batch.
type TemplateRef struct {
	Name         string
	LanguageCode string
}

// Batch is the input of one campaign fan-out.
type Batch struct {
	CampaignID string
	Contacts   []Contact
	Limit      int
	BodyText   string
	DryRun     bool
	Template   TemplateRef
	Components json.RawMessage
	Tag        string
}

// ContactResult is the outcome for one contact of a batch.
type ContactResult struct {
	Phone     string
	OK        bool
	MessageID string
	Error     string
	DryRun    bool
}

// BatchResult is the aggregate outcome of a batch. Results follow the order of the eligible contacts.
type BatchResult struct {
	Total   int
	Sent    int
	Failed  int
	Results []ContactResult
}
