package campaign

import (
	"encoding/json"
	"time"
)

type SendCampaignRequest struct {
	Limit      int             `json:"limit" binding:"omitempty,min=1,max=100000"`
	BodyText   string          `json:"bodyText"`
	Tag        string          `json:"tag"`
	DryRun     bool            `json:"dryRun"`
	Components json.RawMessage `json:"components"`
	TemplateID *int            `json:"templateId" binding:"omitempty,min=1"`
}

type ContactResultResponse struct {
	Phone     string `json:"to"`
	OK        bool   `json:"ok"`
	MessageID string `json:"id,omitempty"`
	Error     string `json:"error,omitempty"`
	DryRun    bool   `json:"dryRun,omitempty"`
}

type SendCampaignResponse struct {
	CampaignID string                  `json:"campaignId"`
	Total      int                     `json:"total"`
	Sent       int                     `json:"sent"`
	Failed     int                     `json:"failed"`
	Results    []ContactResultResponse `json:"results"`
}

type CampaignRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type CampaignResponse struct {
	ID         string    `json:"id"`
	TemplateID *int      `json:"templateId"`
	BodyText   string    `json:"bodyText"`
	Tag        *string   `json:"tag"`
	Total      int       `json:"total"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	DryRun     bool      `json:"dryRun"`
	CreatedAt  time.Time `json:"createdAt"`
}
