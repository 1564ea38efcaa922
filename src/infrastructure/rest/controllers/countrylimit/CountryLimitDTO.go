package countrylimit

import (
	"time"

	"go-campaign-dispatcher/src/domain/ratelimit"
)

type NewCountryLimitRequest struct {
	CountryCode    string `json:"countryCode" binding:"required,country_code"`
	CountryName    string `json:"countryName" binding:"max=100"`
	MaxPerSecond   int    `json:"maxPerSecond" binding:"omitempty,min=1,max=200"`
	MaxConcurrency int    `json:"maxConcurrency" binding:"omitempty,min=1,max=50"`
	Enabled        *bool  `json:"enabled"`
}

type UpdateCountryLimitRequest struct {
	CountryName    *string `json:"countryName" binding:"omitempty,max=100"`
	MaxPerSecond   *int    `json:"maxPerSecond" binding:"omitempty,min=1,max=200"`
	MaxConcurrency *int    `json:"maxConcurrency" binding:"omitempty,min=1,max=50"`
	Enabled        *bool   `json:"enabled"`
}

type CountryCodeRequest struct {
	Code string `uri:"code" binding:"required,country_code"`
}

type CountryLimitResponse struct {
	ID             int       `json:"id"`
	CountryCode    string    `json:"countryCode"`
	CountryName    string    `json:"countryName"`
	MaxPerSecond   int       `json:"maxPerSecond"`
	MaxConcurrency int       `json:"maxConcurrency"`
	Enabled        bool      `json:"enabled"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (r *UpdateCountryLimitRequest) toFields() map[string]interface{} {
	fields := make(map[string]interface{})
	if r.CountryName != nil {
		fields["countryName"] = *r.CountryName
	}
	if r.MaxPerSecond != nil {
		fields["maxPerSecond"] = *r.MaxPerSecond
	}
	if r.MaxConcurrency != nil {
		fields["maxConcurrency"] = *r.MaxConcurrency
	}
	if r.Enabled != nil {
		fields["enabled"] = *r.Enabled
	}
	return fields
}

func domainToResponseMapper(p *ratelimit.Policy) *CountryLimitResponse {
	return &CountryLimitResponse{
		ID:             p.ID,
		CountryCode:    p.CountryCode,
		CountryName:    p.CountryName,
		MaxPerSecond:   p.MaxPerSecond,
		MaxConcurrency: p.MaxConcurrency,
		Enabled:        p.Enabled,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
