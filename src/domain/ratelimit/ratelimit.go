package ratelimit

import "time"

// WildcardCountry is the catch-all policy key and the partition for numbers without a calling code.
const WildcardCountry = "*"

// Policy bounds dispatch to one destination country.
type Policy struct {
	ID             int
	CountryCode    string
	CountryName    string
	MaxPerSecond   int
	MaxConcurrency int
	Enabled        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Limits is the resolved pair a dispatch queue is built with.
type Limits struct {
	MaxPerSecond   int
	MaxConcurrency int
}

func (p Policy) Limits() Limits {
	return Limits{MaxPerSecond: p.MaxPerSecond, MaxConcurrency: p.MaxConcurrency}
}
