package messaging

import (
	"context"

	domainErrors "go-campaign-dispatcher/src/domain/errors"
	"go-campaign-dispatcher/src/domain/ratelimit"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"go.uber.org/zap"
)

// PolicyReader is the read side of the country limit store.
type PolicyReader interface {
	GetByCountryCode(ctx context.Context, countryCode string) (*ratelimit.Policy, error)
}

// PolicyResolver turns a country code into the limits its queue is built with.
type PolicyResolver interface {
	Resolve(ctx context.Context, countryCode string) ratelimit.Limits
}

// RateLimitDirectory resolves limits as exact match, then wildcard, then static defaults.
type RateLimitDirectory struct {
	store    PolicyReader
	defaults ratelimit.Limits
	Logger   *logger.Logger
}

func NewRateLimitDirectory(store PolicyReader, defaults ratelimit.Limits, loggerInstance *logger.Logger) *RateLimitDirectory {
	return &RateLimitDirectory{store: store, defaults: defaults, Logger: loggerInstance}
}

func (d *RateLimitDirectory) Resolve(ctx context.Context, countryCode string) ratelimit.Limits {
	policy, err := d.lookup(ctx, countryCode)
	if err != nil {
		return d.fallback(countryCode, err)
	}
	if policy == nil && countryCode != ratelimit.WildcardCountry {
		policy, err = d.lookup(ctx, ratelimit.WildcardCountry)
		if err != nil {
			return d.fallback(countryCode, err)
		}
	}
	if policy == nil {
		d.Logger.Debug("No enabled country limit, using defaults", zap.String("countryCode", countryCode))
		return d.defaults
	}
	d.Logger.Info("Resolved country limit",
		zap.String("countryCode", countryCode),
		zap.String("policy", policy.CountryCode),
		zap.Int("maxPerSecond", policy.MaxPerSecond),
		zap.Int("maxConcurrency", policy.MaxConcurrency))
	return policy.Limits()
}

// lookup returns nil without error when no usable policy exists for the code.
func (d *RateLimitDirectory) lookup(ctx context.Context, countryCode string) (*ratelimit.Policy, error) {
	policy, err := d.store.GetByCountryCode(ctx, countryCode)
	if err != nil {
		if domainErrors.IsType(err, domainErrors.NotFound) {
			return nil, nil
		}
		return nil, err
	}
	if policy == nil || !policy.Enabled {
		return nil, nil
	}
	if policy.MaxPerSecond <= 0 || policy.MaxConcurrency <= 0 {
		d.Logger.Warn("Ignoring country limit with non-positive values", zap.String("countryCode", policy.CountryCode))
		return nil, nil
	}
	return policy, nil
}

func (d *RateLimitDirectory) fallback(countryCode string, err error) ratelimit.Limits {
	d.Logger.Warn("Failed to fetch country limits, using defaults",
		zap.String("countryCode", countryCode),
		zap.Int("maxPerSecond", d.defaults.MaxPerSecond),
		zap.Int("maxConcurrency", d.defaults.MaxConcurrency),
		zap.Error(err))
	return d.defaults
}
