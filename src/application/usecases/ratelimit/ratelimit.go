package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainErrors "go-campaign-dispatcher/src/domain/errors"
	domainRateLimit "go-campaign-dispatcher/src/domain/ratelimit"
	"go-campaign-dispatcher/src/infrastructure/helper"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/messaging"
	countryLimitRepo "go-campaign-dispatcher/src/infrastructure/repository/database/countrylimit"

	"go.uber.org/zap"
)

const (
	DefaultMaxPerSecond   = 50
	DefaultMaxConcurrency = 10
	MaxPerSecondCeiling   = 200
	MaxConcurrencyCeiling = 50
)

type IRateLimitUseCase interface {
	GetAll(ctx context.Context) ([]domainRateLimit.Policy, error)
	GetByCountryCode(ctx context.Context, countryCode string) (*domainRateLimit.Policy, error)
	Create(ctx context.Context, policy *domainRateLimit.Policy) (*domainRateLimit.Policy, error)
	Update(ctx context.Context, countryCode string, fields map[string]interface{}) (*domainRateLimit.Policy, error)
	Delete(ctx context.Context, countryCode string) error
	RefreshQueue(ctx context.Context, countryCode string) error
	Queues() []messaging.QueueStats
}

// QueueRefresher is the part of the queue registry the admin surface needs.
type QueueRefresher interface {
	Refresh(ctx context.Context, countryCode string) error
	Snapshot() []messaging.QueueStats
}

type RateLimitUseCase struct {
	countryLimitRepository countryLimitRepo.CountryLimitRepositoryInterface
	queues                 QueueRefresher
	Logger                 *logger.Logger
}

func NewRateLimitUseCase(
	countryLimitRepository countryLimitRepo.CountryLimitRepositoryInterface,
	queues QueueRefresher,
	loggerInstance *logger.Logger,
) IRateLimitUseCase {
	return &RateLimitUseCase{
		countryLimitRepository: countryLimitRepository,
		queues:                 queues,
		Logger:                 loggerInstance,
	}
}

func (u *RateLimitUseCase) GetAll(ctx context.Context) ([]domainRateLimit.Policy, error) {
	return u.countryLimitRepository.GetAll(ctx)
}

func (u *RateLimitUseCase) GetByCountryCode(ctx context.Context, countryCode string) (*domainRateLimit.Policy, error) {
	return u.countryLimitRepository.GetByCountryCode(ctx, countryCode)
}

// Create stores a new policy, filling zero limits with the defaults and a missing name with the code.
func (u *RateLimitUseCase) Create(ctx context.Context, policy *domainRateLimit.Policy) (*domainRateLimit.Policy, error) {
	policy.CountryCode = strings.TrimSpace(policy.CountryCode)
	if !helper.IsCountryCode(policy.CountryCode) {
		return nil, validationError("countryCode must look like +55 or be *")
	}
	if strings.TrimSpace(policy.CountryName) == "" {
		policy.CountryName = policy.CountryCode
	}
	if policy.MaxPerSecond == 0 {
		policy.MaxPerSecond = DefaultMaxPerSecond
	}
	if policy.MaxConcurrency == 0 {
		policy.MaxConcurrency = DefaultMaxConcurrency
	}
	if err := validateLimits(policy.MaxPerSecond, policy.MaxConcurrency); err != nil {
		return nil, err
	}
	u.Logger.Info("Creating country limit", zap.String("countryCode", policy.CountryCode))
	return u.countryLimitRepository.Create(ctx, policy)
}

// Update changes stored values only. Running queues keep their limits until RefreshQueue.
func (u *RateLimitUseCase) Update(ctx context.Context, countryCode string, fields map[string]interface{}) (*domainRateLimit.Policy, error) {
	if len(fields) == 0 {
		return nil, validationError("no fields to update")
	}
	if v, ok := fields["maxPerSecond"]; ok {
		n, err := asInt(v)
		if err != nil || n < 1 || n > MaxPerSecondCeiling {
			return nil, validationError(fmt.Sprintf("maxPerSecond must be between 1 and %d", MaxPerSecondCeiling))
		}
		fields["maxPerSecond"] = n
	}
	if v, ok := fields["maxConcurrency"]; ok {
		n, err := asInt(v)
		if err != nil || n < 1 || n > MaxConcurrencyCeiling {
			return nil, validationError(fmt.Sprintf("maxConcurrency must be between 1 and %d", MaxConcurrencyCeiling))
		}
		fields["maxConcurrency"] = n
	}
	u.Logger.Info("Updating country limit", zap.String("countryCode", countryCode))
	return u.countryLimitRepository.Update(ctx, countryCode, fields)
}

func (u *RateLimitUseCase) Delete(ctx context.Context, countryCode string) error {
	u.Logger.Info("Deleting country limit", zap.String("countryCode", countryCode))
	return u.countryLimitRepository.Delete(ctx, countryCode)
}

// RefreshQueue applies the stored policy to an idle queue.
func (u *RateLimitUseCase) RefreshQueue(ctx context.Context, countryCode string) error {
	if err := u.queues.Refresh(ctx, countryCode); err != nil {
		if errors.Is(err, messaging.ErrQueueBusy) {
			return domainErrors.NewAppError(err, domainErrors.Conflict)
		}
		return err
	}
	return nil
}

func (u *RateLimitUseCase) Queues() []messaging.QueueStats {
	return u.queues.Snapshot()
}

func validateLimits(maxPerSecond, maxConcurrency int) error {
	if maxPerSecond < 1 || maxPerSecond > MaxPerSecondCeiling {
		return validationError(fmt.Sprintf("maxPerSecond must be between 1 and %d", MaxPerSecondCeiling))
	}
	if maxConcurrency < 1 || maxConcurrency > MaxConcurrencyCeiling {
		return validationError(fmt.Sprintf("maxConcurrency must be between 1 and %d", MaxConcurrencyCeiling))
	}
	return nil
}

func validationError(msg string) error {
	return domainErrors.NewAppError(errors.New(msg), domainErrors.ValidationError)
}

// asInt accepts the numeric shapes a decoded JSON body can carry.
func asInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}
