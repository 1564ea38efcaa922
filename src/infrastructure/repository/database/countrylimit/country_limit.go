package countrylimit

import (
	"context"
	"errors"
	"time"

	domainErrors "go-campaign-dispatcher/src/domain/errors"
	"go-campaign-dispatcher/src/domain/ratelimit"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CountryLimit struct {
	ID             int       `gorm:"primaryKey"`
	CountryCode    string    `gorm:"column:country_code;type:varchar(8);uniqueIndex;not null"`
	CountryName    string    `gorm:"column:country_name;type:varchar(100);not null"`
	MaxPerSecond   int       `gorm:"column:max_per_second;not null"`
	MaxConcurrency int       `gorm:"column:max_concurrency;not null"`
	Enabled        bool      `gorm:"column:enabled;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (CountryLimit) TableName() string {
	return "country_limits"
}

var ColumnsCountryLimitMapping = map[string]string{
	"id":             "id",
	"countryCode":    "country_code",
	"countryName":    "country_name",
	"maxPerSecond":   "max_per_second",
	"maxConcurrency": "max_concurrency",
	"enabled":        "enabled",
	"createdAt":      "created_at",
	"updatedAt":      "updated_at",
}

type CountryLimitRepositoryInterface interface {
	GetAll(ctx context.Context) ([]ratelimit.Policy, error)
	GetByCountryCode(ctx context.Context, countryCode string) (*ratelimit.Policy, error)
	Create(ctx context.Context, policy *ratelimit.Policy) (*ratelimit.Policy, error)
	Update(ctx context.Context, countryCode string, fields map[string]interface{}) (*ratelimit.Policy, error)
	Delete(ctx context.Context, countryCode string) error
	CreateIfMissing(ctx context.Context, policies []ratelimit.Policy) (int64, error)
}

type CountryLimitRepository struct {
	DB     *gorm.DB
	Logger *logger.Logger
}

func NewCountryLimitRepository(db *gorm.DB, loggerInstance *logger.Logger) CountryLimitRepositoryInterface {
	return &CountryLimitRepository{DB: db, Logger: loggerInstance}
}

func (r *CountryLimitRepository) GetAll(ctx context.Context) ([]ratelimit.Policy, error) {
	var limits []CountryLimit
	if err := r.DB.WithContext(ctx).Order("country_code ASC").Find(&limits).Error; err != nil {
		r.Logger.Error("Error getting all country limits", zap.Error(err))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.UnknownError)
	}
	out := make([]ratelimit.Policy, len(limits))
	for i := range limits {
		out[i] = *limits[i].toDomainMapper()
	}
	return out, nil
}

func (r *CountryLimitRepository) GetByCountryCode(ctx context.Context, countryCode string) (*ratelimit.Policy, error) {
	var limit CountryLimit
	err := r.DB.WithContext(ctx).Where("country_code = ?", countryCode).First(&limit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
		}
		r.Logger.Error("Error getting country limit", zap.Error(err), zap.String("countryCode", countryCode))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.UnknownError)
	}
	return limit.toDomainMapper(), nil
}

func (r *CountryLimitRepository) Create(ctx context.Context, policy *ratelimit.Policy) (*ratelimit.Policy, error) {
	model := countryLimitFromDomainMapper(policy)
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.Logger.Warn("Country limit already exists", zap.String("countryCode", policy.CountryCode))
			return nil, domainErrors.NewAppErrorWithType(domainErrors.ResourceAlreadyExists)
		}
		r.Logger.Error("Error creating country limit", zap.Error(err), zap.String("countryCode", policy.CountryCode))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	r.Logger.Info("Successfully created country limit", zap.String("countryCode", model.CountryCode))
	return model.toDomainMapper(), nil
}

func (r *CountryLimitRepository) Update(ctx context.Context, countryCode string, fields map[string]interface{}) (*ratelimit.Policy, error) {
	updateData := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if column, ok := ColumnsCountryLimitMapping[k]; ok {
			updateData[column] = v
		} else {
			updateData[k] = v
		}
	}
	delete(updateData, "id")
	delete(updateData, "country_code")

	result := r.DB.WithContext(ctx).Model(&CountryLimit{}).Where("country_code = ?", countryCode).Updates(updateData)
	if result.Error != nil {
		r.Logger.Error("Error updating country limit", zap.Error(result.Error), zap.String("countryCode", countryCode))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	if result.RowsAffected == 0 {
		return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}
	r.Logger.Info("Successfully updated country limit", zap.String("countryCode", countryCode))
	return r.GetByCountryCode(ctx, countryCode)
}

func (r *CountryLimitRepository) Delete(ctx context.Context, countryCode string) error {
	result := r.DB.WithContext(ctx).Where("country_code = ?", countryCode).Delete(&CountryLimit{})
	if result.Error != nil {
		r.Logger.Error("Error deleting country limit", zap.Error(result.Error), zap.String("countryCode", countryCode))
		return domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	if result.RowsAffected == 0 {
		return domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}
	r.Logger.Info("Successfully deleted country limit", zap.String("countryCode", countryCode))
	return nil
}

// CreateIfMissing inserts the policies whose country code is not stored yet.
func (r *CountryLimitRepository) CreateIfMissing(ctx context.Context, policies []ratelimit.Policy) (int64, error) {
	if len(policies) == 0 {
		return 0, nil
	}
	models := make([]CountryLimit, len(policies))
	for i := range policies {
		models[i] = *countryLimitFromDomainMapper(&policies[i])
	}
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "country_code"}},
		DoNothing: true,
	}).Create(&models)
	if result.Error != nil {
		r.Logger.Error("Error seeding country limits", zap.Error(result.Error))
		return 0, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return result.RowsAffected, nil
}

func (c *CountryLimit) toDomainMapper() *ratelimit.Policy {
	return &ratelimit.Policy{
		ID:             c.ID,
		CountryCode:    c.CountryCode,
		CountryName:    c.CountryName,
		MaxPerSecond:   c.MaxPerSecond,
		MaxConcurrency: c.MaxConcurrency,
		Enabled:        c.Enabled,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func countryLimitFromDomainMapper(p *ratelimit.Policy) *CountryLimit {
	return &CountryLimit{
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
