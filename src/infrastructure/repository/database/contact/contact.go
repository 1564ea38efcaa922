package contact

import (
	"context"
	"time"

	domainCampaign "go-campaign-dispatcher/src/domain/campaign"
	domainErrors "go-campaign-dispatcher/src/domain/errors"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Contact struct {
	ID              int        `gorm:"primaryKey"`
	Phone           string     `gorm:"column:phone;type:varchar(32);uniqueIndex;not null"`
	OptIn           bool       `gorm:"column:opt_in;not null"`
	Tags            string     `gorm:"column:tags;type:varchar(255)"`
	CountryCode     string     `gorm:"column:country_code;type:varchar(8);index"`
	FirstName       string     `gorm:"column:first_name;type:varchar(100)"`
	LastName        string     `gorm:"column:last_name;type:varchar(100)"`
	LastContactedAt *time.Time `gorm:"column:last_contacted_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (Contact) TableName() string {
	return "contacts"
}

type ContactRepositoryInterface interface {
	// ListOptedIn returns opted-in contacts in insertion order. The limit is applied
	// in the query only when no tag filter is pending.
	ListOptedIn(ctx context.Context, tag string, limit int) ([]domainCampaign.Contact, error)
	// OptOut clears the opt-in flag and reports whether it was set before.
	OptOut(ctx context.Context, phone string) (bool, error)
}

type ContactRepository struct {
	DB     *gorm.DB
	Logger *logger.Logger
}

func NewContactRepository(db *gorm.DB, loggerInstance *logger.Logger) ContactRepositoryInterface {
	return &ContactRepository{DB: db, Logger: loggerInstance}
}

func (r *ContactRepository) ListOptedIn(ctx context.Context, tag string, limit int) ([]domainCampaign.Contact, error) {
	var contacts []Contact
	query := r.DB.WithContext(ctx).Where("opt_in = ?", true).Order("id ASC")
	if tag == "" && limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&contacts).Error; err != nil {
		r.Logger.Error("Error listing opted-in contacts", zap.Error(err))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	r.Logger.Info("Successfully retrieved opted-in contacts", zap.Int("count", len(contacts)), zap.String("tag", tag))
	out := make([]domainCampaign.Contact, len(contacts))
	for i := range contacts {
		out[i] = contacts[i].toDomainMapper()
	}
	return out, nil
}

func (r *ContactRepository) OptOut(ctx context.Context, phone string) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&Contact{}).
		Where("phone = ? AND opt_in = ?", phone, true).
		Update("opt_in", false)
	if result.Error != nil {
		r.Logger.Error("Error opting out contact", zap.Error(result.Error), zap.String("phone", phone))
		return false, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return result.RowsAffected > 0, nil
}

func (c *Contact) toDomainMapper() domainCampaign.Contact {
	return domainCampaign.Contact{
		Phone:   c.Phone,
		OptedIn: c.OptIn,
		Tags:    c.Tags,
	}
}
