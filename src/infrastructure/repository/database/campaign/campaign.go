package campaign

import (
	"context"
	"time"

	domainCampaign "go-campaign-dispatcher/src/domain/campaign"
	domainErrors "go-campaign-dispatcher/src/domain/errors"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Campaign struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"`
	TemplateID *int      `gorm:"column:template_id;index"`
	BodyText   string    `gorm:"column:body_text;type:text"`
	Tag        *string   `gorm:"column:tag;type:varchar(255)"`
	Total      int       `gorm:"column:total;not null"`
	Sent       int       `gorm:"column:sent;not null"`
	Failed     int       `gorm:"column:failed;not null"`
	DryRun     bool      `gorm:"column:dry_run;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, campaignDomain *domainCampaign.Campaign) (*domainCampaign.Campaign, error)
	GetByID(ctx context.Context, id string) (*domainCampaign.Campaign, error)
	UpdateCounters(ctx context.Context, id string, total, sent, failed int) error
}

type CampaignRepository struct {
	DB     *gorm.DB
	Logger *logger.Logger
}

func NewCampaignRepository(db *gorm.DB, loggerInstance *logger.Logger) CampaignRepositoryInterface {
	return &CampaignRepository{DB: db, Logger: loggerInstance}
}

func (r *CampaignRepository) Create(ctx context.Context, campaignDomain *domainCampaign.Campaign) (*domainCampaign.Campaign, error) {
	campaignRepository := campaignFromDomainMapper(campaignDomain)
	if err := r.DB.WithContext(ctx).Create(campaignRepository).Error; err != nil {
		r.Logger.Error("Error creating campaign", zap.Error(err), zap.String("id", campaignDomain.ID))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	r.Logger.Info("Successfully created campaign", zap.String("id", campaignRepository.ID), zap.Int("total", campaignRepository.Total))
	return campaignRepository.toDomainMapper(), nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*domainCampaign.Campaign, error) {
	var campaign Campaign
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&campaign).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			r.Logger.Warn("Campaign not found", zap.String("id", id))
			return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
		}
		r.Logger.Error("Error getting campaign by ID", zap.Error(err), zap.String("id", id))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.UnknownError)
	}
	return campaign.toDomainMapper(), nil
}

// UpdateCounters writes the final counters of a campaign.
func (r *CampaignRepository) UpdateCounters(ctx context.Context, id string, total, sent, failed int) error {
	result := r.DB.WithContext(ctx).Model(&Campaign{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total":  total,
		"sent":   sent,
		"failed": failed,
	})
	if result.Error != nil {
		r.Logger.Error("Error updating campaign counters", zap.Error(result.Error), zap.String("id", id))
		return domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	if result.RowsAffected == 0 {
		return domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}
	r.Logger.Info("Successfully updated campaign counters",
		zap.String("id", id), zap.Int("total", total), zap.Int("sent", sent), zap.Int("failed", failed))
	return nil
}

func (c *Campaign) toDomainMapper() *domainCampaign.Campaign {
	return &domainCampaign.Campaign{
		ID:         c.ID,
		TemplateID: c.TemplateID,
		BodyText:   c.BodyText,
		Tag:        c.Tag,
		Total:      c.Total,
		Sent:       c.Sent,
		Failed:     c.Failed,
		DryRun:     c.DryRun,
		CreatedAt:  c.CreatedAt,
	}
}

func campaignFromDomainMapper(c *domainCampaign.Campaign) *Campaign {
	return &Campaign{
		ID:         c.ID,
		TemplateID: c.TemplateID,
		BodyText:   c.BodyText,
		Tag:        c.Tag,
		Total:      c.Total,
		Sent:       c.Sent,
		Failed:     c.Failed,
		DryRun:     c.DryRun,
		CreatedAt:  c.CreatedAt,
	}
}
