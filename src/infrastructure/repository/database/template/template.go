package template

import (
	"context"
	"errors"
	"time"

	domainErrors "go-campaign-dispatcher/src/domain/errors"
	domainTemplate "go-campaign-dispatcher/src/domain/template"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Template struct {
	ID          int       `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;type:varchar(255);uniqueIndex;not null"`
	Language    string    `gorm:"column:language;type:varchar(16);not null"`
	Category    string    `gorm:"column:category;type:varchar(32);not null"`
	Parameters  int       `gorm:"column:parameters;not null"`
	PreviewText string    `gorm:"column:preview_text;type:text"`
	Status      string    `gorm:"column:status;type:varchar(16);not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Template) TableName() string {
	return "templates"
}

type TemplateRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*domainTemplate.Template, error)
	CreateIfMissing(ctx context.Context, templates []domainTemplate.Template) (int64, error)
}

type TemplateRepository struct {
	DB     *gorm.DB
	Logger *logger.Logger
}

func NewTemplateRepository(db *gorm.DB, loggerInstance *logger.Logger) TemplateRepositoryInterface {
	return &TemplateRepository{DB: db, Logger: loggerInstance}
}

func (r *TemplateRepository) GetByID(ctx context.Context, id int) (*domainTemplate.Template, error) {
	var tpl Template
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.Logger.Warn("Template not found", zap.Int("id", id))
			return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
		}
		r.Logger.Error("Error getting template by ID", zap.Error(err), zap.Int("id", id))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.UnknownError)
	}
	return tpl.toDomainMapper(), nil
}

// CreateIfMissing inserts the templates whose name is not stored yet.
func (r *TemplateRepository) CreateIfMissing(ctx context.Context, templates []domainTemplate.Template) (int64, error) {
	if len(templates) == 0 {
		return 0, nil
	}
	models := make([]Template, len(templates))
	for i, t := range templates {
		models[i] = Template{
			Name:        t.Name,
			Language:    t.Language,
			Category:    t.Category,
			Parameters:  t.Parameters,
			PreviewText: t.PreviewText,
			Status:      t.Status,
		}
	}
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&models)
	if result.Error != nil {
		r.Logger.Error("Error seeding templates", zap.Error(result.Error))
		return 0, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return result.RowsAffected, nil
}

func (t *Template) toDomainMapper() *domainTemplate.Template {
	return &domainTemplate.Template{
		ID:          t.ID,
		Name:        t.Name,
		Language:    t.Language,
		Category:    t.Category,
		Parameters:  t.Parameters,
		PreviewText: t.PreviewText,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
