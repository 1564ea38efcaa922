package campaign

import (
	"context"
	"time"

	"go-campaign-dispatcher/src/domain/delivery"
	domainErrors "go-campaign-dispatcher/src/domain/errors"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryEvent holds the latest state of one message. message_id is unique when set,
// so every provider message maps to at most one row.
type DeliveryEvent struct {
	ID           int       `gorm:"primaryKey"`
	CampaignID   *string   `gorm:"column:campaign_id;type:varchar(36);index"`
	Phone        string    `gorm:"column:phone;type:varchar(32);not null;index"`
	MessageID    *string   `gorm:"column:message_id;type:varchar(128);uniqueIndex"`
	Status       string    `gorm:"column:status;type:varchar(16);not null;index"`
	ErrorMessage *string   `gorm:"column:error_message;type:text"`
	Timestamp    time.Time `gorm:"column:timestamp;not null;index"`
}

func (DeliveryEvent) TableName() string {
	return "delivery_events"
}

type DeliveryEventRepositoryInterface interface {
	Create(ctx context.Context, event *delivery.Event) error
	ApplyStatus(ctx context.Context, event *delivery.Event) (created bool, err error)
	GetByMessageID(ctx context.Context, messageID string) (*delivery.Event, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]delivery.Event, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type DeliveryEventRepository struct {
	DB     *gorm.DB
	Logger *logger.Logger
}

func NewDeliveryEventRepository(db *gorm.DB, loggerInstance *logger.Logger) DeliveryEventRepositoryInterface {
	return &DeliveryEventRepository{DB: db, Logger: loggerInstance}
}

// Create inserts an event. If a webhook already created the row for the same message id,
// only the campaign link is filled in and the newer status is kept.
func (r *DeliveryEventRepository) Create(ctx context.Context, event *delivery.Event) error {
	model := deliveryEventFromDomainMapper(event)
	tx := r.DB.WithContext(ctx)
	if model.MessageID != nil {
		tx = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"campaign_id"}),
		})
	}
	if err := tx.Create(model).Error; err != nil {
		r.Logger.Error("Error creating delivery event", zap.Error(err), zap.String("phone", event.Phone), zap.String("status", string(event.Status)))
		return domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	event.ID = model.ID
	return nil
}

// ApplyStatus updates the row for event.MessageID in place, or inserts it when none exists.
func (r *DeliveryEventRepository) ApplyStatus(ctx context.Context, event *delivery.Event) (bool, error) {
	if event.MessageID == nil || *event.MessageID == "" {
		return false, domainErrors.NewAppErrorWithType(domainErrors.ValidationError)
	}
	messageID := *event.MessageID

	updates := map[string]interface{}{
		"status":    string(event.Status),
		"timestamp": event.Timestamp,
	}
	if event.ErrorMessage != nil {
		updates["error_message"] = *event.ErrorMessage
	}
	result := r.DB.WithContext(ctx).Model(&DeliveryEvent{}).Where("message_id = ?", messageID).Updates(updates)
	if result.Error != nil {
		r.Logger.Error("Error updating delivery status", zap.Error(result.Error), zap.String("messageID", messageID))
		return false, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	if result.RowsAffected > 0 {
		return false, nil
	}

	model := deliveryEventFromDomainMapper(event)
	assignments := []string{"status", "timestamp"}
	if event.ErrorMessage != nil {
		assignments = append(assignments, "error_message")
	}
	// a concurrent insert for the same id turns into an update
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoUpdates: clause.AssignmentColumns(assignments),
	}).Create(model).Error
	if err != nil {
		r.Logger.Error("Error inserting delivery status", zap.Error(err), zap.String("messageID", messageID))
		return false, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	event.ID = model.ID
	return true, nil
}

func (r *DeliveryEventRepository) GetByMessageID(ctx context.Context, messageID string) (*delivery.Event, error) {
	var event DeliveryEvent
	err := r.DB.WithContext(ctx).Where("message_id = ?", messageID).First(&event).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
		}
		r.Logger.Error("Error getting delivery event", zap.Error(err), zap.String("messageID", messageID))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.UnknownError)
	}
	return event.toDomainMapper(), nil
}

func (r *DeliveryEventRepository) ListByCampaign(ctx context.Context, campaignID string) ([]delivery.Event, error) {
	var events []DeliveryEvent
	if err := r.DB.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("id ASC").Find(&events).Error; err != nil {
		r.Logger.Error("Error listing delivery events", zap.Error(err), zap.String("campaignID", campaignID))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.UnknownError)
	}
	out := make([]delivery.Event, len(events))
	for i := range events {
		out[i] = *events[i].toDomainMapper()
	}
	return out, nil
}

func (r *DeliveryEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&DeliveryEvent{})
	if result.Error != nil {
		r.Logger.Error("Error deleting old delivery events", zap.Error(result.Error), zap.Time("cutoff", cutoff))
		return 0, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	r.Logger.Info("Deleted old delivery events", zap.Int64("count", result.RowsAffected), zap.Time("cutoff", cutoff))
	return result.RowsAffected, nil
}

func (e *DeliveryEvent) toDomainMapper() *delivery.Event {
	return &delivery.Event{
		ID:           e.ID,
		CampaignID:   e.CampaignID,
		Phone:        e.Phone,
		MessageID:    e.MessageID,
		Status:       delivery.Status(e.Status),
		ErrorMessage: e.ErrorMessage,
		Timestamp:    e.Timestamp,
	}
}

func deliveryEventFromDomainMapper(e *delivery.Event) *DeliveryEvent {
	timestamp := e.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	return &DeliveryEvent{
		ID:           e.ID,
		CampaignID:   e.CampaignID,
		Phone:        e.Phone,
		MessageID:    e.MessageID,
		Status:       string(e.Status),
		ErrorMessage: e.ErrorMessage,
		Timestamp:    timestamp,
	}
}
