package campaign

import (
	"context"
	"encoding/json"
	"strings"

	domainCampaign "go-campaign-dispatcher/src/domain/campaign"
	domainTemplate "go-campaign-dispatcher/src/domain/template"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	campaignRepo "go-campaign-dispatcher/src/infrastructure/repository/database/campaign"
	contactRepo "go-campaign-dispatcher/src/infrastructure/repository/database/contact"
	templateRepo "go-campaign-dispatcher/src/infrastructure/repository/database/template"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// SendRequest represents a request to dispatch a campaign
type SendRequest struct {
	Limit      int
	BodyText   string
	Tag        string
	DryRun     bool
	Components json.RawMessage
	TemplateID *int
}

// SendResponse represents the outcome of a dispatched campaign
type SendResponse struct {
	CampaignID string
	Total      int
	Sent       int
	Failed     int
	Results    []domainCampaign.ContactResult
}

type ICampaignUseCase interface {
	SendCampaign(ctx context.Context, request *SendRequest) (*SendResponse, error)
	GetCampaign(ctx context.Context, id string) (*domainCampaign.Campaign, error)
}

// CampaignDispatcher runs one batch to completion.
type CampaignDispatcher interface {
	DispatchCampaign(ctx context.Context, batch domainCampaign.Batch) *domainCampaign.BatchResult
}

type CampaignUseCase struct {
	campaignRepository campaignRepo.CampaignRepositoryInterface
	contactRepository  contactRepo.ContactRepositoryInterface
	templateRepository templateRepo.TemplateRepositoryInterface
	dispatcher         CampaignDispatcher
	defaultTemplate    domainCampaign.TemplateRef
	Logger             *logger.Logger
}

func NewCampaignUseCase(
	campaignRepository campaignRepo.CampaignRepositoryInterface,
	contactRepository contactRepo.ContactRepositoryInterface,
	templateRepository templateRepo.TemplateRepositoryInterface,
	dispatcher CampaignDispatcher,
	defaultTemplate domainCampaign.TemplateRef,
	loggerInstance *logger.Logger,
) ICampaignUseCase {
	if defaultTemplate.Name == "" {
		defaultTemplate.Name = domainTemplate.DefaultName
	}
	if defaultTemplate.LanguageCode == "" {
		defaultTemplate.LanguageCode = domainTemplate.DefaultLanguage
	}
	return &CampaignUseCase{
		campaignRepository: campaignRepository,
		contactRepository:  contactRepository,
		templateRepository: templateRepository,
		dispatcher:         dispatcher,
		defaultTemplate:    defaultTemplate,
		Logger:             loggerInstance,
	}
}

// SendCampaign records the campaign, runs the batch and writes the final counters once.
func (u *CampaignUseCase) SendCampaign(ctx context.Context, request *SendRequest) (*SendResponse, error) {
	limit := request.Limit
	if limit <= 0 {
		limit = domainCampaign.DefaultLimit
	}
	if limit > domainCampaign.MaxLimit {
		limit = domainCampaign.MaxLimit
	}
	bodyText := request.BodyText
	if strings.TrimSpace(bodyText) == "" {
		bodyText = domainCampaign.DefaultBodyText
	}
	tag := strings.TrimSpace(request.Tag)

	contacts, err := u.contactRepository.ListOptedIn(ctx, tag, limit)
	if err != nil {
		u.Logger.Error("Error loading contacts for campaign", zap.Error(err))
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		u.Logger.Error("Error generating campaign id", zap.Error(err))
		return nil, err
	}

	record := &domainCampaign.Campaign{
		ID:         id.String(),
		TemplateID: request.TemplateID,
		BodyText:   bodyText,
		Total:      eligibleCount(contacts, tag, limit),
		DryRun:     request.DryRun,
	}
	if tag != "" {
		record.Tag = &tag
	}
	if _, err := u.campaignRepository.Create(ctx, record); err != nil {
		return nil, err
	}

	result := u.dispatcher.DispatchCampaign(ctx, domainCampaign.Batch{
		CampaignID: record.ID,
		Contacts:   contacts,
		Limit:      limit,
		BodyText:   bodyText,
		DryRun:     request.DryRun,
		Template:   u.resolveTemplate(ctx, request.TemplateID),
		Components: request.Components,
		Tag:        tag,
	})

	if err := u.campaignRepository.UpdateCounters(context.WithoutCancel(ctx), record.ID, result.Total, result.Sent, result.Failed); err != nil {
		u.Logger.Error("Error storing campaign counters", zap.Error(err), zap.String("campaignID", record.ID))
	}

	u.Logger.Info("Campaign completed",
		zap.String("campaignID", record.ID),
		zap.Int("total", result.Total),
		zap.Int("sent", result.Sent),
		zap.Bool("dryRun", request.DryRun))

	return &SendResponse{
		CampaignID: record.ID,
		Total:      result.Total,
		Sent:       result.Sent,
		Failed:     result.Failed,
		Results:    result.Results,
	}, nil
}

func (u *CampaignUseCase) GetCampaign(ctx context.Context, id string) (*domainCampaign.Campaign, error) {
	return u.campaignRepository.GetByID(ctx, id)
}

// resolveTemplate falls back to the default template when the id is unset or unknown.
func (u *CampaignUseCase) resolveTemplate(ctx context.Context, templateID *int) domainCampaign.TemplateRef {
	if templateID == nil {
		return u.defaultTemplate
	}
	tpl, err := u.templateRepository.GetByID(ctx, *templateID)
	if err != nil {
		u.Logger.Warn("Failed to fetch template, using default", zap.Int("templateID", *templateID), zap.Error(err))
		return u.defaultTemplate
	}
	return domainCampaign.TemplateRef{Name: tpl.Name, LanguageCode: tpl.Language}
}

func eligibleCount(contacts []domainCampaign.Contact, tag string, limit int) int {
	n := 0
	for _, c := range contacts {
		if n == limit {
			break
		}
		if c.OptedIn && c.Phone != "" && c.HasTag(tag) {
			n++
		}
	}
	return n
}
