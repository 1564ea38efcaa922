package di

import (
	"context"
	"net/http"

	campaignUseCase "go-campaign-dispatcher/src/application/usecases/campaign"
	rateLimitUseCase "go-campaign-dispatcher/src/application/usecases/ratelimit"
	webhookUseCase "go-campaign-dispatcher/src/application/usecases/webhook"
	domainCampaign "go-campaign-dispatcher/src/domain/campaign"
	"go-campaign-dispatcher/src/domain/common"
	"go-campaign-dispatcher/src/domain/message"
	"go-campaign-dispatcher/src/domain/ratelimit"
	"go-campaign-dispatcher/src/infrastructure/config"
	"go-campaign-dispatcher/src/infrastructure/helper"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/messaging"
	"go-campaign-dispatcher/src/infrastructure/metrics"
	"go-campaign-dispatcher/src/infrastructure/repository/database"
	campaignRepo "go-campaign-dispatcher/src/infrastructure/repository/database/campaign"
	contactRepo "go-campaign-dispatcher/src/infrastructure/repository/database/contact"
	countryLimitRepo "go-campaign-dispatcher/src/infrastructure/repository/database/countrylimit"
	templateRepo "go-campaign-dispatcher/src/infrastructure/repository/database/template"
	whatsappClient "go-campaign-dispatcher/src/infrastructure/repository/whatsapp-client"
	campaignController "go-campaign-dispatcher/src/infrastructure/rest/controllers/campaign"
	countryLimitController "go-campaign-dispatcher/src/infrastructure/rest/controllers/countrylimit"
	webhookController "go-campaign-dispatcher/src/infrastructure/rest/controllers/webhook"
	"go-campaign-dispatcher/src/infrastructure/scheduler"

	"go.uber.org/zap"
)

// ApplicationContext holds all application dependencies and services
type ApplicationContext struct {
	Config                  *config.Config
	Database                *database.DatabaseRepository
	Logger                  *logger.Logger
	Metrics                 *metrics.Metrics
	CommonService           common.CommonService
	QueueRegistry           *messaging.QueueRegistry
	Orchestrator            *messaging.Orchestrator
	CleanupJob              *scheduler.CleanupJob
	CampaignRepository      campaignRepo.CampaignRepositoryInterface
	DeliveryEventRepository campaignRepo.DeliveryEventRepositoryInterface
	ContactRepository       contactRepo.ContactRepositoryInterface
	CountryLimitRepository  countryLimitRepo.CountryLimitRepositoryInterface
	TemplateRepository      templateRepo.TemplateRepositoryInterface
	CampaignUseCase         campaignUseCase.ICampaignUseCase
	WebhookUseCase          webhookUseCase.IWebhookUseCase
	RateLimitUseCase        rateLimitUseCase.IRateLimitUseCase
	CampaignController      campaignController.ICampaignController
	WebhookController       webhookController.IWebhookController
	CountryLimitController  countryLimitController.ICountryLimitController
}

// SetupDependencies connects the database, migrates, seeds and wires the WhatsApp transport.
func SetupDependencies(ctx context.Context, cfg *config.Config, loggerInstance *logger.Logger) (*ApplicationContext, error) {
	db, err := database.InitDB(ctx, cfg.Database, cfg.SeedFile, loggerInstance)
	if err != nil {
		return nil, err
	}
	return NewApplicationContext(cfg, db, NewTransport(cfg, loggerInstance), loggerInstance, metrics.NewDefaultMetrics()), nil
}

// NewTransport builds the provider client, wrapped in a circuit breaker when enabled.
func NewTransport(cfg *config.Config, loggerInstance *logger.Logger) message.Transport {
	client := whatsappClient.NewWhatsAppClient(whatsappClient.Config{
		BaseURL:       cfg.WhatsApp.APIBaseURL,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		Token:         cfg.WhatsApp.Token,
	}, &http.Client{}, loggerInstance)

	if !cfg.Breaker.Enabled {
		return client
	}
	loggerInstance.Info("WhatsApp circuit breaker enabled",
		zap.Uint32("maxRequests", cfg.Breaker.MaxRequests),
		zap.Duration("timeout", cfg.Breaker.Timeout))
	return whatsappClient.NewBreakerTransport(client, whatsappClient.BreakerConfig{
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
	}, loggerInstance)
}

// NewApplicationContext wires repositories, the dispatch pipeline, use cases and controllers
// around an already connected database.
func NewApplicationContext(
	cfg *config.Config,
	db *database.DatabaseRepository,
	transport message.Transport,
	loggerInstance *logger.Logger,
	m *metrics.Metrics,
) *ApplicationContext {
	campaignRepository := campaignRepo.NewCampaignRepository(db.DB, loggerInstance)
	deliveryEventRepository := campaignRepo.NewDeliveryEventRepository(db.DB, loggerInstance)
	contactRepository := contactRepo.NewContactRepository(db.DB, loggerInstance)
	countryLimitRepository := countryLimitRepo.NewCountryLimitRepository(db.DB, loggerInstance)
	templateRepository := templateRepo.NewTemplateRepository(db.DB, loggerInstance)

	directory := messaging.NewRateLimitDirectory(countryLimitRepository, ratelimit.Limits{
		MaxPerSecond:   cfg.Dispatch.DefaultMaxPerSecond,
		MaxConcurrency: cfg.Dispatch.DefaultMaxConcurrency,
	}, loggerInstance)
	registry := messaging.NewQueueRegistry(directory, loggerInstance, m)
	dispatcher := messaging.NewDispatcher(transport, messaging.RetryPolicy{
		MaxAttempts: cfg.Dispatch.RetryMaxAttempts,
		BaseDelay:   cfg.Dispatch.RetryBase,
		Jitter:      cfg.Dispatch.RetryJitter,
	}, cfg.WhatsApp.Timeout, loggerInstance, m)
	orchestrator := messaging.NewOrchestrator(registry, dispatcher, deliveryEventRepository, loggerInstance, m)

	campaignUC := campaignUseCase.NewCampaignUseCase(
		campaignRepository,
		contactRepository,
		templateRepository,
		orchestrator,
		domainCampaign.TemplateRef{Name: cfg.WhatsApp.DefaultTemplate, LanguageCode: cfg.WhatsApp.DefaultLanguage},
		loggerInstance,
	)
	webhookUC := webhookUseCase.NewWebhookUseCase(deliveryEventRepository, contactRepository, cfg.WhatsApp.WebhookVerifyToken, m, loggerInstance)
	rateLimitUC := rateLimitUseCase.NewRateLimitUseCase(countryLimitRepository, registry, loggerInstance)

	commonService := common.NewCommonService(helper.NewValidator(loggerInstance))

	return &ApplicationContext{
		Config:                  cfg,
		Database:                db,
		Logger:                  loggerInstance,
		Metrics:                 m,
		CommonService:           commonService,
		QueueRegistry:           registry,
		Orchestrator:            orchestrator,
		CleanupJob:              scheduler.NewCleanupJob(deliveryEventRepository, cfg.Retention.DeliveryEventTTL, cfg.Retention.Schedule, loggerInstance, m),
		CampaignRepository:      campaignRepository,
		DeliveryEventRepository: deliveryEventRepository,
		ContactRepository:       contactRepository,
		CountryLimitRepository:  countryLimitRepository,
		TemplateRepository:      templateRepository,
		CampaignUseCase:         campaignUC,
		WebhookUseCase:          webhookUC,
		RateLimitUseCase:        rateLimitUC,
		CampaignController:      campaignController.NewCampaignController(commonService, campaignUC, loggerInstance),
		WebhookController:       webhookController.NewWebhookController(webhookUC, loggerInstance),
		CountryLimitController:  countryLimitController.NewCountryLimitController(commonService, rateLimitUC, loggerInstance),
	}
}

// Close stops background jobs and the database pool.
func (a *ApplicationContext) Close() {
	if a.CleanupJob != nil {
		a.CleanupJob.Stop()
	}
	if a.Database != nil {
		if err := a.Database.Close(); err != nil {
			a.Logger.Error("Error closing database", zap.Error(err))
		}
	}
}
