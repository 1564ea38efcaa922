package di

import (
	"context"
	"testing"

	domainCampaign "go-campaign-dispatcher/src/domain/campaign"
	"go-campaign-dispatcher/src/domain/message"
	"go-campaign-dispatcher/src/infrastructure/config"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/metrics"
	"go-campaign-dispatcher/src/infrastructure/repository/database"
	whatsappClient "go-campaign-dispatcher/src/infrastructure/repository/whatsapp-client"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) SendTemplate(ctx context.Context, msg message.OutboundMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func testConfig(t *testing.T) *config.Config {
	t.Setenv("WHATSAPP_TOKEN", "token")
	t.Setenv("PHONE_NUMBER_ID", "123")
	t.Setenv("WEBHOOK_VERIFY_TOKEN", "verify")
	cfg, err := config.Load("does-not-exist.env")
	require.NoError(t, err)
	return cfg
}

func newTestContext(t *testing.T, transport message.Transport) (*ApplicationContext, *metrics.Metrics) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	cfg := testConfig(t)
	loggerInstance := logger.NewNopLogger()
	db := database.NewRepository(gdb, cfg.Database, loggerInstance)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return NewApplicationContext(cfg, db, transport, loggerInstance, m), m
}

func TestNewApplicationContext(t *testing.T) {
	appContext, m := newTestContext(t, &MockTransport{})

	assert.NotNil(t, appContext.CampaignController)
	assert.NotNil(t, appContext.WebhookController)
	assert.NotNil(t, appContext.CountryLimitController)
	assert.NotNil(t, appContext.QueueRegistry)
	assert.NotNil(t, appContext.Orchestrator)
	assert.NotNil(t, appContext.CleanupJob)
	assert.Same(t, m, appContext.Metrics)
	assert.Empty(t, appContext.RateLimitUseCase.Queues())

	challenge, err := appContext.WebhookUseCase.Verify("subscribe", "verify", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", challenge)
}

func TestNewTransport(t *testing.T) {
	cfg := testConfig(t)
	loggerInstance := logger.NewNopLogger()

	_, isClient := NewTransport(cfg, loggerInstance).(*whatsappClient.Client)
	assert.True(t, isClient)

	cfg.Breaker.Enabled = true
	_, isBreaker := NewTransport(cfg, loggerInstance).(*whatsappClient.BreakerTransport)
	assert.True(t, isBreaker)
}

func TestApplicationContext_OrchestratorUsesTransport(t *testing.T) {
	transport := &MockTransport{}
	transport.On("SendTemplate", mock.Anything, mock.MatchedBy(func(msg message.OutboundMessage) bool {
		return msg.Phone == "+14155550100" && msg.TemplateName == "hello_world"
	})).Return("wamid.1", nil).Once()

	appContext, _ := newTestContext(t, transport)

	// no stored limits are expected, so the queue falls back to the configured defaults
	result := appContext.Orchestrator.DispatchCampaign(context.Background(), domainCampaign.Batch{
		Contacts: []domainCampaign.Contact{{Phone: "+14155550100", OptedIn: true}},
		Limit:    10,
		BodyText: "hi",
		Template: domainCampaign.TemplateRef{Name: "hello_world", LanguageCode: "en_US"},
	})

	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].OK)
	assert.Equal(t, "wamid.1", result.Results[0].MessageID)
	assert.Equal(t, 1, result.Sent)
	transport.AssertExpectations(t)

	queues := appContext.RateLimitUseCase.Queues()
	require.Len(t, queues, 1)
	assert.Equal(t, "+1", queues[0].CountryCode)
}
