package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	domainCampaign "go-campaign-dispatcher/src/domain/campaign"
	domainErrors "go-campaign-dispatcher/src/domain/errors"
	domainTemplate "go-campaign-dispatcher/src/domain/template"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCampaignRepository struct {
	createFn         func(*domainCampaign.Campaign) (*domainCampaign.Campaign, error)
	updateCountersFn func(ctx context.Context, id string, total, sent, failed int) error
	created          *domainCampaign.Campaign
	counterCalls     int
	counters         [3]int
}

func (m *mockCampaignRepository) Create(_ context.Context, c *domainCampaign.Campaign) (*domainCampaign.Campaign, error) {
	m.created = c
	if m.createFn != nil {
		return m.createFn(c)
	}
	return c, nil
}

func (m *mockCampaignRepository) GetByID(_ context.Context, id string) (*domainCampaign.Campaign, error) {
	if m.created != nil && m.created.ID == id {
		return m.created, nil
	}
	return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
}

func (m *mockCampaignRepository) UpdateCounters(ctx context.Context, id string, total, sent, failed int) error {
	m.counterCalls++
	m.counters = [3]int{total, sent, failed}
	if m.updateCountersFn != nil {
		return m.updateCountersFn(ctx, id, total, sent, failed)
	}
	return nil
}

type mockContactRepository struct {
	contacts []domainCampaign.Contact
	err      error
	gotTag   string
	gotLimit int
}

func (m *mockContactRepository) ListOptedIn(_ context.Context, tag string, limit int) ([]domainCampaign.Contact, error) {
	m.gotTag, m.gotLimit = tag, limit
	return m.contacts, m.err
}

func (m *mockContactRepository) OptOut(context.Context, string) (bool, error) {
	return false, nil
}

type mockTemplateRepository struct {
	getByIDFn func(int) (*domainTemplate.Template, error)
}

func (m *mockTemplateRepository) GetByID(_ context.Context, id int) (*domainTemplate.Template, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
}

func (m *mockTemplateRepository) CreateIfMissing(context.Context, []domainTemplate.Template) (int64, error) {
	return 0, nil
}

type mockDispatcher struct {
	batch  domainCampaign.Batch
	result *domainCampaign.BatchResult
}

func (m *mockDispatcher) DispatchCampaign(_ context.Context, batch domainCampaign.Batch) *domainCampaign.BatchResult {
	m.batch = batch
	if m.result != nil {
		return m.result
	}
	return &domainCampaign.BatchResult{}
}

type fixture struct {
	campaigns  *mockCampaignRepository
	contacts   *mockContactRepository
	templates  *mockTemplateRepository
	dispatcher *mockDispatcher
	useCase    ICampaignUseCase
}

func newFixture(contacts []domainCampaign.Contact) *fixture {
	f := &fixture{
		campaigns:  &mockCampaignRepository{},
		contacts:   &mockContactRepository{contacts: contacts},
		templates:  &mockTemplateRepository{},
		dispatcher: &mockDispatcher{},
	}
	f.useCase = NewCampaignUseCase(f.campaigns, f.contacts, f.templates, f.dispatcher,
		domainCampaign.TemplateRef{}, logger.NewNopLogger())
	return f
}

func TestSendCampaign_Defaults(t *testing.T) {
	f := newFixture([]domainCampaign.Contact{
		{Phone: "+5511999999999", OptedIn: true},
		{Phone: "", OptedIn: true},
		{Phone: "+447700900123", OptedIn: true},
	})
	f.dispatcher.result = &domainCampaign.BatchResult{Total: 2, Sent: 2, Failed: 0}

	resp, err := f.useCase.SendCampaign(context.Background(), &SendRequest{})
	require.NoError(t, err)

	assert.Equal(t, domainCampaign.DefaultLimit, f.contacts.gotLimit)
	assert.Equal(t, "", f.contacts.gotTag)
	assert.Equal(t, domainCampaign.DefaultBodyText, f.dispatcher.batch.BodyText)
	assert.Equal(t, domainTemplate.DefaultName, f.dispatcher.batch.Template.Name)
	assert.Equal(t, domainTemplate.DefaultLanguage, f.dispatcher.batch.Template.LanguageCode)

	require.NotNil(t, f.campaigns.created)
	assert.Len(t, f.campaigns.created.ID, 36)
	assert.Equal(t, 2, f.campaigns.created.Total)
	assert.Nil(t, f.campaigns.created.Tag)
	assert.Equal(t, f.campaigns.created.ID, f.dispatcher.batch.CampaignID)

	assert.Equal(t, 1, f.campaigns.counterCalls)
	assert.Equal(t, [3]int{2, 2, 0}, f.campaigns.counters)
	assert.Equal(t, f.campaigns.created.ID, resp.CampaignID)
	assert.Equal(t, 2, resp.Sent)
}

func TestSendCampaign_ClampsLimitAndPassesOptions(t *testing.T) {
	f := newFixture(nil)
	components := json.RawMessage(`[{"type":"body","parameters":[]}]`)

	_, err := f.useCase.SendCampaign(context.Background(), &SendRequest{
		Limit:      domainCampaign.MaxLimit + 1,
		BodyText:   "Hi",
		Tag:        " vip ",
		DryRun:     true,
		Components: components,
	})
	require.NoError(t, err)

	assert.Equal(t, domainCampaign.MaxLimit, f.contacts.gotLimit)
	assert.Equal(t, "vip", f.contacts.gotTag)
	assert.True(t, f.dispatcher.batch.DryRun)
	assert.Equal(t, "Hi", f.dispatcher.batch.BodyText)
	assert.JSONEq(t, string(components), string(f.dispatcher.batch.Components))
	require.NotNil(t, f.campaigns.created.Tag)
	assert.Equal(t, "vip", *f.campaigns.created.Tag)
	assert.True(t, f.campaigns.created.DryRun)
}

func TestSendCampaign_TemplateResolution(t *testing.T) {
	f := newFixture(nil)
	f.templates.getByIDFn = func(id int) (*domainTemplate.Template, error) {
		if id == 2 {
			return &domainTemplate.Template{ID: 2, Name: "promo_offer", Language: "pt_BR"}, nil
		}
		return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}

	known := 2
	_, err := f.useCase.SendCampaign(context.Background(), &SendRequest{TemplateID: &known})
	require.NoError(t, err)
	assert.Equal(t, domainCampaign.TemplateRef{Name: "promo_offer", LanguageCode: "pt_BR"}, f.dispatcher.batch.Template)
	assert.Equal(t, &known, f.campaigns.created.TemplateID)

	unknown := 99
	_, err = f.useCase.SendCampaign(context.Background(), &SendRequest{TemplateID: &unknown})
	require.NoError(t, err)
	assert.Equal(t, domainTemplate.DefaultName, f.dispatcher.batch.Template.Name)
}

func TestSendCampaign_ContactLoadError(t *testing.T) {
	f := newFixture(nil)
	f.contacts.err = domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)

	_, err := f.useCase.SendCampaign(context.Background(), &SendRequest{})
	assert.True(t, domainErrors.IsType(err, domainErrors.RepositoryError))
	assert.Nil(t, f.campaigns.created)
}

func TestSendCampaign_CreateErrorStopsDispatch(t *testing.T) {
	f := newFixture([]domainCampaign.Contact{{Phone: "+1", OptedIn: true}})
	f.campaigns.createFn = func(*domainCampaign.Campaign) (*domainCampaign.Campaign, error) {
		return nil, errors.New("insert failed")
	}

	_, err := f.useCase.SendCampaign(context.Background(), &SendRequest{})
	assert.Error(t, err)
	assert.Empty(t, f.dispatcher.batch.CampaignID)
	assert.Zero(t, f.campaigns.counterCalls)
}

func TestSendCampaign_CounterErrorIsNotFatal(t *testing.T) {
	f := newFixture(nil)
	f.campaigns.updateCountersFn = func(context.Context, string, int, int, int) error {
		return errors.New("update failed")
	}
	resp, err := f.useCase.SendCampaign(context.Background(), &SendRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.CampaignID)
}

func TestSendCampaign_CountersSurviveCallerCancel(t *testing.T) {
	f := newFixture(nil)
	ctx, cancel := context.WithCancel(context.Background())
	f.campaigns.updateCountersFn = func(ctx context.Context, _ string, _, _, _ int) error {
		return ctx.Err()
	}
	f.contacts.contacts = []domainCampaign.Contact{{Phone: "+1", OptedIn: true}}
	f.dispatcher.result = &domainCampaign.BatchResult{Total: 1, Sent: 1}

	// cancel once the batch has been handed over
	f.campaigns.createFn = func(c *domainCampaign.Campaign) (*domainCampaign.Campaign, error) {
		cancel()
		return c, nil
	}
	_, err := f.useCase.SendCampaign(ctx, &SendRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.campaigns.counterCalls)
}

func TestGetCampaign(t *testing.T) {
	f := newFixture(nil)
	resp, err := f.useCase.SendCampaign(context.Background(), &SendRequest{})
	require.NoError(t, err)

	got, err := f.useCase.GetCampaign(context.Background(), resp.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, resp.CampaignID, got.ID)

	_, err = f.useCase.GetCampaign(context.Background(), "missing")
	assert.True(t, domainErrors.IsType(err, domainErrors.NotFound))
}

func TestEligibleCount(t *testing.T) {
	contacts := []domainCampaign.Contact{
		{Phone: "+1", OptedIn: true, Tags: "vip"},
		{Phone: "+2", OptedIn: false, Tags: "vip"},
		{Phone: "+3", OptedIn: true, Tags: "news"},
		{Phone: "+4", OptedIn: true, Tags: "VIP,news"},
		{Phone: "+5", OptedIn: true, Tags: "vip"},
	}
	assert.Equal(t, 3, eligibleCount(contacts, "vip", 10))
	assert.Equal(t, 2, eligibleCount(contacts, "vip", 2))
	assert.Equal(t, 4, eligibleCount(contacts, "", 100))
}
