package ratelimit

import (
	"context"
	"errors"
	"testing"

	domainErrors "go-campaign-dispatcher/src/domain/errors"
	domainRateLimit "go-campaign-dispatcher/src/domain/ratelimit"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/messaging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCountryLimitRepository struct {
	created      *domainRateLimit.Policy
	updateFields map[string]interface{}
	updateFn     func(string, map[string]interface{}) (*domainRateLimit.Policy, error)
}

func (m *mockCountryLimitRepository) GetAll(context.Context) ([]domainRateLimit.Policy, error) {
	return []domainRateLimit.Policy{{CountryCode: "+1"}, {CountryCode: "+44"}}, nil
}

func (m *mockCountryLimitRepository) GetByCountryCode(_ context.Context, code string) (*domainRateLimit.Policy, error) {
	if code == "+44" {
		return &domainRateLimit.Policy{CountryCode: code, MaxPerSecond: 20, MaxConcurrency: 5}, nil
	}
	return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
}

func (m *mockCountryLimitRepository) Create(_ context.Context, p *domainRateLimit.Policy) (*domainRateLimit.Policy, error) {
	m.created = p
	return p, nil
}

func (m *mockCountryLimitRepository) Update(_ context.Context, code string, fields map[string]interface{}) (*domainRateLimit.Policy, error) {
	m.updateFields = fields
	if m.updateFn != nil {
		return m.updateFn(code, fields)
	}
	return &domainRateLimit.Policy{CountryCode: code}, nil
}

func (m *mockCountryLimitRepository) Delete(_ context.Context, code string) error {
	if code == "+44" {
		return nil
	}
	return domainErrors.NewAppErrorWithType(domainErrors.NotFound)
}

func (m *mockCountryLimitRepository) CreateIfMissing(context.Context, []domainRateLimit.Policy) (int64, error) {
	return 0, nil
}

type mockQueueRefresher struct {
	refreshErr error
	refreshed  []string
}

func (m *mockQueueRefresher) Refresh(_ context.Context, code string) error {
	m.refreshed = append(m.refreshed, code)
	return m.refreshErr
}

func (m *mockQueueRefresher) Snapshot() []messaging.QueueStats {
	return []messaging.QueueStats{{CountryCode: "+44", MaxPerSecond: 20, MaxConcurrency: 5}}
}

func newUseCase(repo *mockCountryLimitRepository, queues *mockQueueRefresher) IRateLimitUseCase {
	return NewRateLimitUseCase(repo, queues, logger.NewNopLogger())
}

func TestCreate_AppliesDefaults(t *testing.T) {
	repo := &mockCountryLimitRepository{}
	uc := newUseCase(repo, &mockQueueRefresher{})

	policy, err := uc.Create(context.Background(), &domainRateLimit.Policy{CountryCode: " +351 ", CountryName: "Portugal", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, "+351", policy.CountryCode)
	assert.Equal(t, DefaultMaxPerSecond, repo.created.MaxPerSecond)
	assert.Equal(t, DefaultMaxConcurrency, repo.created.MaxConcurrency)

	_, err = uc.Create(context.Background(), &domainRateLimit.Policy{CountryCode: "+30"})
	require.NoError(t, err)
	assert.Equal(t, "+30", repo.created.CountryName)
}

func TestCreate_Validation(t *testing.T) {
	uc := newUseCase(&mockCountryLimitRepository{}, &mockQueueRefresher{})
	cases := []domainRateLimit.Policy{
		{CountryCode: "351", CountryName: "Portugal"},
		{CountryCode: "+351", CountryName: "Portugal", MaxPerSecond: 201},
		{CountryCode: "+351", CountryName: "Portugal", MaxConcurrency: -1},
		{CountryCode: "+351", CountryName: "Portugal", MaxConcurrency: 51},
	}
	for _, c := range cases {
		p := c
		_, err := uc.Create(context.Background(), &p)
		assert.True(t, domainErrors.IsType(err, domainErrors.ValidationError), "%+v", c)
	}
}

func TestUpdate(t *testing.T) {
	repo := &mockCountryLimitRepository{}
	uc := newUseCase(repo, &mockQueueRefresher{})

	_, err := uc.Update(context.Background(), "+44", map[string]interface{}{"maxPerSecond": float64(30), "enabled": false})
	require.NoError(t, err)
	assert.Equal(t, 30, repo.updateFields["maxPerSecond"])
	assert.Equal(t, false, repo.updateFields["enabled"])

	_, err = uc.Update(context.Background(), "+44", map[string]interface{}{"maxPerSecond": float64(0)})
	assert.True(t, domainErrors.IsType(err, domainErrors.ValidationError))

	_, err = uc.Update(context.Background(), "+44", map[string]interface{}{"maxConcurrency": 1.5})
	assert.True(t, domainErrors.IsType(err, domainErrors.ValidationError))

	_, err = uc.Update(context.Background(), "+44", map[string]interface{}{})
	assert.True(t, domainErrors.IsType(err, domainErrors.ValidationError))
}

func TestGetAndDelete(t *testing.T) {
	uc := newUseCase(&mockCountryLimitRepository{}, &mockQueueRefresher{})

	all, err := uc.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = uc.GetByCountryCode(context.Background(), "+99")
	assert.True(t, domainErrors.IsType(err, domainErrors.NotFound))

	assert.NoError(t, uc.Delete(context.Background(), "+44"))
	assert.True(t, domainErrors.IsType(uc.Delete(context.Background(), "+99"), domainErrors.NotFound))
}

func TestRefreshQueue(t *testing.T) {
	queues := &mockQueueRefresher{}
	uc := newUseCase(&mockCountryLimitRepository{}, queues)

	require.NoError(t, uc.RefreshQueue(context.Background(), "+44"))
	assert.Equal(t, []string{"+44"}, queues.refreshed)

	queues.refreshErr = messaging.ErrQueueBusy
	err := uc.RefreshQueue(context.Background(), "+44")
	assert.True(t, domainErrors.IsType(err, domainErrors.Conflict))
	assert.True(t, errors.Is(err, messaging.ErrQueueBusy))

	queues.refreshErr = errors.New("boom")
	err = uc.RefreshQueue(context.Background(), "+44")
	assert.EqualError(t, err, "boom")
}

func TestQueues(t *testing.T) {
	uc := newUseCase(&mockCountryLimitRepository{}, &mockQueueRefresher{})
	stats := uc.Queues()
	require.Len(t, stats, 1)
	assert.Equal(t, "+44", stats[0].CountryCode)
}
