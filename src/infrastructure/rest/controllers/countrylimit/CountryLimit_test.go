package countrylimit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	rateLimitUseCase "go-campaign-dispatcher/src/application/usecases/ratelimit"
	"go-campaign-dispatcher/src/domain/common"
	domainErrors "go-campaign-dispatcher/src/domain/errors"
	"go-campaign-dispatcher/src/domain/ratelimit"
	"go-campaign-dispatcher/src/infrastructure/helper"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/messaging"
	"go-campaign-dispatcher/src/infrastructure/rest/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockRateLimitUseCase struct {
	policies   map[string]ratelimit.Policy
	created    *ratelimit.Policy
	updated    map[string]interface{}
	refreshErr error
}

var _ rateLimitUseCase.IRateLimitUseCase = (*MockRateLimitUseCase)(nil)

func (m *MockRateLimitUseCase) GetAll(context.Context) ([]ratelimit.Policy, error) {
	out := make([]ratelimit.Policy, 0, len(m.policies))
	for _, p := range m.policies {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockRateLimitUseCase) GetByCountryCode(_ context.Context, code string) (*ratelimit.Policy, error) {
	p, ok := m.policies[code]
	if !ok {
		return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}
	return &p, nil
}

func (m *MockRateLimitUseCase) Create(_ context.Context, p *ratelimit.Policy) (*ratelimit.Policy, error) {
	if _, ok := m.policies[p.CountryCode]; ok {
		return nil, domainErrors.NewAppErrorWithType(domainErrors.ResourceAlreadyExists)
	}
	m.created = p
	return p, nil
}

func (m *MockRateLimitUseCase) Update(_ context.Context, code string, fields map[string]interface{}) (*ratelimit.Policy, error) {
	m.updated = fields
	return m.GetByCountryCode(context.Background(), code)
}

func (m *MockRateLimitUseCase) Delete(_ context.Context, code string) error {
	if _, ok := m.policies[code]; !ok {
		return domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}
	delete(m.policies, code)
	return nil
}

func (m *MockRateLimitUseCase) RefreshQueue(context.Context, string) error {
	return m.refreshErr
}

func (m *MockRateLimitUseCase) Queues() []messaging.QueueStats {
	return []messaging.QueueStats{{CountryCode: "+44", MaxPerSecond: 20, MaxConcurrency: 5, Pending: 3, InFlight: 2}}
}

func setupRouter(uc *MockRateLimitUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	nop := logger.NewNopLogger()
	commonService := common.NewCommonService(helper.NewValidator(nop))
	controller := NewCountryLimitController(commonService, uc, nop)

	r := gin.New()
	r.Use(middlewares.ErrorHandler())
	g := r.Group("/v1/country-limits")
	g.GET("", controller.GetAll)
	g.GET("/:code", controller.GetByCode)
	g.POST("", controller.Create)
	g.PUT("/:code", controller.Update)
	g.DELETE("/:code", controller.Delete)
	g.POST("/:code/refresh", controller.Refresh)
	r.GET("/v1/dispatch/queues", controller.Queues)
	return r
}

func newMock() *MockRateLimitUseCase {
	return &MockRateLimitUseCase{policies: map[string]ratelimit.Policy{
		"+44": {ID: 1, CountryCode: "+44", CountryName: "United Kingdom", MaxPerSecond: 20, MaxConcurrency: 5, Enabled: true},
	}}
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCountryLimitController_GetAllAndByCode(t *testing.T) {
	r := setupRouter(newMock())

	w := do(r, http.MethodGet, "/v1/country-limits", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []CountryLimitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "United Kingdom", all[0].CountryName)

	w = do(r, http.MethodGet, "/v1/country-limits/%2B44", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/v1/country-limits/%2B99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/v1/country-limits/44", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCountryLimitController_Create(t *testing.T) {
	uc := newMock()
	r := setupRouter(uc)

	w := do(r, http.MethodPost, "/v1/country-limits", `{"countryCode":"+351","countryName":"Portugal","maxPerSecond":30}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, uc.created)
	assert.True(t, uc.created.Enabled)
	assert.Equal(t, 30, uc.created.MaxPerSecond)

	w = do(r, http.MethodPost, "/v1/country-limits", `{"countryCode":"+351","enabled":false}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, uc.created.Enabled)

	w = do(r, http.MethodPost, "/v1/country-limits", `{"countryCode":"+44"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/v1/country-limits", `{"countryCode":"351"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/v1/country-limits", `{"countryCode":"+351","maxPerSecond":500}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCountryLimitController_UpdateAndDelete(t *testing.T) {
	uc := newMock()
	r := setupRouter(uc)

	w := do(r, http.MethodPut, "/v1/country-limits/%2B44", `{"maxPerSecond":25,"enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"maxPerSecond": 25, "enabled": false}, uc.updated)

	w = do(r, http.MethodPut, "/v1/country-limits/%2B44", `{"maxConcurrency":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, "/v1/country-limits/%2B44", `{"maxConcurrency":99}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/v1/country-limits/%2B44", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodDelete, "/v1/country-limits/%2B44", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCountryLimitController_RefreshAndQueues(t *testing.T) {
	uc := newMock()
	r := setupRouter(uc)

	w := do(r, http.MethodPost, "/v1/country-limits/%2B44/refresh", "")
	assert.Equal(t, http.StatusOK, w.Code)

	uc.refreshErr = domainErrors.NewAppError(messaging.ErrQueueBusy, domainErrors.Conflict)
	w = do(r, http.MethodPost, "/v1/country-limits/%2B44/refresh", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/v1/dispatch/queues", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats []messaging.QueueStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].Pending)
}
