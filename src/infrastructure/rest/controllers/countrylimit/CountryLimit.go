package countrylimit

import (
	"errors"
	"net/http"

	rateLimitUseCase "go-campaign-dispatcher/src/application/usecases/ratelimit"
	"go-campaign-dispatcher/src/domain/common"
	"go-campaign-dispatcher/src/domain/ratelimit"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ICountryLimitController interface {
	GetAll(ctx *gin.Context)
	GetByCode(ctx *gin.Context)
	Create(ctx *gin.Context)
	Update(ctx *gin.Context)
	Delete(ctx *gin.Context)
	Refresh(ctx *gin.Context)
	Queues(ctx *gin.Context)
}

type CountryLimitController struct {
	commonService    common.CommonService
	rateLimitUseCase rateLimitUseCase.IRateLimitUseCase
	Logger           *logger.Logger
}

func NewCountryLimitController(
	commonService common.CommonService,
	rateLimitUseCase rateLimitUseCase.IRateLimitUseCase,
	loggerInstance *logger.Logger,
) ICountryLimitController {
	return &CountryLimitController{
		commonService:    commonService,
		rateLimitUseCase: rateLimitUseCase,
		Logger:           loggerInstance,
	}
}

func (c *CountryLimitController) GetAll(ctx *gin.Context) {
	policies, err := c.rateLimitUseCase.GetAll(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	out := make([]*CountryLimitResponse, len(policies))
	for i := range policies {
		out[i] = domainToResponseMapper(&policies[i])
	}
	ctx.JSON(http.StatusOK, out)
}

func (c *CountryLimitController) GetByCode(ctx *gin.Context) {
	code, ok := c.bindCode(ctx)
	if !ok {
		return
	}
	policy, err := c.rateLimitUseCase.GetByCountryCode(ctx.Request.Context(), code)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, domainToResponseMapper(policy))
}

func (c *CountryLimitController) Create(ctx *gin.Context) {
	var request NewCountryLimitRequest
	if !c.bindJSON(ctx, &request) {
		return
	}
	enabled := true
	if request.Enabled != nil {
		enabled = *request.Enabled
	}
	policy, err := c.rateLimitUseCase.Create(ctx.Request.Context(), &ratelimit.Policy{
		CountryCode:    request.CountryCode,
		CountryName:    request.CountryName,
		MaxPerSecond:   request.MaxPerSecond,
		MaxConcurrency: request.MaxConcurrency,
		Enabled:        enabled,
	})
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusCreated, domainToResponseMapper(policy))
}

// Update changes the stored policy. Running queues pick it up only through Refresh.
func (c *CountryLimitController) Update(ctx *gin.Context) {
	code, ok := c.bindCode(ctx)
	if !ok {
		return
	}
	var request UpdateCountryLimitRequest
	if !c.bindJSON(ctx, &request) {
		return
	}
	policy, err := c.rateLimitUseCase.Update(ctx.Request.Context(), code, request.toFields())
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, domainToResponseMapper(policy))
}

func (c *CountryLimitController) Delete(ctx *gin.Context) {
	code, ok := c.bindCode(ctx)
	if !ok {
		return
	}
	if err := c.rateLimitUseCase.Delete(ctx.Request.Context(), code); err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Country limit deleted successfully"})
}

func (c *CountryLimitController) Refresh(ctx *gin.Context) {
	code, ok := c.bindCode(ctx)
	if !ok {
		return
	}
	if err := c.rateLimitUseCase.RefreshQueue(ctx.Request.Context(), code); err != nil {
		c.Logger.Warn("Couldn't refresh country queue", zap.String("countryCode", code), zap.Error(err))
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Country queue refreshed", "countryCode": code})
}

func (c *CountryLimitController) Queues(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.rateLimitUseCase.Queues())
}

func (c *CountryLimitController) bindCode(ctx *gin.Context) (string, bool) {
	var request CountryCodeRequest
	if err := ctx.ShouldBindUri(&request); err != nil {
		c.Logger.Error("Invalid country code", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid country code"})
		return "", false
	}
	return request.Code, true
}

func (c *CountryLimitController) bindJSON(ctx *gin.Context, request interface{}) bool {
	if err := ctx.ShouldBindJSON(request); err != nil {
		c.Logger.Error("Couldn't process request - invalid request", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			c.commonService.AppendValidationErrors(ctx, ve, request)
			return false
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
