package campaign

import (
	"errors"
	"io"
	"net/http"

	campaignUseCase "go-campaign-dispatcher/src/application/usecases/campaign"
	domainCampaign "go-campaign-dispatcher/src/domain/campaign"
	"go-campaign-dispatcher/src/domain/common"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type ICampaignController interface {
	Send(ctx *gin.Context)
	GetCampaign(ctx *gin.Context)
}

type CampaignController struct {
	commonService   common.CommonService
	campaignUseCase campaignUseCase.ICampaignUseCase
	Logger          *logger.Logger
}

func NewCampaignController(
	commonService common.CommonService,
	campaignUseCase campaignUseCase.ICampaignUseCase,
	loggerInstance *logger.Logger,
) ICampaignController {
	return &CampaignController{
		commonService:   commonService,
		campaignUseCase: campaignUseCase,
		Logger:          loggerInstance,
	}
}

// Send dispatches a campaign and answers once every contact has a result.
func (c *CampaignController) Send(ctx *gin.Context) {
	var request SendCampaignRequest
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		c.Logger.Error("Couldn't process request - invalid request", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			c.commonService.AppendValidationErrors(ctx, ve, request)
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(request.Components) > 0 && string(request.Components) != "null" && !gjson.ParseBytes(request.Components).IsArray() {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": []common.ErrorMsg{{Field: "components", Message: "Should be an array"}}})
		return
	}

	response, err := c.campaignUseCase.SendCampaign(ctx.Request.Context(), &campaignUseCase.SendRequest{
		Limit:      request.Limit,
		BodyText:   request.BodyText,
		Tag:        request.Tag,
		DryRun:     request.DryRun,
		Components: request.Components,
		TemplateID: request.TemplateID,
	})
	if err != nil {
		c.Logger.Error("Error sending campaign", zap.Error(err))
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, SendCampaignResponse{
		CampaignID: response.CampaignID,
		Total:      response.Total,
		Sent:       response.Sent,
		Failed:     response.Failed,
		Results:    resultsToResponse(response.Results),
	})
}

func (c *CampaignController) GetCampaign(ctx *gin.Context) {
	var request CampaignRequest
	if err := ctx.ShouldBindUri(&request); err != nil {
		c.Logger.Error("Invalid campaign ID", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign ID"})
		return
	}

	campaign, err := c.campaignUseCase.GetCampaign(ctx.Request.Context(), request.ID)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, campaignToResponse(campaign))
}

func resultsToResponse(results []domainCampaign.ContactResult) []ContactResultResponse {
	out := make([]ContactResultResponse, len(results))
	for i, r := range results {
		out[i] = ContactResultResponse{
			Phone:     r.Phone,
			OK:        r.OK,
			MessageID: r.MessageID,
			Error:     r.Error,
			DryRun:    r.DryRun,
		}
	}
	return out
}

func campaignToResponse(c *domainCampaign.Campaign) *CampaignResponse {
	return &CampaignResponse{
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
