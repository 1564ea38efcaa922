package helper

import (
	"fmt"
	"regexp"

	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var countryCodePattern = regexp.MustCompile(`^\+\d{1,4}$`)

type Validator interface {
	GetErrorMsg(fe validator.FieldError) string
}

type appValidator struct {
	Logger *logger.Logger
}

// NewValidator registers the custom binding rules on gin's validator engine.
func NewValidator(loggerInstance *logger.Logger) Validator {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("country_code", ValidateCountryCode); err != nil {
			loggerInstance.Error("Error registering country_code validation", zap.Error(err))
		}
	}
	return &appValidator{Logger: loggerInstance}
}

// ValidateCountryCode accepts "+<1-4 digits>" or the wildcard "*".
func ValidateCountryCode(fl validator.FieldLevel) bool {
	return IsCountryCode(fl.Field().String())
}

func IsCountryCode(value string) bool {
	return value == "*" || countryCodePattern.MatchString(value)
}

func (v *appValidator) GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Should be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Should be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Should be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Should be less than or equal to %s", fe.Param())
	case "e164":
		return "Should be an E.164 phone number"
	case "country_code":
		return "Should be a calling code like +44 or *"
	case "oneof":
		return fmt.Sprintf("Should be one of %s", fe.Param())
	}
	return "Unknown error"
}
