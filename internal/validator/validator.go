package validator

import (
	"regexp"
	"sync"

	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// card expiry as the gateway accepts it, YYYY-MM or MMYY
var cardExpiry = regexp.MustCompile(`^(\d{4}-(0[1-9]|1[0-2])|(0[1-9]|1[0-2])\d{2})$`)

func NewValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("card_expiry", func(fl validator.FieldLevel) bool {
			return cardExpiry.MatchString(fl.Field().String())
		})
	})
	return validate
}

func GetValidator() *validator.Validate {
	return NewValidator()
}

func ValidateRequest(req interface{}) error {
	if err := GetValidator().Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, err := range validateErrs {
				details[err.Field()] = err.Error()
			}
		}
		return ierr.WithError(err).
			WithHint("Request validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}
