package serverutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks struct tags on an inbound payload and wraps any
// violation into a VALIDATION_ERROR.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return NewValidationError("Malformed payload: "+err.Error(), err)
	}
	return nil
}
