package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "dtindex/internal/errors"
)

// fieldMessages renders a failed tag; %[1]s is the field, %[2]s the tag parameter
var fieldMessages = map[string]string{
	"required": "%[1]s is required",
	"min":      "%[1]s must be at least %[2]s",
	"max":      "%[1]s must be at most %[2]s",
	"gtefield": "%[1]s must not be before %[2]s",
	"ltefield": "%[1]s must not exceed %[2]s",
	"entityid": "%[1]s must be a company code",
}

// Validator checks filter specs against their validate tags and reports all
// failed fields in one APIError. Fields are named by their JSON tags.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	// Registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("entityid", isEntityID)
	return &Validator{validate: v}
}

// Struct returns nil or an *errors.APIError
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.InvalidRequest(err)
	}

	failed := make([]apperrors.ValidationError, len(fieldErrs))
	for i, fe := range fieldErrs {
		failed[i] = apperrors.ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
	}
	return apperrors.ValidationFailed(failed)
}

func fieldMessage(fe validator.FieldError) string {
	if format, ok := fieldMessages[fe.Tag()]; ok {
		return fmt.Sprintf(format, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// isEntityID accepts up to 32 letters, digits, dots or dashes
func isEntityID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if id == "" || len(id) > 32 {
		return false
	}
	return strings.IndexFunc(id, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.' || r == '-')
	}) < 0
}
