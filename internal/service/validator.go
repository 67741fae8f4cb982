package service

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/pkg/istclock"
)

var sectionPattern = regexp.MustCompile(`^[A-Z][0-9]*$`)

// NewValidator returns a validator with the attendance tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	RegisterValidations(v)
	return v
}

// RegisterValidations adds hhmm, datekey, section, mark_status and bulk_status.
func RegisterValidations(v *validator.Validate) {
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return istclock.ValidHHMM(fl.Field().String())
	})
	_ = v.RegisterValidation("datekey", func(fl validator.FieldLevel) bool {
		return istclock.ValidDateKey(fl.Field().String())
	})
	_ = v.RegisterValidation("section", func(fl validator.FieldLevel) bool {
		return sectionPattern.MatchString(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
	})
	_ = v.RegisterValidation("mark_status", func(fl validator.FieldLevel) bool {
		return models.MarkStatus(strings.ToLower(fl.Field().String())).Valid()
	})
	_ = v.RegisterValidation("bulk_status", func(fl validator.FieldLevel) bool {
		s := strings.ToLower(fl.Field().String())
		return s == "clear" || models.MarkStatus(s).Valid()
	})
}
