package helper

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateStruct(s any) error {
	return validate.Struct(s)
}

// FormatValidationErrors turns validator output into one human-readable line.
func FormatValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			parts = append(parts, e.Field()+" is required")
		case "email":
			parts = append(parts, e.Field()+" must be an email")
		case "url":
			parts = append(parts, e.Field()+" must be a URL")
		case "min":
			parts = append(parts, e.Field()+" must be at least "+e.Param())
		case "max":
			parts = append(parts, e.Field()+" must be at most "+e.Param())
		case "oneof":
			parts = append(parts, e.Field()+" must be one of: "+e.Param())
		case "gt":
			parts = append(parts, e.Field()+" must be greater than "+e.Param())
		default:
			parts = append(parts, e.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
