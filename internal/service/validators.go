package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateCheckoutRequest checks the shape of a checkout request. It does not consult the catalog.
func ValidateCheckoutRequest(req CheckoutRequest) error {
	return validateStruct(req)
}

// ValidateSubjectID checks a subject identifier taken from a path or query
func ValidateSubjectID(subjectID string) error {
	if err := validate.Var(subjectID, "required,max=255,printascii"); err != nil {
		return fmt.Errorf("subject_id %s", describeTag(err))
	}
	return nil
}

// ValidateListLimit checks a page size for history queries
func ValidateListLimit(limit int) error {
	if limit < 1 || limit > MaxHistoryLimit {
		return fmt.Errorf("limit must be between 1 and %d", MaxHistoryLimit)
	}
	return nil
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", fe.Field(), describeFieldError(fe)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describeTag(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return describeFieldError(verrs[0])
	}
	return "is invalid"
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be an absolute http(s) URL"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "printascii":
		return "must contain printable ASCII characters only"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
