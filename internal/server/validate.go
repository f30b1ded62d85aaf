package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names in messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// score_step: a non-zero multiple of the hint penalty.
	v.RegisterValidation("score_step", func(fl validator.FieldLevel) bool {
		d := fl.Field().Int()
		return d != 0 && d%5 == 0
	})

	return v
}

// decodeValid reads a JSON body into v and validates it. The returned error
// message is safe to show to clients.
func decodeValid(r *http.Request, v any) error {
	if err := readJSON(r, v); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			return errors.New(describe(ves[0]))
		}
		return errors.New("invalid request body")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "score_step":
		return fmt.Sprintf("%s must be a non-zero multiple of 5", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
