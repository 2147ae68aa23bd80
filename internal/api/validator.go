package api

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// messageTag names the struct tag holding the client facing message for a field.
const messageTag = "message"

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator for request DTOs.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate checks i against its `validate` tags. Failures come back as a single
// APIError listing one message per failed field, taken from the `message` tag when present.
func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewBadRequestError("invalid request", err)
	}
	return NewFieldErrors(fieldMessages(i, verrs))
}

func fieldMessages(i interface{}, verrs validator.ValidationErrors) []string {
	t := reflect.TypeOf(i)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		var msg string
		if f, ok := t.FieldByName(fe.StructField()); ok {
			msg = f.Tag.Get(messageTag)
		}
		if msg == "" {
			msg = fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
