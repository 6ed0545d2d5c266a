package f1

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("racetime", func(fl validator.FieldLevel) bool {
		_, err := parseRaceTime(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks a single record, or every element of a slice of records,
// against its schema. Failures wrap ErrInvalidPayload.
func Validate(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if err := validate.Struct(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("%w: record %d: %v", ErrInvalidPayload, i, err)
			}
		}
		return nil
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
