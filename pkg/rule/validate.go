package rule

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}

			return name
		})

		err := validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return ValidSlug(fl.Field().String())
		})
		if err != nil {
			panic(fmt.Errorf("register slug validation: %w", err))
		}
	})

	return validate
}

// Validate checks a single rule's structure. The returned error wraps
// [ErrInvalidRule] and lists every failed field.
func Validate(r *Rule) error {
	err := getValidator().Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}

	return fmt.Errorf("%w: %s", ErrInvalidRule, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	// Drop the struct name, e.g. "Rule.author.name" becomes "author.name".
	_, field, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		field = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s)", field, fe.Param())
	case "slug":
		return fmt.Sprintf("%s %q is not a valid slug", field, fe.Value())
	case "url":
		return fmt.Sprintf("%s %q is not a valid URL", field, fe.Value())
	}

	return fmt.Sprintf("%s failed %q", field, fe.Tag())
}
