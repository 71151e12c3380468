package sqlite

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
)

// entityValidator checks `validate` struct tags on entities and reports
// failures under the property identifier from the `prop` tag.
type entityValidator struct {
	validate *validator.Validate
}

func newEntityValidator() *entityValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("prop")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return &entityValidator{validate: v}
}

// group validates one tracked entity. It reports false when the entity passes.
// An entity the validator cannot inspect, such as a non-struct type, is an error.
func (v *entityValidator) group(e *entry) (domain.EntityValidationGroup, bool, error) {
	err := v.validate.Struct(e.entity)
	if err == nil {
		return domain.EntityValidationGroup{}, false, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.EntityValidationGroup{}, false, fmt.Errorf("validate %s: %w", e.entity.TableName(), err)
	}

	g := domain.EntityValidationGroup{Entry: e}
	for _, fe := range fieldErrs {
		g.Errors = append(g.Errors, domain.FieldValidationError{
			PropertyIdentifier: fe.Field(),
			Message:            fieldMessage(fe),
		})
	}
	return g, true, nil
}

// fieldMessage renders a failed rule the way data-annotation validators word it.
func fieldMessage(fe validator.FieldError) string {
	name, param := fe.Field(), fe.Param()
	sized := fe.Kind() == reflect.String || fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "max":
		if sized {
			return fmt.Sprintf("The field %s must be a string or array type with a maximum length of '%s'.", name, param)
		}
		return fmt.Sprintf("The field %s must be less than or equal to %s.", name, param)
	case "min":
		if sized {
			return fmt.Sprintf("The field %s must be a string or array type with a minimum length of '%s'.", name, param)
		}
		return fmt.Sprintf("The field %s must be greater than or equal to %s.", name, param)
	case "len":
		return fmt.Sprintf("The field %s must be a string or array type with a length of '%s'.", name, param)
	case "gte":
		return fmt.Sprintf("The field %s must be greater than or equal to %s.", name, param)
	case "lte":
		return fmt.Sprintf("The field %s must be less than or equal to %s.", name, param)
	case "oneof":
		return fmt.Sprintf("The field %s must be one of '%s'.", name, param)
	default:
		return fmt.Sprintf("The field %s is invalid.", name)
	}
}
