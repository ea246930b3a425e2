package netdesc

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Agent ids become hostnames and file names downstream
	namePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
)

func init() {
	validate = validator.New()
}

// ValidateDescription runs struct-tag validation plus the structural
// checks that tags cannot express. All structural errors are detected
// here, before any generation work begins.
func ValidateDescription(desc *Description) error {
	if desc == nil {
		return errors.New("description cannot be nil")
	}
	if err := validate.Struct(desc); err != nil {
		return formatValidationError(err)
	}

	dv := NewDescValidator("description")
	for _, g := range desc.Groups {
		g := g
		dv.Custom(g.Name, func() error {
			if !namePattern.MatchString(g.Name) {
				return fmt.Errorf("group name %q is not a valid host name prefix", g.Name)
			}
			return nil
		})
		dv.Custom(g.Name+".phases", g.Phases.Validate)
		if len(g.Phases) > 0 && !mustRole(g.Role).HasDaemon() {
			dv.AddError(fmt.Errorf("description.%s: phases require a daemon-bearing role, got %q", g.Name, g.Role))
		}
	}
	if desc.Params.Duration.Std() <= 0 {
		dv.AddError(errors.New("description.params.duration: must be positive"))
	}
	return dv.Validate()
}

// mustRole is ParseRole with the error swallowed; only call after tag
// validation has constrained the string.
func mustRole(s string) Role {
	r, _ := ParseRole(s)
	return r
}

// formatValidationError converts validator errors to a user-facing form.
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}

// DescValidator collects validation errors rather than failing on the
// first one, so an operator sees every problem in one pass.
type DescValidator struct {
	errors []error
	name   string
}

// NewDescValidator creates a validator scoped to the given config name.
func NewDescValidator(name string) *DescValidator {
	return &DescValidator{name: name, errors: make([]error, 0)}
}

// Required validates that a string field is not empty.
func (dv *DescValidator) Required(field, value string) *DescValidator {
	if value == "" {
		dv.errors = append(dv.errors, fmt.Errorf("%s.%s: required field is empty", dv.name, field))
	}
	return dv
}

// Positive validates that an int field is positive.
func (dv *DescValidator) Positive(field string, value int) *DescValidator {
	if value <= 0 {
		dv.errors = append(dv.errors, fmt.Errorf("%s.%s: value %d must be positive", dv.name, field, value))
	}
	return dv
}

// OneOf validates that a string field is one of the allowed values.
func (dv *DescValidator) OneOf(field, value string, allowed []string) *DescValidator {
	for _, a := range allowed {
		if value == a {
			return dv
		}
	}
	dv.errors = append(dv.errors, fmt.Errorf("%s.%s: value %q must be one of %v", dv.name, field, value, allowed))
	return dv
}

// Custom applies a custom validation function.
func (dv *DescValidator) Custom(field string, fn func() error) *DescValidator {
	if err := fn(); err != nil {
		dv.errors = append(dv.errors, fmt.Errorf("%s.%s: %w", dv.name, field, err))
	}
	return dv
}

// AddError records an already-formatted error.
func (dv *DescValidator) AddError(err error) *DescValidator {
	dv.errors = append(dv.errors, err)
	return dv
}

// HasErrors returns true if any validation errors occurred.
func (dv *DescValidator) HasErrors() bool {
	return len(dv.errors) > 0
}

// Errors returns all collected errors.
func (dv *DescValidator) Errors() []error {
	return dv.errors
}

// Validate returns a combined error if any validations failed.
func (dv *DescValidator) Validate() error {
	if len(dv.errors) == 0 {
		return nil
	}
	if len(dv.errors) == 1 {
		return dv.errors[0]
	}
	return fmt.Errorf("%s validation failed with %d errors, first: %v", dv.name, len(dv.errors), dv.errors[0])
}
