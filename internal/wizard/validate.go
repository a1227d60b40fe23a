package wizard

import (
	"errors"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/pkg"
)

// Result is the outcome of validating one step. Errors maps the JSON name of
// each failing field to a human-readable message.
type Result struct {
	OK     bool              `json:"ok"`
	Errors map[string]string `json:"errors,omitempty"`
}

func ok() Result { return Result{OK: true} }

// failed returns a Result holding a single field error.
func failed(field, msg string) Result {
	return Result{Errors: map[string]string{field: msg}}
}

// Message joins the field messages into one sentence list ordered by field.
func (r Result) Message() string {
	if r.OK || len(r.Errors) == 0 {
		return ""
	}
	keys := make([]string, 0, len(r.Errors))
	for k := range r.Errors {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, r.Errors[k])
	}
	return strings.Join(msgs, " ")
}

// Validator checks wizard steps against the validate tags of the step types.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator reporting fields by their JSON names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Step validates the section of form that belongs to step.
func (v *Validator) Step(step Step, form *domain.RegistrationForm) Result {
	var section any
	switch step {
	case StepAccount:
		section = &form.Account
	case StepContact:
		section = &form.Contact
	case StepPreferences:
		section = &form.Preferences
	case StepPackage:
		section = &form.Package
	default:
		return failed("step", "Unknown registration step.")
	}
	return v.check(section)
}

// Check validates any form struct carrying validate tags, such as the login
// or password reset forms.
func (v *Validator) Check(form any) Result {
	return v.check(form)
}

func (v *Validator) check(section any) Result {
	err := v.v.Struct(section)
	if err == nil {
		return ok()
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return failed("form", "The form could not be checked.")
	}
	return Result{Errors: pkg.FieldErrors(ve, fieldName)}
}

// fieldName strips the index of slice elements, e.g. "categories[0]".
func fieldName(fe validator.FieldError) string {
	name, _, _ := strings.Cut(fe.Field(), "[")
	return name
}
