// Package wizard implements the four-step registration flow:
// Account, Contact, Preferences, Package. Advancing validates the current
// step; going back never does. The accumulated form is submitted once the
// last step passes.
package wizard

import (
	"context"
	"errors"

	"github.com/simp-lee/smarttenders/internal/domain"
)

// Step identifies a wizard step.
type Step int

const (
	StepAccount Step = iota + 1
	StepContact
	StepPreferences
	StepPackage
)

// Steps lists the steps in order.
var Steps = []Step{StepAccount, StepContact, StepPreferences, StepPackage}

func (s Step) String() string {
	switch s {
	case StepAccount:
		return "account"
	case StepContact:
		return "contact"
	case StepPreferences:
		return "preferences"
	case StepPackage:
		return "package"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s >= StepAccount && s <= StepPackage
}

// Wizard holds the position and accumulated form of one registration.
type Wizard struct {
	Step Step
	Form domain.RegistrationForm
}

// New returns a wizard on the first step with an empty form.
func New() *Wizard {
	return &Wizard{Step: StepAccount}
}

// Last reports whether the wizard is on the final step.
func (w *Wizard) Last() bool {
	return w.Step == StepPackage
}

// Next validates the current step and, when it passes, advances to the next
// one. On the last step a passing Next leaves the position unchanged.
func (w *Wizard) Next(v *Validator) Result {
	res := v.Step(w.Step, &w.Form)
	if !res.OK {
		return res
	}
	if w.Step < StepPackage {
		w.Step++
	}
	return res
}

// Back moves to the previous step without validation.
func (w *Wizard) Back() {
	if w.Step > StepAccount {
		w.Step--
	}
}

// GoTo moves back to an earlier step without validation. Jumping forward is
// refused, since every step up to the target has to pass Next first.
func (w *Wizard) GoTo(s Step) bool {
	if !s.Valid() || s > w.Step {
		return false
	}
	w.Step = s
	return true
}

// Validate checks every step in order and moves the wizard to the first one
// that fails.
func (w *Wizard) Validate(v *Validator) Result {
	for _, s := range Steps {
		if res := v.Step(s, &w.Form); !res.OK {
			w.Step = s
			return res
		}
	}
	return ok()
}

// Submit validates the whole form and sends it to the registration service.
// Field errors, whether local or returned by the API, come back as a failed
// Result with a nil error; other failures are returned as errors.
func (w *Wizard) Submit(ctx context.Context, auth domain.AuthService, v *Validator) (*domain.RegistrationTicket, Result, error) {
	if res := w.Validate(v); !res.OK {
		return nil, res, nil
	}

	ticket, err := auth.Register(ctx, w.Form)
	if err == nil {
		return ticket, ok(), nil
	}

	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Code == domain.CodeValidation {
		res := Result{Errors: map[string]string{}}
		for field, msg := range appErr.Fields {
			res.Errors[field] = msg
		}
		if len(res.Errors) == 0 {
			res.Errors["form"] = appErr.Message
		}
		if s, found := stepOfFields(res.Errors); found {
			w.Step = s
		}
		return nil, res, nil
	}
	return nil, Result{}, err
}

// fieldSteps maps API field names to the step that collects them.
var fieldSteps = map[string]Step{
	"email":                 StepAccount,
	"password":              StepAccount,
	"password_confirmation": StepAccount,
	"name":                  StepContact,
	"company":               StepContact,
	"phone":                 StepContact,
	"address":               StepContact,
	"categories":            StepPreferences,
	"provinces":             StepPreferences,
	"package_id":            StepPackage,
}

// stepOfFields returns the earliest step owning one of the failing fields.
func stepOfFields(errs map[string]string) (Step, bool) {
	best, found := StepPackage, false
	for field := range errs {
		if s, ok := fieldSteps[field]; ok && (!found || s < best) {
			best, found = s, true
		}
	}
	return best, found
}
