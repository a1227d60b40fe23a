package domain

// AccountStep holds the credentials entered on the first wizard step.
type AccountStep struct {
	Email                string `json:"email" form:"email" validate:"required,email,max=255"`
	Password             string `json:"password" form:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" validate:"required,eqfield=Password"`
}

// ContactStep holds the contact details entered on the second wizard step.
type ContactStep struct {
	Name    string `json:"name" form:"name" validate:"required,max=100"`
	Company string `json:"company" form:"company" validate:"max=150"`
	Phone   string `json:"phone" form:"phone" validate:"required,numeric,min=7,max=15"`
	Address string `json:"address" form:"address" validate:"max=255"`
}

// PreferencesStep holds the tender interests chosen on the third wizard step.
type PreferencesStep struct {
	Categories []int    `json:"categories" form:"categories" validate:"min=1,dive,gt=0"`
	Provinces  []string `json:"provinces" form:"provinces" validate:"dive,max=100"`
}

// PackageStep holds the subscription chosen on the last wizard step.
type PackageStep struct {
	PackageID int `json:"package_id" form:"package_id" validate:"required,gt=0"`
}

// RegistrationForm is the record accumulated across all wizard steps and
// submitted to the registration endpoint.
type RegistrationForm struct {
	Account     AccountStep     `json:"account"`
	Contact     ContactStep     `json:"contact"`
	Preferences PreferencesStep `json:"preferences"`
	Package     PackageStep     `json:"package"`
}
