package register

// OTPRequest is the one-time code form.
type OTPRequest struct {
	Code string `json:"code" form:"code" validate:"required,numeric,min=4,max=8"`
}

// pending is the registration awaiting OTP confirmation, kept in client state
// under clientstate.KeyRegistration.
type pending struct {
	Email string `json:"email"`
}

const (
	actionNext = "next"
	actionBack = "back"
)
