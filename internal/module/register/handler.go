package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/clientstate"
	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/middleware"
	tenderstore "github.com/simp-lee/smarttenders/internal/tender"
	"github.com/simp-lee/smarttenders/internal/wizard"
)

const (
	stepTemplate = "register/step.html"
	otpTemplate  = "register/otp.html"

	registerPath = "/register"
	otpPath      = "/register/otp"

	defaultPendingTTL = time.Hour
)

// SessionSaver persists the session obtained by confirming the OTP.
type SessionSaver interface {
	Save(ctx context.Context, clientID string, s *domain.Session) error
}

// ClientCache forgets per-client data fetched before the login changed.
type ClientCache interface {
	Drop(clientID string)
}

// Deps are the collaborators of RegisterPageHandler.
type Deps struct {
	Wizards    *wizard.Sessions
	Auth       domain.AuthService
	Packages   domain.PackageService
	Taxonomy   *tenderstore.TaxonomyLoader
	State      clientstate.Store
	Sessions   SessionSaver
	Cache      ClientCache // optional
	PendingTTL time.Duration
	Logger     *slog.Logger
}

// RegisterPageHandler drives the registration wizard and the OTP
// confirmation that follows it.
type RegisterPageHandler struct {
	deps      Deps
	validator *wizard.Validator
}

// NewRegisterPageHandler creates a RegisterPageHandler.
func NewRegisterPageHandler(deps Deps) *RegisterPageHandler {
	if deps.PendingTTL <= 0 {
		deps.PendingTTL = defaultPendingTTL
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &RegisterPageHandler{deps: deps, validator: wizard.NewValidator()}
}

// StepPage renders the current wizard step. A step query parameter moves
// back to an earlier step; later steps cannot be reached this way.
// GET /register?step=
func (h *RegisterPageHandler) StepPage(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}
	var w wizard.Wizard
	_ = h.deps.Wizards.With(clientID, func(wz *wizard.Wizard) error {
		if raw := c.Query("step"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				wz.GoTo(wizard.Step(n))
			}
		}
		w = *wz
		return nil
	})
	h.renderStep(c, http.StatusOK, w, wizard.Result{OK: true})
}

// Step handles a wizard form post. The "back" action returns to the previous
// step without validation; "next" stores and validates the posted section
// and either advances or, on the last step, submits the registration.
// POST /register
func (h *RegisterPageHandler) Step(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var (
		snapshot wizard.Wizard
		res      wizard.Result
		ticket   *domain.RegistrationTicket
	)
	err := h.deps.Wizards.With(clientID, func(w *wizard.Wizard) error {
		defer func() { snapshot = *w }()

		if c.PostForm("action") == actionBack {
			// Keep what was typed, but never validate on the way back.
			_ = bindStep(c, w)
			w.Back()
			res = wizard.Result{OK: true}
			return nil
		}

		if err := bindStep(c, w); err != nil {
			res = wizard.Result{Errors: map[string]string{"form": "The form contains invalid values."}}
			return nil
		}
		if !w.Last() {
			res = w.Next(h.validator)
			return nil
		}

		var err error
		ticket, res, err = w.Submit(ctx, h.deps.Auth, h.validator)
		return err
	})
	if err != nil {
		h.renderStep(c, domain.HTTPStatusCode(err), snapshot, wizard.Result{
			Errors: map[string]string{"form": domain.SafeMessage(err, "Registration failed, please try again later.")},
		})
		return
	}
	if !res.OK {
		h.renderStep(c, http.StatusUnprocessableEntity, snapshot, res)
		return
	}
	if ticket == nil {
		middleware.Redirect(c, registerPath)
		return
	}

	email := ticket.Email
	if email == "" {
		email = snapshot.Form.Account.Email
	}
	if err := clientstate.SetJSON(ctx, h.deps.State, clientID, clientstate.KeyRegistration, pending{Email: email}, h.deps.PendingTTL); err != nil {
		h.deps.Logger.ErrorContext(ctx, "store pending registration failed", slog.String("error", err.Error()))
		middleware.ErrorPage(c, domain.NewAppError(domain.CodeInternal, "store pending registration", err))
		return
	}
	h.deps.Wizards.Reset(clientID)
	msg := ticket.Message
	if msg == "" {
		msg = "We sent a verification code to " + email + "."
	}
	middleware.SetFlash(c, middleware.NoticeSuccess, msg)
	middleware.Redirect(c, otpPath)
}

// OTPPage renders the code form for the pending registration.
// GET /register/otp
func (h *RegisterPageHandler) OTPPage(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}
	p, found := h.pending(c, clientID)
	if !found {
		middleware.Redirect(c, registerPath)
		return
	}
	h.renderOTP(c, http.StatusOK, p.Email, nil, "")
}

// VerifyOTP confirms the pending registration and logs the new user in.
// POST /register/otp
func (h *RegisterPageHandler) VerifyOTP(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}
	p, found := h.pending(c, clientID)
	if !found {
		middleware.Redirect(c, registerPath)
		return
	}

	var req OTPRequest
	_ = c.ShouldBind(&req)
	if res := h.validator.Check(&req); !res.OK {
		h.renderOTP(c, http.StatusUnprocessableEntity, p.Email, res.Errors, "")
		return
	}

	ctx := c.Request.Context()
	s, err := h.deps.Auth.VerifyOTP(ctx, p.Email, req.Code)
	if err != nil {
		h.renderOTP(c, domain.HTTPStatusCode(err), p.Email, remoteFields(err), domain.SafeMessage(err, "The code could not be verified, please try again."))
		return
	}
	if err := h.deps.Sessions.Save(ctx, clientID, s); err != nil {
		middleware.ErrorPage(c, domain.NewAppError(domain.CodeInternal, "persist session", err))
		return
	}
	if h.deps.Cache != nil {
		h.deps.Cache.Drop(clientID)
	}
	if err := h.deps.State.Delete(ctx, clientID, clientstate.KeyRegistration); err != nil && !domain.IsNotFound(err) {
		h.deps.Logger.WarnContext(ctx, "clear pending registration failed", slog.String("error", err.Error()))
	}

	middleware.SetSession(c, s)
	middleware.SetFlash(c, middleware.NoticeSuccess, "Your account is confirmed. Welcome to SmartTenders.")
	middleware.Redirect(c, middleware.DashboardPath)
}

// ResendOTP asks the API to send a new code.
// POST /register/otp/resend
func (h *RegisterPageHandler) ResendOTP(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}
	p, found := h.pending(c, clientID)
	if !found {
		middleware.Redirect(c, registerPath)
		return
	}
	if err := h.deps.Auth.ResendOTP(c.Request.Context(), p.Email); err != nil {
		middleware.SetFlash(c, middleware.NoticeError, domain.SafeMessage(err, "The code could not be sent, please try again later."))
	} else {
		middleware.SetFlash(c, middleware.NoticeSuccess, "A new code is on its way.")
	}
	middleware.Redirect(c, otpPath)
}

// renderStep renders the wizard at w.Step with the options the step needs.
// Option lists that fail to load are reported but do not block the page.
func (h *RegisterPageHandler) renderStep(c *gin.Context, status int, w wizard.Wizard, res wizard.Result) {
	ctx := c.Request.Context()
	data := gin.H{
		"Title":   "Create an account",
		"Step":    w.Step,
		"Steps":   wizard.Steps,
		"Last":    w.Last(),
		"Form":    w.Form,
		"Errors":  res.Errors,
		"Message": res.Message(),

		"Categories": []domain.CategoryCount{},
		"Provinces":  []domain.Province{},
		"Packages":   []domain.Package{},
	}

	switch w.Step {
	case wizard.StepPreferences:
		tax, err := h.deps.Taxonomy.Get(ctx)
		if err != nil {
			data["OptionsError"] = domain.SafeMessage(err, "Categories could not be loaded.")
			break
		}
		data["Categories"] = tax.Categories
		data["Provinces"] = tax.Provinces
	case wizard.StepPackage:
		pkgs, err := h.deps.Packages.List(ctx)
		if err != nil {
			data["OptionsError"] = domain.SafeMessage(err, "Packages could not be loaded.")
			break
		}
		data["Packages"] = pkgs
	}

	c.HTML(status, stepTemplate, middleware.ViewData(c, data))
}

func (h *RegisterPageHandler) renderOTP(c *gin.Context, status int, email string, errs map[string]string, msg string) {
	c.HTML(status, otpTemplate, middleware.ViewData(c, gin.H{
		"Title":  "Confirm your email",
		"Email":  email,
		"Errors": errs,
		"Error":  msg,
	}))
}

func (h *RegisterPageHandler) pending(c *gin.Context, clientID string) (pending, bool) {
	var p pending
	err := clientstate.GetJSON(c.Request.Context(), h.deps.State, clientID, clientstate.KeyRegistration, &p)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.deps.Logger.WarnContext(c.Request.Context(), "load pending registration failed", slog.String("error", err.Error()))
		}
		return pending{}, false
	}
	return p, p.Email != ""
}

func (h *RegisterPageHandler) clientID(c *gin.Context) (string, bool) {
	id, err := middleware.RequireClientID(c)
	if err != nil {
		middleware.ErrorPage(c, domain.NewAppError(domain.CodeInternal, "client identity missing", err))
		return "", false
	}
	return id, true
}

// bindStep replaces the section of the current step with the posted values.
// Binding into a fresh value makes unchecked boxes clear earlier choices.
func bindStep(c *gin.Context, w *wizard.Wizard) error {
	switch w.Step {
	case wizard.StepAccount:
		var s domain.AccountStep
		if err := c.ShouldBind(&s); err != nil {
			return err
		}
		w.Form.Account = s
	case wizard.StepContact:
		var s domain.ContactStep
		if err := c.ShouldBind(&s); err != nil {
			return err
		}
		w.Form.Contact = s
	case wizard.StepPreferences:
		var s domain.PreferencesStep
		if err := c.ShouldBind(&s); err != nil {
			return err
		}
		w.Form.Preferences = s
	case wizard.StepPackage:
		var s domain.PackageStep
		if err := c.ShouldBind(&s); err != nil {
			return err
		}
		w.Form.Package = s
	default:
		return errors.New("register: unknown step")
	}
	return nil
}

// remoteFields returns the field errors reported by the API, if any.
func remoteFields(err error) map[string]string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
