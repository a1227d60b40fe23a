package account

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/middleware"
	tenderstore "github.com/simp-lee/smarttenders/internal/tender"
	"github.com/simp-lee/smarttenders/internal/wizard"
)

// AccountPageHandler renders the dashboard and handles its forms.
type AccountPageHandler struct {
	svc       Service
	taxonomy  *tenderstore.TaxonomyLoader
	validator *wizard.Validator
}

// NewAccountPageHandler creates a new AccountPageHandler.
func NewAccountPageHandler(svc Service, taxonomy *tenderstore.TaxonomyLoader) *AccountPageHandler {
	return &AccountPageHandler{svc: svc, taxonomy: taxonomy, validator: wizard.NewValidator()}
}

// Dashboard renders the profile, subscription and preference forms.
// GET /dashboard
func (h *AccountPageHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	p, s, err := h.svc.Profile(ctx, middleware.GetClientID(c), middleware.GetSession(c))
	if err != nil {
		if domain.IsUnauthorized(err) {
			expireAndLogin(c, h.svc)
			return
		}
		middleware.ErrorPage(c, err)
		return
	}
	middleware.SetSession(c, s)

	selected := make(map[int]bool, len(p.Categories))
	for _, ref := range p.Categories {
		selected[ref.ID] = true
	}
	data := gin.H{
		"Title":      "Dashboard",
		"Profile":    p,
		"Selected":   selected,
		"Categories": []domain.CategoryCount{},
	}
	if tax, err := h.taxonomy.Get(ctx); err != nil {
		slog.WarnContext(ctx, "taxonomy unavailable", slog.String("error", err.Error()))
	} else {
		data["Categories"] = tax.Categories
	}
	c.HTML(http.StatusOK, "dashboard/index.html", middleware.ViewData(c, data))
}

// UpdateEmail changes the account address.
// POST /dashboard/email
func (h *AccountPageHandler) UpdateEmail(c *gin.Context) {
	var req UpdateEmailRequest
	_ = c.ShouldBind(&req)
	if res := h.validator.Check(&req); !res.OK {
		middleware.SetFlash(c, middleware.NoticeError, res.Message())
		middleware.Redirect(c, middleware.DashboardPath)
		return
	}

	s, err := h.svc.UpdateEmail(c.Request.Context(), middleware.GetClientID(c), middleware.GetSession(c), req.Email)
	if h.failed(c, err, "The email could not be updated, please try again later.") {
		return
	}
	middleware.SetSession(c, s)
	middleware.SetFlash(c, middleware.NoticeSuccess, "Your email address has been updated.")
	middleware.Redirect(c, middleware.DashboardPath)
}

// UpdateCategories replaces the tender categories the user follows.
// POST /dashboard/categories
func (h *AccountPageHandler) UpdateCategories(c *gin.Context) {
	var req UpdateCategoriesRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.SetFlash(c, middleware.NoticeError, "Choose categories from the list.")
		middleware.Redirect(c, middleware.DashboardPath)
		return
	}
	if res := h.validator.Check(&req); !res.OK {
		middleware.SetFlash(c, middleware.NoticeError, res.Message())
		middleware.Redirect(c, middleware.DashboardPath)
		return
	}

	err := h.svc.UpdateCategories(c.Request.Context(), req.Categories)
	if h.failed(c, err, "Your categories could not be saved, please try again later.") {
		return
	}
	middleware.SetFlash(c, middleware.NoticeSuccess, "Your tender categories have been saved.")
	middleware.Redirect(c, middleware.DashboardPath)
}

// failed reports err to the user and reports whether the request is done.
func (h *AccountPageHandler) failed(c *gin.Context, err error, fallback string) bool {
	switch {
	case err == nil:
		return false
	case domain.IsUnauthorized(err):
		expireAndLogin(c, h.svc)
	default:
		middleware.SetFlash(c, middleware.NoticeError, domain.SafeMessage(err, fallback))
		middleware.Redirect(c, middleware.DashboardPath)
	}
	return true
}
