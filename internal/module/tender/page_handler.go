package tender

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/middleware"
	"github.com/simp-lee/smarttenders/internal/pkg"
	tenderstore "github.com/simp-lee/smarttenders/internal/tender"
)

const listPath = "/tenders"

// TenderPageHandler renders the tender listing, its htmx fragments and the
// guarded detail page.
type TenderPageHandler struct {
	stores   *tenderstore.Registry
	taxonomy *tenderstore.TaxonomyLoader
	svc      domain.TenderService
}

// NewTenderPageHandler creates a TenderPageHandler.
func NewTenderPageHandler(stores *tenderstore.Registry, taxonomy *tenderstore.TaxonomyLoader, svc domain.TenderService) *TenderPageHandler {
	return &TenderPageHandler{stores: stores, taxonomy: taxonomy, svc: svc}
}

// ListPage renders the tender listing.
// GET /tenders
//
// A search or category in the query seeds the filters when it differs from
// the stored ones. An explicit page loads only that page.
func (h *TenderPageHandler) ListPage(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var snap tenderstore.Snapshot
	seed := tenderstore.SeedFromQuery(c.Request.URL.Query())
	if seed != nil && tenderstore.NeedsSeed(st.Snapshot().Filters, seed) {
		snap = st.SetFilters(ctx, seed)
	} else {
		snap = st.Ensure(ctx)
	}
	if c.Query("page") != "" {
		if q := pkg.ParsePageQuery(c); q.Page != snap.Page || !snap.Loaded {
			snap = st.FetchPage(ctx, q.Page, true)
		}
	}

	c.HTML(http.StatusOK, "tenders/list.html", middleware.ViewData(c, h.listData(c, snap)))
}

// MoreRows renders the next page of rows as an htmx fragment.
// GET /tenders/more?page=
func (h *TenderPageHandler) MoreRows(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	q := pkg.ParsePageQuery(c)
	reset := q.Reset && c.Query("reset") != ""
	snap := st.FetchPage(c.Request.Context(), q.Page, reset)
	c.HTML(http.StatusOK, "tenders/rows.html", middleware.ViewData(c, gin.H{
		"Snapshot": snap,
		"NextPage": snap.Cursor.CurrentPage + 1,
		"HasMore":  snap.Cursor.HasMore(),
	}))
}

// ApplyFilters merges the submitted filter form and redirects to the
// listing. The redirect URL carries only the synchronised keys, so a
// structured filter change without a search term leaves none in the URL.
// POST /tenders/filters
func (h *TenderPageHandler) ApplyFilters(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	snap := st.SetFilters(c.Request.Context(), pkg.ParseFilterPatch(c))
	if snap.Error != "" {
		middleware.SetFlash(c, middleware.NoticeError, snap.Error)
	}
	middleware.Redirect(c, tenderstore.ListingURL(listPath, snap.Filters))
}

// ResetFilters clears every filter and redirects to the bare listing.
// POST /tenders/filters/reset
func (h *TenderPageHandler) ResetFilters(c *gin.Context) {
	st, ok := h.store(c)
	if !ok {
		return
	}
	st.ResetFilters(c.Request.Context())
	middleware.Redirect(c, listPath)
}

// DetailPage renders one tender. The route requires an active package.
// GET /tenders/:id
func (h *TenderPageHandler) DetailPage(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		middleware.ErrorPage(c, domain.NewAppError(domain.CodeValidation, "invalid tender id", err))
		return
	}
	ctx := c.Request.Context()
	t, err := h.svc.Get(ctx, id)
	if err != nil {
		if !domain.IsNotFound(err) {
			slog.WarnContext(ctx, "load tender failed", slog.Int("tender_id", id), slog.String("error", err.Error()))
		}
		middleware.ErrorPage(c, err)
		return
	}
	c.HTML(http.StatusOK, "tenders/detail.html", middleware.ViewData(c, gin.H{
		"Title":  t.Title,
		"Tender": t,
	}))
}

// months are the Bikram Sambat month names; the month filter is 1-based.
var months = []string{
	"Baishakh", "Jestha", "Ashadh", "Shrawan", "Bhadra", "Ashwin",
	"Kartik", "Mangsir", "Poush", "Magh", "Falgun", "Chaitra",
}

func (h *TenderPageHandler) listData(c *gin.Context, snap tenderstore.Snapshot) gin.H {
	data := gin.H{
		"Title":     "Tenders",
		"Snapshot":  snap,
		"Filters":   snap.Filters,
		"NextPage":  snap.Cursor.CurrentPage + 1,
		"HasMore":   snap.Cursor.HasMore(),
		"Statuses":  []domain.TenderStatus{domain.TenderLive, domain.TenderClosed},
		"Districts": []domain.District{},
		"Months":    months,
	}
	tax, err := h.taxonomy.Get(c.Request.Context())
	if err != nil {
		// The listing still renders; the facets are simply absent.
		slog.WarnContext(c.Request.Context(), "taxonomy unavailable", slog.String("error", err.Error()))
		data["TaxonomyError"] = domain.SafeMessage(err, "Filters are temporarily unavailable.")
		return data
	}
	data["Taxonomy"] = tax
	if d := tax.DistrictsOf(snap.Filters[domain.FilterProvince]); d != nil {
		data["Districts"] = d
	}
	return data
}

func (h *TenderPageHandler) store(c *gin.Context) (*tenderstore.Store, bool) {
	clientID, err := middleware.RequireClientID(c)
	if err != nil {
		middleware.ErrorPage(c, domain.NewAppError(domain.CodeInternal, "client identity missing", err))
		return nil, false
	}
	return h.stores.Get(c.Request.Context(), clientID), true
}
