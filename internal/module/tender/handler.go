package tender

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/middleware"
	"github.com/simp-lee/smarttenders/internal/pkg"
	tenderstore "github.com/simp-lee/smarttenders/internal/tender"
)

// TenderHandler serves the JSON API used by script-driven listing widgets.
type TenderHandler struct {
	stores   *tenderstore.Registry
	taxonomy *tenderstore.TaxonomyLoader
	svc      domain.TenderService
}

// NewTenderHandler creates a TenderHandler.
func NewTenderHandler(stores *tenderstore.Registry, taxonomy *tenderstore.TaxonomyLoader, svc domain.TenderService) *TenderHandler {
	return &TenderHandler{stores: stores, taxonomy: taxonomy, svc: svc}
}

// List handles GET /api/v1/tenders. Without a page parameter it returns the
// current listing, loading it first if needed; with one it fetches that page,
// replacing the list when reset is set and appending otherwise.
func (h *TenderHandler) List(c *gin.Context) {
	st, ok := storeFor(c, h.stores)
	if !ok {
		return
	}
	if _, set := c.GetQuery("page"); !set {
		pkg.Success(c, st.Ensure(c.Request.Context()))
		return
	}
	q := pkg.ParsePageQuery(c)
	pkg.Success(c, st.FetchPage(c.Request.Context(), q.Page, q.Reset))
}

// UpdateFilters handles PUT /api/v1/tenders/filters.
func (h *TenderHandler) UpdateFilters(c *gin.Context) {
	var req FiltersRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	st, ok := storeFor(c, h.stores)
	if !ok {
		return
	}
	pkg.Success(c, st.SetFilters(c.Request.Context(), req.patch()))
}

// ResetFilters handles DELETE /api/v1/tenders/filters.
func (h *TenderHandler) ResetFilters(c *gin.Context) {
	st, ok := storeFor(c, h.stores)
	if !ok {
		return
	}
	pkg.Success(c, st.ResetFilters(c.Request.Context()))
}

// Get handles GET /api/v1/tenders/:id. The route is guarded by an active
// package requirement.
func (h *TenderHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}
	t, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, t)
}

// Taxonomy handles GET /api/v1/taxonomy.
func (h *TenderHandler) Taxonomy(c *gin.Context) {
	tax, err := h.taxonomy.Get(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, tax)
}

// storeFor returns the tender store of the requesting client. A request
// without client identity is answered with an internal error.
func storeFor(c *gin.Context, stores *tenderstore.Registry) (*tenderstore.Store, bool) {
	clientID, err := middleware.RequireClientID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeInternal, "client identity missing", err))
		return nil, false
	}
	return stores.Get(c.Request.Context(), clientID), true
}

// parseID extracts and validates the "id" URL parameter.
func parseID(c *gin.Context) (int, error) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid tender id: %s", raw)
	}
	return id, nil
}
