package pkg

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/smarttenders/internal/domain"
)

const (
	defaultPage = 1
	maxPage     = 10000
)

// ParsePageQuery extracts the listing page and the reset flag from query
// params. Unparsable or out of range pages fall back to the first page.
// Reset defaults to true for the first page and false otherwise.
func ParsePageQuery(c *gin.Context) domain.PageQuery {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	if err != nil || page < 1 || page > maxPage {
		page = defaultPage
	}

	reset := page == defaultPage
	if raw, ok := c.GetQuery("reset"); ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			reset = v
		}
	}

	return domain.PageQuery{Page: page, Reset: reset}
}

// ParseFilterPatch collects the filter keys present in the request's query
// and form values. Keys sent with an empty value are kept so that merging
// the patch clears them; keys not sent at all are absent.
func ParseFilterPatch(c *gin.Context) domain.Filters {
	patch := domain.Filters{}
	_ = c.Request.ParseForm()
	for _, key := range domain.FilterKeys {
		values, ok := c.Request.Form[key]
		if !ok {
			continue
		}
		v := ""
		if len(values) > 0 {
			v = strings.TrimSpace(values[0])
		}
		patch[key] = v
	}
	return patch
}
