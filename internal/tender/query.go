package tender

import (
	"net/url"
	"strings"

	"github.com/simp-lee/smarttenders/internal/domain"
)

// urlSeedKeys are the filters a listing URL may carry on page load.
var urlSeedKeys = []string{domain.FilterSearch, domain.FilterCategory}

// SeedFromQuery returns the filters a listing URL asks for, or nil when it
// carries none.
func SeedFromQuery(q url.Values) domain.Filters {
	var seed domain.Filters
	for _, k := range urlSeedKeys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if seed == nil {
				seed = domain.Filters{}
			}
			seed[k] = v
		}
	}
	return seed
}

// NeedsSeed reports whether applying seed would change current.
func NeedsSeed(current, seed domain.Filters) bool {
	for k, v := range seed {
		if current[k] != v {
			return true
		}
	}
	return false
}

// ListingQuery renders the URL query of the listing after a filter action.
// Only the URL-synchronised keys are kept, so a structured filter that
// dropped the search term also drops it from the address bar.
func ListingQuery(filters domain.Filters) url.Values {
	q := url.Values{}
	for _, k := range urlSeedKeys {
		if v := filters[k]; v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// ListingURL returns path with the listing query of filters.
func ListingURL(path string, filters domain.Filters) string {
	q := ListingQuery(filters)
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
