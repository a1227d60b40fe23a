package tender

import "github.com/simp-lee/smarttenders/internal/domain"

// FiltersRequest is the body of PUT /api/v1/tenders/filters. A key sent with
// an empty value clears that filter; keys not sent keep their value, except
// the search term which is dropped unless re-sent.
type FiltersRequest struct {
	Filters map[string]string `json:"filters" binding:"required"`
}

func (r FiltersRequest) patch() domain.Filters {
	out := make(domain.Filters, len(r.Filters))
	for k, v := range r.Filters {
		out[k] = v
	}
	return out
}
