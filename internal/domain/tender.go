package domain

import (
	"context"
	"maps"
	"net/url"
	"strings"
	"time"
)

// TenderStatus is the publication state of a tender notice.
type TenderStatus string

const (
	TenderDraft  TenderStatus = "draft"
	TenderLive   TenderStatus = "live"
	TenderClosed TenderStatus = "closed"
)

// Valid reports whether s is a known tender status.
func (s TenderStatus) Valid() bool {
	switch s {
	case TenderDraft, TenderLive, TenderClosed:
		return true
	default:
		return false
	}
}

// Ref is a reference to a named catalogue entry (category, newspaper).
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Attachment is a file published with a tender.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Tender is a read-only copy of a tender notice owned by the remote API.
type Tender struct {
	ID          int               `json:"id"`
	Title       string            `json:"title"`
	Code        string            `json:"code"`
	PublishedAt time.Time         `json:"published_at"`
	DueAt       *time.Time        `json:"due_at"`
	Province    string            `json:"province"`
	District    string            `json:"district"`
	Status      TenderStatus      `json:"status"`
	Categories  []Ref             `json:"categories"`
	Papers      []Ref             `json:"papers"`
	Files       []Attachment      `json:"files"`
	Documents   map[string]string `json:"documents,omitempty"`
}

// Cursor is the pagination state reported by the server for the latest page.
type Cursor struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
}

// HasMore reports whether pages after the current one exist.
func (c Cursor) HasMore() bool {
	return c.CurrentPage < c.LastPage
}

// TenderPage is one page of the tender listing together with status counts.
type TenderPage struct {
	Items  []Tender       `json:"items"`
	Cursor Cursor         `json:"cursor"`
	Counts map[string]int `json:"counts"`
}

// Filter keys understood by the tender listing.
const (
	FilterCode      = "code"
	FilterSearch    = "search"
	FilterProvince  = "province"
	FilterDistrict  = "district"
	FilterCategory  = "category"
	FilterNewspaper = "newspaper"
	FilterMonth     = "month"
	FilterYear      = "year"
	FilterStatus    = "status"
)

// FilterKeys lists every filter key in rendering order.
var FilterKeys = []string{
	FilterCode, FilterSearch, FilterProvince, FilterDistrict, FilterCategory,
	FilterNewspaper, FilterMonth, FilterYear, FilterStatus,
}

// IsFilterKey reports whether key names a tender filter. "page" is never a filter.
func IsFilterKey(key string) bool {
	for _, k := range FilterKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Filters maps filter keys to scalar values. An absent key means the
// criterion is unconstrained.
type Filters map[string]string

// Clone returns an independent copy of f. A nil receiver yields an empty map.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	maps.Copy(out, f)
	return out
}

// Merge returns f with partial applied. Unknown keys and "page" are ignored,
// empty values remove the key, and the search term is dropped unless partial
// re-specifies it.
func (f Filters) Merge(partial Filters) Filters {
	out := f.Clone()
	if _, ok := partial[FilterSearch]; !ok {
		delete(out, FilterSearch)
	}
	for k, v := range partial {
		if !IsFilterKey(k) {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Equal reports whether f and other hold the same criteria.
func (f Filters) Equal(other Filters) bool {
	return maps.Equal(f, other)
}

// Values renders the filters as query parameters.
func (f Filters) Values() url.Values {
	v := url.Values{}
	for _, k := range FilterKeys {
		if val, ok := f[k]; ok && val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// FiltersFromValues extracts known filter keys from query parameters.
func FiltersFromValues(v url.Values) Filters {
	out := Filters{}
	for _, k := range FilterKeys {
		if val := strings.TrimSpace(v.Get(k)); val != "" {
			out[k] = val
		}
	}
	return out
}

// TenderService is the remote tender resource.
type TenderService interface {
	List(ctx context.Context, filters Filters, page int) (*TenderPage, error)
	Get(ctx context.Context, id int) (*Tender, error)
}
