package tender

import (
	"net/url"
	"testing"

	"github.com/simp-lee/smarttenders/internal/domain"
)

func TestSeedFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.Filters
	}{
		{"none", "page=2&province=Koshi", nil},
		{"search only", "search=road", domain.Filters{domain.FilterSearch: "road"}},
		{"both", "search=road&category=4", domain.Filters{domain.FilterSearch: "road", domain.FilterCategory: "4"}},
		{"blank ignored", "search=+&category=4", domain.Filters{domain.FilterCategory: "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got := SeedFromQuery(q)
			if (got == nil) != (tt.want == nil) || !got.Equal(tt.want) {
				t.Errorf("SeedFromQuery(%q) = %v; want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestNeedsSeed(t *testing.T) {
	current := domain.Filters{domain.FilterSearch: "road", domain.FilterProvince: "Koshi"}
	if NeedsSeed(current, domain.Filters{domain.FilterSearch: "road"}) {
		t.Error("seed already applied")
	}
	if !NeedsSeed(current, domain.Filters{domain.FilterCategory: "2"}) {
		t.Error("new category should need seeding")
	}
	if NeedsSeed(current, nil) {
		t.Error("nil seed never needs applying")
	}
}

func TestListingURL_DropsSearchAfterStructuredFilter(t *testing.T) {
	current := domain.Filters{domain.FilterSearch: "road", domain.FilterCategory: "4"}
	next := current.Merge(domain.Filters{domain.FilterProvince: "Gandaki"})

	if got := ListingURL("/tenders", next); got != "/tenders?category=4" {
		t.Errorf("ListingURL = %q; want /tenders?category=4", got)
	}
	if got := ListingURL("/tenders", domain.Filters{}); got != "/tenders" {
		t.Errorf("ListingURL(empty) = %q", got)
	}
}
