package domain

import (
	"net/url"
	"testing"
)

func TestFilters_Merge(t *testing.T) {
	tests := []struct {
		name    string
		current Filters
		partial Filters
		want    Filters
	}{
		{
			name:    "structured filter clears search",
			current: Filters{FilterSearch: "road", FilterProvince: "Bagmati"},
			partial: Filters{FilterCategory: "4"},
			want:    Filters{FilterProvince: "Bagmati", FilterCategory: "4"},
		},
		{
			name:    "search kept when re-specified",
			current: Filters{FilterSearch: "road"},
			partial: Filters{FilterSearch: "bridge", FilterYear: "2081"},
			want:    Filters{FilterSearch: "bridge", FilterYear: "2081"},
		},
		{
			name:    "page key ignored",
			current: Filters{},
			partial: Filters{"page": "3", FilterStatus: "live"},
			want:    Filters{FilterStatus: "live"},
		},
		{
			name:    "unknown key ignored",
			current: Filters{},
			partial: Filters{"sort": "asc"},
			want:    Filters{},
		},
		{
			name:    "empty value removes key",
			current: Filters{FilterDistrict: "Kaski", FilterProvince: "Gandaki"},
			partial: Filters{FilterDistrict: "  "},
			want:    Filters{FilterProvince: "Gandaki"},
		},
		{
			name:    "nil current",
			current: nil,
			partial: Filters{FilterCode: "NT-12"},
			want:    Filters{FilterCode: "NT-12"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.current.Merge(tt.partial)
			if !got.Equal(tt.want) {
				t.Errorf("Merge() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestFilters_MergeDoesNotMutateReceiver(t *testing.T) {
	current := Filters{FilterSearch: "road"}
	_ = current.Merge(Filters{FilterYear: "2081"})
	if current[FilterSearch] != "road" || len(current) != 1 {
		t.Fatalf("receiver mutated: %v", current)
	}
}

func TestFilters_ValuesRoundTrip(t *testing.T) {
	f := Filters{FilterProvince: "Koshi", FilterMonth: "5", FilterStatus: "closed"}
	got := FiltersFromValues(f.Values())
	if !got.Equal(f) {
		t.Fatalf("round trip = %v; want %v", got, f)
	}
}

func TestFiltersFromValues_IgnoresUnknownAndEmpty(t *testing.T) {
	v := url.Values{}
	v.Set("page", "2")
	v.Set("category", "9")
	v.Set("search", " ")
	got := FiltersFromValues(v)
	want := Filters{FilterCategory: "9"}
	if !got.Equal(want) {
		t.Fatalf("FiltersFromValues() = %v; want %v", got, want)
	}
}

func TestCursor_HasMore(t *testing.T) {
	if !(Cursor{CurrentPage: 1, LastPage: 2}).HasMore() {
		t.Error("page 1 of 2 should have more")
	}
	if (Cursor{CurrentPage: 2, LastPage: 2}).HasMore() {
		t.Error("page 2 of 2 should not have more")
	}
}

func TestSession_Flags(t *testing.T) {
	var nilSession *Session
	if nilSession.Authenticated() {
		t.Error("nil session should not be authenticated")
	}
	s := &Session{Token: "t"}
	if !s.Authenticated() || s.HasActivePackage() {
		t.Errorf("token-only session: authenticated=%v package=%v", s.Authenticated(), s.HasActivePackage())
	}
	s.User.PackageActive = true
	if !s.HasActivePackage() {
		t.Error("expected active package")
	}
}
