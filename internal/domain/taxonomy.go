package domain

import "context"

// District is a facet entry below a province.
type District struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Province is a location facet with its districts.
type Province struct {
	Name      string     `json:"name"`
	Count     int        `json:"count"`
	Districts []District `json:"districts"`
}

// CategoryCount is a category facet entry.
type CategoryCount struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Taxonomy holds the facet counts used to render filters. Counts may be stale;
// the tender listing remains authoritative for membership.
type Taxonomy struct {
	Provinces  []Province      `json:"provinces"`
	Categories []CategoryCount `json:"categories"`
	Newspapers []Ref           `json:"newspapers"`
}

// DistrictsOf returns the districts of the named province, or nil.
func (t *Taxonomy) DistrictsOf(province string) []District {
	if t == nil {
		return nil
	}
	for _, p := range t.Provinces {
		if p.Name == province {
			return p.Districts
		}
	}
	return nil
}

// CategoryService is the remote category, location and newspaper resource.
type CategoryService interface {
	Taxonomy(ctx context.Context) (*Taxonomy, error)
}
