package remote

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/simp-lee/smarttenders/internal/domain"
)

type categoryService struct {
	api API
}

// NewCategoryService returns the remote category and location facet resource.
func NewCategoryService(api API) domain.CategoryService {
	return &categoryService{api: api}
}

// Taxonomy fetches the province, category and newspaper facets concurrently.
func (s *categoryService) Taxonomy(ctx context.Context) (*domain.Taxonomy, error) {
	var (
		provinces  []domain.Province
		categories []domain.CategoryCount
		newspapers []domain.Ref
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.api.Get(gctx, "/provinces", nil, &provinces)
	})
	g.Go(func() error {
		return s.api.Get(gctx, "/categories", nil, &categories)
	})
	g.Go(func() error {
		return s.api.Get(gctx, "/newspapers", nil, &newspapers)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if provinces == nil {
		provinces = []domain.Province{}
	}
	if categories == nil {
		categories = []domain.CategoryCount{}
	}
	if newspapers == nil {
		newspapers = []domain.Ref{}
	}
	return &domain.Taxonomy{Provinces: provinces, Categories: categories, Newspapers: newspapers}, nil
}
