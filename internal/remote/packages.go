package remote

import (
	"context"

	"github.com/simp-lee/smarttenders/internal/domain"
)

type packageService struct {
	api API
}

// NewPackageService returns the remote package catalogue.
func NewPackageService(api API) domain.PackageService {
	return &packageService{api: api}
}

func (s *packageService) List(ctx context.Context) ([]domain.Package, error) {
	var out []domain.Package
	if err := s.api.Get(ctx, "/packages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
