package remote

import (
	"context"
	"strings"

	"github.com/simp-lee/smarttenders/internal/domain"
)

type accountService struct {
	api API
}

// NewAccountService returns the remote account resource. Every call requires
// a bearer token in the context.
func NewAccountService(api API) domain.AccountService {
	return &accountService{api: api}
}

func (s *accountService) Profile(ctx context.Context) (*domain.Profile, error) {
	var p domain.Profile
	if err := s.api.Get(ctx, "/user/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *accountService) UpdateEmail(ctx context.Context, email string) error {
	return s.api.Put(ctx, "/user/email", map[string]string{"email": strings.TrimSpace(email)}, nil)
}

func (s *accountService) UpdateCategories(ctx context.Context, categoryIDs []int) error {
	if categoryIDs == nil {
		categoryIDs = []int{}
	}
	return s.api.Put(ctx, "/user/categories", map[string][]int{"categories": categoryIDs}, nil)
}
