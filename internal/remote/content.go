package remote

import (
	"context"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/simp-lee/smarttenders/internal/domain"
)

type contentService struct {
	api    API
	policy *bluemonday.Policy
}

// NewContentService returns the remote CMS resource. HTML fields are
// sanitized before they leave the service.
func NewContentService(api API) domain.ContentService {
	return &contentService{api: api, policy: bluemonday.UGCPolicy()}
}

func (s *contentService) Footer(ctx context.Context) (*domain.FooterContent, error) {
	var f domain.FooterContent
	if err := s.api.Get(ctx, "/footer", nil, &f); err != nil {
		return nil, err
	}
	f.About = s.policy.Sanitize(f.About)
	return &f, nil
}

func (s *contentService) Page(ctx context.Context, slug string) (*domain.ContentPage, error) {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" {
		return nil, domain.ErrNotFound
	}
	var p domain.ContentPage
	if err := s.api.Get(ctx, "/pages/"+url.PathEscape(slug), nil, &p); err != nil {
		return nil, err
	}
	if p.Slug == "" {
		p.Slug = slug
	}
	p.Body = s.policy.Sanitize(p.Body)
	return &p, nil
}

func (s *contentService) Testimonials(ctx context.Context) ([]domain.Testimonial, error) {
	var out []domain.Testimonial
	if err := s.api.Get(ctx, "/testimonials", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
