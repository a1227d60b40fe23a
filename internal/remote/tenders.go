package remote

import (
	"context"
	"fmt"
	"strconv"

	"github.com/simp-lee/smarttenders/internal/domain"
)

type tenderService struct {
	api API
}

// NewTenderService returns the remote tender resource.
func NewTenderService(api API) domain.TenderService {
	return &tenderService{api: api}
}

// tenderListPayload mirrors the paginated listing returned by GET /tenders.
type tenderListPayload struct {
	Data        []domain.Tender `json:"data"`
	CurrentPage int             `json:"current_page"`
	LastPage    int             `json:"last_page"`
	Total       int             `json:"total"`
	Counts      map[string]int  `json:"counts"`
}

// List fetches one page of tenders matching filters.
func (s *tenderService) List(ctx context.Context, filters domain.Filters, page int) (*domain.TenderPage, error) {
	if page < 1 {
		page = 1
	}
	q := filters.Values()
	q.Set("page", strconv.Itoa(page))

	var p tenderListPayload
	if err := s.api.Get(ctx, "/tenders", q, &p); err != nil {
		return nil, err
	}

	items := p.Data
	if items == nil {
		items = []domain.Tender{}
	}
	return &domain.TenderPage{
		Items: items,
		Cursor: domain.Cursor{
			CurrentPage: p.CurrentPage,
			LastPage:    p.LastPage,
			Total:       p.Total,
		},
		Counts: p.Counts,
	}, nil
}

// Get fetches the detail of one tender.
func (s *tenderService) Get(ctx context.Context, id int) (*domain.Tender, error) {
	if id <= 0 {
		return nil, domain.NewAppError(domain.CodeValidation, fmt.Sprintf("invalid tender id %d", id), nil)
	}
	var t domain.Tender
	if err := s.api.Get(ctx, "/tenders/"+strconv.Itoa(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
