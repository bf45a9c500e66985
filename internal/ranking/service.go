package ranking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/minjaecho/commerce-pulse/pkg/enums"
	pkgerrors "github.com/minjaecho/commerce-pulse/pkg/errors"
)

const (
	minLimit = 1
	maxLimit = 100
)

// ServiceParams groups dependencies for the ranking read service.
type ServiceParams struct {
	Store *Store
	Now   func() time.Time
}

// Service exposes leaderboard reads with bounds checking.
type Service interface {
	TopN(ctx context.Context, family enums.RankingType, date time.Time, limit int) ([]RankedProduct, error)
	Page(ctx context.Context, family enums.RankingType, date time.Time, page, size int) (PageResult, error)
	Lookup(ctx context.Context, family enums.RankingType, date time.Time, productID uuid.UUID) (*RankedProduct, error)
}

// PageResult is one leaderboard page plus the day's total member count.
type PageResult struct {
	Items []RankedProduct `json:"items"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
	Total int64           `json:"total"`
}

type service struct {
	store *Store
	now   func() time.Time
}

// NewService builds the ranking read service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ranking store is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{store: params.Store, now: now}, nil
}

// TopN returns the day's highest-ranked products. Limits outside 1-100
// are rejected before the store is touched.
func (s *service) TopN(ctx context.Context, family enums.RankingType, date time.Time, limit int) ([]RankedProduct, error) {
	family, date, err := s.normalize(family, date)
	if err != nil {
		return nil, err
	}
	if limit < minLimit || limit > maxLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "limit must be between 1 and 100")
	}
	return s.store.TopN(ctx, family, date, limit)
}

// Page returns one leaderboard page; page numbering starts at 1.
func (s *service) Page(ctx context.Context, family enums.RankingType, date time.Time, page, size int) (PageResult, error) {
	family, date, err := s.normalize(family, date)
	if err != nil {
		return PageResult{}, err
	}
	if page < 1 {
		return PageResult{}, pkgerrors.New(pkgerrors.CodeValidation, "page must be 1 or greater")
	}
	if size < minLimit || size > maxLimit {
		return PageResult{}, pkgerrors.New(pkgerrors.CodeValidation, "size must be between 1 and 100")
	}
	items, err := s.store.Page(ctx, family, date, (page-1)*size, size)
	if err != nil {
		return PageResult{}, err
	}
	total, err := s.store.Count(ctx, family, date)
	if err != nil {
		return PageResult{}, err
	}
	return PageResult{Items: items, Page: page, Size: size, Total: total}, nil
}

// Lookup returns one product's ranking entry, nil when it has no ranking.
func (s *service) Lookup(ctx context.Context, family enums.RankingType, date time.Time, productID uuid.UUID) (*RankedProduct, error) {
	family, date, err := s.normalize(family, date)
	if err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.store.Lookup(ctx, family, date, productID.String())
}

func (s *service) normalize(family enums.RankingType, date time.Time) (enums.RankingType, time.Time, error) {
	if !family.IsValid() {
		return "", time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown ranking type")
	}
	if date.IsZero() {
		date = s.now().UTC()
	}
	return family, date, nil
}
