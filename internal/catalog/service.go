package catalog

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"dummyshop/storefront/internal/domain"
)

// Source is the remote catalog. *dummyjson.Client satisfies it.
type Source interface {
	Products(ctx context.Context, segments []string, params url.Values) (domain.ProductPage, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Product(ctx context.Context, id int) (domain.Product, error)
}

type Service struct {
	src Source
	log *zap.Logger

	group singleflight.Group

	mu         sync.RWMutex
	categories []domain.Category
}

func NewService(src Source, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{src: src, log: log}
}

// FetchPage requests one page. Remote failures are returned as-is; there is
// no retry.
func (s *Service) FetchPage(ctx context.Context, f Filter, page int) (domain.ProductPage, error) {
	q, err := BuildQuery(f, page)
	if err != nil {
		return domain.ProductPage{}, err
	}
	s.log.Debug("fetching product page",
		zap.Stringer("endpoint", q.Endpoint),
		zap.Int("page", page),
		zap.String("params", q.Params.Encode()))

	p, err := s.src.Products(ctx, q.Segments(), q.Params)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("fetch page %d: %w", page, err)
	}
	return p, nil
}

// Categories returns the category vocabulary, fetched from the remote once
// and reused afterwards. Concurrent first calls share one request; a failed
// fetch is not cached.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	cached := s.categories
	s.mu.RUnlock()
	if cached != nil {
		return cloneCategories(cached), nil
	}

	v, err, _ := s.group.Do("categories", func() (any, error) {
		s.mu.RLock()
		cached := s.categories
		s.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		cats, err := s.src.Categories(ctx)
		if err != nil {
			return nil, err
		}
		if cats == nil {
			cats = []domain.Category{}
		}
		s.mu.Lock()
		s.categories = cats
		s.mu.Unlock()
		s.log.Info("category vocabulary loaded", zap.Int("count", len(cats)))
		return cats, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	return cloneCategories(v.([]domain.Category)), nil
}

func (s *Service) Product(ctx context.Context, id int) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, fmt.Errorf("%w: product id %d", ErrInvalidFilter, id)
	}
	p, err := s.src.Product(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("fetch product %d: %w", id, err)
	}
	return p, nil
}

func cloneCategories(in []domain.Category) []domain.Category {
	out := make([]domain.Category, len(in))
	copy(out, in)
	return out
}
