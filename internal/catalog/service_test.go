package catalog

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dummyshop/storefront/internal/domain"
)

func TestCategoriesFetchedOnce(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})
	svc := NewService(&fakeSource{
		categoriesFn: func(context.Context) ([]domain.Category, error) {
			calls.Add(1)
			<-gate
			return []domain.Category{{Slug: "beauty", Name: "Beauty"}, {Slug: "laptops", Name: "Laptops"}}, nil
		},
	}, zap.NewNop())

	var wg sync.WaitGroup
	results := make([][]domain.Category, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cats, err := svc.Categories(context.Background())
			assert.NoError(t, err)
			results[i] = cats
		}(i)
	}
	close(gate)
	wg.Wait()

	for _, cats := range results {
		assert.Len(t, cats, 2)
	}

	cats, err := svc.Categories(context.Background())
	require.NoError(t, err)
	cats[0].Name = "mutated"

	again, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Beauty", again[0].Name)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCategoriesFailureNotCached(t *testing.T) {
	var calls atomic.Int32
	svc := NewService(&fakeSource{
		categoriesFn: func(context.Context) ([]domain.Category, error) {
			if calls.Add(1) == 1 {
				return nil, errors.New("unreachable")
			}
			return nil, nil
		},
	}, nil)

	_, err := svc.Categories(context.Background())
	require.Error(t, err)

	cats, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cats)
	assert.Empty(t, cats)

	_, err = svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchPagePassesDerivedRequest(t *testing.T) {
	var gotSegments []string
	var gotParams url.Values
	svc := NewService(&fakeSource{
		productsFn: func(_ context.Context, segments []string, params url.Values) (domain.ProductPage, error) {
			gotSegments, gotParams = segments, params
			return page(20, 20, 60), nil
		},
	}, zap.NewNop())

	p, err := svc.FetchPage(context.Background(), NewFilter("", "", "shoes"), 2)
	require.NoError(t, err)
	assert.Equal(t, 40, p.Fetched())
	assert.Equal(t, []string{"products", "search"}, gotSegments)
	assert.Equal(t, "shoes", gotParams.Get("q"))
	assert.Equal(t, "20", gotParams.Get("skip"))
}

func TestFetchPageWrapsRemoteError(t *testing.T) {
	remote := errors.New("status 503")
	svc := NewService(&fakeSource{
		productsFn: func(context.Context, []string, url.Values) (domain.ProductPage, error) {
			return domain.ProductPage{}, remote
		},
	}, zap.NewNop())

	_, err := svc.FetchPage(context.Background(), Filter{}, 1)
	require.ErrorIs(t, err, remote)
}

func TestProductRejectsInvalidID(t *testing.T) {
	svc := NewService(&fakeSource{
		productFn: func(context.Context, int) (domain.Product, error) {
			t.Fatal("source must not be called")
			return domain.Product{}, nil
		},
	}, zap.NewNop())

	_, err := svc.Product(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidFilter)
}
