package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryProductRepo is a map-backed domain.ProductRepository.
type memoryProductRepo struct {
	mu       sync.Mutex
	nextID   uint
	products map[uint]*domain.Product
	err      error
}

func newMemoryProductRepo() *memoryProductRepo {
	return &memoryProductRepo{products: make(map[uint]*domain.Product)}
}

func (r *memoryProductRepo) Save(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if p.ID == 0 {
		r.nextID++
		p.ID = r.nextID
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *memoryProductRepo) FindByID(_ context.Context, id uint) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryProductRepo) FindByName(_ context.Context, name string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *domain.Product
	for _, p := range r.products {
		if p.Name == name && (best == nil || p.ID < best.ID) {
			best = p
		}
	}
	if best == nil {
		return nil, domain.ErrProductNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *memoryProductRepo) FindAll(_ context.Context) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*domain.Product, 0, len(r.products))
	for id := uint(1); id <= r.nextID; id++ {
		if p, ok := r.products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memoryProductRepo) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.products))
	r.products = make(map[uint]*domain.Product)
	return n, nil
}

func TestProductUsecase_CreateAndLookup(t *testing.T) {
	m := metrics.NewProductMetrics(prometheus.NewRegistry())
	uc := NewDefaultProductUsecase(newMemoryProductRepo(), m)
	ctx := context.Background()

	saved, err := uc.CreateProduct(ctx, "Test Product", 99.99)
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	byID, err := uc.GetProductByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Product", byID.Name)

	byName, err := uc.GetProductByName(ctx, "Test Product")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byName.ID)

	all, err := uc.GetAllProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductsCreatedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductLookupsTotal.WithLabelValues("by_id", "found")))
}

func TestProductUsecase_NotFound(t *testing.T) {
	m := metrics.NewProductMetrics(prometheus.NewRegistry())
	uc := NewDefaultProductUsecase(newMemoryProductRepo(), m)

	_, err := uc.GetProductByID(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	_, err = uc.GetProductByName(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductLookupsTotal.WithLabelValues("by_name", "not_found")))
}

func TestProductUsecase_CreateValidation(t *testing.T) {
	uc := NewDefaultProductUsecase(newMemoryProductRepo(), nil)
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, "   ", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
	_, err = uc.CreateProduct(ctx, "Negative", -0.01)
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)

	p, err := uc.CreateProduct(ctx, "  Free sample ", 0)
	require.NoError(t, err)
	assert.Equal(t, "Free sample", p.Name)
}

func TestProductUsecase_StoreErrorPropagates(t *testing.T) {
	repo := newMemoryProductRepo()
	repo.err = errors.New("connection reset")
	m := metrics.NewProductMetrics(prometheus.NewRegistry())
	uc := NewDefaultProductUsecase(repo, m)

	_, err := uc.CreateProduct(context.Background(), "Lamp", 5)
	assert.ErrorContains(t, err, "connection reset")
	_, err = uc.GetAllProducts(context.Background())
	assert.Error(t, err)
	_, err = uc.GetProductByID(context.Background(), 1)
	assert.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductStoreErrors.WithLabelValues("by_id")))
}

func TestProductUsecase_DeleteAll(t *testing.T) {
	uc := NewDefaultProductUsecase(newMemoryProductRepo(), nil)
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		_, err := uc.CreateProduct(ctx, name, 1)
		require.NoError(t, err)
	}
	n, err := uc.DeleteAllProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err := uc.GetAllProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
