package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/metrics"
)

type ProductUsecase interface {
	GetProductByID(ctx context.Context, id uint) (*domain.Product, error)
	GetProductByName(ctx context.Context, name string) (*domain.Product, error)
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)

	CreateProduct(ctx context.Context, name string, price float64) (*domain.Product, error)
	DeleteAllProducts(ctx context.Context) (int64, error)
}

// DefaultProductUsecase passes straight through to the repository; it keeps
// no state of its own.
type DefaultProductUsecase struct {
	productRepo domain.ProductRepository
	metrics     *metrics.ProductMetrics
}

func NewDefaultProductUsecase(productRepo domain.ProductRepository, m *metrics.ProductMetrics) *DefaultProductUsecase {
	return &DefaultProductUsecase{
		productRepo: productRepo,
		metrics:     m,
	}
}

func (uc *DefaultProductUsecase) GetProductByID(ctx context.Context, id uint) (*domain.Product, error) {
	product, err := uc.productRepo.FindByID(ctx, id)
	uc.recordLookup("by_id", err)
	return product, err
}

func (uc *DefaultProductUsecase) GetProductByName(ctx context.Context, name string) (*domain.Product, error) {
	product, err := uc.productRepo.FindByName(ctx, name)
	uc.recordLookup("by_name", err)
	return product, err
}

func (uc *DefaultProductUsecase) GetAllProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := uc.productRepo.FindAll(ctx)
	if err != nil {
		uc.metrics.RecordStoreError("find_all")
		return nil, err
	}
	return products, nil
}

func (uc *DefaultProductUsecase) CreateProduct(ctx context.Context, name string, price float64) (*domain.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidProduct)
	}
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, fmt.Errorf("%w: price must be a non-negative number", domain.ErrInvalidProduct)
	}

	product := &domain.Product{Name: name, Price: price}
	if err := uc.productRepo.Save(ctx, product); err != nil {
		uc.metrics.RecordStoreError("save")
		return nil, err
	}
	uc.metrics.RecordCreated()
	return product, nil
}

func (uc *DefaultProductUsecase) DeleteAllProducts(ctx context.Context) (int64, error) {
	n, err := uc.productRepo.DeleteAll(ctx)
	if err != nil {
		uc.metrics.RecordStoreError("delete_all")
	}
	return n, err
}

func (uc *DefaultProductUsecase) recordLookup(op string, err error) {
	switch {
	case err == nil:
		uc.metrics.RecordLookup(op, true)
	case errors.Is(err, domain.ErrProductNotFound):
		uc.metrics.RecordLookup(op, false)
	default:
		uc.metrics.RecordStoreError(op)
	}
}
