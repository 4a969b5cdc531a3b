package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultProductRepository struct {
	DB *gorm.DB
}

func NewDefaultProductRepository(db *gorm.DB) *DefaultProductRepository {
	return &DefaultProductRepository{
		DB: db,
	}
}

func (r *DefaultProductRepository) Save(ctx context.Context, product *domain.Product) error {
	productModel := mappers.ToGORMProduct(product)

	var err error
	if productModel.ID == 0 {
		err = r.DB.WithContext(ctx).Create(productModel).Error
	} else {
		err = r.DB.WithContext(ctx).Save(productModel).Error
	}
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}

	product.ID = productModel.ID
	product.CreatedAt = productModel.CreatedAt
	product.UpdatedAt = productModel.UpdatedAt
	return nil
}

func (r *DefaultProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var productModel models.ProductModel
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&productModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product %d: %w", id, err)
	}
	return mappers.ToDomainProduct(&productModel), nil
}

func (r *DefaultProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	var productModel models.ProductModel
	err := r.DB.WithContext(ctx).
		Where("name = ?", name).
		Order("id ASC").
		Take(&productModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product by name %q: %w", name, err)
	}
	return mappers.ToDomainProduct(&productModel), nil
}

func (r *DefaultProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	var productModels []*models.ProductModel
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&productModels).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]*domain.Product, len(productModels))
	for i, productModel := range productModels {
		products[i] = mappers.ToDomainProduct(productModel)
	}

	return products, nil
}

func (r *DefaultProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.ProductModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete products: %w", res.Error)
	}
	return res.RowsAffected, nil
}
