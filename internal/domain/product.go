package domain

import (
	"context"
	"time"
)

type Product struct {
	ID        uint
	Name      string
	Price     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProductRepository interface {
	// Save inserts the product when ID is zero and assigns the generated ID,
	// otherwise it updates the existing row.
	Save(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uint) (*Product, error)
	// FindByName returns the product with the lowest ID among those named name.
	FindByName(ctx context.Context, name string) (*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)
	DeleteAll(ctx context.Context) (int64, error)
}
