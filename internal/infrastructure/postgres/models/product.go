package models

import "time"

type ProductModel struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	Name      string  `gorm:"not null;index:idx_products_name"`
	Price     float64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProductModel) TableName() string {
	return "products"
}
