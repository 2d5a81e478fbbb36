package models

import (
	"time"
)

// Product is the catalog read model. Catalog management owns the lifecycle;
// the recommendation core only reads consistent snapshots.
type Product struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Price       float64   `json:"price" db:"price" validate:"min=0"`
	SalePrice   *float64  `json:"sale_price,omitempty" db:"sale_price"`
	Category    string    `json:"category" db:"category"`
	SubCategory *string   `json:"sub_category,omitempty" db:"sub_category"`
	Images      []string  `json:"images" db:"images"`
	Colors      []string  `json:"colors" db:"colors"`
	Sizes       []string  `json:"sizes" db:"sizes"`
	Rating      float64   `json:"rating" db:"rating" validate:"min=0,max=5"`
	Reviews     int       `json:"reviews" db:"reviews" validate:"min=0"`
	Stock       int       `json:"stock" db:"stock"`
	Featured    bool      `json:"featured" db:"featured"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProductSummary is what recommendation endpoints return to presentation
// layers.
type ProductSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	SalePrice   *float64 `json:"sale_price,omitempty"`
	Category    string   `json:"category"`
	SubCategory *string  `json:"sub_category,omitempty"`
	Rating      float64  `json:"rating"`
	Reviews     int      `json:"reviews"`
	Image       string   `json:"image,omitempty"`
}

func (p *Product) Summary() ProductSummary {
	summary := ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		SalePrice:   p.SalePrice,
		Category:    p.Category,
		SubCategory: p.SubCategory,
		Rating:      p.Rating,
		Reviews:     p.Reviews,
	}
	if len(p.Images) > 0 {
		summary.Image = p.Images[0]
	}
	return summary
}

func Summaries(products []Product) []ProductSummary {
	summaries := make([]ProductSummary, 0, len(products))
	for i := range products {
		summaries = append(summaries, products[i].Summary())
	}
	return summaries
}
