package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/sartoria/vetrina/pkg/models"
)

// DatabaseQuerier interface for database operations
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

const productColumns = `id, name, price, sale_price, category, sub_category,
		images, colors, sizes, rating, reviews, stock, featured, created_at, updated_at`

// CatalogService reads product snapshots. The catalog is owned by catalog
// management; this service never writes it.
type CatalogService struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewCatalogService(db DatabaseQuerier, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		db:     db,
		logger: logger,
	}
}

// AllProducts returns the full catalog snapshot in stable catalog order.
func (s *CatalogService) AllProducts(ctx context.Context) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at, id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog snapshot query failed: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (s *CatalogService) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p models.Product
	err := scanProduct(s.db.QueryRow(ctx, query, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("product lookup failed: %w", err)
	}

	return &p, nil
}

// ProductsByIDs returns the subset of the catalog matching ids. Missing ids
// are silently skipped; callers treat them as deleted products.
func (s *CatalogService) ProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY created_at, id`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("product set query failed: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (s *CatalogService) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE category = $1 ORDER BY created_at, id`

	rows, err := s.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("category query failed: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("product rows failed: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row, p *models.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.SalePrice,
		&p.Category,
		&p.SubCategory,
		&p.Images,
		&p.Colors,
		&p.Sizes,
		&p.Rating,
		&p.Reviews,
		&p.Stock,
		&p.Featured,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
