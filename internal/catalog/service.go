package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `p.id, p.nombre, p.descripcion, p.precio, p.stock, p."imagenUrl", p."categoriaId", c.nombre AS categoria_nombre`

const productBase = `
	SELECT ` + productColumns + `
	FROM producto p
	LEFT JOIN categoria c ON p."categoriaId" = c.id`

// Service reads products and categories. The schema is owned by the
// storefront backend; this service only queries it.
type Service struct {
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewService creates a catalog service. pool may be nil, in which case every
// read reports the catalog unavailable.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		logger: log.With(slog.String("service", "catalog")),
		pool:   pool,
	}
}

// Healthy reports whether the catalog database answers a ping.
func (s *Service) Healthy(ctx context.Context) bool {
	if s.pool == nil {
		return false
	}
	return s.pool.Ping(ctx) == nil
}

func (s *Service) queryProducts(ctx context.Context, sql string, args ...any) ([]Product, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("catalog database not configured")
	}
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var imageURL, categoryName *string
	var categoryID *int
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &imageURL, &categoryID, &categoryName); err != nil {
		return Product{}, fmt.Errorf("scan product: %w", err)
	}
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	if categoryID != nil {
		p.CategoryID = *categoryID
	}
	if categoryName != nil {
		p.CategoryName = *categoryName
	}
	return p, nil
}

// Products returns the full catalog ordered by name.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	return s.queryProducts(ctx, productBase+` ORDER BY p.nombre`)
}

// ProductByID returns one product; found=false when the id does not exist.
func (s *Service) ProductByID(ctx context.Context, id int) (Product, bool, error) {
	products, err := s.queryProducts(ctx, productBase+` WHERE p.id = $1`, id)
	if err != nil {
		return Product{}, false, err
	}
	if len(products) == 0 {
		return Product{}, false, nil
	}
	return products[0], true, nil
}

// Search matches the term against product name, description and category.
func (s *Service) Search(ctx context.Context, term string) ([]Product, error) {
	like := "%" + strings.ToLower(term) + "%"
	return s.queryProducts(ctx, productBase+`
	WHERE LOWER(p.nombre) LIKE $1 OR LOWER(p.descripcion) LIKE $1 OR LOWER(c.nombre) LIKE $1
	ORDER BY p.nombre`, like)
}

// ByBudget returns products priced at or under the ceiling, priciest first.
func (s *Service) ByBudget(ctx context.Context, maxPrice float64) ([]Product, error) {
	return s.queryProducts(ctx, productBase+` WHERE p.precio <= $1 ORDER BY p.precio DESC`, maxPrice)
}

// Recommended returns in-stock products, priciest first.
func (s *Service) Recommended(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.queryProducts(ctx, productBase+` WHERE p.stock > 0 ORDER BY p.precio DESC LIMIT $1`, limit)
}

// Categories returns all categories ordered by name.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("catalog database not configured")
	}
	rows, err := s.pool.Query(ctx, `SELECT id, nombre FROM categoria ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
