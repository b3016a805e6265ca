package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"songforge/internal/logger"
	"songforge/internal/models"
)

var ErrEmptyName = errors.New("product name must not be empty")

type DBLayer interface {
	CreateProduct(ctx context.Context, product models.Product) error
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product models.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type ProductService struct {
	DB     DBLayer
	logger *logger.Logger
}

func NewProductService(db DBLayer, log *logger.Logger) *ProductService {
	return &ProductService{DB: db, logger: log}
}

// CreateProduct adds a catalog entry. The category is sanitized the same
// way order categories are, so the catalog never carries a value the rest
// of the system would coerce away.
func (s *ProductService) CreateProduct(ctx context.Context, req models.Product) (*models.Product, error) {
	if req.Name == "" {
		return nil, ErrEmptyName
	}

	product := models.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Category:    string(models.SanitizeCategory(req.Category)),
		Price:       req.Price,
		Description: req.Description,
		Active:      req.Active,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.DB.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("PRODUCT", fmt.Sprintf("created %s (%s)", product.ID, product.Name))
	return &product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.DB.GetProductByID(ctx, id)
}

func (s *ProductService) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	return s.DB.ListProducts(ctx, activeOnly)
}

func (s *ProductService) UpdateProduct(ctx context.Context, id string, req models.Product) (*models.Product, error) {
	product, err := s.DB.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product %s not found: %w", id, err)
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Category != "" {
		product.Category = string(models.SanitizeCategory(req.Category))
	}
	if req.Price > 0 {
		product.Price = req.Price
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	product.Active = req.Active

	if err := s.DB.UpdateProduct(ctx, *product); err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}

	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.DB.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	s.logger.Warn("PRODUCT", fmt.Sprintf("deleted %s", id))
	return nil
}
