package services

import (
	"context"
	"errors"
	"fmt"

	"stockmaster/internal/models"
	"stockmaster/internal/realtime"
	"stockmaster/internal/repositories"

	"github.com/google/uuid"
)

// ErrProductLimit means the tenant's effective plan caps the catalog size.
// The caller surfaces an upgrade prompt, not a failure.
var ErrProductLimit = errors.New("product limit reached for current plan")

type ProductService interface {
	Create(ctx context.Context, ent Entitlement, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, companyID string, id uuid.UUID) error
	Get(ctx context.Context, companyID string, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, companyID string) ([]*models.Product, error)
	ListLowStock(ctx context.Context, companyID string) ([]*models.Product, error)
	Restock(ctx context.Context, companyID string, id uuid.UUID, quantity int) error
}

type productService struct {
	productRepo repositories.ProductRepository
	feed        realtime.Feed
}

func NewProductService(productRepo repositories.ProductRepository, feed realtime.Feed) ProductService {
	return &productService{productRepo: productRepo, feed: feed}
}

// Create adds a product, enforcing the effective plan's catalog cap.
func (s *productService) Create(ctx context.Context, ent Entitlement, product *models.Product) error {
	if product.Name == "" || product.SKU == "" {
		return fmt.Errorf("product name and SKU are required")
	}

	if !ent.Limits.UnlimitedProducts() {
		count, err := s.productRepo.CountByCompany(ctx, product.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		if count >= ent.Limits.MaxProducts {
			return ErrProductLimit
		}
	}

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	s.feed.Publish(ctx, realtime.TableProducts, product.CompanyID, "insert")
	return nil
}

func (s *productService) Update(ctx context.Context, product *models.Product) error {
	if err := s.productRepo.Update(ctx, product); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	s.feed.Publish(ctx, realtime.TableProducts, product.CompanyID, "update")
	return nil
}

func (s *productService) Delete(ctx context.Context, companyID string, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, companyID, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.feed.Publish(ctx, realtime.TableProducts, companyID, "delete")
	return nil
}

func (s *productService) Get(ctx context.Context, companyID string, id uuid.UUID) (*models.Product, error) {
	return s.productRepo.GetByID(ctx, companyID, id)
}

func (s *productService) List(ctx context.Context, companyID string) ([]*models.Product, error) {
	return s.productRepo.ListByCompany(ctx, companyID)
}

func (s *productService) ListLowStock(ctx context.Context, companyID string) ([]*models.Product, error) {
	return s.productRepo.ListLowStock(ctx, companyID)
}

// Restock adds stock to an existing product.
func (s *productService) Restock(ctx context.Context, companyID string, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("restock quantity must be positive")
	}
	if err := s.productRepo.AdjustStock(ctx, companyID, id, quantity); err != nil {
		return fmt.Errorf("failed to restock: %w", err)
	}
	s.feed.Publish(ctx, realtime.TableProducts, companyID, "update")
	return nil
}
