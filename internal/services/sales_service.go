package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stockmaster/internal/models"
	"stockmaster/internal/realtime"
	"stockmaster/internal/repositories"

	"github.com/google/uuid"
)

// ErrInsufficientStock means the sale quantity exceeds what is on hand.
var ErrInsufficientStock = errors.New("insufficient stock")

type SalesService interface {
	RecordSale(ctx context.Context, seller *models.User, productID uuid.UUID, quantity int, unitPrice float64) (*models.Sale, error)
	List(ctx context.Context, companyID string, limit, offset int) ([]*models.Sale, error)
	Summarize(ctx context.Context, companyID string, from, to time.Time) (*models.SalesSummary, error)
}

type salesService struct {
	saleRepo     repositories.SaleRepository
	productRepo  repositories.ProductRepository
	activityRepo repositories.ActivityLogsRepository
	feed         realtime.Feed
}

func NewSalesService(
	saleRepo repositories.SaleRepository,
	productRepo repositories.ProductRepository,
	activityRepo repositories.ActivityLogsRepository,
	feed realtime.Feed,
) SalesService {
	return &salesService{
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		activityRepo: activityRepo,
		feed:         feed,
	}
}

// RecordSale inserts the sale and decrements product stock. The sale row is
// the primary write; a failed stock decrement is surfaced, not rolled back.
// Stock drift is reconciled manually by restocking.
func (s *salesService) RecordSale(ctx context.Context, seller *models.User, productID uuid.UUID, quantity int, unitPrice float64) (*models.Sale, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("sale quantity must be positive")
	}
	if unitPrice < 0 {
		return nil, fmt.Errorf("unit price cannot be negative")
	}

	product, err := s.productRepo.GetByID(ctx, seller.CompanyID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product.Stock < quantity {
		return nil, ErrInsufficientStock
	}

	sale := &models.Sale{
		ID:          uuid.New(),
		CompanyID:   seller.CompanyID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalAmount: unitPrice * float64(quantity),
		SellerID:    seller.ID,
		SellerName:  seller.Name,
	}
	if err := s.saleRepo.Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}

	if err := s.productRepo.AdjustStock(ctx, seller.CompanyID, product.ID, -quantity); err != nil {
		return nil, fmt.Errorf("sale recorded but stock update failed: %w", err)
	}

	if product.Stock-quantity <= product.LowStockThreshold {
		s.logActivity(ctx, seller, "Low Stock Alert",
			fmt.Sprintf("%s dropped to %d units", product.Name, product.Stock-quantity), models.LogWarning)
	}

	s.feed.Publish(ctx, realtime.TableSales, seller.CompanyID, "insert")
	s.feed.Publish(ctx, realtime.TableProducts, seller.CompanyID, "update")
	return sale, nil
}

func (s *salesService) List(ctx context.Context, companyID string, limit, offset int) ([]*models.Sale, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.saleRepo.ListByCompany(ctx, companyID, limit, offset)
}

// Summarize aggregates revenue, profit and best sellers for a period.
func (s *salesService) Summarize(ctx context.Context, companyID string, from, to time.Time) (*models.SalesSummary, error) {
	sales, err := s.saleRepo.ListByPeriod(ctx, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	summary := &models.SalesSummary{
		CompanyID:   companyID,
		PeriodStart: from,
		PeriodEnd:   to,
		TotalSales:  len(sales),
	}

	// Profit needs cost prices; fetch the catalog once and index it.
	products, err := s.productRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	costs := make(map[uuid.UUID]float64, len(products))
	for _, p := range products {
		costs[p.ID] = p.CostPrice
	}

	for _, sale := range sales {
		summary.Revenue += sale.TotalAmount
		if cost, ok := costs[sale.ProductID]; ok {
			summary.Profit += sale.TotalAmount - cost*float64(sale.Quantity)
		}
	}

	top, err := s.saleRepo.TopProducts(ctx, companyID, from, to, 5)
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}
	summary.TopProducts = top
	return summary, nil
}

func (s *salesService) logActivity(ctx context.Context, user *models.User, action, details string, logType models.LogType) {
	err := s.activityRepo.Create(ctx, &models.ActivityLog{
		CompanyID: user.CompanyID,
		UserID:    user.ID.String(),
		UserName:  user.Name,
		UserEmail: user.Email,
		Action:    action,
		Details:   details,
		Type:      logType,
	})
	if err != nil {
		log.Printf("WARN: activity log write failed for %s: %v", user.CompanyID, err)
	}
}
