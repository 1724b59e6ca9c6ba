package handlers

import (
	"errors"
	"net/http"
	"strings"

	"stockmaster/internal/common"
	"stockmaster/internal/models"
	"stockmaster/internal/services"

	"github.com/labstack/echo/v4"
)

// ProductHandlers handles HTTP requests for the product catalog.
type ProductHandlers struct {
	productService services.ProductService
	sessionService services.SessionService
}

func NewProductHandlers(productService services.ProductService, sessionService services.SessionService) *ProductHandlers {
	return &ProductHandlers{
		productService: productService,
		sessionService: sessionService,
	}
}

type productRequest struct {
	Name              string  `json:"name"`
	SKU               string  `json:"sku"`
	Stock             int     `json:"stock"`
	CostPrice         float64 `json:"cost_price"`
	SellingPrice      float64 `json:"selling_price"`
	Category          string  `json:"category"`
	LowStockThreshold int     `json:"low_stock_threshold"`
}

func (h *ProductHandlers) validateProduct(c echo.Context, req *productRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return common.SendValidationError(c, "name", "Product name is required")
	}
	if req.SellingPrice <= 0 {
		return common.SendValidationError(c, "selling_price", "Selling price must be positive")
	}
	if req.CostPrice < 0 {
		return common.SendValidationError(c, "cost_price", "Cost price cannot be negative")
	}
	if req.Stock < 0 {
		return common.SendValidationError(c, "stock", "Stock cannot be negative")
	}
	if req.LowStockThreshold < 0 {
		return common.SendValidationError(c, "low_stock_threshold", "Threshold cannot be negative")
	}
	return nil
}

// CreateProduct handles POST /products
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := h.validateProduct(c, &req); err != nil {
		return err
	}

	snapshot, err := h.sessionService.Resolve(ctx, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to resolve session")
	}

	product := &models.Product{
		CompanyID:         companyID,
		Name:              strings.TrimSpace(req.Name),
		SKU:               strings.TrimSpace(req.SKU),
		Stock:             req.Stock,
		CostPrice:         req.CostPrice,
		SellingPrice:      req.SellingPrice,
		Category:          strings.TrimSpace(req.Category),
		LowStockThreshold: req.LowStockThreshold,
	}
	if err := h.productService.Create(ctx, snapshot.Entitlement, product); err != nil {
		if errors.Is(err, services.ErrProductLimit) {
			return c.JSON(http.StatusForbidden, common.CreateErrorResponse("PLAN_LIMIT", "Product limit reached for the current plan", nil))
		}
		return common.SendServerError(c, "Failed to create product")
	}
	return c.JSON(http.StatusCreated, product)
}

// ListProducts handles GET /products
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	products, err := h.productService.List(ctx, companyID)
	if err != nil {
		return common.SendServerError(c, "Failed to list products")
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /products/:id
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	product, err := h.productService.Get(ctx, companyID, id)
	if err != nil {
		return common.SendNotFoundError(c, "Product")
	}
	return c.JSON(http.StatusOK, product)
}

// UpdateProduct handles PUT /products/:id
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := h.validateProduct(c, &req); err != nil {
		return err
	}

	product := &models.Product{
		ID:                id,
		CompanyID:         companyID,
		Name:              strings.TrimSpace(req.Name),
		SKU:               strings.TrimSpace(req.SKU),
		Stock:             req.Stock,
		CostPrice:         req.CostPrice,
		SellingPrice:      req.SellingPrice,
		Category:          strings.TrimSpace(req.Category),
		LowStockThreshold: req.LowStockThreshold,
	}
	if err := h.productService.Update(ctx, product); err != nil {
		return common.SendServerError(c, "Failed to update product")
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/:id
func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.productService.Delete(ctx, companyID, id); err != nil {
		return common.SendServerError(c, "Failed to delete product")
	}
	return c.NoContent(http.StatusNoContent)
}

// RestockProduct handles POST /products/:id/restock
func (h *ProductHandlers) RestockProduct(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Quantity <= 0 {
		return common.SendValidationError(c, "quantity", "Quantity must be positive")
	}

	if err := h.productService.Restock(ctx, companyID, id, req.Quantity); err != nil {
		return common.SendServerError(c, "Failed to restock product")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Stock updated"})
}

// ListLowStock handles GET /products/low-stock
func (h *ProductHandlers) ListLowStock(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	products, err := h.productService.ListLowStock(ctx, companyID)
	if err != nil {
		return common.SendServerError(c, "Failed to list low stock products")
	}
	return c.JSON(http.StatusOK, products)
}
