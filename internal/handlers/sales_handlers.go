package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"stockmaster/internal/common"
	"stockmaster/internal/services"

	"github.com/labstack/echo/v4"
)

// SalesHandlers handles HTTP requests for point-of-sale recording and
// sales reporting.
type SalesHandlers struct {
	salesService   services.SalesService
	reportService  services.ReportService
	sessionService services.SessionService
}

func NewSalesHandlers(salesService services.SalesService, reportService services.ReportService, sessionService services.SessionService) *SalesHandlers {
	return &SalesHandlers{
		salesService:   salesService,
		reportService:  reportService,
		sessionService: sessionService,
	}
}

// RecordSale handles POST /sales
func (h *SalesHandlers) RecordSale(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		ProductID string  `json:"product_id"`
		Quantity  int     `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	productID, err := common.ValidateUUID(req.ProductID, "product id")
	if err != nil {
		return common.SendValidationError(c, "product_id", err.Error())
	}
	if req.Quantity <= 0 {
		return common.SendValidationError(c, "quantity", "Quantity must be positive")
	}
	if req.UnitPrice < 0 {
		return common.SendValidationError(c, "unit_price", "Unit price cannot be negative")
	}

	snapshot, err := h.sessionService.Resolve(ctx, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to resolve session")
	}

	sale, err := h.salesService.RecordSale(ctx, snapshot.User, productID, req.Quantity, req.UnitPrice)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientStock) {
			return c.JSON(http.StatusConflict, common.CreateErrorResponse("INSUFFICIENT_STOCK", "Not enough stock for this sale", nil))
		}
		return common.SendServerError(c, "Failed to record sale")
	}
	return c.JSON(http.StatusCreated, sale)
}

// ListSales handles GET /sales
func (h *SalesHandlers) ListSales(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	sales, err := h.salesService.List(ctx, companyID, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list sales")
	}
	return c.JSON(http.StatusOK, sales)
}

func monthParam(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("month")
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01", raw)
}

// MonthlySummary handles GET /sales/summary?month=2026-08
func (h *SalesHandlers) MonthlySummary(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	month, err := monthParam(c)
	if err != nil {
		return common.SendValidationError(c, "month", "Month must be in YYYY-MM format")
	}

	snapshot, err := h.sessionService.Resolve(ctx, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to resolve session")
	}

	summary, err := h.reportService.MonthlySummary(ctx, companyID, snapshot.Entitlement, month)
	if err != nil {
		if errors.Is(err, services.ErrReportsNotIncluded) {
			return c.JSON(http.StatusForbidden, common.CreateErrorResponse("PLAN_LIMIT", "Reports are not included in the current plan", nil))
		}
		return common.SendServerError(c, "Failed to build sales summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// ExportMonthlyPDF handles POST /sales/summary/pdf. Returns a presigned
// download link rather than streaming the document.
func (h *SalesHandlers) ExportMonthlyPDF(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	month, err := monthParam(c)
	if err != nil {
		return common.SendValidationError(c, "month", "Month must be in YYYY-MM format")
	}

	snapshot, err := h.sessionService.Resolve(ctx, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to resolve session")
	}

	url, err := h.reportService.ExportMonthlyPDF(ctx, companyID, snapshot.Entitlement, month)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReportsNotIncluded):
			return c.JSON(http.StatusForbidden, common.CreateErrorResponse("PLAN_LIMIT", "Reports are not included in the current plan", nil))
		case errors.Is(err, services.ErrPDFExportNotIncluded):
			return c.JSON(http.StatusForbidden, common.CreateErrorResponse("PLAN_LIMIT", "PDF export requires the Pro plan", nil))
		}
		return common.SendServerError(c, "Failed to export report")
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
