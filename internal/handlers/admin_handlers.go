package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"stockmaster/internal/common"
	"stockmaster/internal/models"
	"stockmaster/internal/repositories"
	"stockmaster/internal/services"

	"github.com/labstack/echo/v4"
)

// AdminHandlers is the super-admin console: tenant overview, payment-claim
// reconciliation, license adjustment, pricing configuration and the
// platform-wide support inbox.
type AdminHandlers struct {
	companyRepo         repositories.CompanyRepository
	subscriptionService services.SubscriptionService
	supportService      services.SupportService
	configService       services.ConfigService
	sessionService      services.SessionService
}

func NewAdminHandlers(
	companyRepo repositories.CompanyRepository,
	subscriptionService services.SubscriptionService,
	supportService services.SupportService,
	configService services.ConfigService,
	sessionService services.SessionService,
) *AdminHandlers {
	return &AdminHandlers{
		companyRepo:         companyRepo,
		subscriptionService: subscriptionService,
		supportService:      supportService,
		configService:       configService,
		sessionService:      sessionService,
	}
}

// ListCompanies handles GET /admin/companies. Each row carries the tenant's
// subscription so the console can show plan and expiry at a glance.
func (h *AdminHandlers) ListCompanies(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	rows, err := h.companyRepo.ListWithSubscriptions(ctx, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list companies")
	}
	total, err := h.companyRepo.Count(ctx)
	if err != nil {
		return common.SendServerError(c, "Failed to count companies")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"companies": rows,
		"total":     total,
	})
}

// ListClaims handles GET /admin/claims, newest first.
func (h *AdminHandlers) ListClaims(c echo.Context) error {
	claims, err := h.supportService.ListOpenClaims(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Failed to list payment claims")
	}
	return c.JSON(http.StatusOK, claims)
}

// ApproveClaim handles POST /admin/claims/:id/approve
func (h *AdminHandlers) ApproveClaim(c echo.Context) error {
	ticketID, err := common.ValidateUUID(c.Param("id"), "ticket id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.subscriptionService.ApproveClaim(c.Request().Context(), ticketID); err != nil {
		switch {
		case errors.Is(err, services.ErrNotAClaim):
			return common.SendValidationError(c, "id", "Ticket is not a payment claim")
		case errors.Is(err, services.ErrClaimResolved):
			return c.JSON(http.StatusConflict, common.CreateErrorResponse("ALREADY_RESOLVED", "Payment claim already resolved", nil))
		}
		return common.SendServerError(c, "Failed to approve claim")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Subscription activated"})
}

// DenyClaim handles POST /admin/claims/:id/deny
func (h *AdminHandlers) DenyClaim(c echo.Context) error {
	ticketID, err := common.ValidateUUID(c.Param("id"), "ticket id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req struct {
		Reply string `json:"reply"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.subscriptionService.DenyClaim(c.Request().Context(), ticketID, req.Reply); err != nil {
		switch {
		case errors.Is(err, services.ErrNotAClaim):
			return common.SendValidationError(c, "id", "Ticket is not a payment claim")
		case errors.Is(err, services.ErrClaimResolved):
			return c.JSON(http.StatusConflict, common.CreateErrorResponse("ALREADY_RESOLVED", "Payment claim already resolved", nil))
		}
		return common.SendServerError(c, "Failed to deny claim")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Claim denied"})
}

// AdjustLicense handles PUT /admin/companies/:id/license
func (h *AdminHandlers) AdjustLicense(c echo.Context) error {
	companyID, err := common.ValidateShopCode(c.Param("id"))
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req struct {
		Plan     string  `json:"plan"`
		Duration string  `json:"duration"`
		PIN      *string `json:"pin"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	plan := models.PlanType(req.Plan)
	if !plan.Valid() {
		return common.SendValidationError(c, "plan", "Plan must be free, growth or pro")
	}
	if req.PIN != nil {
		if err := common.ValidatePIN(*req.PIN); err != nil {
			return common.SendValidationError(c, "pin", err.Error())
		}
	}

	if err := h.subscriptionService.AdjustLicense(c.Request().Context(), companyID, plan, req.Duration, req.PIN); err != nil {
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "License updated"})
}

// UpdateCompanyCurrency handles PUT /admin/companies/:id/currency.
func (h *AdminHandlers) UpdateCompanyCurrency(c echo.Context) error {
	companyID, err := common.ValidateShopCode(c.Param("id"))
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req struct {
		Currency string `json:"currency"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !models.ValidCurrency(currency) {
		return common.SendValidationError(c, "currency", "Unsupported currency code")
	}

	if err := h.companyRepo.UpdateCurrency(c.Request().Context(), companyID, currency); err != nil {
		return common.SendServerError(c, "Failed to update currency")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Currency updated"})
}

// ListConfigs handles GET /admin/configs
func (h *AdminHandlers) ListConfigs(c echo.Context) error {
	configs, err := h.configService.All(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Failed to load configs")
	}
	return c.JSON(http.StatusOK, configs)
}

// UpdateConfig handles PUT /admin/configs/:key
func (h *AdminHandlers) UpdateConfig(c echo.Context) error {
	key := c.Param("key")
	var req struct {
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if strings.TrimSpace(req.Value) == "" {
		return common.SendValidationError(c, "value", "Value is required")
	}

	if err := h.configService.Update(c.Request().Context(), key, strings.TrimSpace(req.Value)); err != nil {
		if errors.Is(err, services.ErrUnknownConfigKey) {
			return common.SendValidationError(c, "key", "Unknown configuration key")
		}
		return common.SendServerError(c, "Failed to update config")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Config updated"})
}

// ListTickets handles GET /admin/tickets
func (h *AdminHandlers) ListTickets(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	tickets, err := h.supportService.ListAll(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list tickets")
	}
	return c.JSON(http.StatusOK, tickets)
}

// ReplyTicket handles POST /admin/tickets/:id/reply
func (h *AdminHandlers) ReplyTicket(c echo.Context) error {
	ctx := c.Request().Context()
	ticketID, err := common.ValidateUUID(c.Param("id"), "ticket id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req struct {
		Reply string `json:"reply"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if strings.TrimSpace(req.Reply) == "" {
		return common.SendValidationError(c, "reply", "Reply text is required")
	}

	adminName := "SYSTEM ADMIN"
	if userID, ok := common.UserIDFromContext(ctx); ok {
		if snapshot, err := h.sessionService.Resolve(ctx, userID); err == nil && snapshot.User != nil {
			adminName = snapshot.User.Name
		}
	}

	if err := h.supportService.Reply(ctx, adminName, ticketID, req.Reply); err != nil {
		return common.SendServerError(c, "Failed to send reply")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Reply sent"})
}

// Broadcast handles POST /admin/broadcast
func (h *AdminHandlers) Broadcast(c echo.Context) error {
	var req struct {
		ShopCode string `json:"shop_code"`
		Subject  string `json:"subject"`
		Message  string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	companyID, err := common.ValidateShopCode(req.ShopCode)
	if err != nil {
		return common.SendValidationError(c, "shop_code", err.Error())
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Message) == "" {
		return common.SendValidationError(c, "message", "Subject and message are required")
	}

	if err := h.supportService.Broadcast(c.Request().Context(), companyID, req.Subject, req.Message); err != nil {
		return common.SendServerError(c, "Failed to send broadcast")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Broadcast sent"})
}
