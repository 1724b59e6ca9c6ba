package handlers

import (
	"errors"
	"net/http"
	"strings"

	"stockmaster/internal/common"
	"stockmaster/internal/services"

	"github.com/labstack/echo/v4"
)

// SupportHandlers handles the tenant side of the support inbox.
type SupportHandlers struct {
	supportService services.SupportService
	sessionService services.SessionService
}

func NewSupportHandlers(supportService services.SupportService, sessionService services.SessionService) *SupportHandlers {
	return &SupportHandlers{
		supportService: supportService,
		sessionService: sessionService,
	}
}

// OpenTicket handles POST /support/tickets
func (h *SupportHandlers) OpenTicket(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if strings.TrimSpace(req.Subject) == "" {
		return common.SendValidationError(c, "subject", "Subject is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return common.SendValidationError(c, "message", "Message is required")
	}

	snapshot, err := h.sessionService.Resolve(ctx, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to resolve session")
	}

	ticket, err := h.supportService.OpenTicket(ctx, snapshot.User, req.Subject, req.Message)
	if err != nil {
		if errors.Is(err, services.ErrReservedSubject) {
			return common.SendValidationError(c, "subject", "This subject is reserved")
		}
		return common.SendServerError(c, "Failed to open ticket")
	}
	return c.JSON(http.StatusCreated, ticket)
}

// ListTickets handles GET /support/tickets
func (h *SupportHandlers) ListTickets(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	tickets, err := h.supportService.ListForCompany(ctx, companyID)
	if err != nil {
		return common.SendServerError(c, "Failed to list tickets")
	}
	return c.JSON(http.StatusOK, tickets)
}
