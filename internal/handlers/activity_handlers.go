package handlers

import (
	"net/http"
	"strconv"

	"stockmaster/internal/common"
	"stockmaster/internal/repositories"

	"github.com/labstack/echo/v4"
)

// ActivityHandlers serves the per-shop audit trail.
type ActivityHandlers struct {
	activityRepo repositories.ActivityLogsRepository
}

func NewActivityHandlers(activityRepo repositories.ActivityLogsRepository) *ActivityHandlers {
	return &ActivityHandlers{activityRepo: activityRepo}
}

// ListActivity handles GET /activity
func (h *ActivityHandlers) ListActivity(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	entries, err := h.activityRepo.ListByCompany(ctx, companyID, limit)
	if err != nil {
		return common.SendServerError(c, "Failed to list activity")
	}
	return c.JSON(http.StatusOK, entries)
}
