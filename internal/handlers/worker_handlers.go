package handlers

import (
	"net/http"

	"stockmaster/internal/common"
	"stockmaster/internal/models"
	"stockmaster/internal/repositories"
	"stockmaster/internal/services"

	"github.com/labstack/echo/v4"
)

// WorkerHandlers lets a manager review the staff roster: approving or
// rejecting pending worker accounts for their own shop.
type WorkerHandlers struct {
	userRepo       repositories.UserRepository
	sessionService services.SessionService
}

func NewWorkerHandlers(userRepo repositories.UserRepository, sessionService services.SessionService) *WorkerHandlers {
	return &WorkerHandlers{
		userRepo:       userRepo,
		sessionService: sessionService,
	}
}

// ListWorkers handles GET /workers
func (h *WorkerHandlers) ListWorkers(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	users, err := h.userRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return common.SendServerError(c, "Failed to list workers")
	}

	workers := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.Role == models.RoleWorker {
			workers = append(workers, u)
		}
	}
	return c.JSON(http.StatusOK, workers)
}

func (h *WorkerHandlers) setWorkerStatus(c echo.Context, status models.UserStatus) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "worker id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if status == models.StatusActive {
		if err := h.checkWorkerCap(c, companyID); err != nil {
			return err
		}
	}

	if err := h.userRepo.UpdateStatus(ctx, companyID, id, status); err != nil {
		return common.SendServerError(c, "Failed to update worker status")
	}
	h.sessionService.Invalidate(ctx, id)

	return c.JSON(http.StatusOK, map[string]string{"status": string(status)})
}

// checkWorkerCap blocks an approval that would exceed the plan's active
// worker cap. A zero cap means unlimited.
func (h *WorkerHandlers) checkWorkerCap(c echo.Context, companyID string) error {
	ctx := c.Request().Context()
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	snapshot, err := h.sessionService.Resolve(ctx, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to resolve session")
	}
	limit := snapshot.Entitlement.Limits.MaxWorkers
	if limit == 0 {
		return nil
	}

	users, err := h.userRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return common.SendServerError(c, "Failed to list workers")
	}
	active := 0
	for _, u := range users {
		if u.Role == models.RoleWorker && u.Status == models.StatusActive {
			active++
		}
	}
	if active >= limit {
		return c.JSON(http.StatusForbidden, common.CreateErrorResponse("PLAN_LIMIT", "Worker limit reached for the current plan", nil))
	}
	return nil
}

// ApproveWorker handles POST /workers/:id/approve
func (h *WorkerHandlers) ApproveWorker(c echo.Context) error {
	return h.setWorkerStatus(c, models.StatusActive)
}

// RejectWorker handles POST /workers/:id/reject
func (h *WorkerHandlers) RejectWorker(c echo.Context) error {
	return h.setWorkerStatus(c, models.StatusRejected)
}
