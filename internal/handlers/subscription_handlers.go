package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"stockmaster/internal/common"
	"stockmaster/internal/models"
	"stockmaster/internal/services"

	"github.com/labstack/echo/v4"
)

// SubscriptionHandlers exposes the tenant-facing subscription lifecycle:
// pricing, free activation, payment claims, PIN override and status polling.
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionService
	sessionService      services.SessionService
	configService       services.ConfigService
}

func NewSubscriptionHandlers(
	subscriptionService services.SubscriptionService,
	sessionService services.SessionService,
	configService services.ConfigService,
) *SubscriptionHandlers {
	return &SubscriptionHandlers{
		subscriptionService: subscriptionService,
		sessionService:      sessionService,
		configService:       configService,
	}
}

func (h *SubscriptionHandlers) currentUser(c echo.Context) (*models.User, error) {
	ctx := c.Request().Context()
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return nil, common.SendUnauthorizedError(c)
	}
	snapshot, err := h.sessionService.Resolve(ctx, userID)
	if err != nil {
		return nil, common.SendServerError(c, "Failed to resolve session")
	}
	return snapshot.User, nil
}

// Pricing handles GET /subscription/pricing. Public; the paywall needs it
// before any plan exists.
func (h *SubscriptionHandlers) Pricing(c echo.Context) error {
	pricing, err := h.configService.Pricing(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Failed to load pricing")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"pricing":     pricing,
		"dial_string": pricing.DialString(),
	})
}

// StartFree handles POST /subscription/free
func (h *SubscriptionHandlers) StartFree(c echo.Context) error {
	user, err := h.currentUser(c)
	if user == nil {
		return err
	}
	if err := h.subscriptionService.StartFree(c.Request().Context(), user); err != nil {
		return common.SendServerError(c, "Failed to start free plan")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Free plan activated"})
}

// SubmitClaim handles POST /subscription/claim
func (h *SubscriptionHandlers) SubmitClaim(c echo.Context) error {
	user, herr := h.currentUser(c)
	if user == nil {
		return herr
	}

	var req struct {
		Plan         string `json:"plan"`
		BillingCycle string `json:"billing_cycle"`
		CompanyName  string `json:"company_name"`
		PayerPhone   string `json:"payer_phone"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidatePhone(req.PayerPhone); err != nil {
		return common.SendValidationError(c, "payer_phone", err.Error())
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		return common.SendValidationError(c, "company_name", "Company name is required")
	}

	err := h.subscriptionService.SubmitClaim(
		c.Request().Context(),
		user,
		req.CompanyName,
		models.PlanType(req.Plan),
		models.BillingCycle(req.BillingCycle),
		strings.TrimSpace(req.PayerPhone),
	)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPlan) {
			return common.SendValidationError(c, "plan", "Plan must be growth or pro")
		}
		return common.SendServerError(c, "Failed to submit payment claim")
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Payment claim submitted. Your plan unlocks once the payment is verified.",
	})
}

// VerifyPIN handles POST /subscription/verify-pin. A wrong PIN returns the
// same error shape regardless of whether a PIN is set at all.
func (h *SubscriptionHandlers) VerifyPIN(c echo.Context) error {
	user, herr := h.currentUser(c)
	if user == nil {
		return herr
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidatePIN(req.PIN); err != nil {
		return common.SendValidationError(c, "pin", err.Error())
	}

	if err := h.subscriptionService.VerifyPIN(c.Request().Context(), user, req.PIN); err != nil {
		if errors.Is(err, services.ErrInvalidPIN) {
			return c.JSON(http.StatusForbidden, common.CreateErrorResponse("INVALID_PIN", "Invalid PIN", nil))
		}
		return common.SendServerError(c, "Failed to verify PIN")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Subscription unlocked"})
}

// Status handles GET /subscription/status. The paywall polls it while a
// payment claim is pending.
func (h *SubscriptionHandlers) Status(c echo.Context) error {
	ctx := c.Request().Context()
	companyID, ok := common.CompanyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	sub, ent, err := h.subscriptionService.Status(ctx, companyID)
	if err != nil {
		return common.SendServerError(c, "Failed to load subscription status")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"subscription": sub,
		"entitlement":  ent,
	})
}

// Events handles GET /subscription/events. It streams the tenant's change
// feed as server-sent events so the paywall learns about an activation
// without polling. The watcher is torn down when the request ends, which
// covers logout and dropped connections.
func (h *SubscriptionHandlers) Events(c echo.Context) error {
	companyID, ok := common.CompanyIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	events, teardown := h.sessionService.WatchCompany(companyID)
	defer teardown()

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case event, open := <-events:
			if !open {
				return nil
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Response(), "data: %s\n\n", payload)
			c.Response().Flush()
		}
	}
}
