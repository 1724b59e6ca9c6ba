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

// AuthHandlers handles shop registration, staff onboarding and login.
type AuthHandlers struct {
	authService    services.AuthService
	sessionService services.SessionService
}

func NewAuthHandlers(authService services.AuthService, sessionService services.SessionService) *AuthHandlers {
	return &AuthHandlers{
		authService:    authService,
		sessionService: sessionService,
	}
}

// RegisterShop handles POST /auth/signup
func (h *AuthHandlers) RegisterShop(c echo.Context) error {
	var req struct {
		ShopName string `json:"shop_name"`
		Currency string `json:"currency"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if strings.TrimSpace(req.ShopName) == "" {
		return common.SendValidationError(c, "shop_name", "Shop name is required")
	}
	if !models.ValidCurrency(req.Currency) {
		return common.SendValidationError(c, "currency", "Unsupported currency")
	}
	if strings.TrimSpace(req.Name) == "" {
		return common.SendValidationError(c, "name", "Name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return common.SendValidationError(c, "email", "Email is required")
	}
	if len(req.Password) < 6 {
		return common.SendValidationError(c, "password", "Password must be at least 6 characters")
	}

	user, token, err := h.authService.RegisterShop(c.Request().Context(), req.ShopName, req.Currency, req.Name, req.Email, req.Password)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// JoinStaff handles POST /auth/join
func (h *AuthHandlers) JoinStaff(c echo.Context) error {
	var req struct {
		ShopCode string `json:"shop_code"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	shopCode, err := common.ValidateShopCode(req.ShopCode)
	if err != nil {
		return common.SendValidationError(c, "shop_code", err.Error())
	}
	if strings.TrimSpace(req.Name) == "" {
		return common.SendValidationError(c, "name", "Name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return common.SendValidationError(c, "email", "Email is required")
	}
	if len(req.Password) < 6 {
		return common.SendValidationError(c, "password", "Password must be at least 6 characters")
	}

	user, err := h.authService.JoinStaff(c.Request().Context(), shopCode, req.Name, req.Email, req.Password)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"user":    user,
		"message": "Account created. Your manager must approve it before you can log in.",
	})
}

// Login handles POST /auth/login
func (h *AuthHandlers) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	user, token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("INVALID_CREDENTIALS", "Invalid email or password", nil))
		}
		return common.SendServerError(c, "Login failed")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// Me handles GET /auth/me. It resolves the full session snapshot: user,
// company and the entitlement the client should gate its UI on.
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	snapshot, err := h.sessionService.Resolve(ctx, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to resolve session")
	}
	return c.JSON(http.StatusOK, snapshot)
}

// RefreshSession handles POST /auth/refresh. Clients call it after a
// realtime event tells them their tenant data changed.
func (h *AuthHandlers) RefreshSession(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	snapshot, err := h.sessionService.Refresh(ctx, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to refresh session")
	}
	return c.JSON(http.StatusOK, snapshot)
}

// ForgotPassword handles POST /auth/forgot. Public; dispatches the recovery
// email when the address is on file.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return common.SendValidationError(c, "email", "Email is required")
	}

	if err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		if errors.Is(err, services.ErrEmailNotRegistered) {
			return c.JSON(http.StatusNotFound, common.CreateErrorResponse("EMAIL_NOT_FOUND", "This email is not registered in our system", nil))
		}
		return common.SendServerError(c, "Failed to dispatch recovery email")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "recovery email sent"})
}

// ResetPassword handles POST /auth/reset. Public; the token in the body is
// the one mailed by ForgotPassword.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if len(req.NewPassword) < 6 {
		return common.SendValidationError(c, "new_password", "Password must be at least 6 characters")
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrInvalidResetToken) {
			return c.JSON(http.StatusForbidden, common.CreateErrorResponse("INVALID_TOKEN", "Reset link is invalid or has expired", nil))
		}
		return common.SendServerError(c, "Failed to reset password")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "password reset"})
}

// ChangePassword handles POST /auth/password.
func (h *AuthHandlers) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if len(req.NewPassword) < 6 {
		return common.SendValidationError(c, "new_password", "Password must be at least 6 characters")
	}

	if err := h.authService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.JSON(http.StatusForbidden, common.CreateErrorResponse("INVALID_CREDENTIALS", "Current password is incorrect", nil))
		}
		return common.SendServerError(c, "Failed to change password")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "password changed"})
}

// Logout handles POST /auth/logout. It drops the cached snapshot so the
// next resolution starts cold and writes the audit entry.
func (h *AuthHandlers) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if snapshot, err := h.sessionService.Resolve(ctx, userID); err == nil {
		h.authService.Logout(ctx, snapshot.User)
	}
	h.sessionService.Invalidate(ctx, userID)
	return c.JSON(http.StatusOK, map[string]string{"status": "logged out"})
}
