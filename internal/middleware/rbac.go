package middleware

import (
	"net/http"

	"stockmaster/internal/common"
	"stockmaster/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRole allows the request only when the authenticated role is one of
// the given roles. Super admins do not bypass tenant routes; admin routes
// list RoleSuperAdmin explicitly.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roleStr, ok := common.RoleFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			role := models.Role(roleStr)
			if !role.Valid() {
				return echo.NewHTTPError(http.StatusForbidden, "Unknown role")
			}
			if _, ok := allowed[role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}

// RequireCompany rejects requests whose token carries no tenant binding.
// Super-admin tokens have an empty company id and must not hit shop routes.
func RequireCompany() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			companyID, ok := common.CompanyIDFromContext(c.Request().Context())
			if !ok || companyID == "" {
				return echo.NewHTTPError(http.StatusForbidden, "No shop bound to this session")
			}
			return next(c)
		}
	}
}
