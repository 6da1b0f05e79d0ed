package middleware // permission checks layered on top of JWTAuth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Permission names carried in token claims. Routes gate on these
// rather than on roles so the identity provider stays free to group
// them however it likes.
const (
	PermOrdersManage = "orders:manage"
	PermWalletManage = "wallet:manage"
	PermSeatsBook    = "seats:book"
)

// RequirePermission returns a middleware that aborts with 403 unless
// the authenticated user carries the given permission claim. It
// assumes JWTAuth ran earlier in the chain.
func RequirePermission(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !HasPermission(c, perm) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
