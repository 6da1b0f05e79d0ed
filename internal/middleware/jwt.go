package middleware // reusable HTTP middleware shared by all route groups

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// DefaultSeatQuota applies when a token carries no seat_quota claim.
const DefaultSeatQuota = 5

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects its claims into the request context. Tokens are
// issued by the external identity provider; this service only
// verifies them with the shared secret. Handlers downstream read
// `c.Get("user_id")` (uint64), `c.Get("permissions")` ([]string) and
// `c.Get("seat_quota")` (int).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// HS256 only; any other signing method is rejected.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			uid, ok := subjectID(claims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}
			c.Set("user_id", uid)
			c.Set("permissions", permissionClaims(claims))
			c.Set("seat_quota", seatQuotaClaim(claims))
			return next(c)
		}
	}
}

// subjectID reads the sub claim as a uint64 user id; the identity
// provider issues either a numeric claim or a decimal string.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
	switch v := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		return id, err == nil && id > 0
	case float64:
		return uint64(v), v > 0
	}
	return 0, false
}

func permissionClaims(claims jwt.MapClaims) []string {
	raw, ok := claims["permissions"].([]interface{})
	if !ok {
		return nil
	}
	perms := make([]string, 0, len(raw))
	for _, p := range raw {
		if s, ok := p.(string); ok {
			perms = append(perms, s)
		}
	}
	return perms
}

func seatQuotaClaim(claims jwt.MapClaims) int {
	if v, ok := claims["seat_quota"].(float64); ok && v > 0 {
		return int(v)
	}
	return DefaultSeatQuota
}

// UserID reads the authenticated user id set by JWTAuth. Zero means
// unauthenticated, which protected routes never see.
func UserID(c echo.Context) uint64 {
	if v, ok := c.Get("user_id").(uint64); ok {
		return v
	}
	return 0
}

// SeatQuota reads the per-user seat quota set by JWTAuth.
func SeatQuota(c echo.Context) int {
	if v, ok := c.Get("seat_quota").(int); ok {
		return v
	}
	return DefaultSeatQuota
}

// HasPermission reports whether the authenticated user carries the
// given permission claim.
func HasPermission(c echo.Context, perm string) bool {
	perms, _ := c.Get("permissions").([]string)
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}
