package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-booking/internal/utils"
)

// JWTAuth rejects requests without a valid Bearer access token and puts
// the token's user id, email and role into the context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			if !authenticate(c, secret, raw) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			return next(c)
		}
	}
}

// OptionalJWT identifies the caller when a valid token is present and
// otherwise lets the request through as a guest.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearer(c); ok {
				authenticate(c, secret, raw)
			}
			return next(c)
		}
	}
}

func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

func authenticate(c echo.Context, secret, raw string) bool {
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return false
	}
	uid, _ := claims.UserID()
	c.Set(CtxUserID, uid)
	c.Set(CtxEmail, claims.Email)
	c.Set(CtxRole, claims.Role)
	return true
}
