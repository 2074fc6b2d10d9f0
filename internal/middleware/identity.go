package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by the JWT middleware.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// Email returns the authenticated user's email or "".
func Email(c echo.Context) string {
	s, _ := c.Get(CtxEmail).(string)
	return s
}

// Role returns the authenticated user's role or "".
func Role(c echo.Context) string {
	s, _ := c.Get(CtxRole).(string)
	return s
}

// identityKey names the caller for rate limiting: the user id when
// authenticated, "anon" otherwise.
func identityKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
