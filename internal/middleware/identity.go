package middleware

// identity.go holds the helpers that read the caller set by JWTAuth.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/model"
)

// PrincipalFrom returns the authenticated caller.  ok is false on routes
// without JWTAuth or when the context holds no user.
func PrincipalFrom(c echo.Context) (p model.Principal, ok bool) {
	uid, ok := c.Get("user_id").(uint64)
	if !ok || uid == 0 {
		return model.Principal{}, false
	}
	role, _ := c.Get("role").(string)
	return model.Principal{UserID: uid, Role: role}, true
}

// userID returns the caller's id as a string, or "anon" for
// unauthenticated requests.  Used to build Redis keys.
func userID(c echo.Context) string {
	if p, ok := PrincipalFrom(c); ok {
		return strconv.FormatUint(p.UserID, 10)
	}
	return "anon"
}
