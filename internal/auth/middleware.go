package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session"

type contextKey string

const userIDKey contextKey = "authUserID"

// GetUserID retrieves the authenticated user from context.
func GetUserID(ctx context.Context) (uint, bool) {
	if ctx == nil {
		return 0, false
	}
	if value, ok := ctx.Value(userIDKey).(uint); ok && value != 0 {
		return value, true
	}
	return 0, false
}

// SessionMiddleware validates the session cookie and injects the user
// identity. Browsers without a valid session are redirected to the login
// page rather than handed a bare 401, since every protected route renders
// HTML.
func SessionMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(SessionCookie)
		if err != nil || tokenString == "" {
			redirectToLogin(c)
			return
		}

		userID, err := ParseToken(tokenString, secret)
		if err != nil {
			redirectToLogin(c)
			return
		}

		ctx := context.WithValue(c.Request.Context(), userIDKey, userID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(userIDKey), userID)

		c.Next()
	}
}

func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}
