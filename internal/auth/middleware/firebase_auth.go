package middleware

import (
	"context"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

// OptionalFirebaseAuth resolves a Firebase ID token into an owner
// identity when one is presented. Requests without a valid token
// proceed anonymously — anonymous authorship is permitted, the
// persistence facade just skips remote sync for them.
func OptionalFirebaseAuth(authClient *auth.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" || authClient == nil {
			c.Next()
			return
		}

		decodedToken, err := authClient.VerifyIDToken(context.Background(), token)
		if err != nil {
			c.Next()
			return
		}

		c.Set("owner_id", decodedToken.UID)

		if premium, ok := decodedToken.Claims["premium"].(bool); ok {
			c.Set("owner_premium", premium)
		}

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
