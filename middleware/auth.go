// middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"bookingpay/utils"

	"github.com/gin-gonic/gin"
)

// ActorIDKey is the gin context key holding the authenticated actor.
const ActorIDKey = "actorID"

// JWTAuthMiddleware accepts an HS256 bearer token and stores its subject as the actor ID.
// Browsers cannot set headers on websocket upgrades, so a "token" query parameter is also read.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{
				Error: "Missing or invalid Authorization header",
				Code:  "unauthorized",
			})
			return
		}

		actorID, err := utils.ExtractIDFromToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{
				Error: "Invalid token",
				Code:  "unauthorized",
			})
			return
		}
		// Background workers act as the system; no caller may claim that identity.
		if actorID == utils.SystemActorID {
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{
				Error: "Reserved subject",
				Code:  "forbidden",
			})
			return
		}

		c.Set(ActorIDKey, actorID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return c.Query("token")
}
