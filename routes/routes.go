package routes

import (
	"time"

	"bookingpay/handlers"
	"bookingpay/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterHealthRoute registers the health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
}

// RegisterDeviceRoutes registers push device endpoints.
func RegisterDeviceRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	devices := api.Group("/devices")
	{
		devices.GET("", hb.Device.GetDevicesHandler)
		devices.PUT("", hb.Device.RegisterDeviceHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)

	auth := middleware.JWTAuthMiddleware(hb.JWTSecret)
	limit := middleware.RateLimitMiddleware(hb.MaxRequestsPerMin)

	api := r.Group("/api")
	api.Use(auth, limit)
	RegisterBookingRoutes(api, hb)
	RegisterDeviceRoutes(api, hb)

	if hb.Events != nil {
		r.GET("/ws/events", auth, hb.Events.StreamEventsHandler)
	}
}
