package routes

import (
	"time"

	"wedbook/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterVendorRoutes registers the availability surfaces.
func RegisterVendorRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/vendors/:vendorId")
	{
		api.GET("/availability", hb.CheckAvailability)
		api.GET("/calendar", hb.Calendar)
	}
}

// RegisterBookingRoutes sets up the endpoints for the submission workflow.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle, identity gin.HandlerFunc) {
	bookingGroup := r.Group("/api/bookings/submissions")
	{
		bookingGroup.Use(identity)
		bookingGroup.POST("", hb.CreateSubmission)
		bookingGroup.GET("/:sessionId", hb.GetSubmission)
		bookingGroup.POST("/:sessionId/confirm", hb.ConfirmSubmission)
		bookingGroup.POST("/:sessionId/cancel", hb.CancelSubmission)
		bookingGroup.POST("/:sessionId/reset", hb.ResetSubmission)
		bookingGroup.POST("/:sessionId/retry", hb.RetrySubmission)
	}
}

// RegisterHookRoutes registers notifications sent by the backing store.
func RegisterHookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	hooks := r.Group("/api/hooks")
	{
		hooks.POST("/bookings/cancelled", hb.BookingCancelledHook)
	}
}

// RegisterEventRoutes registers the SSE stream.
func RegisterEventRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/events", hb.Events)
}

// RegisterHealthRoute registers the health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
// identity runs on submission routes only.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, identity gin.HandlerFunc) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Client-Origin"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterVendorRoutes(r, hb)
	RegisterBookingRoutes(r, hb, identity)
	RegisterHookRoutes(r, hb)
	RegisterEventRoutes(r, hb)
}
