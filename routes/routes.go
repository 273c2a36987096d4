package routes

import (
	"net/http"
	"time"

	"fixitquick/handlers"
	"fixitquick/middleware"
	"fixitquick/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers the customer-facing booking endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.POST("", hb.CreateBookingHandler)
		api.GET("/:id", hb.GetBookingHandler)
		api.POST("/:id/dispatch", hb.RedispatchBookingHandler)
		api.POST("/:id/cancel", hb.CancelBookingHandler)

		// Lifecycle progression belongs to the assigned provider.
		protected := api.Group("")
		protected.Use(middleware.JWTAuthProviderMiddleware(hb.ProviderRepo))
		protected.POST("/:id/start", hb.StartJobHandler)
		protected.POST("/:id/complete", hb.CompleteJobHandler)
	}
}

// RegisterOfferRoutes registers provider responses to job offers.
func RegisterOfferRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/offers")
	{
		api.Use(middleware.JWTAuthProviderMiddleware(hb.ProviderRepo))
		api.POST("/:id/accept", hb.AcceptOfferHandler)
		api.POST("/:id/decline", hb.DeclineOfferHandler)
	}
}

// RegisterProviderRoutes registers provider registration and availability.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers")
	{
		api.POST("/register", hb.RegisterProviderHandler)
		api.GET("/id/:id", hb.GetProviderHandler)

		protected := api.Group("/me")
		protected.Use(middleware.JWTAuthProviderMiddleware(hb.ProviderRepo))
		protected.GET("/offers", hb.ListMyOffersHandler)
		protected.POST("/availability", hb.SetAvailabilityHandler)
	}
}

// RegisterEventRoutes registers the live dispatch event stream.
func RegisterEventRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/dispatch/events", hb.StreamEventsHandler)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"message":      "Hi, I'm FixitQuick",
			"dependencies": utils.GetHealthStatus(),
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterBookingRoutes(r, hb)
	RegisterOfferRoutes(r, hb)
	RegisterProviderRoutes(r, hb)
	RegisterEventRoutes(r, hb)
	RegisterHealthRoute(r)
}
