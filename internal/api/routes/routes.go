// server/internal/api/routes/routes.go
package routes

import (
	"time"

	"tilapia-hub-api-server/config"
	"tilapia-hub-api-server/internal/api/handlers"
	"tilapia-hub-api-server/internal/api/middleware"
	"tilapia-hub-api-server/internal/auth"
	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowCredentials = true
	return c
}

// SetupRouter nhận vào các thành phần phụ thuộc và thiết lập các route.
// photos may be nil when S3 is not configured.
func SetupRouter(
	cfg config.Config,
	ledgerSvc *ledger.Ledger,
	identity *auth.Service,
	photos handlers.PhotoUploader,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORS)))

	// Khởi tạo các handlers
	authHandler := &handlers.AuthHandler{Identity: identity}
	listingHandler := &handlers.ListingHandler{Ledger: ledgerSvc, Photos: photos}
	orderHandler := &handlers.OrderHandler{Ledger: ledgerSvc}
	marketHandler := &handlers.MarketHandler{}

	authenticate := middleware.Authenticate(identity)
	farmerOnly := middleware.Authorize(models.RoleFarmer)
	buyerOnly := middleware.Authorize(models.RoleBuyer)

	apiV1 := router.Group("/api/v1")
	{
		// === CÁC ROUTE KHÔNG YÊU CẦU XÁC THỰC ===
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.SignUp)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/logout", authenticate, authHandler.Logout)
		}

		apiV1.GET("/listings", listingHandler.ListActiveListings)
		apiV1.GET("/market/prices", marketHandler.GetPrices)
		apiV1.GET("/market/estimate", marketHandler.Estimate)
		apiV1.GET("/alerts", marketHandler.GetAlerts)
		apiV1.GET("/tips", marketHandler.GetTips)

		// === CÁC ROUTE YÊU CẦU XÁC THỰC (PROTECTED) ===
		protected := apiV1.Group("/")
		protected.Use(authenticate)
		{
			protected.GET("/me", authHandler.Me)
			protected.PATCH("/me", authHandler.UpdateMe)

			protected.GET("/listings/:id", listingHandler.GetListing)

			// Farmer quản lý listing của mình
			farmer := protected.Group("/")
			farmer.Use(farmerOnly)
			{
				farmer.GET("/my/listings", listingHandler.ListMyListings)
				farmer.POST("/listings", listingHandler.CreateListing)
				farmer.PATCH("/listings/:id", listingHandler.UpdateListing)
				farmer.DELETE("/listings/:id", listingHandler.DeleteListing)
				farmer.POST("/listings/:id/photo", listingHandler.UploadPhoto)
				farmer.PUT("/orders/:id/pickup-date", orderHandler.SchedulePickup)
			}

			protected.POST("/orders", buyerOnly, orderHandler.PlaceOrder)
			protected.GET("/orders", orderHandler.ListOrders)
			protected.GET("/orders/:id", orderHandler.GetOrder)
			protected.POST("/orders/:id/status", orderHandler.UpdateStatus)
		}
	}

	return router
}
