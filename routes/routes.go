package routes

import (
	"github.com/gin-gonic/gin"

	"stockwatch-backend/config"
	"stockwatch-backend/controllers"
	"stockwatch-backend/middleware"
	"stockwatch-backend/services"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, cfg *config.Config, users *services.UserStore, alerts *services.AlertStore, quotes *services.QuoteService, hub *services.StreamHub) {
	// Initialize controllers
	authController := controllers.NewAuthController(users, cfg.JWTSecret, cfg.JWTLifetime)
	alertController := controllers.NewAlertController(alerts)
	watchlistController := controllers.NewWatchlistController(users)
	stockController := controllers.NewStockController(quotes)
	userController := controllers.NewUserController(users)

	authRequired := middleware.JWTAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", authController.Login)
			auth.GET("/verify", authRequired, authController.Verify)
		}

		// Alert routes
		alertRoutes := api.Group("/alerts", authRequired)
		{
			alertRoutes.GET("", alertController.GetAlerts)
			alertRoutes.POST("", alertController.CreateAlert)
			alertRoutes.DELETE("", alertController.DeleteAlert)
		}
		api.GET("/alert-history", authRequired, alertController.GetAlertHistory)

		// Watchlist routes
		watchlist := api.Group("/watchlist", authRequired)
		{
			watchlist.GET("", watchlistController.GetWatchlist)
			watchlist.POST("", watchlistController.AddToWatchlist)
			watchlist.DELETE("", watchlistController.RemoveFromWatchlist)
		}

		// Stock routes
		stocks := api.Group("/stocks", authRequired)
		{
			stocks.GET("/search", stockController.SearchStocks)
			stocks.GET("/:symbol/quote", stockController.GetQuote)
		}

		// Profile routes
		user := api.Group("/user", authRequired)
		{
			user.GET("/profile", userController.GetProfile)
			user.PUT("/profile", userController.UpdateProfile)
		}
	}

	// Live price stream
	router.GET("/ws", func(c *gin.Context) {
		hub.HandleWebSocket(c.Writer, c.Request)
	})
}
