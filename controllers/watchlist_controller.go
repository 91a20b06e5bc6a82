package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stockwatch-backend/middleware"
	"stockwatch-backend/services"
)

// WatchlistController handles the user's watched symbols
type WatchlistController struct {
	users *services.UserStore
}

// NewWatchlistController creates a new watchlist controller
func NewWatchlistController(users *services.UserStore) *WatchlistController {
	return &WatchlistController{users: users}
}

// GetWatchlist returns the authenticated user's watchlist
// GET /api/watchlist
func (wc *WatchlistController) GetWatchlist(c *gin.Context) {
	email, err := middleware.GetEmailFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stocks, err := wc.users.GetWatchlist(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch watchlist"})
		return
	}

	c.JSON(http.StatusOK, stocks)
}

// AddToWatchlist adds a symbol to the watchlist
// POST /api/watchlist
func (wc *WatchlistController) AddToWatchlist(c *gin.Context) {
	wc.update(c, wc.users.AddToWatchlist, "Stock added to watchlist")
}

// RemoveFromWatchlist removes a symbol from the watchlist
// DELETE /api/watchlist
func (wc *WatchlistController) RemoveFromWatchlist(c *gin.Context) {
	wc.update(c, wc.users.RemoveFromWatchlist, "Stock removed from watchlist")
}

// update runs a single-symbol watchlist mutation
func (wc *WatchlistController) update(c *gin.Context, op func(ctx context.Context, email, symbol string) error, message string) {
	email, err := middleware.GetEmailFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request struct {
		Symbol string `json:"symbol" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Symbol required"})
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(request.Symbol))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Symbol required"})
		return
	}

	if err := op(c.Request.Context(), email, symbol); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update watchlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}
