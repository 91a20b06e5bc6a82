package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"stockwatch-backend/middleware"
	"stockwatch-backend/models"
	"stockwatch-backend/services"
)

// AlertHistoryLimit caps how many trigger records the history endpoint returns
const AlertHistoryLimit = 10

// AlertController handles price alert management
type AlertController struct {
	alerts *services.AlertStore
}

// NewAlertController creates a new alert controller
func NewAlertController(alerts *services.AlertStore) *AlertController {
	return &AlertController{alerts: alerts}
}

// GetAlerts returns the authenticated user's alerts
// GET /api/alerts
func (ac *AlertController) GetAlerts(c *gin.Context) {
	email, err := middleware.GetEmailFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	alerts, err := ac.alerts.FindByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch alerts"})
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}

	c.JSON(http.StatusOK, alerts)
}

// CreateAlert creates a price alert for the authenticated user
// POST /api/alerts
func (ac *AlertController) CreateAlert(c *gin.Context) {
	email, err := middleware.GetEmailFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request struct {
		Symbol      string  `json:"symbol" binding:"required"`
		TargetPrice float64 `json:"target_price" binding:"required"`
		Condition   string  `json:"condition" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	condition := strings.ToLower(request.Condition)
	if !models.IsValidCondition(condition) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Condition must be 'above' or 'below'"})
		return
	}
	if !decimal.NewFromFloat(request.TargetPrice).IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target price must be positive"})
		return
	}

	alert := models.Alert{
		Email:       email,
		Symbol:      strings.ToUpper(strings.TrimSpace(request.Symbol)),
		TargetPrice: request.TargetPrice,
		Condition:   condition,
		Triggered:   false,
		CreatedAt:   time.Now().UTC(),
	}

	if err := ac.alerts.Create(c.Request.Context(), &alert); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create alert"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Alert created successfully",
		"alert":   alert,
	})
}

// DeleteAlert removes one of the authenticated user's alerts
// DELETE /api/alerts
func (ac *AlertController) DeleteAlert(c *gin.Context) {
	email, err := middleware.GetEmailFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request struct {
		AlertID string `json:"alert_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := primitive.ObjectIDFromHex(request.AlertID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert id"})
		return
	}

	if err := ac.alerts.Delete(c.Request.Context(), id, email); err != nil {
		if errors.Is(err, services.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete alert"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Alert deleted successfully"})
}

// GetAlertHistory returns the user's most recent triggered alerts
// GET /api/alert-history
func (ac *AlertController) GetAlertHistory(c *gin.Context) {
	email, err := middleware.GetEmailFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	history, err := ac.alerts.History(c.Request.Context(), email, AlertHistoryLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch alert history"})
		return
	}
	if history == nil {
		history = []models.AlertTrigger{}
	}

	c.JSON(http.StatusOK, history)
}
