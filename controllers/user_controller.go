package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockwatch-backend/middleware"
	"stockwatch-backend/services"
)

// UserController handles user profile requests
type UserController struct {
	users *services.UserStore
}

// NewUserController creates a new user controller
func NewUserController(users *services.UserStore) *UserController {
	return &UserController{users: users}
}

// GetProfile returns the authenticated user's profile
// GET /api/user/profile
func (uc *UserController) GetProfile(c *gin.Context) {
	email, err := middleware.GetEmailFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := uc.users.FindUserByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile fields
// PUT /api/user/profile
func (uc *UserController) UpdateProfile(c *gin.Context) {
	email, err := middleware.GetEmailFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request struct {
		Username string `json:"username"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := uc.users.UpdateProfile(c.Request.Context(), email, request.Username, request.Phone); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}
