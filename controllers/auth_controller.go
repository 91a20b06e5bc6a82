package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"stockwatch-backend/middleware"
	"stockwatch-backend/models"
	"stockwatch-backend/services"
)

// AuthController handles registration, login and token verification
type AuthController struct {
	users       *services.UserStore
	jwtSecret   string
	jwtLifetime time.Duration
}

// NewAuthController creates a new auth controller
func NewAuthController(users *services.UserStore, jwtSecret string, jwtLifetime time.Duration) *AuthController {
	return &AuthController{
		users:       users,
		jwtSecret:   jwtSecret,
		jwtLifetime: jwtLifetime,
	}
}

// Register creates a new user account
// POST /api/auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var request struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := models.User{
		Email:        request.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := ac.users.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, services.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"email":   user.Email,
	})
}

// Login authenticates a user and issues an access token
// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var request struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		return
	}

	user, err := ac.users.FindUserByEmail(c.Request.Context(), request.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := middleware.GenerateToken(user.Email, ac.jwtSecret, ac.jwtLifetime)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"email":        user.Email,
		"message":      "Login successful",
	})
}

// Verify confirms the presented token is valid
// GET /api/auth/verify
func (ac *AuthController) Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"valid": true})
}
