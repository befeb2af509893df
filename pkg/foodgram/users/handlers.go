package users

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/foodgram/backend/pkg/foodgram/auth"
	"github.com/foodgram/backend/pkg/foodgram/models"
	"github.com/foodgram/backend/pkg/foodgram/pagination"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles user profile and subscription requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new users handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// ProfileResponse represents a user profile in API responses
type ProfileResponse struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
	RecipesCount int64  `json:"recipes_count"`
}

func (h *Handler) toProfile(user models.User, callerID uint) ProfileResponse {
	profile := ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}

	h.db.Model(&models.Recipe{}).Where("author_id = ?", user.ID).Count(&profile.RecipesCount)

	if callerID != 0 && callerID != user.ID {
		var count int64
		h.db.Model(&models.Subscription{}).
			Where("user_id = ? AND author_id = ?", callerID, user.ID).Count(&count)
		profile.IsSubscribed = count > 0
	}

	return profile
}

// List returns a page of user profiles
// @Summary List users
// @Description Get user profiles, paginated
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} pagination.Page
// @Router /users [get]
func (h *Handler) List(c *gin.Context) {
	callerID, _ := auth.GetUserID(c)
	params := pagination.Parse(c)

	var count int64
	if err := h.db.Model(&models.User{}).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	var userList []models.User
	err := h.db.Order("id").Limit(params.Limit).Offset(params.Offset).Find(&userList).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	profiles := make([]ProfileResponse, len(userList))
	for i, user := range userList {
		profiles[i] = h.toProfile(user, callerID)
	}

	c.JSON(http.StatusOK, pagination.Page{Count: count, Results: profiles})
}

// Get returns a single user profile
// @Summary Get a user
// @Description Get a user profile by id, with the caller's subscription flag
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	callerID, _ := auth.GetUserID(c)
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, h.toProfile(user, callerID))
}

// Subscribe subscribes the caller to an author
// @Summary Subscribe to an author
// @Description Follow another user
// @Tags subscriptions
// @Produce json
// @Param id path int true "Author ID"
// @Success 201 {object} ProfileResponse
// @Failure 400 {object} map[string]string "Already subscribed or self-subscription"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /users/{id}/subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	callerID, _ := auth.GetUserID(c)
	authorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var author models.User
	if err := h.db.First(&author, authorID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if author.ID == callerID {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "You cannot subscribe to yourself."})
		return
	}

	var existing models.Subscription
	if err := h.db.Where("user_id = ? AND author_id = ?", callerID, author.ID).First(&existing).Error; err == nil {
		msg := fmt.Sprintf("You are already subscribed to %s.", author.Username)
		c.JSON(http.StatusBadRequest, gin.H{"errors": msg})
		return
	}

	subscription := models.Subscription{UserID: callerID, AuthorID: author.ID}
	if err := h.db.Create(&subscription).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe"})
		return
	}

	c.JSON(http.StatusCreated, h.toProfile(author, callerID))
}

// Unsubscribe removes the caller's subscription to an author
// @Summary Unsubscribe from an author
// @Description Unfollow another user
// @Tags subscriptions
// @Produce json
// @Param id path int true "Author ID"
// @Success 204 "Unsubscribed"
// @Failure 400 {object} map[string]string "Not subscribed"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /users/{id}/subscribe [delete]
func (h *Handler) Unsubscribe(c *gin.Context) {
	callerID, _ := auth.GetUserID(c)
	authorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var author models.User
	if err := h.db.First(&author, authorID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var subscription models.Subscription
	if err := h.db.Where("user_id = ? AND author_id = ?", callerID, author.ID).First(&subscription).Error; err != nil {
		msg := fmt.Sprintf("Author %s is absent from your subscriptions.", author.Username)
		c.JSON(http.StatusBadRequest, gin.H{"errors": msg})
		return
	}

	if err := h.db.Delete(&subscription).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unsubscribe"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Subscriptions returns the page of users the caller follows
// @Summary List subscriptions
// @Description Get the users the caller is subscribed to, paginated
// @Tags subscriptions
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} pagination.Page
// @Security BearerAuth
// @Router /subscriptions [get]
func (h *Handler) Subscriptions(c *gin.Context) {
	callerID, _ := auth.GetUserID(c)
	params := pagination.Parse(c)

	var count int64
	err := h.db.Model(&models.Subscription{}).Where("user_id = ?", callerID).Count(&count).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscriptions"})
		return
	}

	var authors []models.User
	err = h.db.
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id AND subscriptions.user_id = ?", callerID).
		Order("subscriptions.created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&authors).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscriptions"})
		return
	}

	profiles := make([]ProfileResponse, len(authors))
	for i, author := range authors {
		profiles[i] = h.toProfile(author, callerID)
	}

	c.JSON(http.StatusOK, pagination.Page{Count: count, Results: profiles})
}

// RegisterRoutes registers user routes. Profile reads tolerate anonymous
// callers; subscription routes require authentication.
func (h *Handler) RegisterRoutes(public *gin.RouterGroup, protected *gin.RouterGroup) {
	public.GET("/users", h.List)
	public.GET("/users/:id", h.Get)

	protected.POST("/users/:id/subscribe", h.Subscribe)
	protected.DELETE("/users/:id/subscribe", h.Unsubscribe)
	protected.GET("/subscriptions", h.Subscriptions)
}
