package admin

import (
	"net/http"
	"strconv"

	"github.com/foodgram/backend/pkg/foodgram/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles admin requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new admin handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// UserResponse represents user data in admin responses
type UserResponse struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Active       bool   `json:"active"`
	SystemRole   string `json:"system_role"`
	CreatedAt    string `json:"created_at"`
	RecipeCount  int64  `json:"recipe_count"`
	FollowerCount int64 `json:"follower_count"`
}

// UpdateUserRequest represents the request to update a user
type UpdateUserRequest struct {
	SystemRole *string `json:"system_role" binding:"omitempty,oneof=admin user"`
	Active     *bool   `json:"active"`
}

// StatsResponse represents system statistics
type StatsResponse struct {
	TotalUsers         int64 `json:"total_users"`
	TotalRecipes       int64 `json:"total_recipes"`
	TotalTags          int64 `json:"total_tags"`
	TotalIngredients   int64 `json:"total_ingredients"`
	TotalFavorites     int64 `json:"total_favorites"`
	TotalCartItems     int64 `json:"total_cart_items"`
	TotalSubscriptions int64 `json:"total_subscriptions"`
	AdminUsers         int64 `json:"admin_users"`
}

// Stats returns system statistics
// @Summary System statistics
// @Description Get entity totals (admin only)
// @Tags admin
// @Produce json
// @Success 200 {object} StatsResponse
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	var stats StatsResponse
	h.db.Model(&models.User{}).Count(&stats.TotalUsers)
	h.db.Model(&models.Recipe{}).Count(&stats.TotalRecipes)
	h.db.Model(&models.Tag{}).Count(&stats.TotalTags)
	h.db.Model(&models.Ingredient{}).Count(&stats.TotalIngredients)
	h.db.Model(&models.FavoriteRecipe{}).Count(&stats.TotalFavorites)
	h.db.Model(&models.ShoppingCart{}).Count(&stats.TotalCartItems)
	h.db.Model(&models.Subscription{}).Count(&stats.TotalSubscriptions)
	h.db.Model(&models.User{}).Where("system_role = ?", models.SystemRoleAdmin).Count(&stats.AdminUsers)

	c.JSON(http.StatusOK, stats)
}

// ListUsers returns all users (admin only)
// @Summary List users (admin)
// @Description Get all users with per-user recipe and follower counts
// @Tags admin
// @Produce json
// @Param q query string false "Search by email or username"
// @Param role query string false "Filter by system role"
// @Success 200 {array} UserResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	query := h.db.Order("created_at DESC")

	if search := c.Query("q"); search != "" {
		query = query.Where("email LIKE ? OR username LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("system_role = ?", role)
	}

	var userList []models.User
	if err := query.Find(&userList).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	responses := make([]UserResponse, len(userList))
	for i, user := range userList {
		var recipeCount, followerCount int64
		h.db.Model(&models.Recipe{}).Where("author_id = ?", user.ID).Count(&recipeCount)
		h.db.Model(&models.Subscription{}).Where("author_id = ?", user.ID).Count(&followerCount)

		responses[i] = UserResponse{
			ID:            user.ID,
			Email:         user.Email,
			Username:      user.Username,
			FirstName:     user.FirstName,
			LastName:      user.LastName,
			Active:        user.Active,
			SystemRole:    string(user.SystemRole),
			CreatedAt:     user.CreatedAt.Format("2006-01-02T15:04:05Z"),
			RecipeCount:   recipeCount,
			FollowerCount: followerCount,
		}
	}

	c.JSON(http.StatusOK, responses)
}

// UpdateUser updates a user's role or active flag (admin only)
// @Summary Update a user (admin)
// @Description Change a user's system role or active flag
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "Updated fields"
// @Success 200 {object} map[string]string "Updated"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [patch]
func (h *Handler) UpdateUser(c *gin.Context) {
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

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.SystemRole != nil {
		updates["system_role"] = *req.SystemRole
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated"})
}

// DeleteUser removes a user (admin only)
// @Summary Delete a user (admin)
// @Description Delete a user account
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
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

	if err := h.db.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers admin routes; the caller mounts them behind
// AuthMiddleware + RequireAdmin
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.Stats)
	rg.GET("/users", h.ListUsers)
	rg.PATCH("/users/:id", h.UpdateUser)
	rg.DELETE("/users/:id", h.DeleteUser)

	h.registerCatalogRoutes(rg)
}
