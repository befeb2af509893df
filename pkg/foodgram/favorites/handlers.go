package favorites

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/foodgram/backend/pkg/foodgram/auth"
	"github.com/foodgram/backend/pkg/foodgram/models"
	"github.com/foodgram/backend/pkg/foodgram/recipes"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles favorite membership requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new favorites handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// Add marks a recipe as the caller's favorite
// @Summary Favorite a recipe
// @Description Add a recipe to the caller's favorites
// @Tags favorites
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} recipes.ShortRecipeResponse
// @Failure 400 {object} map[string]string "Already favorited"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id}/favorite [post]
func (h *Handler) Add(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	var recipe models.Recipe
	if err := h.db.First(&recipe, recipeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}

	var existing models.FavoriteRecipe
	if err := h.db.Where("user_id = ? AND recipe_id = ?", userID, recipe.ID).First(&existing).Error; err == nil {
		msg := fmt.Sprintf("Recipe (%s) is already in your favorites.", recipe.Name)
		c.JSON(http.StatusBadRequest, gin.H{"errors": msg})
		return
	}

	favorite := models.FavoriteRecipe{UserID: userID, RecipeID: recipe.ID}
	if err := h.db.Create(&favorite).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add favorite"})
		return
	}

	c.JSON(http.StatusCreated, recipes.ShortResponse(recipe))
}

// Remove removes a recipe from the caller's favorites
// @Summary Unfavorite a recipe
// @Description Remove a recipe from the caller's favorites
// @Tags favorites
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 204 "Removed"
// @Failure 400 {object} map[string]string "Not in favorites"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id}/favorite [delete]
func (h *Handler) Remove(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	var recipe models.Recipe
	if err := h.db.First(&recipe, recipeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}

	var favorite models.FavoriteRecipe
	if err := h.db.Where("user_id = ? AND recipe_id = ?", userID, recipe.ID).First(&favorite).Error; err != nil {
		msg := fmt.Sprintf("Recipe (%s) is already absent from your favorites.", recipe.Name)
		c.JSON(http.StatusBadRequest, gin.H{"errors": msg})
		return
	}

	if err := h.db.Delete(&favorite).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favorite"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers favorite toggle routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recipes/:id/favorite", h.Add)
	rg.DELETE("/recipes/:id/favorite", h.Remove)
}
