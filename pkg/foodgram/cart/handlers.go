package cart

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

// Handler handles shopping cart requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new cart handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// Add puts a recipe into the caller's shopping cart
// @Summary Add a recipe to the shopping cart
// @Description Add a recipe to the caller's shopping cart
// @Tags shopping-cart
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} recipes.ShortRecipeResponse
// @Failure 400 {object} map[string]string "Already in the cart"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id}/shopping_cart [post]
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

	var existing models.ShoppingCart
	if err := h.db.Where("user_id = ? AND recipe_id = ?", userID, recipe.ID).First(&existing).Error; err == nil {
		msg := fmt.Sprintf("Recipe (%s) is already in your shopping cart.", recipe.Name)
		c.JSON(http.StatusBadRequest, gin.H{"errors": msg})
		return
	}

	item := models.ShoppingCart{UserID: userID, RecipeID: recipe.ID}
	if err := h.db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to shopping cart"})
		return
	}

	c.JSON(http.StatusCreated, recipes.ShortResponse(recipe))
}

// Remove takes a recipe out of the caller's shopping cart
// @Summary Remove a recipe from the shopping cart
// @Description Remove a recipe from the caller's shopping cart
// @Tags shopping-cart
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 204 "Removed"
// @Failure 400 {object} map[string]string "Not in the cart"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id}/shopping_cart [delete]
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

	var item models.ShoppingCart
	if err := h.db.Where("user_id = ? AND recipe_id = ?", userID, recipe.ID).First(&item).Error; err != nil {
		msg := fmt.Sprintf("Recipe (%s) is already absent from your shopping cart.", recipe.Name)
		c.JSON(http.StatusBadRequest, gin.H{"errors": msg})
		return
	}

	if err := h.db.Delete(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove from shopping cart"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Download renders the caller's aggregated shopping list as a plain-text
// attachment
// @Summary Download the shopping list
// @Description Download the aggregated ingredient list for all recipes in the caller's cart
// @Tags shopping-cart
// @Produce plain
// @Success 200 {string} string "Shopping list"
// @Security BearerAuth
// @Router /shopping_cart/download [get]
func (h *Handler) Download(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	list, err := h.buildShoppingList(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build shopping list"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=shopping-list.txt")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(list))
}

// RegisterRoutes registers cart toggle and download routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recipes/:id/shopping_cart", h.Add)
	rg.DELETE("/recipes/:id/shopping_cart", h.Remove)
	rg.GET("/shopping_cart/download", h.Download)
}
