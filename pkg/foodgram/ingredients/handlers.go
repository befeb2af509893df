package ingredients

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/foodgram/backend/pkg/foodgram/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles ingredient catalog requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new ingredients handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// IngredientResponse represents an ingredient in API responses
type IngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// ToResponse converts an ingredient model to its API representation
func ToResponse(ing models.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:              ing.ID,
		Name:            ing.Name,
		MeasurementUnit: ing.MeasurementUnit,
	}
}

// List returns ingredients, optionally filtered by a case-insensitive
// name prefix
// @Summary List ingredients
// @Description Get ingredients, optionally filtered by name prefix (case-insensitive)
// @Tags ingredients
// @Produce json
// @Param name query string false "Name prefix"
// @Success 200 {array} IngredientResponse
// @Router /ingredients [get]
func (h *Handler) List(c *gin.Context) {
	query := h.db.Order("name")

	// Prefix match only: "mil" matches "Milk" but not "Almilk"
	if name := c.Query("name"); name != "" {
		query = query.Where("LOWER(name) LIKE ?", strings.ToLower(name)+"%")
	}

	var ings []models.Ingredient
	if err := query.Find(&ings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ingredients"})
		return
	}

	responses := make([]IngredientResponse, len(ings))
	for i, ing := range ings {
		responses[i] = ToResponse(ing)
	}

	c.JSON(http.StatusOK, responses)
}

// Get returns a single ingredient by id
// @Summary Get an ingredient
// @Description Get an ingredient by its id
// @Tags ingredients
// @Produce json
// @Param id path int true "Ingredient ID"
// @Success 200 {object} IngredientResponse
// @Failure 404 {object} map[string]string "Ingredient not found"
// @Router /ingredients/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	ingredientID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ingredient ID"})
		return
	}

	var ing models.Ingredient
	if err := h.db.First(&ing, ingredientID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingredient not found"})
		return
	}

	c.JSON(http.StatusOK, ToResponse(ing))
}

// RegisterRoutes registers ingredient routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ingredients", h.List)
	rg.GET("/ingredients/:id", h.Get)
}
