package admin

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/foodgram/backend/pkg/foodgram/models"
	"github.com/gin-gonic/gin"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9_-]+$`)

// CreateTagRequest represents the request to create a tag
type CreateTagRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Slug  string `json:"slug" binding:"required,max=100"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
}

// UpdateTagRequest represents the request to update a tag
type UpdateTagRequest struct {
	Name  string `json:"name" binding:"omitempty,max=100"`
	Slug  string `json:"slug" binding:"omitempty,max=100"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
}

// CreateIngredientRequest represents the request to create an ingredient
type CreateIngredientRequest struct {
	Name            string `json:"name" binding:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=50"`
}

// UpdateIngredientRequest represents the request to update an ingredient
type UpdateIngredientRequest struct {
	Name            string `json:"name" binding:"omitempty,max=200"`
	MeasurementUnit string `json:"measurement_unit" binding:"omitempty,max=50"`
}

// CreateTag adds a tag to the catalog (admin only)
// @Summary Create a tag (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param request body CreateTagRequest true "Tag details"
// @Success 201 {object} models.Tag
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /admin/tags [post]
func (h *Handler) CreateTag(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !slugRegex.MatchString(req.Slug) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must contain only lowercase letters, numbers, hyphens, and underscores"})
		return
	}

	var existing models.Tag
	if err := h.db.Where("slug = ?", req.Slug).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This slug is already taken"})
		return
	}

	tag := models.Tag{Name: req.Name, Slug: req.Slug, Color: req.Color}
	if err := h.db.Create(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
		return
	}

	c.JSON(http.StatusCreated, tag)
}

// UpdateTag updates a tag (admin only)
// @Summary Update a tag (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Tag ID"
// @Param request body UpdateTagRequest true "Updated tag details"
// @Success 200 {object} models.Tag
// @Failure 404 {object} map[string]string "Tag not found"
// @Security BearerAuth
// @Router /admin/tags/{id} [patch]
func (h *Handler) UpdateTag(c *gin.Context) {
	tagID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag ID"})
		return
	}

	var tag models.Tag
	if err := h.db.First(&tag, tagID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	var req UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Slug != "" && req.Slug != tag.Slug {
		if !slugRegex.MatchString(req.Slug) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must contain only lowercase letters, numbers, hyphens, and underscores"})
			return
		}
		var existing models.Tag
		if err := h.db.Where("slug = ? AND id != ?", req.Slug, tag.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "This slug is already taken"})
			return
		}
		tag.Slug = req.Slug
	}
	if req.Name != "" {
		tag.Name = req.Name
	}
	if req.Color != "" {
		tag.Color = req.Color
	}

	if err := h.db.Save(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tag"})
		return
	}

	c.JSON(http.StatusOK, tag)
}

// DeleteTag removes a tag (admin only)
// @Summary Delete a tag (admin)
// @Tags admin
// @Produce json
// @Param id path int true "Tag ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Tag not found"
// @Security BearerAuth
// @Router /admin/tags/{id} [delete]
func (h *Handler) DeleteTag(c *gin.Context) {
	tagID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag ID"})
		return
	}

	var tag models.Tag
	if err := h.db.First(&tag, tagID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	if err := h.db.Delete(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tag"})
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateIngredient adds an ingredient to the catalog (admin only)
// @Summary Create an ingredient (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param request body CreateIngredientRequest true "Ingredient details"
// @Success 201 {object} models.Ingredient
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /admin/ingredients [post]
func (h *Handler) CreateIngredient(c *gin.Context) {
	var req CreateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ing := models.Ingredient{Name: req.Name, MeasurementUnit: req.MeasurementUnit}
	if err := h.db.Create(&ing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ingredient"})
		return
	}

	c.JSON(http.StatusCreated, ing)
}

// UpdateIngredient updates an ingredient (admin only)
// @Summary Update an ingredient (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Ingredient ID"
// @Param request body UpdateIngredientRequest true "Updated ingredient details"
// @Success 200 {object} models.Ingredient
// @Failure 404 {object} map[string]string "Ingredient not found"
// @Security BearerAuth
// @Router /admin/ingredients/{id} [patch]
func (h *Handler) UpdateIngredient(c *gin.Context) {
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

	var req UpdateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != "" {
		ing.Name = req.Name
	}
	if req.MeasurementUnit != "" {
		ing.MeasurementUnit = req.MeasurementUnit
	}

	if err := h.db.Save(&ing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update ingredient"})
		return
	}

	c.JSON(http.StatusOK, ing)
}

// DeleteIngredient removes an ingredient (admin only)
// @Summary Delete an ingredient (admin)
// @Tags admin
// @Produce json
// @Param id path int true "Ingredient ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Ingredient not found"
// @Security BearerAuth
// @Router /admin/ingredients/{id} [delete]
func (h *Handler) DeleteIngredient(c *gin.Context) {
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

	if err := h.db.Delete(&ing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete ingredient"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) registerCatalogRoutes(rg *gin.RouterGroup) {
	rg.POST("/tags", h.CreateTag)
	rg.PATCH("/tags/:id", h.UpdateTag)
	rg.DELETE("/tags/:id", h.DeleteTag)

	rg.POST("/ingredients", h.CreateIngredient)
	rg.PATCH("/ingredients/:id", h.UpdateIngredient)
	rg.DELETE("/ingredients/:id", h.DeleteIngredient)
}
