package tags

import (
	"net/http"
	"strconv"

	"github.com/foodgram/backend/pkg/foodgram/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles tag-related requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new tags handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// TagResponse represents a tag in API responses
type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// ToResponse converts a tag model to its API representation
func ToResponse(tag models.Tag) TagResponse {
	return TagResponse{
		ID:    tag.ID,
		Name:  tag.Name,
		Slug:  tag.Slug,
		Color: tag.Color,
	}
}

// List returns all tags, unpaginated
// @Summary List tags
// @Description Get all recipe tags
// @Tags tags
// @Produce json
// @Success 200 {array} TagResponse
// @Router /tags [get]
func (h *Handler) List(c *gin.Context) {
	var tags []models.Tag
	if err := h.db.Order("name").Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}

	responses := make([]TagResponse, len(tags))
	for i, tag := range tags {
		responses[i] = ToResponse(tag)
	}

	c.JSON(http.StatusOK, responses)
}

// Get returns a single tag by id
// @Summary Get a tag
// @Description Get a tag by its id
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} TagResponse
// @Failure 404 {object} map[string]string "Tag not found"
// @Router /tags/{id} [get]
func (h *Handler) Get(c *gin.Context) {
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

	c.JSON(http.StatusOK, ToResponse(tag))
}

// RegisterRoutes registers tag routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tags", h.List)
	rg.GET("/tags/:id", h.Get)
}
