package recipes

import (
	"net/http"
	"strconv"

	"github.com/foodgram/backend/pkg/foodgram/auth"
	"github.com/foodgram/backend/pkg/foodgram/models"
	"github.com/foodgram/backend/pkg/foodgram/pagination"
	"github.com/foodgram/backend/pkg/foodgram/tags"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles recipe-related requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new recipes handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// IngredientLineRequest is one ingredient line in a recipe payload
type IngredientLineRequest struct {
	ID     uint `json:"id" binding:"required"`
	Amount uint `json:"amount" binding:"required,min=1"`
}

// CreateRecipeRequest represents the request to create a recipe.
// The author is always the authenticated caller; an author field in the
// payload is ignored.
type CreateRecipeRequest struct {
	Name        string                  `json:"name" binding:"required,max=200"`
	Text        string                  `json:"text" binding:"required"`
	CookingTime uint                    `json:"cooking_time" binding:"required,min=1"`
	Tags        []uint                  `json:"tags"`
	Ingredients []IngredientLineRequest `json:"ingredients" binding:"required,min=1,dive"`
}

// UpdateRecipeRequest represents the request to update a recipe
type UpdateRecipeRequest struct {
	Name        string                  `json:"name" binding:"omitempty,max=200"`
	Text        string                  `json:"text"`
	CookingTime *uint                   `json:"cooking_time" binding:"omitempty,min=1"`
	Tags        []uint                  `json:"tags"`
	Ingredients []IngredientLineRequest `json:"ingredients" binding:"omitempty,min=1,dive"`
}

// AuthorResponse represents a recipe author in API responses
type AuthorResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// IngredientLineResponse is one ingredient line in a recipe response
type IngredientLineResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          uint   `json:"amount"`
}

// RecipeResponse is the read representation of a recipe, including the
// per-caller is_favorited / is_in_shopping_cart flags
type RecipeResponse struct {
	ID               uint                     `json:"id"`
	Author           AuthorResponse           `json:"author"`
	Name             string                   `json:"name"`
	Text             string                   `json:"text"`
	CookingTime      uint                     `json:"cooking_time"`
	Tags             []tags.TagResponse       `json:"tags"`
	Ingredients      []IngredientLineResponse `json:"ingredients"`
	IsFavorited      bool                     `json:"is_favorited"`
	IsInShoppingCart bool                     `json:"is_in_shopping_cart"`
	CreatedAt        string                   `json:"created_at"`
}

// ShortRecipeResponse is the compact representation returned by the
// membership toggle endpoints
type ShortRecipeResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	CookingTime uint   `json:"cooking_time"`
	CreatedAt   string `json:"created_at"`
}

// ShortResponse converts a recipe model to its compact representation
func ShortResponse(recipe models.Recipe) ShortRecipeResponse {
	return ShortRecipeResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		CookingTime: recipe.CookingTime,
		CreatedAt:   recipe.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// recipeWithFlags scans a recipe row together with the EXISTS-annotated
// membership flags
type recipeWithFlags struct {
	models.Recipe
	IsFavorited      bool `gorm:"column:is_favorited"`
	IsInShoppingCart bool `gorm:"column:is_in_shopping_cart"`
}

// annotateFlags attaches the per-caller membership flags as correlated
// EXISTS sub-queries, so the whole page is answered in one statement.
// Anonymous callers get constant false flags.
func (h *Handler) annotateFlags(query *gorm.DB, userID uint) *gorm.DB {
	if userID == 0 {
		return query.Select("recipes.*")
	}
	return query.Select(
		"recipes.*,"+
			" EXISTS(SELECT 1 FROM favorite_recipes WHERE favorite_recipes.user_id = ?"+
			" AND favorite_recipes.recipe_id = recipes.id) AS is_favorited,"+
			" EXISTS(SELECT 1 FROM shopping_carts WHERE shopping_carts.user_id = ?"+
			" AND shopping_carts.recipe_id = recipes.id) AS is_in_shopping_cart",
		userID, userID,
	)
}

// buildResponses resolves authors, tags and ingredient lines for a page of
// recipes with three batched queries
func (h *Handler) buildResponses(rows []recipeWithFlags) ([]RecipeResponse, error) {
	if len(rows) == 0 {
		return []RecipeResponse{}, nil
	}

	recipeIDs := make([]uint, len(rows))
	authorIDSet := make(map[uint]struct{})
	for i, row := range rows {
		recipeIDs[i] = row.ID
		authorIDSet[row.AuthorID] = struct{}{}
	}
	authorIDs := make([]uint, 0, len(authorIDSet))
	for id := range authorIDSet {
		authorIDs = append(authorIDs, id)
	}

	var authors []models.User
	if err := h.db.Where("id IN ?", authorIDs).Find(&authors).Error; err != nil {
		return nil, err
	}
	authorByID := make(map[uint]models.User, len(authors))
	for _, author := range authors {
		authorByID[author.ID] = author
	}

	type recipeTagRow struct {
		RecipeID uint
		TagID    uint
	}
	var tagLinks []recipeTagRow
	if err := h.db.Table("recipe_tags").Where("recipe_id IN ?", recipeIDs).Find(&tagLinks).Error; err != nil {
		return nil, err
	}
	tagIDSet := make(map[uint]struct{})
	for _, link := range tagLinks {
		tagIDSet[link.TagID] = struct{}{}
	}
	tagByID := make(map[uint]models.Tag)
	if len(tagIDSet) > 0 {
		tagIDs := make([]uint, 0, len(tagIDSet))
		for id := range tagIDSet {
			tagIDs = append(tagIDs, id)
		}
		var tagList []models.Tag
		if err := h.db.Where("id IN ?", tagIDs).Find(&tagList).Error; err != nil {
			return nil, err
		}
		for _, tag := range tagList {
			tagByID[tag.ID] = tag
		}
	}
	tagsByRecipe := make(map[uint][]tags.TagResponse)
	for _, link := range tagLinks {
		if tag, ok := tagByID[link.TagID]; ok {
			tagsByRecipe[link.RecipeID] = append(tagsByRecipe[link.RecipeID], tags.ToResponse(tag))
		}
	}

	var lines []models.RecipeIngredient
	if err := h.db.Preload("Ingredient").Where("recipe_id IN ?", recipeIDs).Find(&lines).Error; err != nil {
		return nil, err
	}
	linesByRecipe := make(map[uint][]IngredientLineResponse)
	for _, line := range lines {
		linesByRecipe[line.RecipeID] = append(linesByRecipe[line.RecipeID], IngredientLineResponse{
			ID:              line.IngredientID,
			Name:            line.Ingredient.Name,
			MeasurementUnit: line.Ingredient.MeasurementUnit,
			Amount:          line.Amount,
		})
	}

	responses := make([]RecipeResponse, len(rows))
	for i, row := range rows {
		author := authorByID[row.AuthorID]
		tagList := tagsByRecipe[row.ID]
		if tagList == nil {
			tagList = []tags.TagResponse{}
		}
		lineList := linesByRecipe[row.ID]
		if lineList == nil {
			lineList = []IngredientLineResponse{}
		}
		responses[i] = RecipeResponse{
			ID: row.ID,
			Author: AuthorResponse{
				ID:        author.ID,
				Username:  author.Username,
				FirstName: author.FirstName,
				LastName:  author.LastName,
			},
			Name:             row.Name,
			Text:             row.Text,
			CookingTime:      row.CookingTime,
			Tags:             tagList,
			Ingredients:      lineList,
			IsFavorited:      row.IsFavorited,
			IsInShoppingCart: row.IsInShoppingCart,
			CreatedAt:        row.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	return responses, nil
}

// List returns a page of recipes
// @Summary List recipes
// @Description Get recipes, filterable by tags, author and the caller's favorite/cart membership
// @Tags recipes
// @Produce json
// @Param tags query []string false "Tag slugs (repeatable or comma-separated, OR'd)"
// @Param author query int false "Author ID"
// @Param is_favorited query int false "Only the caller's favorites (authenticated callers)"
// @Param is_in_shopping_cart query int false "Only the caller's cart (authenticated callers)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} pagination.Page
// @Router /recipes [get]
func (h *Handler) List(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	params := pagination.Parse(c)

	var count int64
	if err := applyFilters(h.db.Model(&models.Recipe{}), c, userID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}

	query := applyFilters(h.db.Model(&models.Recipe{}), c, userID).
		Order("recipes.created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset)
	query = h.annotateFlags(query, userID)

	var rows []recipeWithFlags
	if err := query.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}

	responses, err := h.buildResponses(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}

	c.JSON(http.StatusOK, pagination.Page{Count: count, Results: responses})
}

// respondWithRecipe loads a single recipe with its associations and the
// caller's membership flags
func (h *Handler) respondWithRecipe(c *gin.Context, recipeID uint, userID uint, status int) {
	var recipe models.Recipe
	err := h.db.Preload("Author").Preload("Tags").Preload("Ingredients.Ingredient").
		First(&recipe, recipeID).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}

	response := RecipeResponse{
		ID: recipe.ID,
		Author: AuthorResponse{
			ID:        recipe.Author.ID,
			Username:  recipe.Author.Username,
			FirstName: recipe.Author.FirstName,
			LastName:  recipe.Author.LastName,
		},
		Name:        recipe.Name,
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
		Tags:        make([]tags.TagResponse, len(recipe.Tags)),
		Ingredients: make([]IngredientLineResponse, len(recipe.Ingredients)),
		CreatedAt:   recipe.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	for i, tag := range recipe.Tags {
		response.Tags[i] = tags.ToResponse(tag)
	}
	for i, line := range recipe.Ingredients {
		response.Ingredients[i] = IngredientLineResponse{
			ID:              line.IngredientID,
			Name:            line.Ingredient.Name,
			MeasurementUnit: line.Ingredient.MeasurementUnit,
			Amount:          line.Amount,
		}
	}

	if userID != 0 {
		var favCount, cartCount int64
		h.db.Model(&models.FavoriteRecipe{}).
			Where("user_id = ? AND recipe_id = ?", userID, recipe.ID).Count(&favCount)
		h.db.Model(&models.ShoppingCart{}).
			Where("user_id = ? AND recipe_id = ?", userID, recipe.ID).Count(&cartCount)
		response.IsFavorited = favCount > 0
		response.IsInShoppingCart = cartCount > 0
	}

	c.JSON(status, response)
}

// Get returns a single recipe
// @Summary Get a recipe
// @Description Get a recipe by id, with the caller's favorite/cart flags
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} RecipeResponse
// @Failure 404 {object} map[string]string "Recipe not found"
// @Router /recipes/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	h.respondWithRecipe(c, uint(recipeID), userID, http.StatusOK)
}

// resolveLines validates ingredient line payloads against the catalog and
// rejects duplicate ingredient references
func (h *Handler) resolveLines(lines []IngredientLineRequest) ([]models.RecipeIngredient, error) {
	seen := make(map[uint]struct{}, len(lines))
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.ID]; dup {
			return nil, &validationError{"Duplicate ingredient in recipe"}
		}
		seen[line.ID] = struct{}{}
		ids = append(ids, line.ID)
	}

	var count int64
	if err := h.db.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return nil, err
	}
	if count != int64(len(ids)) {
		return nil, &validationError{"Unknown ingredient"}
	}

	resolved := make([]models.RecipeIngredient, len(lines))
	for i, line := range lines {
		resolved[i] = models.RecipeIngredient{IngredientID: line.ID, Amount: line.Amount}
	}
	return resolved, nil
}

// resolveTags validates tag ids against the catalog
func (h *Handler) resolveTags(ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	var tagList []models.Tag
	if err := h.db.Where("id IN ?", ids).Find(&tagList).Error; err != nil {
		return nil, err
	}
	if len(tagList) != len(ids) {
		return nil, &validationError{"Unknown tag"}
	}
	return tagList, nil
}

type validationError struct {
	message string
}

func (e *validationError) Error() string {
	return e.message
}

// Create creates a new recipe authored by the caller
// @Summary Create a recipe
// @Description Create a recipe; the author is always the authenticated caller
// @Tags recipes
// @Accept json
// @Produce json
// @Param request body CreateRecipeRequest true "Recipe details"
// @Success 201 {object} RecipeResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /recipes [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines, err := h.resolveLines(req.Ingredients)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tagList, err := h.resolveTags(req.Tags)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe := models.Recipe{
		AuthorID:    userID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].RecipeID = recipe.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		if len(tagList) > 0 {
			if err := tx.Model(&recipe).Association("Tags").Append(tagList); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recipe"})
		return
	}

	h.respondWithRecipe(c, recipe.ID, userID, http.StatusCreated)
}

// Update partially updates a recipe; only its author may do so
// @Summary Update a recipe
// @Description Update a recipe; only the author may update, and authorship cannot be reassigned
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param request body UpdateRecipeRequest true "Updated recipe details"
// @Success 200 {object} RecipeResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
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

	if recipe.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the author can modify this recipe"})
		return
	}

	var req UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var lines []models.RecipeIngredient
	if req.Ingredients != nil {
		if len(req.Ingredients) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A recipe needs at least one ingredient"})
			return
		}
		lines, err = h.resolveLines(req.Ingredients)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	var tagList []models.Tag
	if req.Tags != nil {
		tagList, err = h.resolveTags(req.Tags)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if req.Name != "" {
		recipe.Name = req.Name
	}
	if req.Text != "" {
		recipe.Text = req.Text
	}
	if req.CookingTime != nil {
		recipe.CookingTime = *req.CookingTime
	}
	// Authorship is never reassigned
	recipe.AuthorID = userID

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&recipe).Error; err != nil {
			return err
		}
		if req.Ingredients != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			for i := range lines {
				lines[i].RecipeID = recipe.ID
			}
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		if req.Tags != nil {
			if err := tx.Model(&recipe).Association("Tags").Replace(tagList); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update recipe"})
		return
	}

	h.respondWithRecipe(c, recipe.ID, userID, http.StatusOK)
}

// Delete deletes a recipe; only its author may do so
// @Summary Delete a recipe
// @Description Delete a recipe; only the author may delete
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 204 "Deleted"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
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

	if recipe.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the author can delete this recipe"})
		return
	}

	if err := h.db.Delete(&recipe).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete recipe"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers recipe routes. Reads tolerate anonymous callers;
// writes require authentication.
func (h *Handler) RegisterRoutes(public *gin.RouterGroup, protected *gin.RouterGroup) {
	public.GET("/recipes", h.List)
	public.GET("/recipes/:id", h.Get)

	protected.POST("/recipes", h.Create)
	protected.PATCH("/recipes/:id", h.Update)
	protected.DELETE("/recipes/:id", h.Delete)
}
