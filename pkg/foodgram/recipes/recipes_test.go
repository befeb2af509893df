package recipes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foodgram/backend/pkg/foodgram/auth"
	"github.com/foodgram/backend/pkg/foodgram/models"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db)

	api := r.Group("/api")
	public := api.Group("", auth.OptionalAuthMiddleware())
	protected := api.Group("", auth.AuthMiddleware())
	handler.RegisterRoutes(public, protected)

	return r
}

func createTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	hash, _ := auth.HashPassword("password123")
	user := models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: hash,
		SystemRole:   models.SystemRoleUser,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTestTag(t *testing.T, db *gorm.DB, name, slug string) models.Tag {
	tag := models.Tag{Name: name, Slug: slug}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("Failed to create test tag: %v", err)
	}
	return tag
}

func createTestIngredient(t *testing.T, db *gorm.DB, name, unit string) models.Ingredient {
	ing := models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(&ing).Error; err != nil {
		t.Fatalf("Failed to create test ingredient: %v", err)
	}
	return ing
}

func createTestRecipe(t *testing.T, db *gorm.DB, authorID uint, name string, ing models.Ingredient, tagList ...models.Tag) models.Recipe {
	recipe := models.Recipe{AuthorID: authorID, Name: name, Text: "Cook it.", CookingTime: 15}
	if err := db.Create(&recipe).Error; err != nil {
		t.Fatalf("Failed to create test recipe: %v", err)
	}
	line := models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: ing.ID, Amount: 100}
	if err := db.Create(&line).Error; err != nil {
		t.Fatalf("Failed to create test ingredient line: %v", err)
	}
	for i := range tagList {
		if err := db.Model(&recipe).Association("Tags").Append(&tagList[i]); err != nil {
			t.Fatalf("Failed to tag test recipe: %v", err)
		}
	}
	return recipe
}

func getAuthHeader(user models.User) string {
	token, _ := auth.GenerateToken(user.ID, user.Email, string(user.SystemRole))
	return "Bearer " + token
}

type listResponse struct {
	Count   int64            `json:"count"`
	Results []RecipeResponse `json:"results"`
}

func listRecipes(t *testing.T, router *gin.Engine, path, authHeader string) listResponse {
	req, _ := http.NewRequest("GET", path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for %s, got %d: %s", path, resp.Code, resp.Body.String())
	}
	var page listResponse
	json.Unmarshal(resp.Body.Bytes(), &page)
	return page
}

func TestListRecipesAnonymous(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	author := createTestUser(t, db, "author")
	milk := createTestIngredient(t, db, "Milk", "ml")
	createTestRecipe(t, db, author.ID, "Porridge", milk)
	createTestRecipe(t, db, author.ID, "Pancakes", milk)

	page := listRecipes(t, router, "/api/recipes", "")
	if page.Count != 2 {
		t.Errorf("Expected count 2, got %d", page.Count)
	}
	for _, recipe := range page.Results {
		if recipe.IsFavorited || recipe.IsInShoppingCart {
			t.Errorf("Expected false flags for anonymous caller on %s", recipe.Name)
		}
		if recipe.Author.Username != "author" {
			t.Errorf("Expected author username to be resolved, got %q", recipe.Author.Username)
		}
		if len(recipe.Ingredients) != 1 || recipe.Ingredients[0].Name != "Milk" {
			t.Errorf("Expected the milk line on %s, got %+v", recipe.Name, recipe.Ingredients)
		}
	}
}

func TestListRecipesMembershipFlags(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	author := createTestUser(t, db, "author")
	reader := createTestUser(t, db, "reader")
	milk := createTestIngredient(t, db, "Milk", "ml")
	favorited := createTestRecipe(t, db, author.ID, "Porridge", milk)
	inCart := createTestRecipe(t, db, author.ID, "Pancakes", milk)
	createTestRecipe(t, db, author.ID, "Toast", milk)

	db.Create(&models.FavoriteRecipe{UserID: reader.ID, RecipeID: favorited.ID})
	db.Create(&models.ShoppingCart{UserID: reader.ID, RecipeID: inCart.ID})

	page := listRecipes(t, router, "/api/recipes", getAuthHeader(reader))
	if len(page.Results) != 3 {
		t.Fatalf("Expected 3 recipes, got %d", len(page.Results))
	}
	for _, recipe := range page.Results {
		wantFav := recipe.ID == favorited.ID
		wantCart := recipe.ID == inCart.ID
		if recipe.IsFavorited != wantFav {
			t.Errorf("Recipe %s: expected is_favorited=%v, got %v", recipe.Name, wantFav, recipe.IsFavorited)
		}
		if recipe.IsInShoppingCart != wantCart {
			t.Errorf("Recipe %s: expected is_in_shopping_cart=%v, got %v", recipe.Name, wantCart, recipe.IsInShoppingCart)
		}
	}
}

func TestFilterByTags(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	author := createTestUser(t, db, "author")
	milk := createTestIngredient(t, db, "Milk", "ml")
	breakfast := createTestTag(t, db, "Breakfast", "breakfast")
	lunch := createTestTag(t, db, "Lunch", "lunch")
	dinner := createTestTag(t, db, "Dinner", "dinner")

	createTestRecipe(t, db, author.ID, "Porridge", milk, breakfast)
	createTestRecipe(t, db, author.ID, "Sandwich", milk, lunch)
	createTestRecipe(t, db, author.ID, "Steak", milk, dinner)
	createTestRecipe(t, db, author.ID, "Plain bread", milk)

	// Comma-separated slugs are OR'd
	page := listRecipes(t, router, "/api/recipes?tags=breakfast,lunch", "")
	if page.Count != 2 {
		t.Errorf("Expected 2 recipes for tags=breakfast,lunch, got %d", page.Count)
	}
	for _, recipe := range page.Results {
		if recipe.Name == "Steak" || recipe.Name == "Plain bread" {
			t.Errorf("Recipe %s should have been filtered out", recipe.Name)
		}
	}

	// Repeated params behave the same
	page = listRecipes(t, router, "/api/recipes?tags=breakfast&tags=lunch", "")
	if page.Count != 2 {
		t.Errorf("Expected 2 recipes for repeated tags params, got %d", page.Count)
	}
}

func TestFilterByAuthor(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	milk := createTestIngredient(t, db, "Milk", "ml")
	createTestRecipe(t, db, alice.ID, "Alice's porridge", milk)
	createTestRecipe(t, db, bob.ID, "Bob's porridge", milk)

	page := listRecipes(t, router, fmt.Sprintf("/api/recipes?author=%d", alice.ID), "")
	if page.Count != 1 {
		t.Fatalf("Expected 1 recipe for author filter, got %d", page.Count)
	}
	if page.Results[0].Author.ID != alice.ID {
		t.Errorf("Expected author %d, got %d", alice.ID, page.Results[0].Author.ID)
	}
}

func TestFilterFavoritedAndCart(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	author := createTestUser(t, db, "author")
	reader := createTestUser(t, db, "reader")
	milk := createTestIngredient(t, db, "Milk", "ml")
	favorited := createTestRecipe(t, db, author.ID, "Porridge", milk)
	inCart := createTestRecipe(t, db, author.ID, "Pancakes", milk)
	createTestRecipe(t, db, author.ID, "Toast", milk)

	db.Create(&models.FavoriteRecipe{UserID: reader.ID, RecipeID: favorited.ID})
	db.Create(&models.ShoppingCart{UserID: reader.ID, RecipeID: inCart.ID})

	page := listRecipes(t, router, "/api/recipes?is_favorited=1", getAuthHeader(reader))
	if page.Count != 1 || page.Results[0].ID != favorited.ID {
		t.Errorf("Expected only the favorited recipe, got count=%d", page.Count)
	}

	// The cart filter is symmetric to the favorites filter
	page = listRecipes(t, router, "/api/recipes?is_in_shopping_cart=1", getAuthHeader(reader))
	if page.Count != 1 || page.Results[0].ID != inCart.ID {
		t.Errorf("Expected only the in-cart recipe, got count=%d", page.Count)
	}

	// Anonymous callers get the unfiltered set, not an error
	page = listRecipes(t, router, "/api/recipes?is_favorited=1", "")
	if page.Count != 3 {
		t.Errorf("Expected unfiltered set for anonymous caller, got %d", page.Count)
	}
}

func TestCreateRecipe(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "chef")
	milk := createTestIngredient(t, db, "Milk", "ml")
	breakfast := createTestTag(t, db, "Breakfast", "breakfast")

	body, _ := json.Marshal(CreateRecipeRequest{
		Name:        "Porridge",
		Text:        "Boil milk, add oats.",
		CookingTime: 10,
		Tags:        []uint{breakfast.ID},
		Ingredients: []IngredientLineRequest{{ID: milk.ID, Amount: 200}},
	})
	req, _ := http.NewRequest("POST", "/api/recipes", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created RecipeResponse
	json.Unmarshal(resp.Body.Bytes(), &created)
	if created.Author.ID != user.ID {
		t.Errorf("Expected author to be the caller (%d), got %d", user.ID, created.Author.ID)
	}
	if len(created.Tags) != 1 || created.Tags[0].Slug != "breakfast" {
		t.Errorf("Expected the breakfast tag, got %+v", created.Tags)
	}
	if len(created.Ingredients) != 1 || created.Ingredients[0].Amount != 200 {
		t.Errorf("Expected one 200ml milk line, got %+v", created.Ingredients)
	}
}

func TestCreateRecipeValidation(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "chef")
	milk := createTestIngredient(t, db, "Milk", "ml")

	post := func(payload string) *httptest.ResponseRecorder {
		req, _ := http.NewRequest("POST", "/api/recipes", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", getAuthHeader(user))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	// No ingredient lines
	resp := post(`{"name":"Empty","text":"x","cooking_time":5,"ingredients":[]}`)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without ingredients, got %d", resp.Code)
	}

	// Unknown ingredient id
	resp = post(fmt.Sprintf(`{"name":"Bad","text":"x","cooking_time":5,"ingredients":[{"id":%d,"amount":1}]}`, milk.ID+999))
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown ingredient, got %d", resp.Code)
	}

	// Duplicate ingredient lines
	resp = post(fmt.Sprintf(`{"name":"Dup","text":"x","cooking_time":5,"ingredients":[{"id":%d,"amount":1},{"id":%d,"amount":2}]}`, milk.ID, milk.ID))
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for duplicate ingredient lines, got %d", resp.Code)
	}

	// Anonymous create is rejected
	body, _ := json.Marshal(CreateRecipeRequest{
		Name: "Anon", Text: "x", CookingTime: 5,
		Ingredients: []IngredientLineRequest{{ID: milk.ID, Amount: 1}},
	})
	req, _ := http.NewRequest("POST", "/api/recipes", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	anonResp := httptest.NewRecorder()
	router.ServeHTTP(anonResp, req)
	if anonResp.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for anonymous create, got %d", anonResp.Code)
	}
}

func TestUpdateRecipeOwnership(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	author := createTestUser(t, db, "author")
	other := createTestUser(t, db, "other")
	milk := createTestIngredient(t, db, "Milk", "ml")
	recipe := createTestRecipe(t, db, author.ID, "Porridge", milk)

	patch := func(user models.User, payload string) *httptest.ResponseRecorder {
		req, _ := http.NewRequest("PATCH", fmt.Sprintf("/api/recipes/%d", recipe.ID), bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", getAuthHeader(user))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	resp := patch(other, `{"name":"Hijacked"}`)
	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-author update, got %d", resp.Code)
	}

	resp = patch(author, `{"name":"Better porridge"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200 for author update, got %d: %s", resp.Code, resp.Body.String())
	}

	var updated RecipeResponse
	json.Unmarshal(resp.Body.Bytes(), &updated)
	if updated.Name != "Better porridge" {
		t.Errorf("Expected updated name, got %q", updated.Name)
	}
	if updated.Author.ID != author.ID {
		t.Errorf("Expected authorship to stay with %d, got %d", author.ID, updated.Author.ID)
	}
}

func TestDeleteRecipe(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	author := createTestUser(t, db, "author")
	other := createTestUser(t, db, "other")
	milk := createTestIngredient(t, db, "Milk", "ml")
	recipe := createTestRecipe(t, db, author.ID, "Porridge", milk)

	req, _ := http.NewRequest("DELETE", fmt.Sprintf("/api/recipes/%d", recipe.ID), nil)
	req.Header.Set("Authorization", getAuthHeader(other))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-author delete, got %d", resp.Code)
	}

	req, _ = http.NewRequest("DELETE", fmt.Sprintf("/api/recipes/%d", recipe.ID), nil)
	req.Header.Set("Authorization", getAuthHeader(author))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", resp.Code, resp.Body.String())
	}

	req, _ = http.NewRequest("GET", fmt.Sprintf("/api/recipes/%d", recipe.ID), nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", resp.Code)
	}
}

func TestGetRecipeNotFound(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	req, _ := http.NewRequest("GET", "/api/recipes/12345", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown recipe, got %d", resp.Code)
	}
}

func TestListRecipesPagination(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	author := createTestUser(t, db, "author")
	milk := createTestIngredient(t, db, "Milk", "ml")
	for i := 0; i < 5; i++ {
		createTestRecipe(t, db, author.ID, fmt.Sprintf("Recipe %d", i), milk)
	}

	page := listRecipes(t, router, "/api/recipes?limit=2&page=1", "")
	if page.Count != 5 {
		t.Errorf("Expected total count 5, got %d", page.Count)
	}
	if len(page.Results) != 2 {
		t.Errorf("Expected 2 results on the first page, got %d", len(page.Results))
	}

	page = listRecipes(t, router, "/api/recipes?limit=2&page=3", "")
	if len(page.Results) != 1 {
		t.Errorf("Expected 1 result on the last page, got %d", len(page.Results))
	}
}
