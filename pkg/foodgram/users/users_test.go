package users

import (
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

func doRequest(router *gin.Engine, method, path string, user *models.User) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	if user != nil {
		token, _ := auth.GenerateToken(user.ID, user.Email, string(user.SystemRole))
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestGetProfile(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	author := createTestUser(t, db, "author")
	reader := createTestUser(t, db, "reader")

	db.Create(&models.Recipe{AuthorID: author.ID, Name: "Soup", Text: "Stir.", CookingTime: 30})
	db.Create(&models.Subscription{UserID: reader.ID, AuthorID: author.ID})

	// Anonymous caller: no subscription flag
	resp := doRequest(router, "GET", fmt.Sprintf("/api/users/%d", author.ID), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var profile ProfileResponse
	json.Unmarshal(resp.Body.Bytes(), &profile)
	if profile.IsSubscribed {
		t.Error("Expected is_subscribed=false for anonymous caller")
	}
	if profile.RecipesCount != 1 {
		t.Errorf("Expected recipes_count 1, got %d", profile.RecipesCount)
	}

	// Subscribed caller sees the flag
	resp = doRequest(router, "GET", fmt.Sprintf("/api/users/%d", author.ID), &reader)
	json.Unmarshal(resp.Body.Bytes(), &profile)
	if !profile.IsSubscribed {
		t.Error("Expected is_subscribed=true for the subscribed caller")
	}

	resp = doRequest(router, "GET", "/api/users/9999", nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown user, got %d", resp.Code)
	}
}

func TestSubscribe(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	author := createTestUser(t, db, "author")
	reader := createTestUser(t, db, "reader")
	path := fmt.Sprintf("/api/users/%d/subscribe", author.ID)

	resp := doRequest(router, "POST", path, &reader)
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var profile ProfileResponse
	json.Unmarshal(resp.Body.Bytes(), &profile)
	if profile.ID != author.ID || !profile.IsSubscribed {
		t.Errorf("Expected the author's profile with is_subscribed=true, got %+v", profile)
	}

	// Subscribing twice is a conflict
	resp = doRequest(router, "POST", path, &reader)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 for duplicate subscription, got %d", resp.Code)
	}
	var body map[string]string
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body["errors"] != "You are already subscribed to author." {
		t.Errorf("Unexpected conflict message: %q", body["errors"])
	}
}

func TestSelfSubscribe(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "loner")

	resp := doRequest(router, "POST", fmt.Sprintf("/api/users/%d/subscribe", user.ID), &user)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 for self-subscription, got %d", resp.Code)
	}
	var body map[string]string
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body["errors"] != "You cannot subscribe to yourself." {
		t.Errorf("Unexpected message: %q", body["errors"])
	}
}

func TestUnsubscribe(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	author := createTestUser(t, db, "author")
	reader := createTestUser(t, db, "reader")
	path := fmt.Sprintf("/api/users/%d/subscribe", author.ID)

	// Not subscribed yet: absence is a 400, unknown target a 404
	resp := doRequest(router, "DELETE", path, &reader)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 for absent subscription, got %d", resp.Code)
	}
	var body map[string]string
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body["errors"] != "Author author is absent from your subscriptions." {
		t.Errorf("Unexpected absence message: %q", body["errors"])
	}

	resp = doRequest(router, "DELETE", "/api/users/9999/subscribe", &reader)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown user, got %d", resp.Code)
	}

	db.Create(&models.Subscription{UserID: reader.ID, AuthorID: author.ID})
	resp = doRequest(router, "DELETE", path, &reader)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSubscriptionsList(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	reader := createTestUser(t, db, "reader")
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	createTestUser(t, db, "carol")

	db.Create(&models.Subscription{UserID: reader.ID, AuthorID: alice.ID})
	db.Create(&models.Subscription{UserID: reader.ID, AuthorID: bob.ID})

	resp := doRequest(router, "GET", "/api/subscriptions", &reader)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var page struct {
		Count   int64             `json:"count"`
		Results []ProfileResponse `json:"results"`
	}
	json.Unmarshal(resp.Body.Bytes(), &page)
	if page.Count != 2 || len(page.Results) != 2 {
		t.Fatalf("Expected 2 subscriptions, got count=%d results=%d", page.Count, len(page.Results))
	}
	for _, profile := range page.Results {
		if profile.Username == "carol" || profile.Username == "reader" {
			t.Errorf("Unexpected profile %s in subscriptions", profile.Username)
		}
		if !profile.IsSubscribed {
			t.Errorf("Expected is_subscribed=true for %s", profile.Username)
		}
	}

	// Requires authentication
	resp = doRequest(router, "GET", "/api/subscriptions", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for anonymous caller, got %d", resp.Code)
	}
}

func TestListUsers(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestUser(t, db, "alice")
	createTestUser(t, db, "bob")
	createTestUser(t, db, "carol")

	resp := doRequest(router, "GET", "/api/users?limit=2", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var page struct {
		Count   int64             `json:"count"`
		Results []ProfileResponse `json:"results"`
	}
	json.Unmarshal(resp.Body.Bytes(), &page)
	if page.Count != 3 {
		t.Errorf("Expected count 3, got %d", page.Count)
	}
	if len(page.Results) != 2 {
		t.Errorf("Expected 2 results on the first page, got %d", len(page.Results))
	}
}
