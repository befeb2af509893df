package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

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
	handler.RegisterRoutes(r.Group("/auth"))
	return r
}

func TestPasswordHashing(t *testing.T) {
	password := "testpassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == password {
		t.Error("Expected hash to differ from the plaintext password")
	}
	if !CheckPassword(password, hash) {
		t.Error("Expected CheckPassword to accept the correct password")
	}
	if CheckPassword("wrongpassword", hash) {
		t.Error("Expected CheckPassword to reject a wrong password")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42, "test@example.com", "user")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("Expected user ID 42, got %d", claims.UserID)
	}
	if claims.Email != "test@example.com" {
		t.Errorf("Expected email test@example.com, got %s", claims.Email)
	}

	if _, err := ValidateToken("not-a-token"); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	body, _ := json.Marshal(RegisterRequest{
		Email:     "new@example.com",
		Username:  "newuser",
		Password:  "password123",
		FirstName: "New",
		LastName:  "User",
	})
	req, _ := http.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var authResp AuthResponse
	json.Unmarshal(resp.Body.Bytes(), &authResp)
	if authResp.Token == "" {
		t.Error("Expected a token in the registration response")
	}
	if authResp.User.Username != "newuser" {
		t.Errorf("Expected username newuser, got %s", authResp.User.Username)
	}

	// Duplicate email is rejected
	req, _ = http.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for duplicate email, got %d", resp.Code)
	}

	// Login with the new account
	loginBody, _ := json.Marshal(LoginRequest{Email: "new@example.com", Password: "password123"})
	req, _ = http.NewRequest("POST", "/auth/login", bytes.NewBuffer(loginBody))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on login, got %d: %s", resp.Code, resp.Body.String())
	}

	// Wrong password is rejected
	loginBody, _ = json.Marshal(LoginRequest{Email: "new@example.com", Password: "wrongpassword"})
	req, _ = http.NewRequest("POST", "/auth/login", bytes.NewBuffer(loginBody))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 on wrong password, got %d", resp.Code)
	}
}

func TestMe(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	hash, _ := HashPassword("password123")
	user := models.User{
		Email:        "me@example.com",
		Username:     "me",
		PasswordHash: hash,
		SystemRole:   models.SystemRoleUser,
	}
	db.Create(&user)

	token, _ := GenerateToken(user.ID, user.Email, string(user.SystemRole))
	req, _ := http.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var userResp UserResponse
	json.Unmarshal(resp.Body.Bytes(), &userResp)
	if userResp.Email != "me@example.com" {
		t.Errorf("Expected email me@example.com, got %s", userResp.Email)
	}

	// Missing token
	req, _ = http.NewRequest("GET", "/auth/me", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without a token, got %d", resp.Code)
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	db := setupTestDB(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", OptionalAuthMiddleware(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	// Anonymous request passes through with no user
	req, _ := http.NewRequest("GET", "/whoami", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for anonymous caller, got %d", resp.Code)
	}

	hash, _ := HashPassword("password123")
	user := models.User{Email: "opt@example.com", Username: "opt", PasswordHash: hash}
	db.Create(&user)
	token, _ := GenerateToken(user.ID, user.Email, "user")

	req, _ = http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var body map[string]uint
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body["user_id"] != user.ID {
		t.Errorf("Expected user_id %d, got %d", user.ID, body["user_id"])
	}
}
