package integration

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"examcraft-be/internal/bootstrap"
	"examcraft-be/internal/config"
	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/pkg/serverutils"
	"examcraft-be/internal/server"
	"examcraft-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthFlow(t *testing.T) {
	// Load .env from root (2 levels up) because tests run in package dir
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	password := "secret12345"
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	hashStr := string(hash)

	// Verified active student
	studentId := uuid.New()
	student := entity.User{
		Id:            studentId,
		Email:         "it-student@example.com",
		FullName:      "IT Student",
		PasswordHash:  &hashStr,
		Role:          entity.UserRoleStudent,
		Status:        entity.UserStatusActive,
		EmailVerified: true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	// Registered but never verified
	pendingId := uuid.New()
	pending := entity.User{
		Id:           pendingId,
		Email:        "it-pending@example.com",
		FullName:     "IT Pending",
		PasswordHash: &hashStr,
		Role:         entity.UserRoleStudent,
		Status:       entity.UserStatusPending,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	// Admin
	adminId := uuid.New()
	admin := entity.User{
		Id:            adminId,
		Email:         "it-admin@example.com",
		FullName:      "IT Admin",
		PasswordHash:  &hashStr,
		Role:          entity.UserRoleAdmin,
		Status:        entity.UserStatusActive,
		EmailVerified: true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	db.Table("users").Create(&student)
	db.Table("users").Create(&pending)
	db.Table("users").Create(&admin)
	defer func() {
		db.Table("users").Where("id IN ?", []uuid.UUID{studentId, pendingId, adminId}).Delete(nil)
	}()

	login := func(path, email, pass string) (*serverutils.Response[dto.LoginResponse], int) {
		body, _ := json.Marshal(dto.LoginRequest{Email: email, Password: pass})
		req := httptest.NewRequest("POST", path, strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req, -1)
		var result serverutils.Response[dto.LoginResponse]
		_ = json.NewDecoder(resp.Body).Decode(&result)
		return &result, resp.StatusCode
	}

	t.Run("Login success", func(t *testing.T) {
		result, code := login("/api/auth/login", student.Email, password)
		assert.Equal(t, 200, code)
		assert.True(t, result.Success)
		assert.NotEmpty(t, result.Data.AccessToken)
		assert.Equal(t, "student", result.Data.User.Role)
	})

	t.Run("Login wrong password", func(t *testing.T) {
		result, code := login("/api/auth/login", student.Email, "wrong-password")
		assert.Equal(t, 401, code)
		assert.False(t, result.Success)
	})

	t.Run("Login before email verification", func(t *testing.T) {
		result, code := login("/api/auth/login", pending.Email, password)
		assert.NotEqual(t, 200, code)
		assert.False(t, result.Success)
	})

	t.Run("Admin login success", func(t *testing.T) {
		result, code := login("/api/admin/login", admin.Email, password)
		assert.Equal(t, 200, code)
		assert.Equal(t, "admin", result.Data.User.Role)
	})

	t.Run("Admin login denied for student", func(t *testing.T) {
		result, code := login("/api/admin/login", student.Email, password)
		assert.NotEqual(t, 200, code)
		assert.False(t, result.Success)
	})

	t.Run("Protected route requires token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/user/profile", nil)
		resp, _ := app.Test(req, -1)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("Protected route with token", func(t *testing.T) {
		result, _ := login("/api/auth/login", student.Email, password)
		req := httptest.NewRequest("GET", "/api/user/profile", nil)
		req.Header.Set("Authorization", "Bearer "+result.Data.AccessToken)
		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("Role gate blocks student from corpus", func(t *testing.T) {
		result, _ := login("/api/auth/login", student.Email, password)
		req := httptest.NewRequest("GET", "/api/corpus/documents", nil)
		req.Header.Set("Authorization", "Bearer "+result.Data.AccessToken)
		resp, _ := app.Test(req, -1)
		assert.Equal(t, 403, resp.StatusCode)
	})
}
