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
	"examcraft-be/internal/model"
	"examcraft-be/internal/pkg/serverutils"
	"examcraft-be/internal/server"
	"examcraft-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

// Walks a paper through its status transitions over the REST API and
// checks the conflict responses for illegal ones.
func TestPaperLifecycle(t *testing.T) {
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

	// Seed an instructor and log in
	password := "secret12345"
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	hashStr := string(hash)

	instructorId := uuid.New()
	instructor := entity.User{
		Id:            instructorId,
		Email:         "it-instructor-" + instructorId.String()[:8] + "@example.com",
		FullName:      "IT Instructor",
		PasswordHash:  &hashStr,
		Role:          entity.UserRoleInstructor,
		Status:        entity.UserStatusActive,
		EmailVerified: true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	db.Table("users").Create(&instructor)
	defer db.Table("users").Where("id = ?", instructorId).Delete(nil)

	body, _ := json.Marshal(dto.LoginRequest{Email: instructor.Email, Password: password})
	loginReq := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(string(body)))
	loginReq.Header.Set("Content-Type", "application/json")
	loginResp, _ := app.Test(loginReq, -1)
	var loginResult serverutils.Response[dto.LoginResponse]
	_ = json.NewDecoder(loginResp.Body).Decode(&loginResult)
	if loginResult.Data.AccessToken == "" {
		t.Fatal("Failed to log in as instructor")
	}
	token := loginResult.Data.AccessToken

	// Seed a draft paper directly; generation is exercised elsewhere
	paperId := uuid.New()
	paper := model.Paper{
		Id:          paperId,
		Title:       "Lifecycle Test Paper",
		BlueprintId: uuid.New(),
		Status:      "draft",
		TotalMarks:  100,
		CreatedBy:   instructorId,
	}
	if err := db.Create(&paper).Error; err != nil {
		t.Fatalf("Failed to seed paper: %v", err)
	}
	defer db.Unscoped().Where("id = ?", paperId).Delete(&model.Paper{})

	post := func(path string) int {
		req := httptest.NewRequest("POST", path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, _ := app.Test(req, -1)
		return resp.StatusCode
	}

	base := "/api/papers/" + paperId.String()

	t.Run("Publish from draft rejected", func(t *testing.T) {
		assert.Equal(t, 409, post(base+"/publish"))
	})

	t.Run("Approve draft", func(t *testing.T) {
		assert.Equal(t, 200, post(base+"/approve"))
	})

	t.Run("Publish approved", func(t *testing.T) {
		assert.Equal(t, 200, post(base+"/publish"))
	})

	t.Run("Delete published rejected", func(t *testing.T) {
		req := httptest.NewRequest("DELETE", base, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, _ := app.Test(req, -1)
		assert.Equal(t, 409, resp.StatusCode)
	})

	t.Run("Unpublish back to approved", func(t *testing.T) {
		assert.Equal(t, 200, post(base+"/unpublish"))

		var current model.Paper
		db.Where("id = ?", paperId).First(&current)
		assert.Equal(t, "approved", current.Status)
	})

	t.Run("Approve unknown paper", func(t *testing.T) {
		assert.Equal(t, 404, post("/api/papers/"+uuid.NewString()+"/approve"))
	})
}
