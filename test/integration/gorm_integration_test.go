package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(ctx)

	// Round trip a user through the repository layer
	userId := uuid.New()
	email := "it-" + userId.String()[:8] + "@example.com"
	user := &entity.User{
		Id:       userId,
		Email:    email,
		FullName: "Integration Test User",
		Role:     entity.UserRoleStudent,
		Status:   entity.UserStatusActive,
	}

	err = uow.UserRepository().Create(ctx, user)
	assert.NoError(t, err)

	defer func() {
		_ = uow.UserRepository().Delete(ctx, userId)
	}()

	found, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	assert.NoError(t, err)
	if assert.NotNil(t, found) {
		assert.Equal(t, userId, found.Id)
		assert.Equal(t, entity.UserRoleStudent, found.Role)
	}

	missing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: "nobody@example.com"})
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
