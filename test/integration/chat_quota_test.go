package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/database"
	"examcraft-be/pkg/rag/access"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

// The quota consume runs as a single UPDATE, so concurrent turns at the
// boundary must never over-admit. This hammers one user with more turns
// than the limit allows and counts how many got through.
func TestChatQuotaConcurrency(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)

	limit := 5
	userId := uuid.New()
	user := entity.User{
		Id:                      userId,
		Email:                   "it-quota-" + userId.String()[:8] + "@example.com",
		FullName:                "Quota Test User",
		Role:                    entity.UserRoleStudent,
		Status:                  entity.UserStatusActive,
		EmailVerified:           true,
		ChatDailyLimitOverride:  &limit,
		ChatDailyUsageLastReset: time.Now().UTC(),
		CreatedAt:               time.Now(),
		UpdatedAt:               time.Now(),
	}
	if err := db.Table("users").Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	defer db.Table("users").Where("id = ?", userId).Delete(nil)

	verifier := access.NewVerifier(3)

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed, denied := 0, 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uow := uowFactory.NewUnitOfWork(ctx)
			_, err := verifier.ConsumeTurn(ctx, uow, userId)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				allowed++
				return
			}
			if _, ok := err.(*dto.LimitExceededError); ok {
				denied++
				return
			}
			t.Errorf("unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, allowed, "exactly the override limit should be admitted")
	assert.Equal(t, attempts-limit, denied)

	// Peek reports the spent quota without consuming further
	uow := uowFactory.NewUnitOfWork(ctx)
	result, err := verifier.Peek(ctx, uow, userId)
	assert.NoError(t, err)
	if assert.NotNil(t, result) {
		assert.Equal(t, limit, result.Used)
		assert.Equal(t, 0, result.Remaining)
	}
}

func TestEffectiveLimitPrecedence(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	verifier := access.NewVerifier(7)

	userId := uuid.New()
	user := entity.User{
		Id:            userId,
		Email:         "it-limit-" + userId.String()[:8] + "@example.com",
		FullName:      "Limit Test User",
		Role:          entity.UserRoleStudent,
		Status:        entity.UserStatusActive,
		EmailVerified: true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := db.Table("users").Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	defer db.Table("users").Where("id = ?", userId).Delete(nil)

	// No subscription, no override: the free fallback applies
	uow := uowFactory.NewUnitOfWork(ctx)
	limit, err := verifier.EffectiveLimit(ctx, uow, userId)
	assert.NoError(t, err)
	assert.Equal(t, 7, limit)

	// Admin override wins over everything
	override := 42
	err = uow.UserRepository().SetChatLimitOverride(ctx, userId, &override)
	assert.NoError(t, err)

	limit, err = verifier.EffectiveLimit(ctx, uow, userId)
	assert.NoError(t, err)
	assert.Equal(t, 42, limit)
}

// An effective limit of 0 admits no turns at all. The day rollover resets
// usage for positive limits only; stale usage from yesterday must not open a
// one-turn window for a zero-limit user.
func TestZeroLimitAdmitsNothing(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	verifier := access.NewVerifier(3)

	zero := 0
	userId := uuid.New()
	user := entity.User{
		Id:                      userId,
		Email:                   "it-zero-" + userId.String()[:8] + "@example.com",
		FullName:                "Zero Limit User",
		Role:                    entity.UserRoleStudent,
		Status:                  entity.UserStatusActive,
		EmailVerified:           true,
		ChatDailyLimitOverride:  &zero,
		ChatDailyUsage:          2,
		ChatDailyUsageLastReset: time.Now().UTC().Add(-48 * time.Hour),
		CreatedAt:               time.Now(),
		UpdatedAt:               time.Now(),
	}
	if err := db.Table("users").Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	defer db.Table("users").Where("id = ?", userId).Delete(nil)

	uow := uowFactory.NewUnitOfWork(ctx)
	_, err = verifier.ConsumeTurn(ctx, uow, userId)
	if assert.Error(t, err) {
		_, ok := err.(*dto.LimitExceededError)
		assert.True(t, ok, "denial should carry the limit error type, got %T", err)
	}

	result, err := verifier.Peek(ctx, uow, userId)
	assert.NoError(t, err)
	if assert.NotNil(t, result) {
		assert.False(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining, "zero limit must never read as unlimited")
	}
}
