package integration

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"examcraft-be/internal/config"
	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/pkg/logger"
	"examcraft-be/internal/repository/memory"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/internal/service"
	"examcraft-be/pkg/database"
	"examcraft-be/pkg/embedding"
	"examcraft-be/pkg/llm"
	"examcraft-be/pkg/rag/access"
	"examcraft-be/pkg/rag/history"
	pkgSearch "examcraft-be/pkg/rag/search"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	tokens []string
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (s *scriptedLLM) ChatStream(ctx context.Context, history []llm.Message, onToken llm.TokenFunc, options ...llm.Option) (string, error) {
	var full string
	for _, tok := range s.tokens {
		if err := onToken(tok); err != nil {
			return "", err
		}
		full += tok
	}
	return full, nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

type downEmbedder struct{}

func (downEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return nil, errors.New("embedding backend unavailable")
}

type quietLogger struct{}

func (quietLogger) Debug(module, message string, details map[string]interface{}) {}
func (quietLogger) Info(module, message string, details map[string]interface{})  {}
func (quietLogger) Warn(module, message string, details map[string]interface{})  {}
func (quietLogger) Error(module, message string, details map[string]interface{}) {}
func (quietLogger) Sync() error                                                  { return nil }
func (quietLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}
func (quietLogger) GetLogById(id string) (*logger.LogEntry, error) { return nil, nil }

// A turn must open with a meta frame announcing the session id and the quota
// left after the turn was admitted, before any token arrives. A turn sent
// without a session id starts a fresh session and the meta frame names it.
func TestChatStreamMetaAndImplicitSession(t *testing.T) {
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

	limit := 7
	userId := uuid.New()
	user := entity.User{
		Id:                      userId,
		Email:                   "it-stream-" + userId.String()[:8] + "@example.com",
		FullName:                "Stream Test User",
		Role:                    entity.UserRoleStudent,
		Status:                  entity.UserStatusActive,
		EmailVerified:           true,
		ChatDailyLimitOverride:  &limit,
		ChatDailyUsageLastReset: time.Now().UTC(),
		CreatedAt:               time.Now(),
		UpdatedAt:               time.Now(),
	}
	require.NoError(t, db.Table("users").Create(&user).Error)
	defer func() {
		db.Exec("DELETE FROM chat_messages WHERE chat_session_id IN (SELECT id FROM chat_sessions WHERE user_id = ?)", userId)
		db.Exec("DELETE FROM chat_sessions WHERE user_id = ?", userId)
		db.Table("users").Where("id = ?", userId).Delete(nil)
	}()

	svc := service.NewChatbotService(
		uowFactory,
		&scriptedLLM{tokens: []string{"Photosynthesis ", "converts light."}},
		pkgSearch.NewOrchestrator(downEmbedder{}, quietLogger{}),
		pkgSearch.DefaultConfig(),
		config.ChatConfig{HistoryWindow: 6, FreeDailyLimit: 3},
		access.NewVerifier(3),
		history.NewLoader(memory.NewSessionRepository(), 6),
		quietLogger{},
	)

	var events []dto.ChatStreamEvent
	emit := func(event dto.ChatStreamEvent) error {
		events = append(events, event)
		return nil
	}

	req := &dto.ChatTurnRequest{Message: "What does photosynthesis produce?"}
	require.NoError(t, svc.StreamTurn(ctx, userId, req, emit))
	require.NotEmpty(t, events)

	meta := events[0]
	assert.Equal(t, dto.ChatEventMeta, meta.Type, "first frame must be meta")
	assert.NotEqual(t, uuid.Nil, meta.SessionId, "implicit turn must report the new session id")
	assert.Equal(t, limit-1, meta.Remaining)

	last := events[len(events)-1]
	assert.Equal(t, dto.ChatEventDone, last.Type)
	assert.Equal(t, limit-1, last.Remaining)

	tokens := 0
	for _, e := range events[1 : len(events)-1] {
		assert.Equal(t, dto.ChatEventToken, e.Type)
		tokens++
	}
	assert.Equal(t, 2, tokens)

	var count int64
	db.Table("chat_sessions").Where("id = ? AND user_id = ?", meta.SessionId, userId).Count(&count)
	assert.Equal(t, int64(1), count, "implicit session must be persisted for the caller")

	// A second turn on the created session reuses it and burns another turn.
	events = nil
	req = &dto.ChatTurnRequest{SessionId: meta.SessionId, Message: "And what does it consume?"}
	require.NoError(t, svc.StreamTurn(ctx, userId, req, emit))
	require.NotEmpty(t, events)
	assert.Equal(t, dto.ChatEventMeta, events[0].Type)
	assert.Equal(t, meta.SessionId, events[0].SessionId)
	assert.Equal(t, limit-2, events[0].Remaining)
}
