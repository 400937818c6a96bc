package history

import (
	"context"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/memory"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/llm"

	"github.com/google/uuid"
)

// Loader produces the bounded conversation window fed to the model on each
// chat turn. It serves from the in-memory session cache when it can and
// falls back to the database, re-priming the cache on a miss.
type Loader struct {
	sessionRepo *memory.SessionRepository
	window      int
}

// NewLoader creates a loader. window is the maximum number of messages
// carried into a turn.
func NewLoader(sessionRepo *memory.SessionRepository, window int) *Loader {
	if window <= 0 {
		window = 10
	}
	return &Loader{sessionRepo: sessionRepo, window: window}
}

// Load returns the last messages of a session as model turns, oldest first.
func (l *Loader) Load(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) ([]llm.Message, error) {
	if window, found := l.sessionRepo.Get(sessionId); found && window.UserId == userId {
		return toTurns(window.Messages), nil
	}

	recent, err := uow.ChatMessageRepository().FindRecent(ctx, sessionId, l.window)
	if err != nil {
		return nil, err
	}

	l.sessionRepo.Save(&memory.SessionWindow{
		SessionId: sessionId,
		UserId:    userId,
		Messages:  recent,
	})

	return toTurns(recent), nil
}

// Record appends a persisted turn half to the cached window. Callers persist
// to the database first; the cache only mirrors committed messages.
func (l *Loader) Record(sessionId uuid.UUID, msg *entity.ChatMessage) {
	l.sessionRepo.Append(sessionId, msg, l.window)
}

// Invalidate drops the cached window, forcing the next Load to re-read.
func (l *Loader) Invalidate(sessionId uuid.UUID) {
	l.sessionRepo.Delete(sessionId)
}

func toTurns(messages []*entity.ChatMessage) []llm.Message {
	turns := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == entity.ChatRoleModel {
			role = "assistant"
		}
		turns = append(turns, llm.Message{Role: role, Content: m.Content})
	}
	return turns
}
