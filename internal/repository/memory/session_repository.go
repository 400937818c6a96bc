package memory

import (
	"time"

	"examcraft-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionWindow is the cached conversational state of one chat session: the
// recent turn window the prompt builder feeds to the model. It saves a
// history query per turn; the database stays the source of truth.
type SessionWindow struct {
	SessionId uuid.UUID
	UserId    uuid.UUID
	Messages  []*entity.ChatMessage
	UpdatedAt time.Time
}

type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	// Windows expire after an hour idle; expired items purge every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(window *SessionWindow) {
	window.UpdatedAt = time.Now()
	r.cache.Set(window.SessionId.String(), window, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionId uuid.UUID) (*SessionWindow, bool) {
	if x, found := r.cache.Get(sessionId.String()); found {
		return x.(*SessionWindow), true
	}
	return nil, false
}

// Append adds a turn half to a cached window, trimming to keep at most n
// messages. A miss is fine; the next Get falls back to the database.
func (r *SessionRepository) Append(sessionId uuid.UUID, msg *entity.ChatMessage, n int) {
	window, found := r.Get(sessionId)
	if !found {
		return
	}
	window.Messages = append(window.Messages, msg)
	if n > 0 && len(window.Messages) > n {
		window.Messages = window.Messages[len(window.Messages)-n:]
	}
	r.Save(window)
}

func (r *SessionRepository) Delete(sessionId uuid.UUID) {
	r.cache.Delete(sessionId.String())
}
