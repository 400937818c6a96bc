package contract

import (
	"context"
	"time"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/specification"

	"github.com/google/uuid"
)

// QuotaResult reports the state of a user's chat quota after a consume or
// peek. Remaining is -1 when the limit is unlimited.
type QuotaResult struct {
	Allowed   bool
	Limit     int
	Used      int
	Remaining int
	ResetsAt  time.Time
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Token management
	CreatePasswordResetToken(ctx context.Context, token *entity.PasswordResetToken) error
	FindPasswordResetToken(ctx context.Context, specs ...specification.Specification) (*entity.PasswordResetToken, error)
	MarkTokenUsed(ctx context.Context, id uuid.UUID) error

	CreateEmailVerificationToken(ctx context.Context, token *entity.EmailVerificationToken) error
	FindEmailVerificationToken(ctx context.Context, specs ...specification.Specification) (*entity.EmailVerificationToken, error)
	DeleteEmailVerificationToken(ctx context.Context, id uuid.UUID) error

	CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error

	GetByIdWithAvatar(ctx context.Context, id uuid.UUID) (*entity.User, error)
	ActivateUser(ctx context.Context, userId uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
	UpdatePassword(ctx context.Context, userId uuid.UUID, hash string) error
	SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error

	// Chat quota. ConsumeChatQuota increments usage by one in a single
	// statement so concurrent turns cannot both pass at the boundary.
	ConsumeChatQuota(ctx context.Context, userId uuid.UUID, limit int) (*QuotaResult, error)
	PeekChatQuota(ctx context.Context, userId uuid.UUID, limit int) (*QuotaResult, error)
	SetChatLimitOverride(ctx context.Context, userId uuid.UUID, limit *int) error

	// Admin queries
	SearchUsers(ctx context.Context, query string, limit, offset int) ([]*entity.User, error)
	GetUserGrowth(ctx context.Context) ([]map[string]interface{}, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}
