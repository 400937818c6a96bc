package access

import (
	"context"
	"fmt"
	"time"

	"examcraft-be/internal/dto"
	"examcraft-be/internal/repository/contract"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Verifier resolves a user's effective chat quota and consumes it.
type Verifier struct {
	freeDailyLimit int
}

// NewVerifier creates a verifier. freeDailyLimit applies to users with no
// active subscription and no admin override.
func NewVerifier(freeDailyLimit int) *Verifier {
	return &Verifier{freeDailyLimit: freeDailyLimit}
}

// EffectiveLimit resolves the daily chat limit for a user, in precedence
// order: admin override, then active plan, then the free fallback.
// A limit of -1 means unlimited.
func (v *Verifier) EffectiveLimit(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (int, error) {
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("user not found")
	}

	if user.ChatDailyLimitOverride != nil {
		return *user.ChatDailyLimitOverride, nil
	}

	sub, err := uow.SubscriptionRepository().FindActiveByUserId(ctx, userId)
	if err != nil {
		return 0, err
	}
	if sub != nil {
		plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
		if err != nil {
			return 0, err
		}
		if plan != nil {
			if !plan.ChatEnabled {
				return 0, nil
			}
			return plan.ChatDailyLimit, nil
		}
	}

	return v.freeDailyLimit, nil
}

// ConsumeTurn takes one unit of today's quota. The increment and the limit
// check happen in a single statement, so two concurrent turns at the
// boundary cannot both pass. Returns *dto.LimitExceededError when the quota
// is spent.
func (v *Verifier) ConsumeTurn(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*contract.QuotaResult, error) {
	limit, err := v.EffectiveLimit(ctx, uow, userId)
	if err != nil {
		return nil, err
	}

	result, err := uow.UserRepository().ConsumeChatQuota(ctx, userId, limit)
	if err != nil {
		return nil, err
	}

	if !result.Allowed {
		return nil, &dto.LimitExceededError{
			Limit:      result.Limit,
			Used:       result.Used,
			ResetAfter: time.Until(result.ResetsAt),
		}
	}

	return result, nil
}

// Peek reports the current quota state without consuming it.
func (v *Verifier) Peek(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*contract.QuotaResult, error) {
	limit, err := v.EffectiveLimit(ctx, uow, userId)
	if err != nil {
		return nil, err
	}
	return uow.UserRepository().PeekChatQuota(ctx, userId, limit)
}
