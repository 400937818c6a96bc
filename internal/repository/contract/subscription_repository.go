package contract

import (
	"context"
	"time"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/specification"

	"github.com/google/uuid"
)

// SubscriptionTransaction is the joined admin view of one payment.
type SubscriptionTransaction struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	UserEmail       string
	PlanName        string
	Amount          float64
	Status          string
	PaymentStatus   string
	CreatedAt       time.Time
	MidtransOrderId *string
}

type SubscriptionRepository interface {
	// Plans
	CreatePlan(ctx context.Context, plan *entity.SubscriptionPlan) error
	UpdatePlan(ctx context.Context, plan *entity.SubscriptionPlan) error
	DeletePlan(ctx context.Context, id uuid.UUID) error
	FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.SubscriptionPlan, error)
	FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.SubscriptionPlan, error)

	// User subscriptions
	CreateSubscription(ctx context.Context, subscription *entity.UserSubscription) error
	UpdateSubscription(ctx context.Context, subscription *entity.UserSubscription) error
	FindOneSubscription(ctx context.Context, specs ...specification.Specification) (*entity.UserSubscription, error)
	FindAllSubscriptions(ctx context.Context, specs ...specification.Specification) ([]*entity.UserSubscription, error)
	FindActiveByUserId(ctx context.Context, userId uuid.UUID) (*entity.UserSubscription, error)

	// Admin stats
	GetTotalRevenue(ctx context.Context) (float64, error)
	CountActiveSubscribers(ctx context.Context) (int64, error)
	GetTransactions(ctx context.Context, status string, limit, offset int) ([]*SubscriptionTransaction, error)
}
