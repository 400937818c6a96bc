// FILE: internal/service/plan_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IPlanService interface {
	// Public
	GetActivePlans(ctx context.Context) ([]*dto.PlanResponse, error)

	// User
	GetSubscriptionStatus(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error)

	// Admin
	CreatePlan(ctx context.Context, req *dto.CreatePlanRequest) (*dto.PlanResponse, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, req *dto.UpdatePlanRequest) (*dto.PlanResponse, error)
	DeletePlan(ctx context.Context, id uuid.UUID) error
	GetAllPlans(ctx context.Context) ([]*dto.PlanResponse, error)
}

type planService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewPlanService(uowFactory unitofwork.RepositoryFactory) IPlanService {
	return &planService{uowFactory: uowFactory}
}

func (s *planService) GetActivePlans(ctx context.Context) ([]*dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	plans, err := uow.SubscriptionRepository().FindAllPlans(ctx,
		specification.Filter("is_active", true),
		specification.OrderBy{Field: "sort_order", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		out = append(out, toPlanResponse(plan))
	}
	return out, nil
}

// GetSubscriptionStatus reports the plan a user's chat access is currently
// drawing from. Without an active subscription the user is on the free tier.
func (s *planService) GetSubscriptionStatus(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindActiveByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &dto.SubscriptionStatusResponse{
			PlanName:    "Free",
			PlanSlug:    "free",
			Status:      "none",
			ChatEnabled: true,
		}, nil
	}

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("subscription plan not found")
	}

	return &dto.SubscriptionStatusResponse{
		PlanName:         plan.Name,
		PlanSlug:         plan.Slug,
		Status:           string(sub.Status),
		ChatDailyLimit:   plan.ChatDailyLimit,
		ChatEnabled:      plan.ChatEnabled,
		CurrentPeriodEnd: sub.CurrentPeriodEnd.Format(time.RFC3339),
	}, nil
}

// --- Admin plan management ---

func (s *planService) CreatePlan(ctx context.Context, req *dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.Filter("slug", req.Slug))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("plan slug %q already in use", req.Slug)
	}

	plan := &entity.SubscriptionPlan{
		Id:             uuid.New(),
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		Price:          req.Price,
		BillingPeriod:  entity.BillingPeriod(req.BillingPeriod),
		ChatDailyLimit: req.ChatDailyLimit,
		ChatEnabled:    req.ChatEnabled,
		IsActive:       true,
		SortOrder:      req.SortOrder,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := uow.SubscriptionRepository().CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return toPlanResponse(plan), nil
}

func (s *planService) UpdatePlan(ctx context.Context, id uuid.UUID, req *dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("plan not found")
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.ChatDailyLimit != nil {
		plan.ChatDailyLimit = *req.ChatDailyLimit
	}
	if req.ChatEnabled != nil {
		plan.ChatEnabled = *req.ChatEnabled
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		plan.SortOrder = *req.SortOrder
	}
	plan.UpdatedAt = time.Now()

	if err := uow.SubscriptionRepository().UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return toPlanResponse(plan), nil
}

// DeletePlan refuses to remove a plan that still backs active subscriptions;
// deactivate it instead so existing subscribers keep their quota.
func (s *planService) DeletePlan(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("plan not found")
	}

	active, err := uow.SubscriptionRepository().FindAllSubscriptions(ctx,
		specification.Filter("plan_id", id),
		specification.Filter("status", string(entity.SubscriptionStatusActive)),
	)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return fmt.Errorf("plan has %d active subscribers", len(active))
	}

	return uow.SubscriptionRepository().DeletePlan(ctx, id)
}

func (s *planService) GetAllPlans(ctx context.Context) ([]*dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	plans, err := uow.SubscriptionRepository().FindAllPlans(ctx,
		specification.OrderBy{Field: "sort_order", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		out = append(out, toPlanResponse(plan))
	}
	return out, nil
}

func toPlanResponse(plan *entity.SubscriptionPlan) *dto.PlanResponse {
	return &dto.PlanResponse{
		Id:             plan.Id,
		Name:           plan.Name,
		Slug:           plan.Slug,
		Price:          plan.Price,
		BillingPeriod:  string(plan.BillingPeriod),
		Description:    plan.Description,
		ChatDailyLimit: plan.ChatDailyLimit,
		ChatEnabled:    plan.ChatEnabled,
	}
}
