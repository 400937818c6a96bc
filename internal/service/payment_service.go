// FILE: internal/service/payment_service.go
package service

import (
	"context"
	"crypto/sha512"
	"fmt"
	"time"

	"examcraft-be/internal/config"
	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/pkg/logger"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/events"
	pktNats "examcraft-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

type IPaymentService interface {
	Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error
	CancelSubscription(ctx context.Context, userId uuid.UUID) error
}

type paymentService struct {
	uowFactory     unitofwork.RepositoryFactory
	paymentConfig  config.PaymentConfig
	clientURL      string
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
	snapClient     snap.Client
}

func NewPaymentService(
	uowFactory unitofwork.RepositoryFactory,
	paymentConfig config.PaymentConfig,
	clientURL string,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IPaymentService {
	env := midtrans.Sandbox
	if paymentConfig.MidtransEnv == "production" {
		env = midtrans.Production
	}

	var client snap.Client
	client.New(paymentConfig.MidtransServerKey, env)

	return &paymentService{
		uowFactory:     uowFactory,
		paymentConfig:  paymentConfig,
		clientURL:      clientURL,
		eventPublisher: eventPublisher,
		logger:         log,
		snapClient:     client,
	}
}

// Checkout creates a pending subscription and a midtrans snap transaction
// for it. The subscription only activates when the webhook confirms payment.
func (s *paymentService) Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: req.PlanId})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("plan not found")
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("plan is no longer offered")
	}
	if plan.Price <= 0 {
		return nil, fmt.Errorf("free plans need no checkout")
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	existing, err := uow.SubscriptionRepository().FindActiveByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.PlanId == plan.Id {
		return nil, fmt.Errorf("already subscribed to this plan")
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)
	if plan.BillingPeriod == entity.BillingPeriodYearly {
		periodEnd = now.AddDate(1, 0, 0)
	}

	sub := &entity.UserSubscription{
		Id:                 uuid.New(),
		UserId:             userId,
		PlanId:             plan.Id,
		Status:             entity.SubscriptionStatusInactive,
		PaymentStatus:      entity.PaymentStatusPending,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uow.SubscriptionRepository().CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	grossAmount := int64(plan.Price * (1 + plan.TaxRate))
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  sub.Id.String(),
			GrossAmt: grossAmount,
		},
		CreditCard: &snap.CreditCardDetails{Secure: true},
		Callbacks: &snap.Callbacks{
			Finish: fmt.Sprintf("%s/account?payment=finished", s.clientURL),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.FirstName,
			LName: req.LastName,
			Email: req.Email,
			Phone: req.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    plan.Id.String(),
				Price: grossAmount,
				Qty:   1,
				Name:  fmt.Sprintf("%s (%s)", plan.Name, plan.BillingPeriod),
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	snapResp, midErr := s.snapClient.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, fmt.Errorf("payment gateway error: %v", midErr.GetMessage())
	}

	orderId := sub.Id.String()
	sub.MidtransOrderId = &orderId
	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("payment", "checkout created", map[string]interface{}{
		"user_id": userId.String(),
		"plan":    plan.Slug,
		"order":   orderId,
	})
	return &dto.CheckoutResponse{
		SubscriptionId:  sub.Id,
		SnapToken:       snapResp.Token,
		SnapRedirectUrl: snapResp.RedirectURL,
	}, nil
}

// HandleNotification processes the midtrans webhook. The signature is
// SHA512(order_id + status_code + gross_amount + server_key); anything that
// fails it is dropped.
func (s *paymentService) HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error {
	if s.paymentConfig.MidtransServerKey == "" {
		return fmt.Errorf("payment gateway not configured")
	}

	signatureInput := req.OrderId + req.StatusCode + req.GrossAmount + s.paymentConfig.MidtransServerKey
	expected := fmt.Sprintf("%x", sha512.Sum512([]byte(signatureInput)))
	if req.SignatureKey != expected {
		s.logger.Warn("payment", "webhook signature mismatch", map[string]interface{}{
			"order": req.OrderId,
		})
		return fmt.Errorf("invalid signature")
	}

	subId, err := uuid.Parse(req.OrderId)
	if err != nil {
		return fmt.Errorf("invalid order id")
	}

	var newStatus entity.SubscriptionStatus
	var newPaymentStatus entity.PaymentStatus
	switch req.TransactionStatus {
	case "capture", "settlement":
		newStatus = entity.SubscriptionStatusActive
		newPaymentStatus = entity.PaymentStatusPaid
	case "deny", "cancel", "expire":
		newStatus = entity.SubscriptionStatusInactive
		newPaymentStatus = entity.PaymentStatusFailed
	case "pending":
		return nil
	default:
		s.logger.Warn("payment", "unknown transaction status", map[string]interface{}{
			"order":  req.OrderId,
			"status": req.TransactionStatus,
		})
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx, specification.ByID{ID: subId})
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("subscription not found")
	}

	// Webhooks retry; an already-applied status is not an error.
	if sub.Status == newStatus && sub.PaymentStatus == newPaymentStatus {
		return nil
	}
	activated := sub.Status != entity.SubscriptionStatusActive && newStatus == entity.SubscriptionStatusActive

	sub.Status = newStatus
	sub.PaymentStatus = newPaymentStatus
	if req.TransactionId != "" {
		sub.MidtransTransactionId = &req.TransactionId
	}
	sub.UpdatedAt = time.Now()

	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.logger.Info("payment", "webhook processed", map[string]interface{}{
		"order":      req.OrderId,
		"status":     string(newStatus),
		"payment":    string(newPaymentStatus),
		"transition": req.TransactionStatus,
	})

	if activated && s.eventPublisher != nil {
		plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
		planName := ""
		if err == nil && plan != nil {
			planName = plan.Name
		}
		event := events.NewSubscriptionActivatedEvent(sub.UserId, sub.PlanId, planName)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("payment", "failed to publish activation event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return nil
}

// CancelSubscription stops renewal. Access holds until the end of the paid
// period; the quota chain treats a canceled subscription as inactive only
// after CurrentPeriodEnd passes.
func (s *paymentService) CancelSubscription(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindActiveByUserId(ctx, userId)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("no active subscription")
	}

	sub.Status = entity.SubscriptionStatusCanceled
	sub.UpdatedAt = time.Now()
	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return err
	}

	s.logger.Info("payment", "subscription canceled", map[string]interface{}{
		"user_id": userId.String(),
	})
	return nil
}
