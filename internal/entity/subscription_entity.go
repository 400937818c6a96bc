package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string
type PaymentStatus string
type BillingPeriod string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"

	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodYearly  BillingPeriod = "yearly"
)

// SubscriptionPlan gates the tutoring chat. Free and premium differ only in
// the daily turn quota; limit -1 means unlimited, 0 means disabled.
type SubscriptionPlan struct {
	Id             uuid.UUID
	Name           string
	Slug           string
	Description    string
	Price          float64
	TaxRate        float64
	BillingPeriod  BillingPeriod
	ChatDailyLimit int
	ChatEnabled    bool
	IsActive       bool
	SortOrder      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type UserSubscription struct {
	Id                    uuid.UUID
	UserId                uuid.UUID
	PlanId                uuid.UUID
	Status                SubscriptionStatus
	CurrentPeriodStart    time.Time
	CurrentPeriodEnd      time.Time
	PaymentStatus         PaymentStatus
	MidtransOrderId       *string
	MidtransTransactionId *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
