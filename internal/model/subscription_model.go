package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionPlan struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string         `gorm:"type:varchar(100);not null"`
	Slug           string         `gorm:"type:varchar(100);uniqueIndex;not null"`
	Description    string         `gorm:"type:text"`
	Price          float64        `gorm:"type:decimal(12,2);default:0"`
	TaxRate        float64        `gorm:"type:decimal(5,4);default:0"`
	BillingPeriod  string         `gorm:"type:varchar(20);default:'monthly'"`
	ChatDailyLimit int            `gorm:"default:0"`
	ChatEnabled    bool           `gorm:"default:false"`
	IsActive       bool           `gorm:"default:true"`
	SortOrder      int            `gorm:"default:0"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

type UserSubscription struct {
	Id                    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId                uuid.UUID `gorm:"type:uuid;not null;index"`
	PlanId                uuid.UUID `gorm:"type:uuid;not null;index"`
	Status                string    `gorm:"type:varchar(50);not null;default:'inactive'"`
	CurrentPeriodStart    time.Time
	CurrentPeriodEnd      time.Time
	PaymentStatus         string  `gorm:"type:varchar(50);not null;default:'pending'"`
	MidtransOrderId       *string `gorm:"type:varchar(100);index"`
	MidtransTransactionId *string `gorm:"type:varchar(100)"`
	CreatedAt             time.Time      `gorm:"autoCreateTime"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime"`
	DeletedAt             gorm.DeletedAt `gorm:"index"`
}

func (UserSubscription) TableName() string {
	return "user_subscriptions"
}
