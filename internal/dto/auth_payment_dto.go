package dto

import (
	"github.com/google/uuid"
)

// --- Auth DTOs ---

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=student instructor"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required,len=6"`
}

type RegisterResponse struct {
	Id    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type LoginResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token,omitempty"`
	User         UserDTO `json:"user"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UserDTO struct {
	Id       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// --- Payment DTOs ---

type PlanResponse struct {
	Id             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Price          float64   `json:"price"`
	BillingPeriod  string    `json:"billing_period"`
	Description    string    `json:"description"`
	ChatDailyLimit int       `json:"chat_daily_limit"`
	ChatEnabled    bool      `json:"chat_enabled"`
}

type CreatePlanRequest struct {
	Name           string  `json:"name" validate:"required,min=2,max=100"`
	Slug           string  `json:"slug" validate:"required,min=2,max=50,lowercase"`
	Description    string  `json:"description" validate:"omitempty,max=500"`
	Price          float64 `json:"price" validate:"min=0"`
	BillingPeriod  string  `json:"billing_period" validate:"required,oneof=monthly yearly"`
	ChatDailyLimit int     `json:"chat_daily_limit" validate:"min=-1"`
	ChatEnabled    bool    `json:"chat_enabled"`
	SortOrder      int     `json:"sort_order"`
}

type UpdatePlanRequest struct {
	Name           *string  `json:"name" validate:"omitempty,min=2,max=100"`
	Description    *string  `json:"description" validate:"omitempty,max=500"`
	Price          *float64 `json:"price" validate:"omitempty,min=0"`
	ChatDailyLimit *int     `json:"chat_daily_limit" validate:"omitempty,min=-1"`
	ChatEnabled    *bool    `json:"chat_enabled"`
	IsActive       *bool    `json:"is_active"`
	SortOrder      *int     `json:"sort_order"`
}

type CheckoutRequest struct {
	PlanId    uuid.UUID `json:"plan_id" validate:"required"`
	FirstName string    `json:"first_name" validate:"required"`
	LastName  string    `json:"last_name" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     string    `json:"phone" validate:"omitempty"`
}

type CheckoutResponse struct {
	SubscriptionId  uuid.UUID `json:"subscription_id"`
	SnapRedirectUrl string    `json:"snap_redirect_url"`
	SnapToken       string    `json:"snap_token"`
}

type MidtransWebhookRequest struct {
	TransactionStatus string `json:"transaction_status"`
	OrderId           string `json:"order_id"`
	TransactionId     string `json:"transaction_id"`
	FraudStatus       string `json:"fraud_status"`
	SignatureKey      string `json:"signature_key"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
}

type SubscriptionStatusResponse struct {
	PlanName         string `json:"plan_name"`
	PlanSlug         string `json:"plan_slug"`
	Status           string `json:"status"`
	ChatDailyLimit   int    `json:"chat_daily_limit"`
	ChatEnabled      bool   `json:"chat_enabled"`
	CurrentPeriodEnd string `json:"current_period_end,omitempty"`
}
