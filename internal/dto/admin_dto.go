package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- User Management ---

type AdminUserListRequest struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Search string `query:"search"`
	Role   string `query:"role"`
	Status string `query:"status"`
}

type UserListResponse struct {
	Id        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type PaginatedResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type UpdateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active blocked"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student instructor admin"`
}

// OverrideChatQuotaRequest raises or lowers one user's daily chat limit
// without touching their plan. Limit -1 removes the override.
type OverrideChatQuotaRequest struct {
	Limit int `json:"limit" validate:"min=-1,max=10000"`
}

type ChatUsageResponse struct {
	UserId         uuid.UUID `json:"user_id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	PlanName       string    `json:"plan_name"`
	ChatDailyUsage int       `json:"chat_daily_usage"`
	ChatDailyLimit int       `json:"chat_daily_limit"`
	LastReset      time.Time `json:"last_reset"`
	HasOverride    bool      `json:"has_override"`
}

// --- Dashboard ---

type DashboardStatsResponse struct {
	TotalUsers        int64 `json:"total_users"`
	TotalStudents     int64 `json:"total_students"`
	TotalInstructors  int64 `json:"total_instructors"`
	TotalDocuments    int64 `json:"total_documents"`
	TotalChunks       int64 `json:"total_chunks"`
	TotalPapers       int64 `json:"total_papers"`
	PublishedPapers   int64 `json:"published_papers"`
	TotalAttempts     int64 `json:"total_attempts"`
	AttemptsToday     int64 `json:"attempts_today"`
	ChatTurnsToday    int64 `json:"chat_turns_today"`
	ActiveSubscribers int64 `json:"active_subscribers"`
}

type UserGrowthStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// --- System Logs ---

// LogListResponse uses string ids because log entries are identified by
// content hash, not by database row.
type LogListResponse struct {
	Id        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Caller    string    `json:"caller,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type LogDetailResponse struct {
	LogListResponse
	Stacktrace string                 `json:"stacktrace,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// --- Transactions ---

type TransactionListResponse struct {
	Id              uuid.UUID `json:"id"`
	UserId          uuid.UUID `json:"user_id"`
	UserEmail       string    `json:"user_email"`
	PlanName        string    `json:"plan_name"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	TransactionDate time.Time `json:"transaction_date"`
	MidtransOrderId *string   `json:"midtrans_order_id"`
}
