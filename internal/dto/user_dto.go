package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserProfileResponse struct {
	Id             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	ChatDailyUsage int       `json:"chat_daily_usage"`
	ChatDailyLimit int       `json:"chat_daily_limit"`
	CreatedAt      time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required,min=3"`
	Email    string `json:"email" validate:"omitempty,email"`
}
