// FILE: internal/service/user_service.go
package service

import (
	"context"
	"fmt"

	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/rag/access"

	"github.com/google/uuid"
)

type IUserService interface {
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) error
	DeleteAccount(ctx context.Context, userId uuid.UUID) error
	GetChatQuota(ctx context.Context, userId uuid.UUID) (*dto.ChatQuotaResponse, error)
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
	verifier   *access.Verifier
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, verifier *access.Verifier) IUserService {
	return &userService{
		uowFactory: uowFactory,
		verifier:   verifier,
	}
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().GetByIdWithAvatar(ctx, userId)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	limit, err := s.verifier.EffectiveLimit(ctx, uow, userId)
	if err != nil {
		return nil, err
	}
	return toUserProfileResponse(user, limit), nil
}

func toUserProfileResponse(user *entity.User, chatDailyLimit int) *dto.UserProfileResponse {
	avatarURL := ""
	if user.AvatarURL != nil {
		avatarURL = *user.AvatarURL
	}
	return &dto.UserProfileResponse{
		Id:             user.Id,
		Email:          user.Email,
		FullName:       user.FullName,
		Role:           string(user.Role),
		Status:         string(user.Status),
		AvatarURL:      avatarURL,
		ChatDailyUsage: user.ChatDailyUsage,
		ChatDailyLimit: chatDailyLimit,
		CreatedAt:      user.CreatedAt,
	}
}

func (s *userService) UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	repo := uow.UserRepository()
	user, err := repo.FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user not found")
	}

	user.FullName = req.FullName
	return repo.Update(ctx, user)
}

func (s *userService) DeleteAccount(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.UserRepository().Delete(ctx, userId)
}

func (s *userService) GetChatQuota(ctx context.Context, userId uuid.UUID) (*dto.ChatQuotaResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	result, err := s.verifier.Peek(ctx, uow, userId)
	if err != nil {
		return nil, err
	}

	return &dto.ChatQuotaResponse{
		Limit:     result.Limit,
		Used:      result.Used,
		Remaining: result.Remaining,
		ResetsAt:  result.ResetsAt,
	}, nil
}
